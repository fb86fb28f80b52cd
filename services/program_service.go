package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/possibull/possiblejourney-sub000/config"
	"github.com/possibull/possiblejourney-sub000/models"
	"github.com/possibull/possiblejourney-sub000/repository"
)

const (
	taskTitleMinLength       = 3
	taskTitleMaxLength       = 50
	taskDescriptionMaxLength = 100
)

// ProgramService manages the lifecycle of the single active program and the
// template catalog it is instantiated from.
type ProgramService interface {
	StartProgram(templateID string, startDate time.Time, endOfDayHour, endOfDayMinute int, customDayCount *int) (*models.Program, error)
	CurrentProgram() (*models.Program, error)
	ResetProgram() error
	TotalDayCount(program *models.Program) (int, error)
	ListTemplates() ([]*models.ProgramTemplate, error)
	CreateTemplate(template *models.ProgramTemplate) (*models.ProgramTemplate, error)
}

type programService struct {
	programRepo  repository.ProgramRepository
	templateRepo repository.TemplateRepository
	progressRepo repository.DailyProgressRepository
	dayService   DayService
}

// NewProgramService creates a new instance of ProgramService.
func NewProgramService(programRepo repository.ProgramRepository, templateRepo repository.TemplateRepository, progressRepo repository.DailyProgressRepository, dayService DayService) ProgramService {
	return &programService{
		programRepo:  programRepo,
		templateRepo: templateRepo,
		progressRepo: progressRepo,
		dayService:   dayService,
	}
}

// StartProgram instantiates a new program from a template. Any existing
// program is replaced, along with its progress history.
func (s *programService) StartProgram(templateID string, startDate time.Time, endOfDayHour, endOfDayMinute int, customDayCount *int) (*models.Program, error) {
	if endOfDayHour < 0 || endOfDayHour > 23 {
		return nil, fmt.Errorf("end-of-day hour %d out of range", endOfDayHour)
	}
	if endOfDayMinute < 0 || endOfDayMinute > 59 {
		return nil, fmt.Errorf("end-of-day minute %d out of range", endOfDayMinute)
	}
	if customDayCount != nil && *customDayCount <= 0 {
		return nil, errors.New("custom day count must be positive")
	}

	template, err := s.templateRepo.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, fmt.Errorf("template %s not found", templateID)
	}

	if err := s.ResetProgram(); err != nil {
		return nil, err
	}

	program := &models.Program{
		ID:             uuid.NewString(),
		TemplateID:     templateID,
		StartDate:      StartOfDay(startDate),
		EndOfDayHour:   endOfDayHour,
		EndOfDayMinute: endOfDayMinute,
		CustomDayCount: customDayCount,
	}
	if err := s.programRepo.Save(program); err != nil {
		return nil, err
	}
	log.Printf("INFO: [ProgramService] Started program %s from template '%s' (%d days, end of day %02d:%02d).",
		program.ID, template.Name, program.DayCount(template.DefaultDayCount), endOfDayHour, endOfDayMinute)
	return program, nil
}

// CurrentProgram returns the active program, or (nil, nil) when none exists.
// Loading also clears any session-scoped missed-day override.
func (s *programService) CurrentProgram() (*models.Program, error) {
	program, err := s.programRepo.Load()
	if err != nil {
		return nil, err
	}
	s.dayService.ResetSessionOverride()
	return program, nil
}

// ResetProgram deletes the active program together with its progress records
// and task instances.
func (s *programService) ResetProgram() error {
	program, err := s.programRepo.Load()
	if err != nil {
		return err
	}
	if program == nil {
		return nil
	}
	if err := s.progressRepo.ClearAll(program.ID); err != nil {
		return err
	}
	if err := s.programRepo.Clear(); err != nil {
		return err
	}
	s.dayService.ResetSessionOverride()
	log.Printf("INFO: [ProgramService] Reset program %s.", program.ID)
	return nil
}

// TotalDayCount resolves the program's duration against its template default.
func (s *programService) TotalDayCount(program *models.Program) (int, error) {
	if program == nil {
		return 0, errors.New("program cannot be nil")
	}
	template, err := s.templateRepo.GetByID(program.TemplateID)
	if err != nil {
		return 0, err
	}
	if template == nil {
		return 0, fmt.Errorf("template %s not found", program.TemplateID)
	}
	return program.DayCount(template.DefaultDayCount), nil
}

// ListTemplates returns the full template catalog.
func (s *programService) ListTemplates() ([]*models.ProgramTemplate, error) {
	return s.templateRepo.List()
}

// CreateTemplate validates and persists a custom template with its tasks.
func (s *programService) CreateTemplate(template *models.ProgramTemplate) (*models.ProgramTemplate, error) {
	if template == nil {
		return nil, errors.New("template cannot be nil")
	}
	if strings.TrimSpace(template.Name) == "" {
		return nil, errors.New("template name cannot be empty")
	}
	if len(template.Tasks) == 0 {
		return nil, errors.New("template must contain at least one task")
	}
	if template.DefaultDayCount <= 0 {
		template.DefaultDayCount = config.AppConfig.Program.DefaultDayCount
	}
	if template.DefaultDayCount <= 0 {
		// No configuration loaded (tests construct the service directly).
		template.DefaultDayCount = 75
	}
	if template.ID == "" {
		template.ID = uuid.NewString()
	}

	for i := range template.Tasks {
		task := &template.Tasks[i]
		if err := validateTask(task); err != nil {
			return nil, err
		}
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		task.TemplateID = template.ID
		if task.SortOrder == 0 {
			task.SortOrder = i
		}
	}

	if err := s.templateRepo.Create(template); err != nil {
		return nil, err
	}
	return template, nil
}

func validateTask(task *models.Task) error {
	title := strings.TrimSpace(task.Title)
	if len(title) < taskTitleMinLength || len(title) > taskTitleMaxLength {
		return fmt.Errorf("task title must be between %d and %d characters", taskTitleMinLength, taskTitleMaxLength)
	}
	if len(task.Description) > taskDescriptionMaxLength {
		return fmt.Errorf("task description cannot exceed %d characters", taskDescriptionMaxLength)
	}
	switch task.TaskType {
	case models.TaskTypeGrowth, models.TaskTypeMaintenance, models.TaskTypeRecovery:
	case "":
		task.TaskType = models.TaskTypeGrowth
	default:
		return fmt.Errorf("unknown task type %q", task.TaskType)
	}
	if task.HasRule() {
		if err := task.ProgressRule.Validate(); err != nil {
			return fmt.Errorf("invalid progress rule for task '%s': %w", title, err)
		}
	}
	return nil
}
