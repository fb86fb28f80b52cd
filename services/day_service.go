package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/possibull/possiblejourney-sub000/models"
	"github.com/possibull/possiblejourney-sub000/repository"
	"github.com/possibull/possiblejourney-sub000/utils"
)

// DayService is the day-advancement state machine. The pure operations take
// explicit program snapshots and an explicit now timestamp (the service never
// reads the system clock); the orchestration operations load and persist
// through the repositories on the caller's behalf.
type DayService interface {
	// Pure state-machine operations.
	CurrentActiveDay(program *models.Program) time.Time
	Boundary(program *models.Program, day time.Time) time.Time
	IsDayMissed(program *models.Program, tasks []models.Task, completedTaskIDs map[string]bool, totalDays int, now time.Time, overrideActive bool) bool
	IsProgramComplete(program *models.Program, totalDays int, now time.Time) bool
	AdvanceOnCompletion(program *models.Program, activeDay time.Time) *models.Program
	AdvanceOnMissedAcknowledgement(program *models.Program, activeDay time.Time) *models.Program

	// Orchestration over the storage collaborator.
	DayStatus(now time.Time) (*models.DayStatus, error)
	SaveDayProgress(now time.Time, completedTaskIDs []string) (*models.DayStatus, error)
	CompleteDay(now time.Time) (*models.Program, error)
	AcknowledgeMissedDay(now time.Time) (*models.Program, error)
	ContinueAnyway()
	ResetSessionOverride()
}

type dayService struct {
	programRepo  repository.ProgramRepository
	templateRepo repository.TemplateRepository
	progressRepo repository.DailyProgressRepository

	// The "continue anyway" override suppresses the missed-day signal for the
	// rest of the in-memory session only. It is deliberately not persisted;
	// reloading the program clears it.
	mu             sync.Mutex
	continueAnyway bool
}

// NewDayService creates a new instance of DayService.
func NewDayService(programRepo repository.ProgramRepository, templateRepo repository.TemplateRepository, progressRepo repository.DailyProgressRepository) DayService {
	return &dayService{
		programRepo:  programRepo,
		templateRepo: templateRepo,
		progressRepo: progressRepo,
	}
}

// CurrentActiveDay returns the calendar day whose tasks are currently open:
// the day after the last completed day, or the start date when nothing has
// been completed yet.
func (s *dayService) CurrentActiveDay(program *models.Program) time.Time {
	return activeDayFor(program)
}

// Boundary returns the closing instant of the given calendar day under the
// program's end-of-day setting.
func (s *dayService) Boundary(program *models.Program, day time.Time) time.Time {
	return ResolverForProgram(program).EndOfDay(day)
}

// IsDayMissed reports whether the active day's boundary has passed with
// incomplete tasks. Days outside [1, totalDays] are never missed (temporal
// range errors resolve to a not-applicable false). Once true for a given
// incomplete task set, the result stays true for any later now.
func (s *dayService) IsDayMissed(program *models.Program, tasks []models.Task, completedTaskIDs map[string]bool, totalDays int, now time.Time, overrideActive bool) bool {
	if overrideActive {
		return false
	}
	activeDay := s.CurrentActiveDay(program)
	index := AppDayIndex(activeDay, program.StartDate)
	if index < 1 || index > totalDays {
		return false
	}
	if !now.Before(s.Boundary(program, activeDay)) {
		return !allTasksCompleted(tasks, completedTaskIDs)
	}
	return false
}

// IsProgramComplete reports whether the program's length is exhausted: no day
// transitions occur once now falls past the final program day.
func (s *dayService) IsProgramComplete(program *models.Program, totalDays int, now time.Time) bool {
	return AppDayIndex(now, program.StartDate) > totalDays
}

// AdvanceOnCompletion returns a copy of the program advanced past activeDay.
// The caller persists the result.
func (s *dayService) AdvanceOnCompletion(program *models.Program, activeDay time.Time) *models.Program {
	advanced := *program
	day := StartOfDay(activeDay)
	if day.Before(StartOfDay(program.StartDate)) {
		// Preserve the lastCompletedDay >= startDate invariant.
		day = StartOfDay(program.StartDate)
	}
	advanced.LastCompletedDay = &day
	return &advanced
}

// AdvanceOnMissedAcknowledgement advances past a missed day exactly like a
// completion. The program is intentionally not reset: history is preserved
// and progress is unblocked.
func (s *dayService) AdvanceOnMissedAcknowledgement(program *models.Program, activeDay time.Time) *models.Program {
	return s.AdvanceOnCompletion(program, activeDay)
}

// DayStatus assembles the full day-machine snapshot for now.
func (s *dayService) DayStatus(now time.Time) (*models.DayStatus, error) {
	program, template, err := s.loadProgramAndTemplate()
	if err != nil {
		return nil, err
	}

	totalDays := program.DayCount(template.DefaultDayCount)
	activeDay := s.CurrentActiveDay(program)

	completed := map[string]bool{}
	var completedIDs []string
	progress, err := s.progressRepo.LoadForDay(program.ID, activeDay)
	if err != nil {
		return nil, err
	}
	if progress != nil {
		completed = progress.CompletedSet()
		completedIDs = progress.CompletedTaskIDs
	}

	s.mu.Lock()
	override := s.continueAnyway
	s.mu.Unlock()

	status := &models.DayStatus{
		AppDay:           AppDayIndex(now, program.StartDate),
		TotalDays:        totalDays,
		ActiveDay:        activeDay,
		Boundary:         s.Boundary(program, activeDay),
		Missed:           s.IsDayMissed(program, template.Tasks, completed, totalDays, now, override),
		ProgramComplete:  s.IsProgramComplete(program, totalDays, now),
		CompletedTaskIDs: completedIDs,
		TotalTasks:       len(template.Tasks),
	}
	return status, nil
}

// SaveDayProgress records which tasks are checked off for the active day and
// returns the refreshed status.
func (s *dayService) SaveDayProgress(now time.Time, completedTaskIDs []string) (*models.DayStatus, error) {
	program, _, err := s.loadProgramAndTemplate()
	if err != nil {
		return nil, err
	}
	activeDay := s.CurrentActiveDay(program)
	if _, err := s.progressRepo.SaveForDay(program.ID, activeDay, completedTaskIDs); err != nil {
		return nil, err
	}
	return s.DayStatus(now)
}

// CompleteDay closes out the active day after all tasks are completed and
// advances the machine by one day.
func (s *dayService) CompleteDay(now time.Time) (*models.Program, error) {
	program, template, err := s.loadProgramAndTemplate()
	if err != nil {
		return nil, err
	}
	totalDays := program.DayCount(template.DefaultDayCount)
	if s.IsProgramComplete(program, totalDays, now) {
		return nil, errors.New("program is already complete")
	}

	activeDay := s.CurrentActiveDay(program)
	progress, err := s.progressRepo.LoadForDay(program.ID, activeDay)
	if err != nil {
		return nil, err
	}
	completed := map[string]bool{}
	if progress != nil {
		completed = progress.CompletedSet()
	}
	if !allTasksCompleted(template.Tasks, completed) {
		return nil, errors.New("not all tasks are completed for the active day")
	}

	advanced := s.AdvanceOnCompletion(program, activeDay)
	if err := s.programRepo.Save(advanced); err != nil {
		return nil, err
	}
	log.Printf("INFO: [DayService] Day %d completed; advanced to %s.", AppDayIndex(activeDay, program.StartDate), utils.FormatDay(s.CurrentActiveDay(advanced)))
	return advanced, nil
}

// AcknowledgeMissedDay advances past the active day after the user confirms
// they missed it.
func (s *dayService) AcknowledgeMissedDay(now time.Time) (*models.Program, error) {
	program, template, err := s.loadProgramAndTemplate()
	if err != nil {
		return nil, err
	}
	totalDays := program.DayCount(template.DefaultDayCount)
	if s.IsProgramComplete(program, totalDays, now) {
		return nil, errors.New("program is already complete")
	}

	activeDay := s.CurrentActiveDay(program)
	advanced := s.AdvanceOnMissedAcknowledgement(program, activeDay)
	if err := s.programRepo.Save(advanced); err != nil {
		return nil, err
	}
	log.Printf("INFO: [DayService] Day %d acknowledged as missed; advanced to %s.", AppDayIndex(activeDay, program.StartDate), utils.FormatDay(s.CurrentActiveDay(advanced)))
	return advanced, nil
}

// ContinueAnyway suppresses the missed-day signal for the rest of this
// session without mutating the program.
func (s *dayService) ContinueAnyway() {
	s.mu.Lock()
	s.continueAnyway = true
	s.mu.Unlock()
	log.Printf("INFO: [DayService] Missed-day signal suppressed for this session.")
}

// ResetSessionOverride clears the continue-anyway override, as happens on a
// program reload.
func (s *dayService) ResetSessionOverride() {
	s.mu.Lock()
	s.continueAnyway = false
	s.mu.Unlock()
}

func (s *dayService) loadProgramAndTemplate() (*models.Program, *models.ProgramTemplate, error) {
	program, err := s.programRepo.Load()
	if err != nil {
		return nil, nil, err
	}
	if program == nil {
		return nil, nil, errors.New("no active program")
	}
	template, err := s.templateRepo.GetByID(program.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	if template == nil {
		return nil, nil, fmt.Errorf("template %s for active program not found", program.TemplateID)
	}
	return program, template, nil
}

// activeDayFor is the shared active-day rule: the day after the last completed
// day, or the start date when nothing has been completed yet. Evaluation uses
// it too, so measurement windows and day transitions agree on which day is open.
func activeDayFor(program *models.Program) time.Time {
	if program.LastCompletedDay != nil {
		return StartOfDay(*program.LastCompletedDay).AddDate(0, 0, 1)
	}
	return StartOfDay(program.StartDate)
}

func allTasksCompleted(tasks []models.Task, completed map[string]bool) bool {
	for i := range tasks {
		if !completed[tasks[i].ID] {
			return false
		}
	}
	return true
}
