package repository

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/possibull/possiblejourney-sub000/models"

	"gorm.io/gorm"
)

// TemplateRepository manages program templates and their task lists.
type TemplateRepository interface {
	GetByID(templateID string) (*models.ProgramTemplate, error)
	List() ([]*models.ProgramTemplate, error)
	Create(template *models.ProgramTemplate) error
	SeedDefaults() error
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new instance of TemplateRepository.
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

// GetByID retrieves a template by ID with its tasks preloaded, ordered by
// sort order. Returns (nil, nil) when not found.
func (r *templateRepository) GetByID(templateID string) (*models.ProgramTemplate, error) {
	var template models.ProgramTemplate
	err := r.db.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc, created_at asc")
	}).First(&template, "id = ?", templateID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("INFO: [TemplateRepository] Template %s not found.", templateID)
			return nil, nil
		}
		log.Printf("ERROR: [TemplateRepository] Failed to retrieve template %s: %v", templateID, err)
		return nil, fmt.Errorf("failed to retrieve template %s: %w", templateID, err)
	}
	return &template, nil
}

// List retrieves all templates with their tasks preloaded.
func (r *templateRepository) List() ([]*models.ProgramTemplate, error) {
	var templates []*models.ProgramTemplate
	err := r.db.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc, created_at asc")
	}).Order("created_at asc").Find(&templates).Error
	if err != nil {
		log.Printf("ERROR: [TemplateRepository] Failed to list templates: %v", err)
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// Create persists a template together with its tasks.
func (r *templateRepository) Create(template *models.ProgramTemplate) error {
	if template == nil {
		log.Printf("ERROR: [TemplateRepository] Create: template cannot be nil")
		return errors.New("template cannot be nil")
	}
	if err := r.db.Create(template).Error; err != nil {
		log.Printf("ERROR: [TemplateRepository] Failed to create template '%s': %v", template.Name, err)
		return fmt.Errorf("failed to create template '%s': %w", template.Name, err)
	}
	log.Printf("INFO: [TemplateRepository] Successfully created template ID %s ('%s') with %d tasks.", template.ID, template.Name, len(template.Tasks))
	return nil
}

// SeedDefaults inserts the built-in templates if no default template exists
// yet. Safe to call on every startup.
func (r *templateRepository) SeedDefaults() error {
	var count int64
	if err := r.db.Model(&models.ProgramTemplate{}).Where("is_default = ?", true).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count default templates: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, template := range defaultTemplates() {
		if err := r.Create(template); err != nil {
			return err
		}
	}
	log.Printf("INFO: [TemplateRepository] Seeded default templates.")
	return nil
}

func defaultTemplates() []*models.ProgramTemplate {
	hardID := uuid.NewString()
	hard := &models.ProgramTemplate{
		ID:              hardID,
		Name:            "75 Hard",
		Description:     "The classic 75-day mental toughness challenge",
		Category:        models.TemplateCategoryHealth,
		DefaultDayCount: 75,
		IsDefault:       true,
		Tasks: []models.Task{
			{ID: uuid.NewString(), TemplateID: hardID, Title: "Drink 1 gallon of water", TaskType: models.TaskTypeMaintenance, SortOrder: 0},
			{ID: uuid.NewString(), TemplateID: hardID, Title: "Two 45-minute workouts", TaskType: models.TaskTypeGrowth, SortOrder: 1},
			{ID: uuid.NewString(), TemplateID: hardID, Title: "Read 10 pages of nonfiction", TaskType: models.TaskTypeGrowth, SortOrder: 2},
			{ID: uuid.NewString(), TemplateID: hardID, Title: "Follow a diet", TaskType: models.TaskTypeMaintenance, SortOrder: 3},
			{ID: uuid.NewString(), TemplateID: hardID, Title: "Take a progress photo", RequiresPhoto: true, TaskType: models.TaskTypeMaintenance, SortOrder: 4},
		},
	}
	return []*models.ProgramTemplate{hard}
}
