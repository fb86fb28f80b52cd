package repository

import (
	"errors"
	"fmt"
	"log"

	"github.com/possibull/possiblejourney-sub000/models"

	"gorm.io/gorm"
)

// ProgramRepository is the storage collaborator for the single active program.
type ProgramRepository interface {
	Load() (*models.Program, error)
	Save(program *models.Program) error
	Clear() error
}

type programRepository struct {
	db *gorm.DB
}

// NewProgramRepository creates a new instance of ProgramRepository.
func NewProgramRepository(db *gorm.DB) ProgramRepository {
	return &programRepository{db: db}
}

// Load retrieves the active program, or (nil, nil) when none exists.
func (r *programRepository) Load() (*models.Program, error) {
	var program models.Program
	err := r.db.Order("created_at desc").First(&program).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("INFO: [ProgramRepository] No active program found.")
			return nil, nil
		}
		log.Printf("ERROR: [ProgramRepository] Failed to load program: %v", err)
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	return &program, nil
}

// Save persists the program (create or update).
func (r *programRepository) Save(program *models.Program) error {
	if program == nil {
		log.Printf("ERROR: [ProgramRepository] Save: program cannot be nil")
		return errors.New("program cannot be nil")
	}
	if program.ID == "" {
		log.Printf("ERROR: [ProgramRepository] Save: program ID must be set")
		return errors.New("program ID must be set")
	}
	if err := r.db.Save(program).Error; err != nil {
		log.Printf("ERROR: [ProgramRepository] Failed to save program ID %s: %v", program.ID, err)
		return fmt.Errorf("failed to save program ID %s: %w", program.ID, err)
	}
	log.Printf("INFO: [ProgramRepository] Successfully saved program ID %s.", program.ID)
	return nil
}

// Clear removes the active program entirely.
func (r *programRepository) Clear() error {
	if err := r.db.Where("1 = 1").Delete(&models.Program{}).Error; err != nil {
		log.Printf("ERROR: [ProgramRepository] Failed to clear program: %v", err)
		return fmt.Errorf("failed to clear program: %w", err)
	}
	log.Printf("INFO: [ProgramRepository] Cleared active program.")
	return nil
}
