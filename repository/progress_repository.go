package repository

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/possibull/possiblejourney-sub000/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DailyProgressRepository stores per-day task check-off state and recorded
// task-instance outcomes.
type DailyProgressRepository interface {
	SaveForDay(programID string, day time.Time, completedTaskIDs []string) (*models.DailyProgress, error)
	LoadForDay(programID string, day time.Time) (*models.DailyProgress, error)
	ClearAll(programID string) error
	RecordTaskInstance(instance *models.TaskInstance) error
	ListTaskInstances(programID string, appDay int) ([]*models.TaskInstance, error)
}

type dailyProgressRepository struct {
	db *gorm.DB
}

// NewDailyProgressRepository creates a new instance of DailyProgressRepository.
func NewDailyProgressRepository(db *gorm.DB) DailyProgressRepository {
	return &dailyProgressRepository{db: db}
}

// SaveForDay upserts the completed-task set for one app day. Saving the same
// day twice overwrites, so repeated saves with identical input are idempotent.
func (r *dailyProgressRepository) SaveForDay(programID string, day time.Time, completedTaskIDs []string) (*models.DailyProgress, error) {
	if programID == "" {
		return nil, errors.New("program ID must be set")
	}
	dayKey := startOfDay(day)

	var progress models.DailyProgress
	err := r.db.First(&progress, "program_id = ? AND date = ?", programID, dayKey).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("ERROR: [DailyProgressRepository] Failed to look up progress for %s: %v", dayKey.Format("2006-01-02"), err)
			return nil, fmt.Errorf("failed to look up daily progress: %w", err)
		}
		progress = models.DailyProgress{ID: uuid.NewString(), ProgramID: programID, Date: dayKey}
	}
	progress.CompletedTaskIDs = datatypes.JSONSlice[string](completedTaskIDs)

	if err := r.db.Save(&progress).Error; err != nil {
		log.Printf("ERROR: [DailyProgressRepository] Failed to save progress for %s: %v", dayKey.Format("2006-01-02"), err)
		return nil, fmt.Errorf("failed to save daily progress: %w", err)
	}
	log.Printf("INFO: [DailyProgressRepository] Saved progress for %s (%d tasks completed).", dayKey.Format("2006-01-02"), len(completedTaskIDs))
	return &progress, nil
}

// LoadForDay retrieves the progress record for one app day, or (nil, nil).
func (r *dailyProgressRepository) LoadForDay(programID string, day time.Time) (*models.DailyProgress, error) {
	var progress models.DailyProgress
	err := r.db.First(&progress, "program_id = ? AND date = ?", programID, startOfDay(day)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("ERROR: [DailyProgressRepository] Failed to load progress for %s: %v", startOfDay(day).Format("2006-01-02"), err)
		return nil, fmt.Errorf("failed to load daily progress: %w", err)
	}
	return &progress, nil
}

// ClearAll removes all progress records and task instances for a program.
func (r *dailyProgressRepository) ClearAll(programID string) error {
	if err := r.db.Where("program_id = ?", programID).Delete(&models.DailyProgress{}).Error; err != nil {
		log.Printf("ERROR: [DailyProgressRepository] Failed to clear progress for program %s: %v", programID, err)
		return fmt.Errorf("failed to clear daily progress: %w", err)
	}
	if err := r.db.Where("program_id = ?", programID).Delete(&models.TaskInstance{}).Error; err != nil {
		log.Printf("ERROR: [DailyProgressRepository] Failed to clear task instances for program %s: %v", programID, err)
		return fmt.Errorf("failed to clear task instances: %w", err)
	}
	log.Printf("INFO: [DailyProgressRepository] Cleared all progress for program %s.", programID)
	return nil
}

// RecordTaskInstance persists one task outcome.
func (r *dailyProgressRepository) RecordTaskInstance(instance *models.TaskInstance) error {
	if instance == nil {
		return errors.New("task instance cannot be nil")
	}
	if err := r.db.Create(instance).Error; err != nil {
		log.Printf("ERROR: [DailyProgressRepository] Failed to record task instance for task %s: %v", instance.TaskID, err)
		return fmt.Errorf("failed to record task instance for task %s: %w", instance.TaskID, err)
	}
	log.Printf("INFO: [DailyProgressRepository] Recorded task instance ID %s (task %s, day %d, status %s).", instance.ID, instance.TaskID, instance.AppDay, instance.Status)
	return nil
}

// ListTaskInstances retrieves recorded outcomes for one app day.
func (r *dailyProgressRepository) ListTaskInstances(programID string, appDay int) ([]*models.TaskInstance, error) {
	var instances []*models.TaskInstance
	err := r.db.Where("program_id = ? AND app_day = ?", programID, appDay).Order("created_at asc").Find(&instances).Error
	if err != nil {
		log.Printf("ERROR: [DailyProgressRepository] Failed to list task instances for day %d: %v", appDay, err)
		return nil, fmt.Errorf("failed to list task instances for day %d: %w", appDay, err)
	}
	return instances, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
