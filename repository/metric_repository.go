package repository

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/possibull/possiblejourney-sub000/models"

	"gorm.io/gorm"
)

// MetricRepository manages the metric catalog and per-program metric bindings.
type MetricRepository interface {
	GetByID(metricID string) (*models.Metric, error)
	List(includeArchived bool) ([]*models.Metric, error)
	Create(metric *models.Metric) error
	SeedDefaults() error
	GetProgramMetric(programID, metricID string) (*models.ProgramMetric, error)
	SaveProgramMetric(pm *models.ProgramMetric) error
}

type metricRepository struct {
	db *gorm.DB
}

// NewMetricRepository creates a new instance of MetricRepository.
func NewMetricRepository(db *gorm.DB) MetricRepository {
	return &metricRepository{db: db}
}

// GetByID retrieves a metric, or (nil, nil) when not found.
func (r *metricRepository) GetByID(metricID string) (*models.Metric, error) {
	var metric models.Metric
	err := r.db.First(&metric, "id = ?", metricID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("ERROR: [MetricRepository] Failed to retrieve metric %s: %v", metricID, err)
		return nil, fmt.Errorf("failed to retrieve metric %s: %w", metricID, err)
	}
	return &metric, nil
}

// List retrieves the metric catalog, optionally including archived metrics.
func (r *metricRepository) List(includeArchived bool) ([]*models.Metric, error) {
	var metrics []*models.Metric
	query := r.db.Order("name asc")
	if !includeArchived {
		query = query.Where("archived = ?", false)
	}
	if err := query.Find(&metrics).Error; err != nil {
		log.Printf("ERROR: [MetricRepository] Failed to list metrics: %v", err)
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	return metrics, nil
}

// Create persists a new metric.
func (r *metricRepository) Create(metric *models.Metric) error {
	if metric == nil {
		log.Printf("ERROR: [MetricRepository] Create: metric cannot be nil")
		return errors.New("metric cannot be nil")
	}
	if err := r.db.Create(metric).Error; err != nil {
		log.Printf("ERROR: [MetricRepository] Failed to create metric '%s': %v", metric.Name, err)
		return fmt.Errorf("failed to create metric '%s': %w", metric.Name, err)
	}
	log.Printf("INFO: [MetricRepository] Successfully created metric ID %s ('%s').", metric.ID, metric.Name)
	return nil
}

// SeedDefaults inserts the built-in metric catalog on first run.
func (r *metricRepository) SeedDefaults() error {
	var count int64
	if err := r.db.Model(&models.Metric{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count metrics: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, metric := range models.DefaultMetrics() {
		metric.ID = uuid.NewString()
		m := metric
		if err := r.Create(&m); err != nil {
			return err
		}
	}
	log.Printf("INFO: [MetricRepository] Seeded default metric catalog.")
	return nil
}

// GetProgramMetric retrieves the comparison settings binding a metric to a
// program, or (nil, nil) when the program uses the defaults.
func (r *metricRepository) GetProgramMetric(programID, metricID string) (*models.ProgramMetric, error) {
	var pm models.ProgramMetric
	err := r.db.First(&pm, "program_id = ? AND metric_id = ?", programID, metricID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("ERROR: [MetricRepository] Failed to retrieve program metric (program %s, metric %s): %v", programID, metricID, err)
		return nil, fmt.Errorf("failed to retrieve program metric: %w", err)
	}
	return &pm, nil
}

// SaveProgramMetric persists per-program comparison settings.
func (r *metricRepository) SaveProgramMetric(pm *models.ProgramMetric) error {
	if pm == nil {
		return errors.New("program metric cannot be nil")
	}
	if err := r.db.Save(pm).Error; err != nil {
		log.Printf("ERROR: [MetricRepository] Failed to save program metric ID %s: %v", pm.ID, err)
		return fmt.Errorf("failed to save program metric ID %s: %w", pm.ID, err)
	}
	return nil
}
