package repository

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/possibull/possiblejourney-sub000/models"

	"gorm.io/gorm"
)

// MeasurementRepository is the storage collaborator for measurement history.
// All list operations return chronological order (oldest first), which the
// metric context relies on.
type MeasurementRepository interface {
	Create(measurement *models.Measurement) error
	ListByMetric(metricID string) ([]models.Measurement, error)
	ListByMetricBetween(metricID string, from, to time.Time) ([]models.Measurement, error)
	LatestForMetric(metricID string) (*models.Measurement, error)
	RollingSum(metricID string, days int, asOf time.Time) (float64, error)
	RollingAverage(metricID string, days int, asOf time.Time) (float64, error)
}

type measurementRepository struct {
	db *gorm.DB
}

// NewMeasurementRepository creates a new instance of MeasurementRepository.
func NewMeasurementRepository(db *gorm.DB) MeasurementRepository {
	return &measurementRepository{db: db}
}

// Create records a measurement. Measurements are never updated in place.
func (r *measurementRepository) Create(measurement *models.Measurement) error {
	if measurement == nil {
		log.Printf("ERROR: [MeasurementRepository] Create: measurement cannot be nil")
		return errors.New("measurement cannot be nil")
	}
	if measurement.MetricID == "" {
		log.Printf("ERROR: [MeasurementRepository] Create: measurement must reference a metric")
		return errors.New("measurement must reference a metric")
	}
	if err := r.db.Create(measurement).Error; err != nil {
		log.Printf("ERROR: [MeasurementRepository] Failed to create measurement for metric %s: %v", measurement.MetricID, err)
		return fmt.Errorf("failed to create measurement for metric %s: %w", measurement.MetricID, err)
	}
	log.Printf("INFO: [MeasurementRepository] Recorded measurement ID %s for metric %s (value %.2f).", measurement.ID, measurement.MetricID, measurement.Value)
	return nil
}

// ListByMetric retrieves all measurements for a metric in chronological order.
func (r *measurementRepository) ListByMetric(metricID string) ([]models.Measurement, error) {
	var measurements []models.Measurement
	err := r.db.Where("metric_id = ?", metricID).Order("timestamp asc").Find(&measurements).Error
	if err != nil {
		log.Printf("ERROR: [MeasurementRepository] Failed to list measurements for metric %s: %v", metricID, err)
		return nil, fmt.Errorf("failed to list measurements for metric %s: %w", metricID, err)
	}
	return measurements, nil
}

// ListByMetricBetween retrieves measurements within [from, to], chronological.
func (r *measurementRepository) ListByMetricBetween(metricID string, from, to time.Time) ([]models.Measurement, error) {
	var measurements []models.Measurement
	err := r.db.Where("metric_id = ? AND timestamp >= ? AND timestamp <= ?", metricID, from, to).
		Order("timestamp asc").Find(&measurements).Error
	if err != nil {
		log.Printf("ERROR: [MeasurementRepository] Failed to list measurements for metric %s between %s and %s: %v", metricID, from, to, err)
		return nil, fmt.Errorf("failed to list measurements for metric %s: %w", metricID, err)
	}
	return measurements, nil
}

// LatestForMetric retrieves the most recent measurement, or (nil, nil).
func (r *measurementRepository) LatestForMetric(metricID string) (*models.Measurement, error) {
	var measurement models.Measurement
	err := r.db.Where("metric_id = ?", metricID).Order("timestamp desc").First(&measurement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("ERROR: [MeasurementRepository] Failed to retrieve latest measurement for metric %s: %v", metricID, err)
		return nil, fmt.Errorf("failed to retrieve latest measurement for metric %s: %w", metricID, err)
	}
	return &measurement, nil
}

// RollingSum sums measurement values over the trailing window ending at asOf.
func (r *measurementRepository) RollingSum(metricID string, days int, asOf time.Time) (float64, error) {
	measurements, err := r.windowMeasurements(metricID, days, asOf)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := range measurements {
		sum += measurements[i].Value
	}
	return sum, nil
}

// RollingAverage averages measurement values over the trailing window ending
// at asOf. An empty window yields 0.
func (r *measurementRepository) RollingAverage(metricID string, days int, asOf time.Time) (float64, error) {
	measurements, err := r.windowMeasurements(metricID, days, asOf)
	if err != nil {
		return 0, err
	}
	if len(measurements) == 0 {
		return 0, nil
	}
	var sum float64
	for i := range measurements {
		sum += measurements[i].Value
	}
	return sum / float64(len(measurements)), nil
}

func (r *measurementRepository) windowMeasurements(metricID string, days int, asOf time.Time) ([]models.Measurement, error) {
	from := asOf.Add(-time.Duration(days) * 24 * time.Hour)
	return r.ListByMetricBetween(metricID, from, asOf)
}
