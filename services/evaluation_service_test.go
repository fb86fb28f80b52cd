package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/possibull/possiblejourney-sub000/models"
)

type MockMetricRepository struct {
	mock.Mock
}

func (m *MockMetricRepository) GetByID(metricID string) (*models.Metric, error) {
	args := m.Called(metricID)
	if metric, ok := args.Get(0).(*models.Metric); ok {
		return metric, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMetricRepository) List(includeArchived bool) ([]*models.Metric, error) {
	args := m.Called(includeArchived)
	if metrics, ok := args.Get(0).([]*models.Metric); ok {
		return metrics, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMetricRepository) Create(metric *models.Metric) error {
	args := m.Called(metric)
	return args.Error(0)
}

func (m *MockMetricRepository) SeedDefaults() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMetricRepository) GetProgramMetric(programID, metricID string) (*models.ProgramMetric, error) {
	args := m.Called(programID, metricID)
	if pm, ok := args.Get(0).(*models.ProgramMetric); ok {
		return pm, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMetricRepository) SaveProgramMetric(pm *models.ProgramMetric) error {
	args := m.Called(pm)
	return args.Error(0)
}

type MockMeasurementRepository struct {
	mock.Mock
}

func (m *MockMeasurementRepository) Create(measurement *models.Measurement) error {
	args := m.Called(measurement)
	return args.Error(0)
}

func (m *MockMeasurementRepository) ListByMetric(metricID string) ([]models.Measurement, error) {
	args := m.Called(metricID)
	if measurements, ok := args.Get(0).([]models.Measurement); ok {
		return measurements, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMeasurementRepository) ListByMetricBetween(metricID string, from, to time.Time) ([]models.Measurement, error) {
	args := m.Called(metricID, from, to)
	if measurements, ok := args.Get(0).([]models.Measurement); ok {
		return measurements, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMeasurementRepository) LatestForMetric(metricID string) (*models.Measurement, error) {
	args := m.Called(metricID)
	if measurement, ok := args.Get(0).(*models.Measurement); ok {
		return measurement, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMeasurementRepository) RollingSum(metricID string, days int, asOf time.Time) (float64, error) {
	args := m.Called(metricID, days, asOf)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockMeasurementRepository) RollingAverage(metricID string, days int, asOf time.Time) (float64, error) {
	args := m.Called(metricID, days, asOf)
	return args.Get(0).(float64), args.Error(1)
}

func newEvaluationServiceForTest() (EvaluationService, *MockMetricRepository, *MockMeasurementRepository, *MockDailyProgressRepository) {
	metricRepo := new(MockMetricRepository)
	measurementRepo := new(MockMeasurementRepository)
	progressRepo := new(MockDailyProgressRepository)
	return NewEvaluationService(metricRepo, measurementRepo, progressRepo), metricRepo, measurementRepo, progressRepo
}

// programOnDay returns the standard test program advanced so that app day n
// is the one currently open.
func programOnDay(n int) *models.Program {
	program := newTestProgram()
	completed := day(2025, time.January, n-1)
	program.LastCompletedDay = &completed
	return program
}

func TestEvaluationService_BuildMetricContext(t *testing.T) {
	t.Run("uses the program's stored comparison settings", func(t *testing.T) {
		svc, metricRepo, measurementRepo, _ := newEvaluationServiceForTest()
		program := newTestProgram()
		metricRepo.On("GetByID", "metric-1").Return(&models.Metric{ID: "metric-1", Name: "Sleep Hours"}, nil)
		metricRepo.On("GetProgramMetric", "program-1", "metric-1").Return(&models.ProgramMetric{
			ProgramID:      "program-1",
			MetricID:       "metric-1",
			ComparisonMode: models.ComparisonModeRolling,
			WindowDays:     14,
		}, nil)
		measurementRepo.On("ListByMetric", "metric-1").Return([]models.Measurement{}, nil)

		ctx, err := svc.BuildMetricContext(program, "metric-1", day(2025, time.January, 10))

		assert.NoError(t, err)
		assert.Equal(t, models.ComparisonModeRolling, ctx.ProgramMetric.ComparisonMode)
		assert.Equal(t, 14, ctx.ProgramMetric.WindowDays)
		assert.Equal(t, program.StartDate, ctx.ProgramStartDate)
	})

	t.Run("defaults to relative comparison over 7 days", func(t *testing.T) {
		svc, metricRepo, measurementRepo, _ := newEvaluationServiceForTest()
		metricRepo.On("GetByID", "metric-1").Return(&models.Metric{ID: "metric-1"}, nil)
		metricRepo.On("GetProgramMetric", "program-1", "metric-1").Return(nil, nil)
		measurementRepo.On("ListByMetric", "metric-1").Return([]models.Measurement{}, nil)

		ctx, err := svc.BuildMetricContext(newTestProgram(), "metric-1", day(2025, time.January, 10))

		assert.NoError(t, err)
		assert.Equal(t, models.ComparisonModeRelative, ctx.ProgramMetric.ComparisonMode)
		assert.Equal(t, 7, ctx.ProgramMetric.WindowDays)
	})

	t.Run("errors for an unknown metric", func(t *testing.T) {
		svc, metricRepo, _, _ := newEvaluationServiceForTest()
		metricRepo.On("GetByID", "missing").Return(nil, nil)

		_, err := svc.BuildMetricContext(newTestProgram(), "missing", day(2025, time.January, 10))
		assert.Error(t, err)
	})
}

func TestEvaluationService_EvaluateTask(t *testing.T) {
	now := time.Date(2025, time.January, 10, 20, 0, 0, 0, time.UTC)

	t.Run("maintenance tasks pass without a measurement", func(t *testing.T) {
		svc, _, _, _ := newEvaluationServiceForTest()
		task := &models.Task{ID: "task-1", TaskType: models.TaskTypeMaintenance}

		result, err := svc.EvaluateTask(newTestProgram(), task, now)
		assert.NoError(t, err)
		assert.True(t, result.Passed)
	})

	t.Run("tasks without a rule pass", func(t *testing.T) {
		svc, _, _, _ := newEvaluationServiceForTest()
		task := &models.Task{ID: "task-1", TaskType: models.TaskTypeGrowth}

		result, err := svc.EvaluateTask(newTestProgram(), task, now)
		assert.NoError(t, err)
		assert.True(t, result.Passed)
	})

	t.Run("growth task is evaluated against today's measurement", func(t *testing.T) {
		svc, metricRepo, measurementRepo, _ := newEvaluationServiceForTest()
		metricRepo.On("GetByID", "metric-1").Return(&models.Metric{ID: "metric-1", Name: "Steps"}, nil)
		metricRepo.On("GetProgramMetric", "program-1", "metric-1").Return(nil, nil)
		measurementRepo.On("ListByMetric", "metric-1").Return([]models.Measurement{
			{MetricID: "metric-1", Timestamp: day(2025, time.January, 9), Value: 12000},
			{MetricID: "metric-1", Timestamp: time.Date(2025, time.January, 10, 18, 0, 0, 0, time.UTC), Value: 10500},
		}, nil)

		task := &models.Task{
			ID:             "task-1",
			TaskType:       models.TaskTypeGrowth,
			LinkedMetricID: "metric-1",
			ProgressRule:   models.NewThresholdRule("steps", models.ComparatorGTE, 10000),
		}

		result, err := svc.EvaluateTask(programOnDay(10), task, now)
		assert.NoError(t, err)
		assert.True(t, result.Passed)
		assert.Equal(t, 10500.0, *result.CurrentValue)
	})

	t.Run("yesterday's measurement does not satisfy today", func(t *testing.T) {
		svc, metricRepo, measurementRepo, _ := newEvaluationServiceForTest()
		metricRepo.On("GetByID", "metric-1").Return(&models.Metric{ID: "metric-1", Name: "Steps"}, nil)
		metricRepo.On("GetProgramMetric", "program-1", "metric-1").Return(nil, nil)
		measurementRepo.On("ListByMetric", "metric-1").Return([]models.Measurement{
			{MetricID: "metric-1", Timestamp: day(2025, time.January, 9), Value: 12000},
		}, nil)

		task := &models.Task{
			ID:             "task-1",
			TaskType:       models.TaskTypeGrowth,
			LinkedMetricID: "metric-1",
			ProgressRule:   models.NewThresholdRule("steps", models.ComparatorGTE, 10000),
		}

		result, err := svc.EvaluateTask(programOnDay(10), task, now)
		assert.NoError(t, err)
		assert.False(t, result.Passed)
		assert.Equal(t, models.BlockReasonNoMeasurement, *result.BlockReason)
	})

	t.Run("past-midnight end of day keeps the evening's measurement visible", func(t *testing.T) {
		svc, metricRepo, measurementRepo, _ := newEvaluationServiceForTest()
		program := newTestProgram()
		program.EndOfDayHour = 2
		program.EndOfDayMinute = 0
		metricRepo.On("GetByID", "metric-1").Return(&models.Metric{ID: "metric-1", Name: "Steps"}, nil)
		metricRepo.On("GetProgramMetric", "program-1", "metric-1").Return(nil, nil)
		measurementRepo.On("ListByMetric", "metric-1").Return([]models.Measurement{
			{MetricID: "metric-1", Timestamp: time.Date(2025, time.January, 1, 23, 0, 0, 0, time.UTC), Value: 12000},
		}, nil)

		task := &models.Task{
			ID:             "task-1",
			TaskType:       models.TaskTypeGrowth,
			LinkedMetricID: "metric-1",
			ProgressRule:   models.NewThresholdRule("steps", models.ComparatorGTE, 10000),
		}

		// Day 1 is still open at 01:00 on Jan 2, so its window must cover
		// the 23:00 entry from the night before.
		result, err := svc.EvaluateTask(program, task, time.Date(2025, time.January, 2, 1, 0, 0, 0, time.UTC))
		assert.NoError(t, err)
		assert.True(t, result.Passed)
		assert.Equal(t, 12000.0, *result.CurrentValue)
	})
}

func TestEvaluationService_RecordTaskOutcome(t *testing.T) {
	now := time.Date(2025, time.January, 10, 20, 0, 0, 0, time.UTC)

	setup := func(value float64) (EvaluationService, *MockDailyProgressRepository, *models.Task) {
		svc, metricRepo, measurementRepo, progressRepo := newEvaluationServiceForTest()
		metricRepo.On("GetByID", "metric-1").Return(&models.Metric{ID: "metric-1", Name: "Steps"}, nil)
		metricRepo.On("GetProgramMetric", "program-1", "metric-1").Return(nil, nil)
		measurementRepo.On("ListByMetric", "metric-1").Return([]models.Measurement{
			{MetricID: "metric-1", Timestamp: now.Add(-time.Hour), Value: value},
		}, nil)
		progressRepo.On("RecordTaskInstance", mock.AnythingOfType("*models.TaskInstance")).Return(nil)
		task := &models.Task{
			ID:             "task-1",
			TaskType:       models.TaskTypeGrowth,
			LinkedMetricID: "metric-1",
			ProgressRule:   models.NewThresholdRule("steps", models.ComparatorGTE, 10000),
		}
		return svc, progressRepo, task
	}

	t.Run("passing growth task records a passed instance", func(t *testing.T) {
		svc, progressRepo, task := setup(10500)
		instance, err := svc.RecordTaskOutcome(programOnDay(10), task, now)

		assert.NoError(t, err)
		assert.NotEmpty(t, instance.ID)
		assert.Equal(t, models.TaskInstanceStatusPassed, instance.Status)
		assert.Equal(t, 10, instance.AppDay)
		assert.Nil(t, instance.BlockReason)
		progressRepo.AssertCalled(t, "RecordTaskInstance", mock.AnythingOfType("*models.TaskInstance"))
	})

	t.Run("failing growth task records a blocked instance", func(t *testing.T) {
		svc, _, task := setup(9000)
		instance, err := svc.RecordTaskOutcome(programOnDay(10), task, now)

		assert.NoError(t, err)
		assert.Equal(t, models.TaskInstanceStatusBlocked, instance.Status)
		assert.Equal(t, models.BlockReasonBelowMinimum, *instance.BlockReason)
	})

	t.Run("failing recovery task records a recovery warning, not a block", func(t *testing.T) {
		svc, _, task := setup(9000)
		task.TaskType = models.TaskTypeRecovery
		instance, err := svc.RecordTaskOutcome(programOnDay(10), task, now)

		assert.NoError(t, err)
		assert.Equal(t, models.TaskInstanceStatusRecovery, instance.Status)
	})

	t.Run("maintenance task records a maintenance instance", func(t *testing.T) {
		svc, _, task := setup(9000)
		task.TaskType = models.TaskTypeMaintenance
		instance, err := svc.RecordTaskOutcome(programOnDay(10), task, now)

		assert.NoError(t, err)
		assert.Equal(t, models.TaskInstanceStatusMaintenance, instance.Status)
		assert.True(t, instance.Status.IsCompleted())
	})

	t.Run("outcome closing a past-midnight day is stamped with the open day", func(t *testing.T) {
		svc, metricRepo, measurementRepo, progressRepo := newEvaluationServiceForTest()
		program := newTestProgram()
		program.EndOfDayHour = 2
		program.EndOfDayMinute = 0
		metricRepo.On("GetByID", "metric-1").Return(&models.Metric{ID: "metric-1", Name: "Steps"}, nil)
		metricRepo.On("GetProgramMetric", "program-1", "metric-1").Return(nil, nil)
		measurementRepo.On("ListByMetric", "metric-1").Return([]models.Measurement{
			{MetricID: "metric-1", Timestamp: time.Date(2025, time.January, 1, 23, 0, 0, 0, time.UTC), Value: 10500},
		}, nil)
		progressRepo.On("RecordTaskInstance", mock.AnythingOfType("*models.TaskInstance")).Return(nil)
		task := &models.Task{
			ID:             "task-1",
			TaskType:       models.TaskTypeGrowth,
			LinkedMetricID: "metric-1",
			ProgressRule:   models.NewThresholdRule("steps", models.ComparatorGTE, 10000),
		}

		instance, err := svc.RecordTaskOutcome(program, task, time.Date(2025, time.January, 2, 1, 0, 0, 0, time.UTC))

		assert.NoError(t, err)
		assert.Equal(t, models.TaskInstanceStatusPassed, instance.Status)
		assert.Equal(t, 1, instance.AppDay)
		assert.Equal(t, day(2025, time.January, 1), instance.Date)
	})
}
