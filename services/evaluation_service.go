package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/possibull/possiblejourney-sub000/models"
	"github.com/possibull/possiblejourney-sub000/repository"
	"github.com/possibull/possiblejourney-sub000/utils"
)

// EvaluationService builds metric contexts from storage and runs progress
// rules against them. Rule failures come back inside the EvaluationResult;
// the error return is reserved for storage problems.
type EvaluationService interface {
	BuildMetricContext(program *models.Program, metricID string, now time.Time) (*models.MetricContext, error)
	EvaluateTask(program *models.Program, task *models.Task, now time.Time) (*models.EvaluationResult, error)
	RecordTaskOutcome(program *models.Program, task *models.Task, now time.Time) (*models.TaskInstance, error)
}

type evaluationService struct {
	metricRepo      repository.MetricRepository
	measurementRepo repository.MeasurementRepository
	progressRepo    repository.DailyProgressRepository
}

// NewEvaluationService creates a new instance of EvaluationService.
func NewEvaluationService(metricRepo repository.MetricRepository, measurementRepo repository.MeasurementRepository, progressRepo repository.DailyProgressRepository) EvaluationService {
	return &evaluationService{
		metricRepo:      metricRepo,
		measurementRepo: measurementRepo,
		progressRepo:    progressRepo,
	}
}

// BuildMetricContext assembles the derived evaluation context for one metric:
// the full chronological history plus the program's comparison settings.
// Programs without an explicit binding fall back to relative comparison over
// a 7-day window.
func (s *evaluationService) BuildMetricContext(program *models.Program, metricID string, now time.Time) (*models.MetricContext, error) {
	metric, err := s.metricRepo.GetByID(metricID)
	if err != nil {
		return nil, err
	}
	if metric == nil {
		return nil, fmt.Errorf("metric %s not found", metricID)
	}

	pm, err := s.metricRepo.GetProgramMetric(program.ID, metricID)
	if err != nil {
		return nil, err
	}
	if pm == nil {
		pm = &models.ProgramMetric{
			ProgramID:      program.ID,
			MetricID:       metricID,
			ComparisonMode: models.ComparisonModeRelative,
			WindowDays:     7,
		}
	}

	measurements, err := s.measurementRepo.ListByMetric(metricID)
	if err != nil {
		return nil, err
	}

	return &models.MetricContext{
		ProgramMetric:    *pm,
		Metric:           *metric,
		Measurements:     measurements,
		ProgramStartDate: program.StartDate,
		CurrentDate:      now,
	}, nil
}

// EvaluateTask runs a task's progress rule against the active day's
// measurement. Maintenance tasks and tasks without a rule pass unconditionally.
func (s *evaluationService) EvaluateTask(program *models.Program, task *models.Task, now time.Time) (*models.EvaluationResult, error) {
	if task == nil {
		return nil, errors.New("task cannot be nil")
	}
	if task.TaskType == models.TaskTypeMaintenance {
		return &models.EvaluationResult{Passed: true, Message: "Maintenance task, no measurement required"}, nil
	}
	if !task.HasRule() || task.LinkedMetricID == "" {
		return &models.EvaluationResult{Passed: true, Message: "No progress rule configured"}, nil
	}

	ctx, err := s.BuildMetricContext(program, task.LinkedMetricID, now)
	if err != nil {
		return nil, err
	}
	current := measurementForAppDay(ctx.Measurements, program, activeDayFor(program))
	result := EvaluateRule(task.ProgressRule, ctx, current)
	return &result, nil
}

// RecordTaskOutcome evaluates a task and persists the outcome as a
// TaskInstance. A failed evaluation blocks growth tasks but only warns on
// recovery tasks.
func (s *evaluationService) RecordTaskOutcome(program *models.Program, task *models.Task, now time.Time) (*models.TaskInstance, error) {
	result, err := s.EvaluateTask(program, task, now)
	if err != nil {
		return nil, err
	}

	status := statusForOutcome(task, result)
	activeDay := activeDayFor(program)
	instance := &models.TaskInstance{
		ID:          utils.NewID(),
		ProgramID:   program.ID,
		TaskID:      task.ID,
		AppDay:      AppDayIndex(activeDay, program.StartDate),
		Date:        activeDay,
		Status:      status,
		BlockReason: result.BlockReason,
		Message:     result.Message,
	}
	if err := s.progressRepo.RecordTaskInstance(instance); err != nil {
		return nil, err
	}
	if status == models.TaskInstanceStatusRecovery {
		log.Printf("WARN: [EvaluationService] Recovery task %s did not meet its rule: %s", task.ID, result.Message)
	}
	return instance, nil
}

func statusForOutcome(task *models.Task, result *models.EvaluationResult) models.TaskInstanceStatus {
	if result.Passed {
		if task.TaskType == models.TaskTypeMaintenance {
			return models.TaskInstanceStatusMaintenance
		}
		return models.TaskInstanceStatusPassed
	}
	if task.TaskType == models.TaskTypeRecovery {
		// Recovery tasks report the shortfall without blocking the day.
		return models.TaskInstanceStatusRecovery
	}
	return models.TaskInstanceStatusBlocked
}

// measurementForAppDay picks the most recent measurement recorded inside the
// app day's window, or nil when none exists yet. The window runs from the
// previous day's end-of-day boundary up to (excluding) the day's own, so a
// past-midnight end of day keeps late-evening entries visible after midnight,
// exactly as the day machine keeps the day open.
func measurementForAppDay(measurements []models.Measurement, program *models.Program, activeDay time.Time) *models.Measurement {
	resolver := ResolverForProgram(program)
	opens := resolver.AppDayStart(activeDay)
	closes := resolver.EndOfDay(activeDay)
	var latest *models.Measurement
	for i := range measurements {
		ts := measurements[i].Timestamp
		if !ts.Before(opens) && ts.Before(closes) {
			if latest == nil || ts.After(latest.Timestamp) {
				latest = &measurements[i]
			}
		}
	}
	return latest
}
