package models

import "time"

// EvaluationResult is the outcome of evaluating one progress rule against a
// measurement. It is returned per call and never persisted directly; the
// caller records a TaskInstance from it.
type EvaluationResult struct {
	Passed          bool         `json:"passed"`
	BlockReason     *BlockReason `json:"block_reason,omitempty"`
	CurrentValue    *float64     `json:"current_value,omitempty"`
	ComparisonValue *float64     `json:"comparison_value,omitempty"`
	Improvement     *float64     `json:"improvement,omitempty"`
	Message         string       `json:"message"`
}

// FailedResult builds a failed evaluation with a reason and message.
func FailedResult(reason BlockReason, message string) EvaluationResult {
	r := reason
	return EvaluationResult{Passed: false, BlockReason: &r, Message: message}
}

// DayStatus is the day-machine snapshot exposed to the orchestration layer.
type DayStatus struct {
	AppDay           int       `json:"app_day"`
	TotalDays        int       `json:"total_days"`
	ActiveDay        time.Time `json:"active_day"`
	Boundary         time.Time `json:"boundary"`
	Missed           bool      `json:"missed"`
	ProgramComplete  bool      `json:"program_complete"`
	CompletedTaskIDs []string  `json:"completed_task_ids"`
	TotalTasks       int       `json:"total_tasks"`
}
