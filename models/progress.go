package models

import (
	"time"

	"gorm.io/datatypes"
)

// DailyProgress records which tasks were checked off for one app day.
// ProgramID + Date carry a unique index so saves are idempotent per day.
type DailyProgress struct {
	ID        string `gorm:"primarykey;type:varchar(36)" json:"id"`
	ProgramID string `gorm:"type:varchar(36);not null;index:idx_daily_progress_day,unique" json:"program_id"`
	// Date is the app day's calendar day (start of day).
	Date             time.Time                   `gorm:"not null;index:idx_daily_progress_day,unique" json:"date"`
	CompletedTaskIDs datatypes.JSONSlice[string] `json:"completed_task_ids"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the DailyProgress model.
func (DailyProgress) TableName() string {
	return "daily_progress"
}

// CompletedSet returns the completed task IDs as a set.
func (dp *DailyProgress) CompletedSet() map[string]bool {
	set := make(map[string]bool, len(dp.CompletedTaskIDs))
	for _, id := range dp.CompletedTaskIDs {
		set[id] = true
	}
	return set
}

// TaskInstanceStatus is the recorded outcome of one task on one app day.
type TaskInstanceStatus string

const (
	TaskInstanceStatusPending TaskInstanceStatus = "pending"
	TaskInstanceStatusPassed  TaskInstanceStatus = "passed"
	TaskInstanceStatusBlocked TaskInstanceStatus = "blocked"
	TaskInstanceStatusSkipped TaskInstanceStatus = "skipped"
	// Maintenance tasks always pass; recovery tasks warn instead of block.
	TaskInstanceStatusMaintenance TaskInstanceStatus = "maintenance"
	TaskInstanceStatusRecovery    TaskInstanceStatus = "recovery"
)

// IsCompleted reports whether the status counts toward day completion.
func (s TaskInstanceStatus) IsCompleted() bool {
	return s == TaskInstanceStatusPassed || s == TaskInstanceStatusMaintenance
}

// BlockReason enumerates why an evaluation failed. Failures are always
// represented as data, never as errors.
type BlockReason string

const (
	BlockReasonNoMeasurement           BlockReason = "no_measurement"
	BlockReasonInsufficientImprovement BlockReason = "insufficient_improvement"
	BlockReasonBelowMinimum            BlockReason = "below_minimum"
	BlockReasonConditionNotMet         BlockReason = "condition_not_met"
	BlockReasonRollingWindowFailed     BlockReason = "rolling_window_failed"
)

// TaskInstance is the persisted evaluation outcome for one task on one day.
type TaskInstance struct {
	ID        string `gorm:"primarykey;type:varchar(36)" json:"id"`
	ProgramID string `gorm:"index;type:varchar(36);not null" json:"program_id"`
	TaskID    string `gorm:"index;type:varchar(36);not null" json:"task_id"`
	// AppDay is the 1-based program day index the outcome belongs to.
	AppDay      int                `gorm:"not null" json:"app_day"`
	Date        time.Time          `gorm:"not null" json:"date"`
	Status      TaskInstanceStatus `gorm:"type:varchar(20);default:'pending';not null" json:"status"`
	BlockReason *BlockReason       `gorm:"type:varchar(40)" json:"block_reason,omitempty"`
	Message     string             `gorm:"type:text" json:"message,omitempty"`
	CreatedAt   time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the TaskInstance model.
func (TaskInstance) TableName() string {
	return "task_instances"
}
