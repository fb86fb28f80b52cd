package models

import (
	"time"
)

// TaskType defines the category of a program task.
type TaskType string

const (
	TaskTypeGrowth      TaskType = "growth"
	TaskTypeMaintenance TaskType = "maintenance"
	TaskTypeRecovery    TaskType = "recovery"
)

// Task is a daily task belonging to a program template. Title and type are
// immutable after creation; an optional ProgressRule gates completion on a
// recorded measurement.
type Task struct {
	ID             string        `gorm:"primarykey;type:varchar(36)" json:"id"`
	TemplateID     string        `gorm:"index;type:varchar(36);not null" json:"template_id"`
	Title          string        `gorm:"not null" json:"title"`
	Description    string        `gorm:"type:text" json:"description,omitempty"`
	RequiresPhoto  bool          `gorm:"default:false" json:"requires_photo"`
	TaskType       TaskType      `gorm:"type:varchar(20);default:'growth';not null" json:"task_type"`
	LinkedMetricID string        `gorm:"type:varchar(36)" json:"linked_metric_id,omitempty"`
	ProgressRule   *ProgressRule `gorm:"serializer:json" json:"progress_rule,omitempty"`
	SortOrder      int           `gorm:"default:0" json:"sort_order"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}

// HasRule reports whether completion of this task is gated by a progress rule.
func (t *Task) HasRule() bool {
	return t.ProgressRule != nil
}
