package models

import (
	"time"
)

// Program represents the single challenge program a user is actively running.
// It is instantiated from a ProgramTemplate and mutated only by day-machine
// transitions (complete / acknowledge-missed); the storage layer persists it
// after each mutation.
type Program struct {
	ID         string `gorm:"primarykey;type:varchar(36)" json:"id"`
	TemplateID string `gorm:"type:varchar(36);not null" json:"template_id"`
	// StartDate is a calendar day; only its date component is meaningful.
	StartDate time.Time `gorm:"not null" json:"start_date"`
	// End-of-day time of day (no date component). Hours before noon are
	// interpreted as past-midnight end times, see services.BoundaryResolver.
	EndOfDayHour   int `gorm:"default:22;not null" json:"end_of_day_hour"`
	EndOfDayMinute int `gorm:"default:0;not null" json:"end_of_day_minute"`
	// LastCompletedDay is the last calendar day fully completed (or
	// acknowledged as missed). Nil until the first day is closed out.
	// Invariant: when present it is never before StartDate.
	LastCompletedDay *time.Time `json:"last_completed_day,omitempty"`
	// CustomDayCount overrides the template's default duration when set.
	CustomDayCount *int      `json:"custom_day_count,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Program model.
func (Program) TableName() string {
	return "programs"
}

// DayCount returns the program's total duration, preferring the custom
// override over the template default.
func (p *Program) DayCount(templateDefault int) int {
	if p.CustomDayCount != nil && *p.CustomDayCount > 0 {
		return *p.CustomDayCount
	}
	return templateDefault
}
