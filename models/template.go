package models

import (
	"time"
)

// TemplateCategory groups templates for browsing.
type TemplateCategory string

const (
	TemplateCategoryHealth        TemplateCategory = "health"
	TemplateCategoryProductivity  TemplateCategory = "productivity"
	TemplateCategoryLearning      TemplateCategory = "learning"
	TemplateCategoryMindfulness   TemplateCategory = "mindfulness"
	TemplateCategoryRelationships TemplateCategory = "relationships"
	TemplateCategoryFinance       TemplateCategory = "finance"
	TemplateCategoryCustom        TemplateCategory = "custom"
)

// ProgramTemplate is the reusable task-list + duration definition a Program
// is instantiated from.
type ProgramTemplate struct {
	ID              string           `gorm:"primarykey;type:varchar(36)" json:"id"`
	Name            string           `gorm:"not null" json:"name"`
	Description     string           `gorm:"type:text" json:"description"`
	Category        TemplateCategory `gorm:"type:varchar(30);default:'custom';not null" json:"category"`
	DefaultDayCount int              `gorm:"default:75;not null" json:"default_day_count"`
	IsDefault       bool             `gorm:"default:false" json:"is_default"`
	Tasks           []Task           `gorm:"foreignKey:TemplateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"tasks"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the ProgramTemplate model.
func (ProgramTemplate) TableName() string {
	return "program_templates"
}
