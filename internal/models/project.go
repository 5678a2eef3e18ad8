package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultBrandColor = "#6366f1"

// FormField describes one input on a project's collection form.
type FormField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// FormConfig is the ordered field list and closing message of a
// collection form.
type FormConfig struct {
	Fields          []FormField `json:"fields"`
	ThankYouMessage string      `json:"thank_you_message"`
}

// Field returns the descriptor for key, if configured.
func (f FormConfig) Field(key string) (FormField, bool) {
	for _, field := range f.Fields {
		if field.Key == key {
			return field, true
		}
	}
	return FormField{}, false
}

// DefaultFormConfig is applied to new projects.
func DefaultFormConfig() FormConfig {
	return FormConfig{
		Fields: []FormField{
			{Key: "name", Label: "Your name", Required: true},
			{Key: "email", Label: "Email", Required: false},
			{Key: "title", Label: "Job title", Required: false},
			{Key: "company", Label: "Company", Required: false},
			{Key: "content", Label: "Your testimonial", Required: true},
			{Key: "rating", Label: "Rating", Required: false},
		},
		ThankYouMessage: "Thank you for sharing your experience!",
	}
}

// Project is a tenant-owned collection of testimonials.
type Project struct {
	ID         string                         `gorm:"primaryKey;size:36" json:"id"`
	UserID     string                         `gorm:"size:36;index;not null" json:"user_id"`
	Name       string                         `gorm:"size:100;not null" json:"name"`
	Slug       string                         `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	BrandColor string                         `gorm:"size:7;not null" json:"brand_color"`
	LogoURL    string                         `gorm:"size:500" json:"logo_url"`
	FormConfig datatypes.JSONType[FormConfig] `json:"form_config"`
	CreatedAt  time.Time                      `json:"created_at"`
	UpdatedAt  time.Time                      `json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.BrandColor == "" {
		p.BrandColor = DefaultBrandColor
	}
	return nil
}
