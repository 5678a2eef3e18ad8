package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WidgetType string

const (
	WidgetWall     WidgetType = "wall"
	WidgetCarousel WidgetType = "carousel"
	WidgetList     WidgetType = "list"
)

// WidgetConfig controls how the embed renders testimonials.
type WidgetConfig struct {
	Theme        string `json:"theme"` // light, dark
	ShowRating   bool   `json:"show_rating"`
	ShowDate     bool   `json:"show_date"`
	ShowAvatar   bool   `json:"show_avatar"`
	MaxItems     int    `json:"max_items"`     // 1-100
	Columns      int    `json:"columns"`       // 1-4
	BorderRadius int    `json:"border_radius"` // 0-24
	Shadow       bool   `json:"shadow"`
	FontFamily   string `json:"font_family"`
}

func DefaultWidgetConfig() WidgetConfig {
	return WidgetConfig{
		Theme:        "light",
		ShowRating:   true,
		ShowDate:     true,
		ShowAvatar:   true,
		MaxItems:     10,
		Columns:      3,
		BorderRadius: 8,
		Shadow:       true,
		FontFamily:   "inherit",
	}
}

// Widget is an embeddable display unit. Its ID is the public embed key.
type Widget struct {
	ID        string                           `gorm:"primaryKey;size:36" json:"id"`
	ProjectID string                           `gorm:"size:36;index;not null" json:"project_id"`
	Type      WidgetType                       `gorm:"size:20;not null" json:"type"`
	Config    datatypes.JSONType[WidgetConfig] `json:"config"`
	CreatedAt time.Time                        `json:"created_at"`
	UpdatedAt time.Time                        `json:"updated_at"`
}

func (Widget) TableName() string { return "widgets" }

func (w *Widget) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
