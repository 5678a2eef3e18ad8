package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TestimonialStatus string

const (
	StatusPending  TestimonialStatus = "pending"
	StatusApproved TestimonialStatus = "approved"
	StatusRejected TestimonialStatus = "rejected"
)

// Testimonial is a submission collected for a project.
type Testimonial struct {
	ID              string            `gorm:"primaryKey;size:36" json:"id"`
	ProjectID       string            `gorm:"size:36;index;not null" json:"project_id"`
	AuthorName      string            `gorm:"size:100;not null" json:"author_name"`
	AuthorEmail     string            `gorm:"size:255" json:"author_email"`
	AuthorTitle     string            `gorm:"size:100" json:"author_title"`
	AuthorCompany   string            `gorm:"size:100" json:"author_company"`
	AuthorAvatarURL string            `gorm:"size:500" json:"author_avatar_url"`
	Content         string            `gorm:"type:text;not null" json:"content"`
	Rating          int               `gorm:"default:0" json:"rating"` // 0 = not rated
	Status          TestimonialStatus `gorm:"size:20;index;not null;default:pending" json:"status"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (Testimonial) TableName() string { return "testimonials" }

func (t *Testimonial) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	return nil
}
