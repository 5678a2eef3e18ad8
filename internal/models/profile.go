package models

import "time"

// Profile mirrors a hosted-auth user in the local store. ID is the
// provider's user id.
type Profile struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Email            string    `gorm:"size:255" json:"email"`
	Name             string    `gorm:"size:100" json:"name"`
	AvatarURL        string    `gorm:"size:500" json:"avatar_url"`
	Plan             string    `gorm:"size:20;not null;default:free" json:"plan"` // free, pro
	StripeCustomerID string    `gorm:"size:100;index" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }
