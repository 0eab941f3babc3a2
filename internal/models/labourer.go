package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Placeholder values written for a worker's profile at signup.
const (
	PlaceholderCategory = "General"
	PlaceholderLocation = "Not set"
)

// Labourer is a worker's service profile, distinct from their identity record.
type Labourer struct {
	BaseModel
	UserID          *uuid.UUID     `gorm:"type:uuid;uniqueIndex" json:"user_id,omitempty"`
	User            *User          `json:"-"`
	Name            string         `gorm:"not null" json:"name"`
	Category        string         `gorm:"index;not null" json:"category"`
	Rating          float64        `json:"rating"`
	JobsCompleted   int            `json:"jobs_completed"`
	HourlyRate      float64        `json:"hourly_rate"`
	Description     string         `json:"description"`
	ImageURL        string         `json:"image_url"`
	Location        string         `json:"location"`
	Skills          pq.StringArray `gorm:"type:text[]" json:"skills"`
	ExperienceYears int            `json:"experience_years"`
}

// OwnedBy reports whether the profile belongs to the given user.
func (l *Labourer) OwnedBy(userID uuid.UUID) bool {
	return l != nil && l.UserID != nil && *l.UserID == userID
}
