package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the per-user profile row. Its primary key always equals the
// owning user's ID; the application never touches another user's profile.
type Profile struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	PhoneNumber    string    `json:"phone_number"`
	PhoneVerified  bool      `json:"phone_verified"`
	DateOfBirth    string    `json:"date_of_birth"`
	AadhaarNumber  string    `json:"aadhaar_number"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	Website        string    `json:"website"`
	MembershipType string    `json:"membership_type"`
	Level          int       `json:"level"`
	AvatarURL      string    `json:"avatar_url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SocialLink is one entry in a user's variable-length list of social links.
// Saves are full-replace: all rows for the user are deleted and the submitted
// list reinserted.
type SocialLink struct {
	BaseModel
	UserID   uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Platform string    `json:"platform"`
	URL      string    `json:"url"`
}
