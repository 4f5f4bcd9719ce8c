package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated account holder.
type User struct {
	BaseModel
	Email        string `gorm:"uniqueIndex" json:"email"`
	Phone        string `gorm:"index" json:"phone"`
	PasswordHash string `json:"-"`
	Confirmed    bool   `json:"confirmed"`
}

// SignupConfirmation tracks confirmation codes sent after registration.
type SignupConfirmation struct {
	BaseModel
	UserID    uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	Code      string     `json:"code"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
}
