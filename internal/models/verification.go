package models

import (
	"time"

	"github.com/google/uuid"
)

// AadhaarVerification keeps track of OTP codes dispatched during identity
// verification. The newest row per phone is the only code that can confirm;
// a resend supersedes earlier rows.
type AadhaarVerification struct {
	BaseModel
	UserID    uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	Phone     string     `gorm:"index" json:"phone"`
	Code      string     `json:"code"`
	ExpiresAt time.Time  `json:"expires_at"`
	Verified  bool       `json:"verified"`
	UsedAt    *time.Time `json:"used_at"`
}
