package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/paisa/internal/models"
)

const (
	aadhaarLength     = 12
	otpLength         = 4
	otpResendCooldown = 60 * time.Second
	otpExpiry         = 10 * time.Minute
)

// User-facing failures of the verification workflow. The messages double as
// API responses, so they are spelled the way the client shows them.
var (
	ErrAadhaarRequired  = errors.New("Aadhaar number is required")
	ErrAadhaarInvalid   = errors.New("Please enter a valid 12-digit Aadhaar number")
	ErrNoIdentityRecord = errors.New("no Aadhaar record has been fetched")
	ErrResendCooldown   = errors.New("resend is not available yet")
	ErrOTPIncomplete    = errors.New("Please enter all 4 digits")
	ErrOTPMismatch      = errors.New("Invalid verification code. Please try again.")
	ErrNoChallenge      = errors.New("verification code not found")
	ErrOTPExpired       = errors.New("verification code expired")
)

// ProfileSaveWarning is attached to a successful confirmation whose profile
// upsert failed. Verification stands; the inconsistency is surfaced.
const ProfileSaveWarning = "Your Aadhaar was verified but there was an error saving to the database. Please try again later."

// SendResult reports a successful OTP dispatch.
type SendResult struct {
	Phone    string `json:"phone"`
	ResendIn int    `json:"resend_in"`
}

// ConfirmResult reports the outcome of an OTP confirmation.
type ConfirmResult struct {
	Verified        bool   `json:"verified"`
	AlreadyVerified bool   `json:"already_verified,omitempty"`
	Warning         string `json:"warning,omitempty"`
}

// VerificationService drives the identity-verification workflow: Aadhaar
// validation, remote lookup, OTP generation and dispatch, confirmation, and
// persistence of the verified identity. Fetched identity records are held
// only in memory, keyed by user, until confirmation succeeds.
type VerificationService struct {
	db       *gorm.DB
	identity *AadhaarClient
	sms      *SMSClient
	cacheDir string
	now      func() time.Time

	mu      sync.Mutex
	pending map[uuid.UUID]*IdentityRecord
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(db *gorm.DB, identity *AadhaarClient, sms *SMSClient, cacheDir string) *VerificationService {
	return &VerificationService{
		db:       db,
		identity: identity,
		sms:      sms,
		cacheDir: cacheDir,
		now:      time.Now,
		pending:  make(map[uuid.UUID]*IdentityRecord),
	}
}

// SanitizeAadhaar strips non-digit characters and caps the input at 12 digits,
// mirroring what the entry field does as the user types.
func SanitizeAadhaar(input string) string {
	digits := digitsOnly(input)
	if len(digits) > aadhaarLength {
		digits = digits[:aadhaarLength]
	}
	return digits
}

// ValidateAadhaar enforces the exactly-12-numeric-digits rule. It is the
// gate in front of every network call.
func ValidateAadhaar(number string) error {
	if number == "" {
		return ErrAadhaarRequired
	}
	if len(number) != aadhaarLength || digitsOnly(number) != number {
		return ErrAadhaarInvalid
	}
	return nil
}

// Lookup validates the Aadhaar number and fetches its identity record. The
// fetched record replaces any previously fetched one for the user; a failed
// lookup discards it instead.
func (s *VerificationService) Lookup(ctx context.Context, userID uuid.UUID, number string) (*IdentityRecord, error) {
	if err := ValidateAadhaar(number); err != nil {
		return nil, err
	}

	record, err := s.identity.Lookup(ctx, number)
	if err != nil {
		s.setRecord(userID, nil)
		return nil, err
	}

	s.setRecord(userID, record)
	return record, nil
}

// Record returns the user's currently fetched identity record, nil if none.
func (s *VerificationService) Record(userID uuid.UUID) *IdentityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[userID]
}

func (s *VerificationService) setRecord(userID uuid.UUID, record *IdentityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record == nil {
		delete(s.pending, userID)
		return
	}
	s.pending[userID] = record
}

// GenerateOTP produces a uniformly random 4-digit code in [1000, 9999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}

// SendOTP generates a fresh code and dispatches it to the phone number from
// the fetched identity record. While the 60-second cooldown from the previous
// dispatch is still running, the call is a no-op: no gateway request, no new
// code. A dispatch failure stores nothing.
func (s *VerificationService) SendOTP(ctx context.Context, userID uuid.UUID) (*SendResult, error) {
	record := s.Record(userID)
	if record == nil {
		return nil, ErrNoIdentityRecord
	}

	phone := digitsOnly(record.Phone)

	if remaining := s.cooldownRemaining(phone); remaining > 0 {
		return nil, ErrResendCooldown
	}

	code, err := GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("generate OTP: %w", err)
	}

	if err := s.sms.Send(ctx, phone, "Your OTP for verification is: "+code); err != nil {
		return nil, err
	}

	verification := models.AadhaarVerification{
		UserID:    userID,
		Phone:     phone,
		Code:      code,
		ExpiresAt: s.now().Add(otpExpiry),
	}
	if err := s.db.Create(&verification).Error; err != nil {
		return nil, err
	}

	return &SendResult{
		Phone:    phone,
		ResendIn: int(otpResendCooldown / time.Second),
	}, nil
}

// ResendIn reports how many seconds remain before another dispatch is
// allowed for the user's pending record; zero when resend is available.
func (s *VerificationService) ResendIn(userID uuid.UUID) int {
	record := s.Record(userID)
	if record == nil {
		return 0
	}
	remaining := s.cooldownRemaining(digitsOnly(record.Phone))
	if remaining <= 0 {
		return 0
	}
	return int(remaining/time.Second) + 1
}

func (s *VerificationService) cooldownRemaining(phone string) time.Duration {
	var last models.AadhaarVerification
	err := s.db.Where("phone = ?", phone).
		Order("created_at desc").
		First(&last).Error
	if err != nil {
		return 0
	}
	return otpResendCooldown - s.now().Sub(last.CreatedAt)
}

// Confirm compares the submitted code against the most recently generated
// one. A mismatch leaves the challenge in place for unlimited retries; a
// match marks the code used and persists the verified identity. Confirming
// the same correct code again is a no-op because the workflow has already
// reached its terminal state.
func (s *VerificationService) Confirm(ctx context.Context, userID uuid.UUID, code string) (*ConfirmResult, error) {
	record := s.Record(userID)
	if record == nil {
		return nil, ErrNoIdentityRecord
	}

	if len(code) != otpLength || digitsOnly(code) != code {
		return nil, ErrOTPIncomplete
	}

	phone := digitsOnly(record.Phone)

	var challenge models.AadhaarVerification
	err := s.db.Where("phone = ?", phone).
		Order("created_at desc").
		First(&challenge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoChallenge
		}
		return nil, err
	}

	if challenge.Verified && challenge.UsedAt != nil {
		if challenge.Code == code {
			return &ConfirmResult{Verified: true, AlreadyVerified: true}, nil
		}
		return nil, ErrOTPMismatch
	}

	if challenge.Code != code {
		return nil, ErrOTPMismatch
	}

	if challenge.ExpiresAt.Before(s.now()) {
		return nil, ErrOTPExpired
	}

	challenge.Verified = true
	used := s.now()
	challenge.UsedAt = &used
	if err := s.db.Save(&challenge).Error; err != nil {
		return nil, err
	}

	s.cacheIdentity(userID, record)

	result := &ConfirmResult{Verified: true}
	if err := s.persistProfile(userID, record); err != nil {
		log.Printf("verified identity for user %s but profile save failed: %v", userID, err)
		result.Warning = ProfileSaveWarning
	}

	return result, nil
}

// SplitFullName breaks a full name on whitespace: first token becomes the
// first name, the remainder the last name (empty if absent).
func SplitFullName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func (s *VerificationService) persistProfile(userID uuid.UUID, record *IdentityRecord) error {
	first, last := SplitFullName(record.Name)

	profile := models.Profile{
		ID:            userID,
		FirstName:     first,
		LastName:      last,
		PhoneNumber:   digitsOnly(record.Phone),
		PhoneVerified: true,
		DateOfBirth:   record.DOB,
		AadhaarNumber: record.AadhaarNumber,
		UpdatedAt:     s.now(),
	}

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"first_name", "last_name", "phone_number", "phone_verified",
			"date_of_birth", "aadhaar_number", "updated_at",
		}),
	}).Create(&profile).Error
}

// cacheIdentity writes the verified record to a local JSON file. The cache is
// write-through and best-effort; nothing reads it back as a source of truth.
func (s *VerificationService) cacheIdentity(userID uuid.UUID, record *IdentityRecord) {
	if s.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		log.Printf("identity cache dir: %v", err)
		return
	}

	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		log.Printf("encode identity cache: %v", err)
		return
	}

	path := filepath.Join(s.cacheDir, userID.String()+".json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		log.Printf("write identity cache: %v", err)
	}
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
