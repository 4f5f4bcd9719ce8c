package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/paisa/internal/middleware"
	"github.com/example/paisa/internal/models"
	"github.com/example/paisa/internal/services"
)

const (
	nameMaxLength   = 15
	phoneDigitCount = 10
	aadhaarDigitLen = 12
	linkSaveWarning = "Profile saved, but social links could not be updated. Please try again."
	locationFailure = "Failed to get location"
)

// ProfileHandler manages the profile row, its social links, the location
// fill and the avatar file store.
type ProfileHandler struct {
	db        *gorm.DB
	geocode   *services.GeocodeClient
	avatarDir string
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB, geocode *services.GeocodeClient, avatarDir string) *ProfileHandler {
	return &ProfileHandler{db: db, geocode: geocode, avatarDir: avatarDir}
}

// GetProfile returns the caller's profile row and social links.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var profile models.Profile
	if err := h.db.First(&profile, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			profile = models.Profile{ID: userID}
		} else {
			return err
		}
	}

	var links []models.SocialLink
	if err := h.db.Where("user_id = ?", userID).Order("created_at asc").Find(&links).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"data":         profile,
		"social_links": links,
	})
}

type socialLinkPayload struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type updateProfileRequest struct {
	FirstName      string              `json:"first_name"`
	LastName       string              `json:"last_name"`
	PhoneNumber    string              `json:"phone_number"`
	DateOfBirth    string              `json:"date_of_birth"`
	AadhaarNumber  string              `json:"aadhaar_number"`
	Bio            string              `json:"bio"`
	Location       string              `json:"location"`
	Website        string              `json:"website"`
	MembershipType string              `json:"membership_type"`
	Level          int                 `json:"level"`
	SocialLinks    []socialLinkPayload `json:"social_links"`
}

// UpdateProfile validates the submitted fields, upserts the profile row and
// then full-replaces the social links. The two remote steps are strictly
// sequential: an upsert failure aborts before the link save, while a link
// failure after a successful upsert is reported as a partial-success warning.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.FirstName = sanitizeName(req.FirstName)
	req.LastName = sanitizeName(req.LastName)

	if fieldErrors := validateProfile(&req); len(fieldErrors) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  fieldErrors,
		})
	}

	profile := models.Profile{
		ID:             userID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		PhoneNumber:    req.PhoneNumber,
		DateOfBirth:    req.DateOfBirth,
		AadhaarNumber:  req.AadhaarNumber,
		Bio:            req.Bio,
		Location:       req.Location,
		Website:        req.Website,
		MembershipType: req.MembershipType,
		Level:          req.Level,
		UpdatedAt:      time.Now(),
	}

	if err := h.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"first_name", "last_name", "phone_number", "date_of_birth",
			"aadhaar_number", "bio", "location", "website",
			"membership_type", "level", "updated_at",
		}),
	}).Create(&profile).Error; err != nil {
		return err
	}

	if err := h.replaceSocialLinks(userID, req.SocialLinks); err != nil {
		return c.JSON(fiber.Map{
			"success": true,
			"warning": linkSaveWarning,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile and social links updated successfully!",
	})
}

// replaceSocialLinks deletes every link owned by the user and reinserts the
// submitted list. After a save the stored rows exactly equal the submission.
func (h *ProfileHandler) replaceSocialLinks(userID uuid.UUID, links []socialLinkPayload) error {
	if err := h.db.Where("user_id = ?", userID).Delete(&models.SocialLink{}).Error; err != nil {
		return err
	}

	if len(links) == 0 {
		return nil
	}

	rows := make([]models.SocialLink, 0, len(links))
	for _, link := range links {
		rows = append(rows, models.SocialLink{
			UserID:   userID,
			Platform: link.Platform,
			URL:      link.URL,
		})
	}

	return h.db.Create(&rows).Error
}

type locationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SetLocation reverse-geocodes the submitted coordinates and fills the
// profile's location field. Resolution failure leaves the field unchanged.
func (h *ProfileHandler) SetLocation(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req locationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	place, err := h.geocode.ReverseGeocode(c.Context(), req.Latitude, req.Longitude)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, locationFailure)
	}

	if err := h.db.Model(&models.Profile{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"location": place, "updated_at": time.Now()}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"location": place,
	})
}

// UploadAvatar stores the uploaded image in the file store and records its
// path on the profile.
func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "avatar file is required")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		ext = ".png"
	}

	dir := filepath.Join(h.avatarDir, userID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create avatar dir: %w", err)
	}

	name := uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("store avatar: %w", err)
	}

	storagePath := userID.String() + "/" + name
	if err := h.db.Model(&models.Profile{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"avatar_url": storagePath, "updated_at": time.Now()}).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"path":    storagePath,
	})
}

// DownloadAvatar streams the caller's stored avatar.
func (h *ProfileHandler) DownloadAvatar(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var profile models.Profile
	if err := h.db.First(&profile, "id = ?", userID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "profile not found")
	}

	if profile.AvatarURL == "" {
		return fiber.NewError(fiber.StatusNotFound, "no avatar uploaded")
	}

	path := filepath.Join(h.avatarDir, filepath.FromSlash(profile.AvatarURL))
	if _, err := os.Stat(path); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "avatar file missing")
	}

	return c.SendFile(path)
}

// sanitizeName keeps letters only and caps the result at 15 characters,
// mirroring the input-level sanitation of the name fields.
func sanitizeName(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
		if b.Len() >= nameMaxLength {
			break
		}
	}
	return b.String()
}

func validateProfile(req *updateProfileRequest) map[string]string {
	fieldErrors := map[string]string{}

	if req.FirstName == "" {
		fieldErrors["first_name"] = "First name is required"
	}
	if req.LastName == "" {
		fieldErrors["last_name"] = "Last name is required"
	}

	if req.PhoneNumber == "" {
		fieldErrors["phone_number"] = "Phone Number is required"
	} else if len(req.PhoneNumber) != phoneDigitCount || !allDigits(req.PhoneNumber) {
		fieldErrors["phone_number"] = "Enter a valid 10-digit Phone Number"
	}

	if req.AadhaarNumber == "" {
		fieldErrors["aadhaar_number"] = "Aadhaar number is required"
	} else if len(req.AadhaarNumber) != aadhaarDigitLen || !allDigits(req.AadhaarNumber) {
		fieldErrors["aadhaar_number"] = "Enter a valid 12-digit Aadhaar number"
	}

	return fieldErrors
}

func allDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}
