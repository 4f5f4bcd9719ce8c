package handlers

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/paisa/internal/config"
	"github.com/example/paisa/internal/middleware"
	"github.com/example/paisa/internal/models"
	"github.com/example/paisa/internal/services"
	"github.com/example/paisa/internal/session"
	"github.com/example/paisa/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	sessions *session.Store
	sms      *services.SMSClient
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, sessions *session.Store, sms *services.SMSClient) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, sessions: sessions, sms: sms}
}

type registerRequest struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates a new user account with an empty profile row and sends a
// sign-up confirmation code when a phone number was supplied.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "user already exists")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	profile := models.Profile{
		ID:        user.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := h.db.Create(&profile).Error; err != nil {
		return err
	}

	if req.Phone != "" {
		if err := h.sendConfirmation(c, &user); err != nil {
			log.Printf("sign-up confirmation for %s not delivered: %v", user.Email, err)
		}
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create session")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, sess.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"phone": user.Phone,
		},
		"token":         token,
		"refresh_token": sess.RefreshID,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an existing user and opens a session.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create session")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, sess.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
		},
		"token":         token,
		"refresh_token": sess.RefreshID,
		"expires_at":    sess.ExpiresAt,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh replaces the current session with a new one.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	refreshID, err := uuid.Parse(req.RefreshToken)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid refresh token")
	}

	sess, err := h.sessions.Refresh(refreshID)
	if err != nil {
		if err == session.ErrNotFound {
			return fiber.NewError(fiber.StatusUnauthorized, "refresh token expired")
		}
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, sess.UserID, sess.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"token":         token,
		"refresh_token": sess.RefreshID,
		"expires_at":    sess.ExpiresAt,
	})
}

// Session returns the caller's current session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	sessionID, ok := middleware.GetCurrentSessionID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "session expired")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"session": sess,
	})
}

// Logout revokes the caller's session. Failures surface to the caller so the
// client can tell sign-out did not take effect.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sessionID, ok := middleware.GetCurrentSessionID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.sessions.Revoke(sessionID); err != nil {
		if err == session.ErrNotFound {
			return c.JSON(fiber.Map{"success": true})
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to sign out")
	}

	return c.JSON(fiber.Map{"success": true})
}

type resendConfirmationRequest struct {
	Email string `json:"email"`
}

// ResendConfirmation re-sends the sign-up confirmation code.
func (h *AuthHandler) ResendConfirmation(c *fiber.Ctx) error {
	var req resendConfirmationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	if user.Confirmed {
		return c.JSON(fiber.Map{"success": true, "message": "account already confirmed"})
	}

	if user.Phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "no phone number on record")
	}

	if err := h.sendConfirmation(c, &user); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to send confirmation code")
	}

	return c.JSON(fiber.Map{"success": true, "message": "confirmation code sent"})
}

func (h *AuthHandler) sendConfirmation(c *fiber.Ctx, user *models.User) error {
	code, err := generateConfirmationCode()
	if err != nil {
		return err
	}

	confirmation := models.SignupConfirmation{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	if err := h.db.Create(&confirmation).Error; err != nil {
		return err
	}

	return h.sms.Send(c.Context(), user.Phone, "Your confirmation code is: "+code)
}

func generateConfirmationCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
