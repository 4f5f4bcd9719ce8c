package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/paisa/internal/middleware"
	"github.com/example/paisa/internal/services"
)

const lookupNetworkError = "Failed to connect to the server. Please check your network connection and try again."

// VerificationHandler exposes the identity-verification workflow.
type VerificationHandler struct {
	verification *services.VerificationService
}

// NewVerificationHandler constructs a VerificationHandler.
func NewVerificationHandler(verification *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

type lookupRequest struct {
	AadharNo string `json:"aadhar_no"`
}

// Lookup validates the submitted Aadhaar number and fetches its identity
// record for user confirmation. Invalid input never reaches the network.
func (h *VerificationHandler) Lookup(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req lookupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	number := services.SanitizeAadhaar(req.AadharNo)

	record, err := h.verification.Lookup(c.Context(), userID, number)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAadhaarRequired) || errors.Is(err, services.ErrAadhaarInvalid):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		default:
			var lookupErr *services.LookupError
			if errors.As(err, &lookupErr) {
				return fiber.NewError(fiber.StatusUnprocessableEntity, lookupErr.Message)
			}
			return fiber.NewError(fiber.StatusBadGateway, lookupNetworkError)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    record,
	})
}

// SendOTP dispatches a verification code to the phone from the fetched record.
func (h *VerificationHandler) SendOTP(c *fiber.Ctx) error {
	return h.dispatchOTP(c, "OTP has been sent")
}

// ResendOTP dispatches a fresh code once the cooldown has elapsed. A request
// inside the cooldown window changes nothing and reports the remaining wait.
func (h *VerificationHandler) ResendOTP(c *fiber.Ctx) error {
	return h.dispatchOTP(c, "OTP has been resent")
}

func (h *VerificationHandler) dispatchOTP(c *fiber.Ctx, message string) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	result, err := h.verification.SendOTP(c.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoIdentityRecord):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrResendCooldown):
			return c.JSON(fiber.Map{
				"success":   true,
				"sent":      false,
				"resend_in": h.verification.ResendIn(userID),
			})
		default:
			return fiber.NewError(fiber.StatusBadGateway, "Failed to send OTP. Please try again.")
		}
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"sent":      true,
		"message":   message,
		"phone":     result.Phone,
		"resend_in": result.ResendIn,
	})
}

type confirmRequest struct {
	Code string `json:"code"`
}

// Confirm checks the submitted code and, on a match, persists the verified
// identity into the caller's profile.
func (h *VerificationHandler) Confirm(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.verification.Confirm(c.Context(), userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoIdentityRecord),
			errors.Is(err, services.ErrOTPIncomplete),
			errors.Is(err, services.ErrOTPMismatch),
			errors.Is(err, services.ErrOTPExpired):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrNoChallenge):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		default:
			return err
		}
	}

	response := fiber.Map{
		"success":  true,
		"verified": result.Verified,
	}
	if result.Warning != "" {
		response["warning"] = result.Warning
	}

	return c.JSON(response)
}
