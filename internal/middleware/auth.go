package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/paisa/internal/config"
	"github.com/example/paisa/internal/session"
	"github.com/example/paisa/internal/utils"
)

const (
	userContextKey    = "currentUserID"
	sessionContextKey = "currentSessionID"
)

// AuthMiddleware validates JWT tokens, requires the backing session to still
// exist and loads the authenticated user ID into context. A revoked session
// rejects the token even while the JWT itself is unexpired.
func AuthMiddleware(cfg *config.Config, sessions *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		userID, sessionID, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		if _, err := sessions.Get(sessionID); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "session expired")
		}

		c.Locals(userContextKey, userID)
		c.Locals(sessionContextKey, sessionID)
		return c.Next()
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

// GetCurrentSessionID extracts the session ID bound to the request token.
func GetCurrentSessionID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(sessionContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}
