package middleware

import (
	"estate-backend/internal/auth"
	"estate-backend/internal/domain"
	"estate-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const callerLocal = "caller"

// RequireCaller verifies the bearer token and stores the caller account in Locals.
// Returns 401 with the standard error format if the token is missing or invalid,
// and 503 when token verification itself is not configured.
func RequireCaller(tokens *auth.Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return response.Unauthorized(c, err.Error())
		}
		account, err := tokens.Parse(raw)
		if err != nil {
			if !auth.IsAuthError(err) {
				log.Error().Err(err).Str("path", c.Path()).Msg("Bearer token verification unavailable")
				return response.Error(c, "Authentication is not configured", fiber.StatusServiceUnavailable)
			}
			return response.Unauthorized(c, err.Error())
		}
		c.Locals(callerLocal, account)
		return c.Next()
	}
}

// GetCaller returns the authenticated account ("" if none).
func GetCaller(c *fiber.Ctx) domain.Account {
	a, _ := c.Locals(callerLocal).(domain.Account)
	return a
}

// SetCaller stores the caller account; used by RequireCaller and by tests.
func SetCaller(c *fiber.Ctx, account domain.Account) {
	c.Locals(callerLocal, account)
}
