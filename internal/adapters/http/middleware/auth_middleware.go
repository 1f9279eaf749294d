package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"easyshopas-backend/internal/core/domain"
	"easyshopas-backend/internal/core/services"
	"easyshopas-backend/internal/pkg/response"
)

// Locals keys set by Protected
const (
	LocalUser   = "user"
	LocalUserID = "userID"
	LocalEmail  = "email"
	LocalRole   = "role"
)

// Protected creates authentication middleware: it resolves the principal
// from the bearer access token and stores it in the request context.
// Absence or malformed token is an authentication failure, never a crash.
func Protected(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		user, err := authService.CurrentUser(c.Context(), accessToken)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTokenExpired), errors.Is(err, domain.ErrTokenInvalid):
				return response.Unauthorized(c, "Invalid or expired access token")
			default:
				return response.ServiceUnavailable(c, "Service unavailable")
			}
		}

		if !user.IsActive {
			return response.Forbidden(c, "User account is inactive")
		}

		c.Locals(LocalUser, user)
		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalEmail, user.Email)
		c.Locals(LocalRole, user.RoleValue())

		return c.Next()
	}
}

// RequireRoles creates the role gate: the caller is already authenticated
// by Protected; the call is allowed iff the principal's role is in the
// permitted set. There is no role hierarchy.
func RequireRoles(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalRole).(domain.Role)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only the admin role
func AdminOnly() fiber.Handler {
	return RequireRoles(domain.RoleAdmin)
}

// extractToken reads the access token from the cookie or the
// Authorization header
func extractToken(c *fiber.Ctx) string {
	if tok := c.Cookies("access_token"); tok != "" {
		return tok
	}

	authHeader := c.Get("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
