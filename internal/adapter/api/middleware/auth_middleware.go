package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"dermacare/internal/domain/entity"
	"dermacare/internal/domain/repository"
	"dermacare/pkg/errors"
	"dermacare/pkg/response"
)

// TokenVerifier checks a bearer token and returns the subject UID.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	userRepo repository.UserRepository
}

func NewAuthMiddleware(verifier TokenVerifier, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		userRepo: userRepo,
	}
}

// Authenticate verifies the bearer credential, loads the acting user and
// rejects deactivated accounts before any handler runs.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		uid, err := m.verifier.VerifyToken(c.Request().Context(), parts[1])
		if err != nil {
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		user, err := m.userRepo.GetByID(c.Request().Context(), uid)
		if err != nil {
			return response.Error(c, errors.Unauthorized("User not found", err))
		}
		if !user.IsActive {
			return response.Error(c, errors.Unauthorized("User account is deactivated", nil))
		}

		c.Set("uid", user.ID)
		c.Set("user", user)

		return next(c)
	}
}

// RequireVerified rejects users whose email address is unverified.
func (m *AuthMiddleware) RequireVerified(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get("user").(*entity.User)
		if !ok {
			return response.Error(c, errors.Unauthorized("Not authenticated", nil))
		}
		if !user.IsEmailVerified {
			return response.Error(c, errors.Forbidden("Please verify your email address", nil))
		}
		return next(c)
	}
}

// RestrictTo limits a route to the given roles.
func (m *AuthMiddleware) RestrictTo(roles ...entity.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get("user").(*entity.User)
			if !ok {
				return response.Error(c, errors.Unauthorized("Not authenticated", nil))
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return response.Error(c, errors.Forbidden("You do not have permission to perform this action", nil))
		}
	}
}
