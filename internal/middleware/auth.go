// Package middleware contains HTTP middleware functions for the Hockey League API.
// Middleware sits between the HTTP server and route handlers: it runs on every
// request that passes through it, making it the right place for cross-cutting
// concerns like authentication and request logging.
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/hockey-league/internal/auth"
	"github.com/trentd187/hockey-league/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Keys under which Auth stores the caller in c.Locals.
const (
	localUser   = "user"
	localClaims = "claims"
)

// Auth returns a Fiber middleware handler that:
//  1. Reads the token from the "Authorization: Bearer <token>" header
//  2. Verifies its signature, issuer and expiry, and that it was not logged out
//  3. Loads the user the token was issued to
//  4. Stores the user and the token claims in c.Locals for downstream handlers
//
// Any failure answers 401 with {"message": "Unauthenticated."}; a broken store answers 500.
func Auth(tokens *auth.Service, db *gorm.DB, log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			return unauthenticated(c)
		}

		claims, err := tokens.Parse(c.UserContext(), strings.TrimSpace(raw))
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenRevoked) {
				log.Debugw("rejected token", "error", err, "path", c.Path())
				return unauthenticated(c)
			}
			return err
		}

		userID, err := claims.UserID()
		if err != nil {
			return unauthenticated(c)
		}

		// The account may have been deleted after the token was issued.
		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return unauthenticated(c)
			}
			return err
		}

		c.Locals(localUser, &user)
		c.Locals(localClaims, claims)
		return c.Next()
	}
}

// CurrentUser returns the user Auth stored for this request, or nil outside an
// authenticated route.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

// CurrentClaims returns the verified token claims for this request, or nil.
func CurrentClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(localClaims).(*auth.Claims)
	return claims
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": "Unauthenticated.",
	})
}
