package handlers

// This file handles account and session routes: register, login, logout, me and
// update-profile. Register and login are public; the rest run behind middleware.Auth.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/hockey-league/internal/auth"
	"github.com/trentd187/hockey-league/internal/middleware"
	"github.com/trentd187/hockey-league/internal/models"
	"github.com/trentd187/hockey-league/internal/validation"
	"gorm.io/gorm"
)

// RegisterRequest is the JSON body of POST /api/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72" trim:"-"` // bcrypt ignores bytes past 72
}

// LoginRequest is the JSON body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required" trim:"-"`
}

// ProfileRequest is the JSON body of PUT /api/update-profile. An empty password keeps
// the current one.
type ProfileRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"omitempty,min=8,max=72" trim:"-"`
}

// SessionResponse is returned by register and login: the token fields plus the user.
type SessionResponse struct {
	auth.Token
	User models.User `json:"user"`
}

// Register handles POST /api/register. It creates the account and logs it in.
func Register(db *gorm.DB, tokens *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		body.Email = normalizeEmail(body.Email)

		ctx := c.UserContext()
		if err := validateAccount(ctx, db, body, body.Email, 0); err != nil {
			return err
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return err
		}
		user := models.User{Name: body.Name, Email: body.Email, PasswordHash: hash}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			return userWriteError(err)
		}

		token, err := tokens.Issue(user.ID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(SessionResponse{Token: token, User: user})
	}
}

// Login handles POST /api/login. Unknown email and wrong password both answer 401 with
// the same message.
func Login(db *gorm.DB, tokens *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		body.Email = normalizeEmail(body.Email)
		if errs := validate.Struct(body); errs != nil {
			return errs
		}

		var user models.User
		err := db.WithContext(c.UserContext()).Where("email = ?", body.Email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.ErrInvalidCredentials
		}
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		if err := auth.CheckPassword(user.PasswordHash, body.Password); err != nil {
			return err
		}

		token, err := tokens.Issue(user.ID)
		if err != nil {
			return err
		}
		return c.JSON(SessionResponse{Token: token, User: user})
	}
}

// Logout handles POST /api/logout. Only the presented token is revoked; other sessions
// of the same user stay valid.
func Logout(tokens *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := tokens.Revoke(c.UserContext(), middleware.CurrentClaims(c)); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Successfully logged out."})
	}
}

// Me handles GET /api/me.
func Me(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

// UpdateProfile handles PUT /api/update-profile.
func UpdateProfile(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)

		var body ProfileRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		body.Email = normalizeEmail(body.Email)

		ctx := c.UserContext()
		if err := validateAccount(ctx, db, body, body.Email, user.ID); err != nil {
			return err
		}

		user.Name = body.Name
		user.Email = body.Email
		if body.Password != "" {
			hash, err := auth.HashPassword(body.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}
		if err := db.WithContext(ctx).Save(user).Error; err != nil {
			return userWriteError(err)
		}
		return c.JSON(user)
	}
}

// validateAccount checks the struct rules of body and that email is free.
// exceptID is the user being updated (0 on register).
func validateAccount(ctx context.Context, db *gorm.DB, body any, email string, exceptID uint64) error {
	if errs := validate.Struct(body); errs != nil {
		return errs
	}
	unique, err := validation.Unique(ctx, db, &models.User{}, "email", email, exceptID)
	if err != nil {
		return err
	}
	if !unique {
		return emailTakenError()
	}
	return nil
}

func userWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return emailTakenError()
	}
	return fmt.Errorf("save user: %w", err)
}

func emailTakenError() validation.Errors {
	return validation.Errors{"email": {validation.UniqueMessage("email")}}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
