package handlers

// This file handles the /api/forwards routes. Every forward representation carries
// its Club.
//
// A forward is identified to clients by its middle name (the only name column the
// roster keeps) and tracks three season counters: goals_scored, assists and
// penalty_minutes. The counters never go below zero. They are optional on input and
// read as 0 when left out, on create and on replace alike.

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/hockey-league/internal/listing"
	"github.com/trentd187/hockey-league/internal/models"
	"github.com/trentd187/hockey-league/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForwardListing filters by middle_name substring or exact club and eager-loads the club.
var ForwardListing = listing.Spec{
	Filters: []listing.Filter{
		{Param: "middle_name", Column: "middle_name", Match: listing.Contains},
		{Param: "club_id", Column: "club_id", Match: listing.EqualsID},
	},
	Sortable: map[string]string{
		"id":              "id",
		"middle_name":     "middle_name",
		"club_id":         "club_id",
		"goals_scored":    "goals_scored",
		"assists":         "assists",
		"penalty_minutes": "penalty_minutes",
	},
	DefaultSort:    "id",
	DefaultPerPage: 5,
	MaxPerPage:     100,
	Preload:        []string{"Club"},
}

// ForwardRequest is the JSON body of POST and PUT /api/forwards.
// The counters are optional and default to 0.
type ForwardRequest struct {
	MiddleName     string  `json:"middle_name" validate:"required,max=100"`    // Required
	ClubID         *uint64 `json:"club_id" validate:"required"`                // Must name an existing club
	GoalsScored    *int    `json:"goals_scored" validate:"omitempty,gte=0"`    // Optional, 0 when omitted
	Assists        *int    `json:"assists" validate:"omitempty,gte=0"`         // Optional, 0 when omitted
	PenaltyMinutes *int    `json:"penalty_minutes" validate:"omitempty,gte=0"` // Optional, 0 when omitted
}

// Validate applies the static rules and checks club_id names an existing club.
func (r ForwardRequest) Validate(ctx context.Context, db *gorm.DB) (validation.Result[models.Forward], error) {
	if errs := validate.Struct(r); errs != nil {
		return validation.Fail[models.Forward](errs), nil
	}

	exists, err := validation.Exists(ctx, db, &models.Club{}, "id", *r.ClubID)
	if err != nil {
		return validation.Result[models.Forward]{}, err
	}
	if !exists {
		return validation.Fail[models.Forward](clubIDError()), nil
	}

	return validation.Ok(models.Forward{
		MiddleName:     r.MiddleName,
		ClubID:         *r.ClubID,
		GoalsScored:    valueOrZero(r.GoalsScored),
		Assists:        valueOrZero(r.Assists),
		PenaltyMinutes: valueOrZero(r.PenaltyMinutes),
	}), nil
}

// ListForwards handles GET /api/forwards.
// Query params: middle_name (substring), club_id (exact), sort, order, per_page, page.
func ListForwards(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := ForwardListing.Parse(c.Queries()).Unwrap()
		if err != nil {
			return err
		}

		page, err := listing.Find[models.Forward](c.UserContext(), db, ForwardListing, req)
		if err != nil {
			return fmt.Errorf("list forwards: %w", err)
		}
		return c.JSON(page)
	}
}

// CreateForward handles POST /api/forwards.
// On success it answers 201 with the stored forward, Club included.
func CreateForward(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ForwardRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		ctx := c.UserContext()
		result, err := body.Validate(ctx, db)
		if err != nil {
			return err
		}
		forward, err := result.Unwrap()
		if err != nil {
			return err
		}

		if err := db.WithContext(ctx).Omit(clause.Associations).Create(&forward).Error; err != nil {
			return forwardWriteError(err)
		}

		created, err := findForward(ctx, db, forward.ID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// GetForward handles GET /api/forwards/:id.
func GetForward(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id", ErrForwardNotFound)
		if err != nil {
			return err
		}

		forward, err := findForward(c.UserContext(), db, id)
		if err != nil {
			return err
		}
		return c.JSON(forward)
	}
}

// UpdateForward handles PUT /api/forwards/:id. Counters left out of the body are reset to 0.
func UpdateForward(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id", ErrForwardNotFound)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		existing, err := findForward(ctx, db, id)
		if err != nil {
			return err
		}

		var body ForwardRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		result, err := body.Validate(ctx, db)
		if err != nil {
			return err
		}
		forward, err := result.Unwrap()
		if err != nil {
			return err
		}

		forward.ID = existing.ID
		if err := replaceRow(ctx, db, &forward, ErrForwardNotFound); err != nil {
			return forwardWriteError(err)
		}

		updated, err := findForward(ctx, db, id)
		if err != nil {
			return err
		}
		return c.JSON(updated)
	}
}

// DeleteForward handles DELETE /api/forwards/:id. Line partner links on both sides
// go with it. Deleting an unknown id succeeds.
func DeleteForward(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id", ErrForwardNotFound)
		if err != nil {
			return err
		}

		if err := db.WithContext(c.UserContext()).Delete(&models.Forward{}, id).Error; err != nil {
			return fmt.Errorf("delete forward %d: %w", id, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func findForward(ctx context.Context, db *gorm.DB, id uint64) (models.Forward, error) {
	var forward models.Forward
	err := db.WithContext(ctx).Preload("Club").First(&forward, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return forward, ErrForwardNotFound
	}
	return forward, err
}

func forwardWriteError(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return clubIDError()
	}
	return fmt.Errorf("save forward: %w", err)
}

func clubIDError() validation.Errors {
	return validation.Errors{"club_id": {validation.ExistsMessage("club_id")}}
}

func valueOrZero(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
