// Package handlers contains HTTP route handler functions for the Hockey League API.
// This file handles the /api/divisions routes.
//
// Each exported function follows the "handler factory" pattern: it takes a *gorm.DB
// and returns a fiber.Handler. Handlers return errors instead of writing error bodies
// themselves; ErrorHandler (errors.go) turns them into responses.
package handlers

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

// validate checks the struct-tag rules of every request body in this package.
var validate = validation.New()

// DivisionListing filters by name substring and sorts by id or name.
var DivisionListing = listing.Spec{
	Filters: []listing.Filter{
		{Param: "name", Column: "name", Match: listing.Contains},
	},
	Sortable:       map[string]string{"id": "id", "name": "name"},
	DefaultSort:    "id",
	DefaultPerPage: 5,
	MaxPerPage:     100,
}

// DivisionRequest is the JSON body of POST and PUT /api/divisions.
type DivisionRequest struct {
	Name string `json:"name" validate:"required,max=100"` // Required, unique across divisions
}

// Validate applies the static rules and checks the name is not used by another
// division. exceptID is the division being replaced (0 on create).
func (r DivisionRequest) Validate(ctx context.Context, db *gorm.DB, exceptID uint64) (validation.Result[models.Division], error) {
	if errs := validate.Struct(r); errs != nil {
		return validation.Fail[models.Division](errs), nil
	}

	unique, err := validation.Unique(ctx, db, &models.Division{}, "name", r.Name, exceptID)
	if err != nil {
		return validation.Result[models.Division]{}, err
	}
	if !unique {
		return validation.Fail[models.Division](validation.Errors{"name": {validation.UniqueMessage("name")}}), nil
	}

	return validation.Ok(models.Division{Name: r.Name}), nil
}

// ListDivisions handles GET /api/divisions.
// Query params: name (substring), sort (id|name), order (asc|desc), per_page, page.
func ListDivisions(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := DivisionListing.Parse(c.Queries()).Unwrap()
		if err != nil {
			return err
		}

		page, err := listing.Find[models.Division](c.UserContext(), db, DivisionListing, req)
		if err != nil {
			return fmt.Errorf("list divisions: %w", err)
		}
		return c.JSON(page)
	}
}

// CreateDivision handles POST /api/divisions.
func CreateDivision(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body DivisionRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		ctx := c.UserContext()
		result, err := body.Validate(ctx, db, 0)
		if err != nil {
			return err
		}
		division, err := result.Unwrap()
		if err != nil {
			return err
		}

		if err := db.WithContext(ctx).Create(&division).Error; err != nil {
			return divisionWriteError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(division)
	}
}

// GetDivision handles GET /api/divisions/:id.
func GetDivision(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id", ErrDivisionNotFound)
		if err != nil {
			return err
		}

		division, err := findDivision(c.UserContext(), db, id)
		if err != nil {
			return err
		}
		return c.JSON(division)
	}
}

// UpdateDivision handles PUT /api/divisions/:id. The body replaces every field.
func UpdateDivision(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id", ErrDivisionNotFound)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		division, err := findDivision(ctx, db, id)
		if err != nil {
			return err
		}

		var body DivisionRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		result, err := body.Validate(ctx, db, id)
		if err != nil {
			return err
		}
		replacement, err := result.Unwrap()
		if err != nil {
			return err
		}

		division.Name = replacement.Name
		if err := replaceRow(ctx, db, &division, ErrDivisionNotFound); err != nil {
			return divisionWriteError(err)
		}
		return c.JSON(division)
	}
}

// DeleteDivision handles DELETE /api/divisions/:id.
// Deleting an unknown id succeeds (204). A division that still has clubs is not deleted
// and the request fails with 409; clubs must be moved or removed first.
func DeleteDivision(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id", ErrDivisionNotFound)
		if err != nil {
			return err
		}

		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			var clubs int64
			if err := tx.Model(&models.Club{}).Where("division_id = ?", id).Count(&clubs).Error; err != nil {
				return err
			}
			if clubs > 0 {
				return ErrDivisionHasClubs
			}
			return tx.Delete(&models.Division{}, id).Error
		})
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			// A club was added between the count and the delete.
			return ErrDivisionHasClubs
		}
		if err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func findDivision(ctx context.Context, db *gorm.DB, id uint64) (models.Division, error) {
	var division models.Division
	err := db.WithContext(ctx).First(&division, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return division, ErrDivisionNotFound
	}
	return division, err
}

// replaceRow overwrites every column of the row named by model's primary key, zero
// values included. Unlike Save it never falls back to INSERT: a row deleted since it
// was read reports notFound instead of being brought back.
func replaceRow(ctx context.Context, db *gorm.DB, model any, notFound error) error {
	res := db.WithContext(ctx).Model(model).
		Select("*").
		Omit(clause.Associations, "created_at").
		Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound
	}
	return nil
}

// divisionWriteError maps a unique-index race (two requests creating the same name
// at once) back to the validation error the pre-check would have produced.
func divisionWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return validation.Errors{"name": {validation.UniqueMessage("name")}}
	}
	return fmt.Errorf("save division: %w", err)
}
