package handlers

// This file handles the /api/clubs routes. Every club representation carries its
// Division, eager-loaded with GORM's Preload.
//
// A club belongs to exactly one division and owns its forwards:
//   - Creating or replacing a club checks that division_id names a division that exists.
//     A missing division is a 422 on division_id, not a 404, because the club route
//     itself was found.
//   - Deleting a club deletes its forwards too (the clubs -> forwards foreign key is
//     ON DELETE CASCADE), and with them every line partner link they were part of.
//   - A division cannot be deleted while clubs still point at it (see DeleteDivision).

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

// ClubListing filters by name substring or exact division and eager-loads the division.
var ClubListing = listing.Spec{
	Filters: []listing.Filter{
		{Param: "name", Column: "name", Match: listing.Contains},
		{Param: "division_id", Column: "division_id", Match: listing.EqualsID},
	},
	Sortable: map[string]string{
		"id":              "id",
		"name":            "name",
		"division_id":     "division_id",
		"foundation_year": "foundation_year",
	},
	DefaultSort:    "id",
	DefaultPerPage: 5,
	MaxPerPage:     100,
	Preload:        []string{"Division"},
}

// ClubRequest is the JSON body of POST and PUT /api/clubs.
// Integers are pointers so a missing field fails "required" instead of reading as 0.
type ClubRequest struct {
	Name            string  `json:"name" validate:"required,max=100"`                       // Required: the club's name (not unique)
	CoachFirstName  string  `json:"coach_first_name" validate:"required,max=100"`           // Required
	CoachMiddleName *string `json:"coach_middle_name" validate:"omitempty,max=100"`         // Optional; blank is stored as null
	CoachLastName   string  `json:"coach_last_name" validate:"required,max=100"`            // Required
	FoundationYear  *int    `json:"foundation_year" validate:"required,gte=1900,notfuture"` // 1900 up to the current year
	CoachPhoto      *string `json:"coach_photo" validate:"omitempty,url"`                   // Optional: absolute URL of the coach's photo
	DivisionID      *uint64 `json:"division_id" validate:"required"`                        // Must name an existing division
}

// Validate applies the static rules and checks division_id names an existing division.
// PUT replaces the whole record, so optional fields left out are cleared.
func (r ClubRequest) Validate(ctx context.Context, db *gorm.DB) (validation.Result[models.Club], error) {
	if errs := validate.Struct(r); errs != nil {
		return validation.Fail[models.Club](errs), nil
	}

	exists, err := validation.Exists(ctx, db, &models.Division{}, "id", *r.DivisionID)
	if err != nil {
		return validation.Result[models.Club]{}, err
	}
	if !exists {
		return validation.Fail[models.Club](divisionIDError()), nil
	}

	return validation.Ok(models.Club{
		Name:            r.Name,
		CoachFirstName:  r.CoachFirstName,
		CoachMiddleName: emptyToNil(r.CoachMiddleName),
		CoachLastName:   r.CoachLastName,
		FoundationYear:  *r.FoundationYear,
		CoachPhoto:      emptyToNil(r.CoachPhoto),
		DivisionID:      *r.DivisionID,
	}), nil
}

// ListClubs handles GET /api/clubs.
// Query params: name (substring), division_id (exact), sort, order, per_page, page.
func ListClubs(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := ClubListing.Parse(c.Queries()).Unwrap()
		if err != nil {
			return err
		}

		page, err := listing.Find[models.Club](c.UserContext(), db, ClubListing, req)
		if err != nil {
			return fmt.Errorf("list clubs: %w", err)
		}
		return c.JSON(page)
	}
}

// CreateClub handles POST /api/clubs.
// On success it answers 201 with the stored club, Division included.
func CreateClub(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ClubRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		ctx := c.UserContext()
		result, err := body.Validate(ctx, db)
		if err != nil {
			return err
		}
		club, err := result.Unwrap()
		if err != nil {
			return err
		}

		// Omit(clause.Associations) stops GORM from trying to upsert a Division along
		// with the club; only the division_id column is written.
		if err := db.WithContext(ctx).Omit(clause.Associations).Create(&club).Error; err != nil {
			return clubWriteError(err)
		}

		// Reload so the response carries the Division and the database timestamps.
		created, err := findClub(ctx, db, club.ID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// GetClub handles GET /api/clubs/:id.
func GetClub(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id", ErrClubNotFound)
		if err != nil {
			return err
		}

		club, err := findClub(c.UserContext(), db, id)
		if err != nil {
			return err
		}
		return c.JSON(club)
	}
}

// UpdateClub handles PUT /api/clubs/:id.
// The body replaces every field: optional fields left out are cleared, and the club may
// move to another division. An unknown id is a 404 before the body is even read.
func UpdateClub(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id", ErrClubNotFound)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		existing, err := findClub(ctx, db, id)
		if err != nil {
			return err
		}

		var body ClubRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		result, err := body.Validate(ctx, db)
		if err != nil {
			return err
		}
		club, err := result.Unwrap()
		if err != nil {
			return err
		}

		// club comes from the request, so it carries no preloaded Division that could
		// write its id back over the new division_id.
		club.ID = existing.ID
		if err := replaceRow(ctx, db, &club, ErrClubNotFound); err != nil {
			return clubWriteError(err)
		}

		updated, err := findClub(ctx, db, id)
		if err != nil {
			return err
		}
		return c.JSON(updated)
	}
}

// DeleteClub handles DELETE /api/clubs/:id. The club's forwards are removed with it
// (ON DELETE CASCADE). Deleting an unknown id succeeds.
func DeleteClub(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id", ErrClubNotFound)
		if err != nil {
			return err
		}

		if err := db.WithContext(c.UserContext()).Delete(&models.Club{}, id).Error; err != nil {
			return fmt.Errorf("delete club %d: %w", id, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ClubForwards handles GET /api/clubs/:id/forwards and returns every forward of the
// club, ordered by id, without pagination.
func ClubForwards(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id", ErrClubNotFound)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		exists, err := validation.Exists(ctx, db, &models.Club{}, "id", id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrClubNotFound
		}

		forwards := []models.Forward{}
		if err := db.WithContext(ctx).Where("club_id = ?", id).Order("id").Find(&forwards).Error; err != nil {
			return fmt.Errorf("list forwards of club %d: %w", id, err)
		}
		return c.JSON(forwards)
	}
}

func findClub(ctx context.Context, db *gorm.DB, id uint64) (models.Club, error) {
	var club models.Club
	err := db.WithContext(ctx).Preload("Division").First(&club, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return club, ErrClubNotFound
	}
	return club, err
}

// clubWriteError covers a division deleted between validation and the write.
func clubWriteError(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return divisionIDError()
	}
	return fmt.Errorf("save club: %w", err)
}

func divisionIDError() validation.Errors {
	return validation.Errors{"division_id": {validation.ExistsMessage("division_id")}}
}

// emptyToNil stores "" in an optional column as NULL.
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
