package handlers

// This file handles /api/forwards/:id/partners: the forwards a forward shares a line with.
// A link is stored as two LinePartner rows (a->b and b->a) so it reads the same from
// either side.

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/hockey-league/internal/models"
	"github.com/trentd187/hockey-league/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartnerRequest is the JSON body of POST /api/forwards/:id/partners.
type PartnerRequest struct {
	PartnerID *uint64 `json:"partner_id" validate:"required"` // The forward to link with; must exist and differ from :id
}

// ListPartners handles GET /api/forwards/:id/partners.
func ListPartners(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id", ErrForwardNotFound)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		if _, err := findForward(ctx, db, id); err != nil {
			return err
		}

		// Passing a *gorm.DB as a query argument makes GORM render it as a subquery:
		// WHERE id IN (SELECT partner_id FROM line_partners WHERE forward_id = ?).
		partnerIDs := db.Model(&models.LinePartner{}).Select("partner_id").Where("forward_id = ?", id)
		partners := []models.Forward{}
		err = db.WithContext(ctx).
			Where("id IN (?)", partnerIDs).
			Order("id").
			Find(&partners).Error
		if err != nil {
			return fmt.Errorf("list partners of forward %d: %w", id, err)
		}
		return c.JSON(partners)
	}
}

// AddPartner handles POST /api/forwards/:id/partners.
// Linking two forwards that are already partners is not an error.
func AddPartner(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id", ErrForwardNotFound)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		if _, err := findForward(ctx, db, id); err != nil {
			return err
		}

		var body PartnerRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		if errs := validate.Struct(body); errs != nil {
			return errs
		}

		partnerID := *body.PartnerID
		if partnerID == id {
			return validation.Errors{"partner_id": {"A forward cannot be its own line partner."}}
		}
		partner, err := findForward(ctx, db, partnerID)
		if errors.Is(err, ErrForwardNotFound) {
			return validation.Errors{"partner_id": {validation.ExistsMessage("partner_id")}}
		}
		if err != nil {
			return err
		}

		links := []models.LinePartner{
			{ForwardID: id, PartnerID: partnerID},
			{ForwardID: partnerID, PartnerID: id},
		}
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&links).Error
		})
		if err != nil {
			return fmt.Errorf("link forwards %d and %d: %w", id, partnerID, err)
		}
		return c.Status(fiber.StatusCreated).JSON(partner)
	}
}

// RemovePartner handles DELETE /api/forwards/:id/partners/:partnerId and removes the
// link in both directions. Removing a link that does not exist succeeds.
func RemovePartner(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id", ErrForwardNotFound)
		if err != nil {
			return err
		}
		partnerID, err := pathID(c, "partnerId", ErrForwardNotFound)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		if _, err := findForward(ctx, db, id); err != nil {
			return err
		}

		err = db.WithContext(ctx).
			Where("(forward_id = ? AND partner_id = ?) OR (forward_id = ? AND partner_id = ?)", id, partnerID, partnerID, id).
			Delete(&models.LinePartner{}).Error
		if err != nil {
			return fmt.Errorf("unlink forwards %d and %d: %w", id, partnerID, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
