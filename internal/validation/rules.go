package validation

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Exists reports whether a row of model has column = value.
func Exists(ctx context.Context, db *gorm.DB, model any, column string, value any) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(model).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check %s exists: %w", column, err)
	}
	return count > 0, nil
}

// Unique reports whether no row of model other than exceptID has column = value.
// Pass exceptID = 0 on create.
func Unique(ctx context.Context, db *gorm.DB, model any, column string, value any, exceptID uint64) (bool, error) {
	query := db.WithContext(ctx).
		Model(model).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check %s unique: %w", column, err)
	}
	return count == 0, nil
}

// ExistsMessage is the message for a reference that points at nothing.
func ExistsMessage(field string) string {
	return fmt.Sprintf("The selected %s is invalid.", Label(field))
}

// UniqueMessage is the message for a value another record already uses.
func UniqueMessage(field string) string {
	return fmt.Sprintf("The %s has already been taken.", Label(field))
}
