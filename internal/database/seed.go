package database

import (
	"context"
	"fmt"

	"github.com/trentd187/hockey-league/internal/models"
	"gorm.io/gorm"
)

// Seed inserts the fixture league: four divisions, a club in each of the first three and
// one forward per club. It does nothing when any division already exists, so running it
// on every start is safe. Everything is inserted in one transaction.
func Seed(ctx context.Context, db *gorm.DB) (bool, error) {
	var existing int64
	if err := db.WithContext(ctx).Model(&models.Division{}).Count(&existing).Error; err != nil {
		return false, fmt.Errorf("count divisions: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		divisions := []models.Division{
			{Name: "Дивизион Чернышева"},
			{Name: "Дивизион Тарасова"},
			{Name: "Дивизион Харламова"},
			{Name: "Дивизион Боброва"},
		}
		if err := tx.Create(&divisions).Error; err != nil {
			return fmt.Errorf("seed divisions: %w", err)
		}

		photo := "https://img.championat.com/c/900x900/news/big/q/u/novyj-glavnyj-trener-spartak.jpg"
		clubs := []models.Club{
			{Name: "СКА", CoachFirstName: "Роман", CoachMiddleName: ptr("Ротенберг"), CoachLastName: "Эгоистович", FoundationYear: 1946, CoachPhoto: &photo, DivisionID: divisions[0].ID},
			{Name: "ЦСКА", CoachFirstName: "Миллер", CoachMiddleName: ptr("Расманов"), CoachLastName: "Артемович", FoundationYear: 1946, CoachPhoto: &photo, DivisionID: divisions[1].ID},
			{Name: "Ак Барс", CoachFirstName: "Артур", CoachMiddleName: ptr("Зяббаров"), CoachLastName: "Альбертович", FoundationYear: 1956, CoachPhoto: &photo, DivisionID: divisions[2].ID},
		}
		if err := tx.Create(&clubs).Error; err != nil {
			return fmt.Errorf("seed clubs: %w", err)
		}

		forwards := []models.Forward{
			{MiddleName: "Овечкин", ClubID: clubs[0].ID, GoalsScored: 30, Assists: 25, PenaltyMinutes: 10},
			{MiddleName: "Малкин", ClubID: clubs[1].ID, GoalsScored: 25, Assists: 30, PenaltyMinutes: 15},
			{MiddleName: "Кучеров", ClubID: clubs[2].ID, GoalsScored: 20, Assists: 20, PenaltyMinutes: 5},
		}
		if err := tx.Create(&forwards).Error; err != nil {
			return fmt.Errorf("seed forwards: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func ptr[T any](v T) *T { return &v }
