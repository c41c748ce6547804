// Package models defines the data structures (models) that map to database tables.
// GORM uses these structs to generate SQL queries and map database rows back to Go values.
// The struct field tags (the backtick strings like `gorm:"..."`) tell GORM how to handle
// each field: its column type, constraints and relationships. The json tags define the
// shape the API returns, so the same struct doubles as the response representation.
//
// The data model represents a hockey league:
//   - Divisions group Clubs
//   - Clubs employ Forwards
//   - Forwards play on lines with other Forwards (LinePartner)
//
// The auth collaborator adds Users and RevokedTokens.
package models

import "time"

// --- Models ---
// GORM uses the struct name (snake_cased and pluralized) as the table name by default:
// Division -> divisions, Club -> clubs, Forward -> forwards, LinePartner -> line_partners.

// Division is the top-level grouping of clubs. Names are unique across divisions.
type Division struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Club belongs to exactly one Division.
//
// Deleting a division that still has clubs is refused (ON DELETE RESTRICT). This is
// deliberately different from Club -> Forward, which cascades.
type Club struct {
	ID              uint64    `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:100;not null" json:"name"`
	CoachFirstName  string    `gorm:"size:100;not null" json:"coach_first_name"`
	CoachMiddleName *string   `gorm:"size:100" json:"coach_middle_name"` // Optional; pointer = nullable
	CoachLastName   string    `gorm:"size:100;not null" json:"coach_last_name"`
	FoundationYear  int       `gorm:"not null" json:"foundation_year"`
	CoachPhoto      *string   `json:"coach_photo"` // Optional absolute URL
	DivisionID      uint64    `gorm:"not null;index" json:"division_id"`
	Division        *Division `gorm:"foreignKey:DivisionID;constraint:OnDelete:RESTRICT" json:"division,omitempty"` // Eager-loaded on read
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Forward is a player attached to a Club. Removing the club removes its forwards.
type Forward struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	MiddleName     string    `gorm:"size:100;not null" json:"middle_name"`
	ClubID         uint64    `gorm:"not null;index" json:"club_id"`
	Club           *Club     `gorm:"foreignKey:ClubID;constraint:OnDelete:CASCADE" json:"club,omitempty"`
	GoalsScored    int       `gorm:"not null;default:0" json:"goals_scored"`
	Assists        int       `gorm:"not null;default:0" json:"assists"`
	PenaltyMinutes int       `gorm:"not null;default:0" json:"penalty_minutes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LinePartner links two forwards who play on the same line.
// The association is symmetric: every pair is stored in both directions, so
// "partners of X" is always a single lookup on forward_id. Both sides cascade.
type LinePartner struct {
	ID        uint64   `gorm:"primaryKey"`
	ForwardID uint64   `gorm:"not null;uniqueIndex:idx_line_partner_pair"`
	Forward   *Forward `gorm:"foreignKey:ForwardID;constraint:OnDelete:CASCADE"`
	PartnerID uint64   `gorm:"not null;uniqueIndex:idx_line_partner_pair"`
	Partner   *Forward `gorm:"foreignKey:PartnerID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is an API account. Users authenticate with email + password and receive a
// bearer token; the password hash never leaves the server.
type User struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RevokedToken records a logged-out token id until the token would have expired anyway.
// Used by the database-backed denylist; the Redis denylist keeps the same data as TTL keys.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:64"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// All returns every model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Division{},
		&Club{},
		&Forward{},
		&LinePartner{},
		&User{},
		&RevokedToken{},
	}
}
