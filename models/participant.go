package models

import "time"

// DefaultRating is assumed for participants registered without a rating.
const DefaultRating = 1500

// Participant is a tournament player. Inactive participants keep their
// history but are excluded from future pairings.
type Participant struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	Rating       int       `json:"rating" db:"rating"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
