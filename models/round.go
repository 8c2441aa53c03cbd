package models

import "time"

// RoundStatus представляет статусы тура, соответствующие ENUM в БД.
type RoundStatus string

const (
	RoundStatusPending   RoundStatus = "pending"
	RoundStatusPaired    RoundStatus = "paired"
	RoundStatusCompleted RoundStatus = "completed"
)

// Round is a single tournament round. Numbers are 1-based and monotonic
// within a tournament.
type Round struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Number       int         `json:"number" db:"number"`
	Status       RoundStatus `json:"status" db:"status"`
	PairedAt     *time.Time  `json:"paired_at,omitempty" db:"paired_at"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// IsValidRoundStatusTransition reports whether a round may move from one
// status to another. Rounds only move forward.
func IsValidRoundStatusTransition(current, next RoundStatus) bool {
	if current == next {
		return true
	}
	allowed := map[RoundStatus][]RoundStatus{
		RoundStatusPending:   {RoundStatusPaired},
		RoundStatusPaired:    {RoundStatusCompleted},
		RoundStatusCompleted: {},
	}
	for _, s := range allowed[current] {
		if next == s {
			return true
		}
	}
	return false
}
