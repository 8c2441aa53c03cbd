package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusSoon         TournamentStatus = "soon"
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
	StatusCanceled     TournamentStatus = "canceled"
)

// Default scoring used when a tournament row carries no explicit values.
const (
	DefaultPointsWin  = 1.0
	DefaultPointsDraw = 0.5
	DefaultPointsLoss = 0.0
	DefaultByePoints  = 1.0
)

// Tournament представляет швейцарский турнир и его настройки подсчёта очков.
type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	Status          TournamentStatus `json:"status" db:"status"`
	Rounds          int              `json:"rounds" db:"rounds"`
	PointsWin       float64          `json:"points_win" db:"points_win"`
	PointsDraw      float64          `json:"points_draw" db:"points_draw"`
	PointsLoss      float64          `json:"points_loss" db:"points_loss"`
	ByePoints       float64          `json:"bye_points" db:"bye_points"`
	Tiebreakers     string           `json:"tiebreakers" db:"tiebreakers"`
	ForbidRepeatBye bool             `json:"forbid_repeat_bye" db:"forbid_repeat_bye"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
}
