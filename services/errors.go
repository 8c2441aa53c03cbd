package services

import "errors"

// Общие ошибки, используемые сервисами и маппингом на ответы вызывающей
// стороны.
var (
	// Тонкие ошибки валидации входа
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrRoundNotFound       = errors.New("round not found")
	ErrParticipantNotFound = errors.New("participant not found")

	// Ошибки бизнес-правил жеребьёвки
	ErrInsufficientParticipants = errors.New("fewer than 2 active participants")
	ErrTournamentExhausted      = errors.New("tournament has no rounds left to pair")
	ErrRoundAlreadyPaired       = errors.New("round already has pairings")
	ErrRoundNotPairable         = errors.New("round is not in a pairable status")

	// Ошибки ввода результатов
	ErrInvalidResultTag = errors.New("invalid match result tag")
	ErrScoreLawViolated = errors.New("scores do not match the result tag and tournament scoring")
)
