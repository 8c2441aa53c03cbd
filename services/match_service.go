package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/ravoluxiz-cmyk/RepChessTgApp/models"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/repositories"
)

type MatchService interface {
	SubmitResult(ctx context.Context, matchID int, result models.MatchResult, scoreWhite, scoreBlack float64) error
}

type matchService struct {
	tournamentRepo repositories.TournamentRepository
	roundRepo      repositories.RoundRepository
	matchRepo      repositories.MatchRepository
	logger         *slog.Logger
}

func NewMatchService(
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &matchService{
		tournamentRepo: tournamentRepo,
		roundRepo:      roundRepo,
		matchRepo:      matchRepo,
		logger:         logger,
	}
}

// SubmitResult validates a result against the tournament's scoring law and
// stores it. When the last open match of a round is decided the round is
// marked completed.
func (s *matchService) SubmitResult(ctx context.Context, matchID int, result models.MatchResult, scoreWhite, scoreBlack float64) error {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return fmt.Errorf("match %d: %w", matchID, err)
		}
		return fmt.Errorf("failed to load match %d: %w", matchID, err)
	}

	round, err := s.roundRepo.GetByID(ctx, match.RoundID)
	if err != nil {
		return fmt.Errorf("failed to load round %d of match %d: %w", match.RoundID, matchID, err)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, round.TournamentID)
	if err != nil {
		return fmt.Errorf("failed to load tournament %d: %w", round.TournamentID, err)
	}

	if match.IsBye() && result != models.ResultBye {
		return fmt.Errorf("%w: match %d is a bye pair", ErrInvalidResultTag, matchID)
	}
	if err := validateScoreLaw(tournament, result, scoreWhite, scoreBlack); err != nil {
		return fmt.Errorf("match %d: %w", matchID, err)
	}

	if err := s.matchRepo.UpdateResult(ctx, nil, matchID, result, scoreWhite, scoreBlack); err != nil {
		return fmt.Errorf("failed to store result for match %d: %w", matchID, err)
	}

	s.logger.Info("match result stored",
		slog.Int("match_id", matchID),
		slog.String("result", string(result)))

	return s.completeRoundIfDone(ctx, round)
}

// completeRoundIfDone flips a paired round to completed once every match of
// the round carries a terminal result.
func (s *matchService) completeRoundIfDone(ctx context.Context, round *models.Round) error {
	if round.Status != models.RoundStatusPaired {
		return nil
	}

	matches, err := s.matchRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return fmt.Errorf("failed to list matches of round %d: %w", round.ID, err)
	}
	for _, m := range matches {
		if !m.IsTerminal() {
			return nil
		}
	}

	if !models.IsValidRoundStatusTransition(round.Status, models.RoundStatusCompleted) {
		return nil
	}
	if err := s.roundRepo.UpdateStatus(ctx, nil, round.ID, models.RoundStatusCompleted); err != nil {
		return fmt.Errorf("failed to complete round %d: %w", round.ID, err)
	}
	s.logger.Info("round completed", slog.Int("round_id", round.ID))
	return nil
}

// validateScoreLaw checks the scoring invariant: decisive results split
// win+loss points, draws split twice the draw points, byes award the
// configured bye points to white only.
func validateScoreLaw(t *models.Tournament, result models.MatchResult, scoreWhite, scoreBlack float64) error {
	total := scoreWhite + scoreBlack
	eq := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

	switch result {
	case models.ResultWhiteWins, models.ResultBlackWins,
		models.ResultForfeitWhite, models.ResultForfeitBlack:
		if !eq(total, t.PointsWin+t.PointsLoss) {
			return ErrScoreLawViolated
		}
	case models.ResultDraw:
		if !eq(total, 2*t.PointsDraw) {
			return ErrScoreLawViolated
		}
	case models.ResultBye:
		if !eq(scoreWhite, t.ByePoints) || !eq(scoreBlack, 0) {
			return ErrScoreLawViolated
		}
	case models.ResultNotPlayed:
		if !eq(total, 0) {
			return ErrScoreLawViolated
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidResultTag, result)
	}
	return nil
}
