package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ravoluxiz-cmyk/RepChessTgApp/history"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/models"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/repositories"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/standings"
	"golang.org/x/sync/errgroup"
)

type StandingsService interface {
	GetStandings(ctx context.Context, tournamentID int) ([]standings.Entry, error)
}

type swissStandingsService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	roundRepo       repositories.RoundRepository
	matchRepo       repositories.MatchRepository
	logger          *slog.Logger
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) StandingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &swissStandingsService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		roundRepo:       roundRepo,
		matchRepo:       matchRepo,
		logger:          logger,
	}
}

// GetStandings builds the totally ordered standings table over the whole
// roster, inactive participants included: they keep their history and rank.
func (s *swissStandingsService) GetStandings(ctx context.Context, tournamentID int) ([]standings.Entry, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrTournamentNotFound, tournamentID)
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	var (
		participants []*models.Participant
		rounds       []*models.Round
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var loadErr error
		participants, loadErr = s.participantRepo.ListByTournament(gCtx, tournamentID, false)
		if loadErr != nil {
			return fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, loadErr)
		}
		return nil
	})
	g.Go(func() error {
		var loadErr error
		rounds, loadErr = s.roundRepo.ListByTournament(gCtx, tournamentID, nil)
		if loadErr != nil {
			return fmt.Errorf("failed to list rounds for tournament %d: %w", tournamentID, loadErr)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	roundIDs := make([]int, 0, len(rounds))
	for _, r := range rounds {
		roundIDs = append(roundIDs, r.ID)
	}
	matches, err := s.matchRepo.ListByRounds(ctx, roundIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for tournament %d: %w", tournamentID, err)
	}

	histories, err := history.Build(participants, matches, s.logger)
	if err != nil {
		return nil, fmt.Errorf("tournament %d: %w", tournamentID, err)
	}

	keys := standings.ParseKeys(tournament.Tiebreakers, s.logger)
	return standings.Compute(keys, participants, histories), nil
}
