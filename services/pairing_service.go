package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ravoluxiz-cmyk/RepChessTgApp/history"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/models"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/repositories"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/swiss"
	"golang.org/x/sync/errgroup"
)

// PairedRound is the result of a successful pairing call: the round marked
// paired plus its freshly inserted matches in board order.
type PairedRound struct {
	Round            *models.Round   `json:"round"`
	Matches          []*models.Match `json:"matches"`
	ByeParticipantID *int            `json:"bye_participant_id,omitempty"`
}

type PairingService interface {
	PairRound(ctx context.Context, tournamentID, roundNumber int) (*PairedRound, error)
}

type swissPairingService struct {
	tx              repositories.TxRunner
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	roundRepo       repositories.RoundRepository
	matchRepo       repositories.MatchRepository
	logger          *slog.Logger

	// colorSeed makes the round-1 color toss reproducible. Pairing the same
	// round of the same tournament twice yields identical drafts.
	colorSeed int64
}

func NewPairingService(
	tx repositories.TxRunner,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
	colorSeed int64,
) PairingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &swissPairingService{
		tx:              tx,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		roundRepo:       roundRepo,
		matchRepo:       matchRepo,
		logger:          logger,
		colorSeed:       colorSeed,
	}
}

// PairRound generates and persists the pairings of one round. The engine
// itself is pure; this method owns the repository I/O and the transaction
// around the batch insert plus the round status update.
func (s *swissPairingService) PairRound(ctx context.Context, tournamentID, roundNumber int) (*PairedRound, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrTournamentNotFound, tournamentID)
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	if roundNumber < 1 {
		return nil, fmt.Errorf("%w: tournament %d round %d", ErrRoundNotFound, tournamentID, roundNumber)
	}
	if roundNumber > tournament.Rounds {
		return nil, fmt.Errorf("%w: tournament %d is planned for %d rounds, round %d requested",
			ErrTournamentExhausted, tournamentID, tournament.Rounds, roundNumber)
	}

	var (
		participants []*models.Participant
		priorRounds  []*models.Round
		round        *models.Round
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var loadErr error
		participants, loadErr = s.participantRepo.ListByTournament(gCtx, tournamentID, true)
		if loadErr != nil {
			return fmt.Errorf("failed to list active participants for tournament %d: %w", tournamentID, loadErr)
		}
		return nil
	})
	g.Go(func() error {
		upTo := roundNumber
		var loadErr error
		priorRounds, loadErr = s.roundRepo.ListByTournament(gCtx, tournamentID, &upTo)
		if loadErr != nil {
			return fmt.Errorf("failed to list rounds for tournament %d: %w", tournamentID, loadErr)
		}
		return nil
	})
	g.Go(func() error {
		var loadErr error
		round, loadErr = s.roundRepo.GetByNumber(gCtx, tournamentID, roundNumber)
		if loadErr != nil {
			if errors.Is(loadErr, repositories.ErrRoundNotFound) {
				return fmt.Errorf("%w: tournament %d round %d", ErrRoundNotFound, tournamentID, roundNumber)
			}
			return fmt.Errorf("failed to load round %d of tournament %d: %w", roundNumber, tournamentID, loadErr)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Idempotence guard: pairing an already paired round is a no-op error,
	// never a second batch of matches.
	existing, err := s.matchRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing matches of round %d: %w", round.ID, err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: round %d has %d matches", ErrRoundAlreadyPaired, round.ID, len(existing))
	}
	if round.Status != models.RoundStatusPending {
		return nil, fmt.Errorf("%w: round %d is %s", ErrRoundNotPairable, round.ID, round.Status)
	}

	if len(participants) < 2 {
		return nil, fmt.Errorf("%w: tournament %d has %d", ErrInsufficientParticipants, tournamentID, len(participants))
	}

	roundIDs := make([]int, 0, len(priorRounds))
	for _, r := range priorRounds {
		roundIDs = append(roundIDs, r.ID)
	}
	matches, err := s.matchRepo.ListByRounds(ctx, roundIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history for tournament %d: %w", tournamentID, err)
	}

	histories, err := history.Build(participants, matches, s.logger)
	if err != nil {
		var invalid *history.InvalidHistoryError
		if errors.As(err, &invalid) {
			s.logger.Error("refusing to pair on invalid history",
				slog.Int("tournament_id", tournamentID),
				slog.Int("round_number", invalid.RoundNumber),
				slog.Int("participant_id", invalid.ParticipantID))
		}
		return nil, fmt.Errorf("tournament %d: %w", tournamentID, err)
	}

	generator := swiss.ForRound(roundNumber)
	s.logger.Info("generating pairings",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round_number", roundNumber),
		slog.String("generator", generator.GetName()),
		slog.Int("participants", len(participants)))

	params := swiss.GenerateParams{
		Tournament:   tournament,
		Participants: participants,
		Histories:    histories,
		RoundNumber:  roundNumber,
		Rand:         rand.New(rand.NewSource(s.roundSeed(tournamentID, roundNumber))),
	}
	result, err := generator.GeneratePairings(ctx, params)
	if err != nil {
		if errors.Is(err, swiss.ErrNotEnoughPlayers) {
			return nil, fmt.Errorf("%w: tournament %d", ErrInsufficientParticipants, tournamentID)
		}
		return nil, fmt.Errorf("tournament %d round %d: %w", tournamentID, roundNumber, err)
	}

	created, err := s.persistPairings(ctx, round, result)
	if err != nil {
		return nil, err
	}

	s.logger.Info("round paired",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round_id", round.ID),
		slog.Int("boards", len(created)))

	return &PairedRound{
		Round:            round,
		Matches:          created,
		ByeParticipantID: result.ByeParticipantID,
	}, nil
}

func (s *swissPairingService) persistPairings(ctx context.Context, round *models.Round, result *swiss.PairingResult) ([]*models.Match, error) {
	var created []*models.Match
	pairedAt := time.Now()

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		var txErr error
		created, txErr = s.matchRepo.CreateBatch(ctx, exec, round.ID, result.Boards)
		if txErr != nil {
			return fmt.Errorf("failed to insert pairings for round %d: %w", round.ID, txErr)
		}
		if txErr = s.roundRepo.MarkPaired(ctx, exec, round.ID, pairedAt); txErr != nil {
			return fmt.Errorf("failed to mark round %d paired: %w", round.ID, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	round.Status = models.RoundStatusPaired
	round.PairedAt = &pairedAt
	return created, nil
}

// roundSeed derives a per-round seed so repeated calls are deterministic
// without sharing color sequences across rounds or tournaments.
func (s *swissPairingService) roundSeed(tournamentID, roundNumber int) int64 {
	return s.colorSeed + int64(tournamentID)*1_000_000 + int64(roundNumber)
}
