package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ravoluxiz-cmyk/RepChessTgApp/history"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	tournaments  *fakeTournamentRepo
	participants *fakeParticipantRepo
	rounds       *fakeRoundRepo
	matches      *fakeMatchRepo
	pairing      PairingService
	tournamentID int
}

// newServiceFixture seeds a five-round tournament with the given number of
// active participants and all rounds pending.
func newServiceFixture(t *testing.T, playerCount int) *serviceFixture {
	t.Helper()

	tournaments := newFakeTournamentRepo()
	participants := newFakeParticipantRepo()
	rounds := newFakeRoundRepo()
	matches := newFakeMatchRepo(rounds)

	tournament := &models.Tournament{
		Name:            "weekly swiss",
		Status:          models.StatusActive,
		Rounds:          5,
		PointsWin:       models.DefaultPointsWin,
		PointsDraw:      models.DefaultPointsDraw,
		PointsLoss:      models.DefaultPointsLoss,
		ByePoints:       models.DefaultByePoints,
		Tiebreakers:     "buchholz,sonneborn_berger,number_of_wins",
		ForbidRepeatBye: true,
	}
	require.NoError(t, tournaments.Create(context.Background(), tournament))

	for i := 0; i < playerCount; i++ {
		require.NoError(t, participants.Create(context.Background(), &models.Participant{
			TournamentID: tournament.ID,
			DisplayName:  "player",
			Rating:       2000 - i*100,
			Active:       true,
		}))
	}
	for n := 1; n <= tournament.Rounds; n++ {
		require.NoError(t, rounds.Create(context.Background(), &models.Round{
			TournamentID: tournament.ID,
			Number:       n,
			Status:       models.RoundStatusPending,
		}))
	}

	return &serviceFixture{
		tournaments:  tournaments,
		participants: participants,
		rounds:       rounds,
		matches:      matches,
		pairing:      NewPairingService(&fakeTxRunner{}, tournaments, participants, rounds, matches, nil, 1),
		tournamentID: tournament.ID,
	}
}

func TestPairRoundFirstRoundPersistsPairings(t *testing.T) {
	f := newServiceFixture(t, 5)

	paired, err := f.pairing.PairRound(context.Background(), f.tournamentID, 1)
	require.NoError(t, err)

	assert.Equal(t, models.RoundStatusPaired, paired.Round.Status)
	require.NotNil(t, paired.Round.PairedAt)
	require.Len(t, paired.Matches, 3)
	require.NotNil(t, paired.ByeParticipantID)
	assert.Equal(t, 5, *paired.ByeParticipantID)

	// The drafts really landed in the repository, boards in order, the bye
	// pair last with the configured points.
	stored, err := f.matches.ListByRound(context.Background(), paired.Round.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, m := range stored {
		assert.Equal(t, i+1, m.BoardNo)
		assert.Equal(t, models.SourceTagSwissSystem, m.SourceTag)
	}
	bye := stored[2]
	assert.Nil(t, bye.BlackID)
	assert.Equal(t, models.ResultBye, bye.Result)
	assert.Equal(t, 1.0, bye.ScoreWhite)

	// The round row was updated alongside the batch.
	round, err := f.rounds.GetByID(context.Background(), paired.Round.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoundStatusPaired, round.Status)
	assert.NotNil(t, round.PairedAt)

	// Pairing the same round again trips the idempotence guard.
	_, err = f.pairing.PairRound(context.Background(), f.tournamentID, 1)
	assert.ErrorIs(t, err, ErrRoundAlreadyPaired)
}

func TestPairRoundSecondRoundAvoidsRematches(t *testing.T) {
	f := newServiceFixture(t, 5)

	first, err := f.pairing.PairRound(context.Background(), f.tournamentID, 1)
	require.NoError(t, err)
	for _, m := range first.Matches {
		if m.IsBye() {
			continue
		}
		require.NoError(t, f.matches.UpdateResult(context.Background(), nil, m.ID, models.ResultWhiteWins, 1, 0))
	}

	second, err := f.pairing.PairRound(context.Background(), f.tournamentID, 2)
	require.NoError(t, err)
	require.Len(t, second.Matches, 3)

	// Repeat byes are forbidden and the round-1 recipient scored a full
	// point, so someone else sits out.
	require.NotNil(t, second.ByeParticipantID)
	assert.NotEqual(t, *first.ByeParticipantID, *second.ByeParticipantID)

	played := make(map[int]map[int]bool)
	for _, m := range first.Matches {
		if m.IsBye() {
			continue
		}
		if played[m.WhiteID] == nil {
			played[m.WhiteID] = make(map[int]bool)
		}
		played[m.WhiteID][*m.BlackID] = true
	}

	seen := make(map[int]bool)
	for _, m := range second.Matches {
		seen[m.WhiteID] = true
		if m.IsBye() {
			continue
		}
		seen[*m.BlackID] = true
		assert.False(t, played[m.WhiteID][*m.BlackID] || played[*m.BlackID][m.WhiteID],
			"rematch %d vs %d", m.WhiteID, *m.BlackID)
	}
	assert.Len(t, seen, 5)
}

func TestPairRoundTransactionFailureSurfaces(t *testing.T) {
	f := newServiceFixture(t, 4)
	txErr := errors.New("connection reset")
	f.pairing = NewPairingService(&fakeTxRunner{failWith: txErr},
		f.tournaments, f.participants, f.rounds, f.matches, nil, 1)

	_, err := f.pairing.PairRound(context.Background(), f.tournamentID, 1)
	assert.ErrorIs(t, err, txErr)

	// Nothing was persisted and the round is still pending.
	round, err := f.rounds.GetByNumber(context.Background(), f.tournamentID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoundStatusPending, round.Status)
	stored, err := f.matches.ListByRound(context.Background(), round.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPairRoundTournamentNotFound(t *testing.T) {
	f := newServiceFixture(t, 4)
	_, err := f.pairing.PairRound(context.Background(), 99, 1)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestPairRoundExhausted(t *testing.T) {
	f := newServiceFixture(t, 4)
	_, err := f.pairing.PairRound(context.Background(), f.tournamentID, 6)
	assert.ErrorIs(t, err, ErrTournamentExhausted)
}

func TestPairRoundRoundNotFound(t *testing.T) {
	f := newServiceFixture(t, 4)
	_, err := f.pairing.PairRound(context.Background(), f.tournamentID, 0)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestPairRoundInsufficientParticipants(t *testing.T) {
	f := newServiceFixture(t, 1)
	_, err := f.pairing.PairRound(context.Background(), f.tournamentID, 1)
	assert.ErrorIs(t, err, ErrInsufficientParticipants)
}

func TestPairRoundIdempotenceGuard(t *testing.T) {
	f := newServiceFixture(t, 4)

	round, err := f.rounds.GetByNumber(context.Background(), f.tournamentID, 1)
	require.NoError(t, err)
	black := 2
	_, err = f.matches.CreateBatch(context.Background(), nil, round.ID, []models.MatchDraft{
		{BoardNo: 1, WhiteID: 1, BlackID: &black, Result: models.ResultNotPlayed, SourceTag: models.SourceTagSwissSystem},
	})
	require.NoError(t, err)

	_, err = f.pairing.PairRound(context.Background(), f.tournamentID, 1)
	assert.ErrorIs(t, err, ErrRoundAlreadyPaired)
}

func TestPairRoundRejectsNonPendingRound(t *testing.T) {
	f := newServiceFixture(t, 4)
	round, err := f.rounds.GetByNumber(context.Background(), f.tournamentID, 1)
	require.NoError(t, err)
	require.NoError(t, f.rounds.UpdateStatus(context.Background(), nil, round.ID, models.RoundStatusCompleted))

	_, err = f.pairing.PairRound(context.Background(), f.tournamentID, 1)
	assert.ErrorIs(t, err, ErrRoundNotPairable)
}

func TestPairRoundSurfacesInvalidHistory(t *testing.T) {
	f := newServiceFixture(t, 4)

	round, err := f.rounds.GetByNumber(context.Background(), f.tournamentID, 1)
	require.NoError(t, err)
	b2, b3 := 2, 3
	_, err = f.matches.CreateBatch(context.Background(), nil, round.ID, []models.MatchDraft{
		{BoardNo: 1, WhiteID: 1, BlackID: &b2, Result: models.ResultWhiteWins, ScoreWhite: 1},
		{BoardNo: 2, WhiteID: 1, BlackID: &b3, Result: models.ResultWhiteWins, ScoreWhite: 1},
	})
	require.NoError(t, err)

	_, err = f.pairing.PairRound(context.Background(), f.tournamentID, 2)
	require.Error(t, err)

	var invalid *history.InvalidHistoryError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, 1, invalid.ParticipantID)
}

func TestValidateScoreLaw(t *testing.T) {
	tournament := &models.Tournament{
		PointsWin:  1,
		PointsDraw: 0.5,
		PointsLoss: 0,
		ByePoints:  1,
	}

	testCases := []struct {
		name    string
		result  models.MatchResult
		sw, sb  float64
		wantErr error
	}{
		{name: "decisive ok", result: models.ResultWhiteWins, sw: 1, sb: 0},
		{name: "decisive wrong sum", result: models.ResultWhiteWins, sw: 1, sb: 1, wantErr: ErrScoreLawViolated},
		{name: "forfeit ok", result: models.ResultForfeitWhite, sw: 0, sb: 1},
		{name: "draw ok", result: models.ResultDraw, sw: 0.5, sb: 0.5},
		{name: "draw wrong sum", result: models.ResultDraw, sw: 1, sb: 0.5, wantErr: ErrScoreLawViolated},
		{name: "bye ok", result: models.ResultBye, sw: 1, sb: 0},
		{name: "bye wrong white score", result: models.ResultBye, sw: 0.5, sb: 0, wantErr: ErrScoreLawViolated},
		{name: "not played ok", result: models.ResultNotPlayed, sw: 0, sb: 0},
		{name: "unknown tag", result: models.MatchResult("adjourned"), sw: 0.5, sb: 0.5, wantErr: ErrInvalidResultTag},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateScoreLaw(tournament, tc.result, tc.sw, tc.sb)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
