package services

import (
	"context"
	"testing"

	"github.com/ravoluxiz-cmyk/RepChessTgApp/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairRoundOne(t *testing.T, f *serviceFixture) []*models.Match {
	t.Helper()

	round, err := f.rounds.GetByNumber(context.Background(), f.tournamentID, 1)
	require.NoError(t, err)

	b3, b4 := 3, 4
	created, err := f.matches.CreateBatch(context.Background(), nil, round.ID, []models.MatchDraft{
		{BoardNo: 1, WhiteID: 1, BlackID: &b3, Result: models.ResultNotPlayed, SourceTag: models.SourceTagSwissSystem},
		{BoardNo: 2, WhiteID: 2, BlackID: &b4, Result: models.ResultNotPlayed, SourceTag: models.SourceTagSwissSystem},
	})
	require.NoError(t, err)
	require.NoError(t, f.rounds.UpdateStatus(context.Background(), nil, round.ID, models.RoundStatusPaired))
	return created
}

func TestSubmitResultStoresScores(t *testing.T) {
	f := newServiceFixture(t, 4)
	created := pairRoundOne(t, f)
	svc := NewMatchService(f.tournaments, f.rounds, f.matches, nil)

	require.NoError(t, svc.SubmitResult(context.Background(), created[0].ID, models.ResultWhiteWins, 1, 0))

	stored, err := f.matches.GetByID(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultWhiteWins, stored.Result)
	assert.Equal(t, 1.0, stored.ScoreWhite)
	assert.Equal(t, 0.0, stored.ScoreBlack)

	// One board still open: the round stays paired.
	round, err := f.rounds.GetByID(context.Background(), stored.RoundID)
	require.NoError(t, err)
	assert.Equal(t, models.RoundStatusPaired, round.Status)
}

func TestSubmitResultCompletesRound(t *testing.T) {
	f := newServiceFixture(t, 4)
	created := pairRoundOne(t, f)
	svc := NewMatchService(f.tournaments, f.rounds, f.matches, nil)

	require.NoError(t, svc.SubmitResult(context.Background(), created[0].ID, models.ResultWhiteWins, 1, 0))
	require.NoError(t, svc.SubmitResult(context.Background(), created[1].ID, models.ResultDraw, 0.5, 0.5))

	round, err := f.rounds.GetByID(context.Background(), created[0].RoundID)
	require.NoError(t, err)
	assert.Equal(t, models.RoundStatusCompleted, round.Status)
}

func TestSubmitResultRejectsScoreLawViolation(t *testing.T) {
	f := newServiceFixture(t, 4)
	created := pairRoundOne(t, f)
	svc := NewMatchService(f.tournaments, f.rounds, f.matches, nil)

	err := svc.SubmitResult(context.Background(), created[0].ID, models.ResultWhiteWins, 1, 0.5)
	assert.ErrorIs(t, err, ErrScoreLawViolated)
}

func TestSubmitResultRejectsNonByeResultOnByePair(t *testing.T) {
	f := newServiceFixture(t, 5)
	round, err := f.rounds.GetByNumber(context.Background(), f.tournamentID, 1)
	require.NoError(t, err)

	created, err := f.matches.CreateBatch(context.Background(), nil, round.ID, []models.MatchDraft{
		{BoardNo: 1, WhiteID: 5, Result: models.ResultBye, ScoreWhite: 1, SourceTag: models.SourceTagSwissSystem},
	})
	require.NoError(t, err)

	svc := NewMatchService(f.tournaments, f.rounds, f.matches, nil)
	err = svc.SubmitResult(context.Background(), created[0].ID, models.ResultWhiteWins, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidResultTag)
}
