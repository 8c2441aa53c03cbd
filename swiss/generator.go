package swiss

import (
	"context"
	"math/rand"

	"github.com/ravoluxiz-cmyk/RepChessTgApp/history"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/models"
)

// GenerateParams carries everything a pairing generator reads. Histories
// cover all rounds strictly before RoundNumber and are never mutated.
type GenerateParams struct {
	Tournament   *models.Tournament
	Participants []*models.Participant
	Histories    map[int]*history.PlayerHistory
	RoundNumber  int

	// Rand is the seeded source for the round-1 color toss. Later rounds
	// are fully deterministic and ignore it.
	Rand *rand.Rand
}

// PairingResult is an ordered list of boards plus at most one bye. The bye
// pair, when present, is the last board.
type PairingResult struct {
	Boards           []models.MatchDraft
	ByeParticipantID *int
}

type PairingGenerator interface {
	GeneratePairings(ctx context.Context, params GenerateParams) (*PairingResult, error)

	GetName() string
}

// ForRound selects the generator for a round: the rating-seeded first-round
// split, or the Dutch system once history exists.
func ForRound(roundNumber int) PairingGenerator {
	if roundNumber <= 1 {
		return NewFirstRoundGenerator()
	}
	return NewDutchGenerator()
}

func activeParticipants(params GenerateParams) []*models.Participant {
	active := make([]*models.Participant, 0, len(params.Participants))
	for _, p := range params.Participants {
		if p.Active {
			active = append(active, p)
		}
	}
	return active
}

func byeDraft(boardNo, participantID int, byePoints float64) models.MatchDraft {
	return models.MatchDraft{
		BoardNo:    boardNo,
		WhiteID:    participantID,
		BlackID:    nil,
		Result:     models.ResultBye,
		ScoreWhite: byePoints,
		ScoreBlack: 0,
		SourceTag:  models.SourceTagSwissSystem,
	}
}

func boardDraft(boardNo, whiteID, blackID int) models.MatchDraft {
	black := blackID
	return models.MatchDraft{
		BoardNo:    boardNo,
		WhiteID:    whiteID,
		BlackID:    &black,
		Result:     models.ResultNotPlayed,
		ScoreWhite: 0,
		ScoreBlack: 0,
		SourceTag:  models.SourceTagSwissSystem,
	}
}
