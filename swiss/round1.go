package swiss

import (
	"context"
	"sort"
)

// FirstRoundGenerator pairs round 1, which has no history: players are
// seeded by rating and the upper half meets the lower half.
type FirstRoundGenerator struct{}

func NewFirstRoundGenerator() PairingGenerator {
	return &FirstRoundGenerator{}
}

func (g *FirstRoundGenerator) GetName() string {
	return "SwissFirstRound"
}

// GeneratePairings seeds the field by rating, splits it into equal halves
// and pairs the i-th upper player with the i-th lower one. With an odd
// count the participant with the largest identifier (the latest registrant)
// receives the bye. Colors are tossed per board with the seeded source.
func (g *FirstRoundGenerator) GeneratePairings(ctx context.Context, params GenerateParams) (*PairingResult, error) {
	players := activeParticipants(params)
	if len(players) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	var byeID *int
	if len(players)%2 == 1 {
		byeIdx := 0
		for i, p := range players {
			if p.ID > players[byeIdx].ID {
				byeIdx = i
			}
		}
		id := players[byeIdx].ID
		byeID = &id
		players = append(players[:byeIdx], players[byeIdx+1:]...)
	}

	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Rating != players[j].Rating {
			return players[i].Rating > players[j].Rating
		}
		return players[i].ID < players[j].ID
	})

	half := len(players) / 2
	upper, lower := players[:half], players[half:]

	result := &PairingResult{}
	for i := range upper {
		whiteID, blackID := upper[i].ID, lower[i].ID
		if params.Rand != nil && params.Rand.Intn(2) == 1 {
			whiteID, blackID = blackID, whiteID
		}
		result.Boards = append(result.Boards, boardDraft(i+1, whiteID, blackID))
	}

	if byeID != nil {
		result.Boards = append(result.Boards,
			byeDraft(len(result.Boards)+1, *byeID, params.Tournament.ByePoints))
		result.ByeParticipantID = byeID
	}

	return result, nil
}
