package swiss

import (
	"sort"

	"github.com/ravoluxiz-cmyk/RepChessTgApp/history"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/models"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/standings"
)

// playerState is scratch state scoped to a single pairing call. The
// persistent PlayerHistory is never mutated by the engine.
type playerState struct {
	participant *models.Participant
	history     *history.PlayerHistory
	score       float64
	buchholz    float64
	pref        int
	paired      bool
}

func newPlayerStates(participants []*models.Participant, histories map[int]*history.PlayerHistory) []*playerState {
	states := make([]*playerState, 0, len(participants))
	for _, p := range participants {
		h, ok := histories[p.ID]
		if !ok {
			h = &history.PlayerHistory{
				ParticipantID: p.ID,
				LastColor:     history.ColorNone,
				Opponents:     map[int]struct{}{},
			}
		}
		states = append(states, &playerState{
			participant: p,
			history:     h,
			score:       h.Score,
			buchholz:    standings.Buchholz(histories, p.ID),
			pref:        colorPreference(h),
		})
	}
	return states
}

// sortByRank orders players the way the Dutch system ranks them inside and
// across score groups: score, then rating, then identifier.
func sortByRank(players []*playerState) {
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].score != players[j].score {
			return players[i].score > players[j].score
		}
		if players[i].participant.Rating != players[j].participant.Rating {
			return players[i].participant.Rating > players[j].participant.Rating
		}
		return players[i].participant.ID < players[j].participant.ID
	})
}

func (s *playerState) canPlay(o *playerState) bool {
	return s != o && !s.history.HasPlayed(o.participant.ID)
}
