package standings

import (
	"math"
	"sort"

	"github.com/ravoluxiz-cmyk/RepChessTgApp/history"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/models"
)

// Epsilon for floating tiebreak comparisons. Scores themselves are half-point
// multiples and compare exactly; tiebreak sums accumulate error.
const Epsilon = 1e-3

// Entry is one row of the standings projection.
type Entry struct {
	Rank          int                `json:"rank"`
	ParticipantID int                `json:"participant_id"`
	Score         float64            `json:"score"`
	Tiebreaks     map[string]float64 `json:"tiebreak_values"`
}

// Compute produces the totally ordered standings table for the roster. Score
// is always the primary key, descending; the configured tiebreak keys break
// ties in order.
//
// direct_encounter is evaluated in its pairwise form: only the mutual games
// of the two compared players count. For clusters of three or more tied
// players this comparator can be non-transitive; the order inside such a
// cluster is whatever the stable sort settles on, with the original roster
// order as the final anchor.
func Compute(keys []string, participants []*models.Participant, histories map[int]*history.PlayerHistory) []Entry {
	ids := make([]int, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}

	sort.SliceStable(ids, func(i, j int) bool {
		return compare(keys, histories, ids[i], ids[j]) > 0
	})

	entries := make([]Entry, 0, len(ids))
	for pos, id := range ids {
		var score float64
		if h, ok := histories[id]; ok {
			score = h.Score
		}
		tb := make(map[string]float64, len(keys))
		for _, key := range keys {
			if key == KeyDirectEncounter {
				tb[key] = directEncounterDisplay(histories, id)
				continue
			}
			tb[key] = value(key, histories, id)
		}
		entries = append(entries, Entry{
			Rank:          pos + 1,
			ParticipantID: id,
			Score:         score,
			Tiebreaks:     tb,
		})
	}
	return entries
}

// compare returns >0 when p ranks before q, <0 when q ranks before p, 0 on a
// full tie across score and every configured key.
func compare(keys []string, histories map[int]*history.PlayerHistory, p, q int) int {
	ps, qs := playerScore(histories, p), playerScore(histories, q)
	if ps != qs {
		if ps > qs {
			return 1
		}
		return -1
	}
	for _, key := range keys {
		var pv, qv float64
		if key == KeyDirectEncounter {
			pv = mutualPoints(histories, p, q)
			qv = mutualPoints(histories, q, p)
		} else {
			pv = value(key, histories, p)
			qv = value(key, histories, q)
		}
		if math.Abs(pv-qv) > Epsilon {
			if pv > qv {
				return 1
			}
			return -1
		}
	}
	return 0
}

func playerScore(histories map[int]*history.PlayerHistory, id int) float64 {
	if h, ok := histories[id]; ok {
		return h.Score
	}
	return 0
}

// directEncounterDisplay is the reported direct_encounter value: net points
// from games against players on the same final score. The comparator itself
// uses the pairwise form above.
func directEncounterDisplay(histories map[int]*history.PlayerHistory, id int) float64 {
	h, ok := histories[id]
	if !ok {
		return 0
	}
	net := 0.0
	for _, rec := range h.Records {
		if rec.OpponentID == nil {
			continue
		}
		opp, ok := histories[*rec.OpponentID]
		if !ok || opp.Score != h.Score {
			continue
		}
		net += rec.PointsScored - mutualRecordPoints(opp, id, rec.RoundNumber)
	}
	return net
}

func mutualRecordPoints(opp *history.PlayerHistory, id, roundNumber int) float64 {
	for _, rec := range opp.Records {
		if rec.RoundNumber == roundNumber && rec.OpponentID != nil && *rec.OpponentID == id {
			return rec.PointsScored
		}
	}
	return 0
}
