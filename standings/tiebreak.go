package standings

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/ravoluxiz-cmyk/RepChessTgApp/history"
)

// Tiebreak keys recognized in a tournament's tiebreaker configuration.
const (
	KeyScore           = "score"
	KeyDirectEncounter = "direct_encounter"
	KeyBuchholz        = "buchholz"
	KeyBuchholzCut1    = "buchholz_cut1"
	KeyBuchholzCut2    = "buchholz_cut2"
	KeyMedianBuchholz  = "median_buchholz"
	KeySonnebornBerger = "sonneborn_berger"
	KeyNumberOfWins    = "number_of_wins"
	KeyProgressive     = "progressive"
	KeyGamesAsBlack    = "games_as_black"
	KeyWinsWithBlack   = "wins_with_black"
)

var knownKeys = map[string]bool{
	KeyScore:           true,
	KeyDirectEncounter: true,
	KeyBuchholz:        true,
	KeyBuchholzCut1:    true,
	KeyBuchholzCut2:    true,
	KeyMedianBuchholz:  true,
	KeySonnebornBerger: true,
	KeyNumberOfWins:    true,
	KeyProgressive:     true,
	KeyGamesAsBlack:    true,
	KeyWinsWithBlack:   true,
}

// ParseKeys splits a comma-separated tiebreaker list, dropping unknown keys
// with a warning. Score is always the primary sort key and is stripped from
// the result if listed.
func ParseKeys(raw string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	keys := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		key := strings.ToLower(strings.TrimSpace(part))
		if key == "" || key == KeyScore {
			continue
		}
		if !knownKeys[key] {
			logger.Warn("ignoring unknown tiebreak key", slog.String("key", key))
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// opponentTerms collects the opponent-score terms of the Buchholz family:
// the opponent's adjusted score for played rounds (forfeits included), the
// precomputed virtual opponent score for byes.
func opponentTerms(histories map[int]*history.PlayerHistory, id int) []float64 {
	h, ok := histories[id]
	if !ok {
		return nil
	}
	terms := make([]float64, 0, len(h.Records))
	for _, rec := range h.Records {
		if rec.Outcome == history.OutcomeBye {
			terms = append(terms, rec.VirtualOpponentScore)
			continue
		}
		if rec.OpponentID == nil {
			continue
		}
		opp, ok := histories[*rec.OpponentID]
		if !ok {
			continue
		}
		terms = append(terms, opp.AdjustedScore)
	}
	return terms
}

func sum(terms []float64) float64 {
	total := 0.0
	for _, t := range terms {
		total += t
	}
	return total
}

// Buchholz is the sum of the opponents' adjusted scores, with bye rounds
// contributing the virtual opponent score.
func Buchholz(histories map[int]*history.PlayerHistory, id int) float64 {
	return sum(opponentTerms(histories, id))
}

// buchholzCut drops the n smallest terms, always keeping at least one.
func buchholzCut(histories map[int]*history.PlayerHistory, id, n int) float64 {
	terms := opponentTerms(histories, id)
	if len(terms) == 0 {
		return 0
	}
	sort.Float64s(terms)
	cut := n
	if cut > len(terms)-1 {
		cut = len(terms) - 1
	}
	return sum(terms[cut:])
}

// MedianBuchholz drops the single smallest and single largest terms. With
// fewer than three terms nothing is dropped.
func MedianBuchholz(histories map[int]*history.PlayerHistory, id int) float64 {
	terms := opponentTerms(histories, id)
	if len(terms) < 3 {
		return sum(terms)
	}
	sort.Float64s(terms)
	return sum(terms[1 : len(terms)-1])
}

// SonnebornBerger sums the opponent's adjusted score for wins and half of it
// for draws. Byes contribute the virtual opponent score weighted the same
// way by the points the bye awarded.
func SonnebornBerger(histories map[int]*history.PlayerHistory, id int) float64 {
	h, ok := histories[id]
	if !ok {
		return 0
	}
	total := 0.0
	for _, rec := range h.Records {
		switch rec.Outcome {
		case history.OutcomeWin, history.OutcomeForfeitWin:
			if rec.OpponentID != nil {
				if opp, ok := histories[*rec.OpponentID]; ok {
					total += opp.AdjustedScore
				}
			}
		case history.OutcomeDraw:
			if rec.OpponentID != nil {
				if opp, ok := histories[*rec.OpponentID]; ok {
					total += opp.AdjustedScore / 2
				}
			}
		case history.OutcomeBye:
			if rec.PointsScored >= 1 {
				total += rec.VirtualOpponentScore
			} else if rec.PointsScored > 0 {
				total += rec.VirtualOpponentScore / 2
			}
		}
	}
	return total
}

// NumberOfWins counts win and forfeit_win outcomes.
func NumberOfWins(histories map[int]*history.PlayerHistory, id int) float64 {
	h, ok := histories[id]
	if !ok {
		return 0
	}
	wins := 0
	for _, rec := range h.Records {
		if rec.Outcome == history.OutcomeWin || rec.Outcome == history.OutcomeForfeitWin {
			wins++
		}
	}
	return float64(wins)
}

// Progressive is the sum of the running score totals after each round.
func Progressive(histories map[int]*history.PlayerHistory, id int) float64 {
	h, ok := histories[id]
	if !ok {
		return 0
	}
	running := 0.0
	total := 0.0
	for _, rec := range h.Records {
		running += rec.PointsScored
		total += running
	}
	return total
}

// GamesAsBlack counts color-bearing rounds played with black.
func GamesAsBlack(histories map[int]*history.PlayerHistory, id int) float64 {
	h, ok := histories[id]
	if !ok {
		return 0
	}
	return float64(h.BlackCount)
}

// WinsWithBlack counts games actually won with the black pieces.
func WinsWithBlack(histories map[int]*history.PlayerHistory, id int) float64 {
	h, ok := histories[id]
	if !ok {
		return 0
	}
	wins := 0
	for _, rec := range h.Records {
		if rec.Outcome == history.OutcomeWin && rec.Color == history.ColorBlack {
			wins++
		}
	}
	return float64(wins)
}

// mutualPoints returns the points id scored across its games against
// opponentID.
func mutualPoints(histories map[int]*history.PlayerHistory, id, opponentID int) float64 {
	h, ok := histories[id]
	if !ok {
		return 0
	}
	total := 0.0
	for _, rec := range h.Records {
		if rec.OpponentID != nil && *rec.OpponentID == opponentID {
			total += rec.PointsScored
		}
	}
	return total
}

// value computes a per-player tiebreak value for every key except
// direct_encounter, which is pairwise and handled by the comparator.
func value(key string, histories map[int]*history.PlayerHistory, id int) float64 {
	switch key {
	case KeyBuchholz:
		return Buchholz(histories, id)
	case KeyBuchholzCut1:
		return buchholzCut(histories, id, 1)
	case KeyBuchholzCut2:
		return buchholzCut(histories, id, 2)
	case KeyMedianBuchholz:
		return MedianBuchholz(histories, id)
	case KeySonnebornBerger:
		return SonnebornBerger(histories, id)
	case KeyNumberOfWins:
		return NumberOfWins(histories, id)
	case KeyProgressive:
		return Progressive(histories, id)
	case KeyGamesAsBlack:
		return GamesAsBlack(histories, id)
	case KeyWinsWithBlack:
		return WinsWithBlack(histories, id)
	}
	return 0
}
