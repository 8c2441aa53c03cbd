package history

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/ravoluxiz-cmyk/RepChessTgApp/models"
)

// Color of a participant in a single round.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
	ColorNone  Color = "none"
)

// Outcome is the per-side label derived from a match result tag.
type Outcome string

const (
	OutcomeWin         Outcome = "win"
	OutcomeLoss        Outcome = "loss"
	OutcomeDraw        Outcome = "draw"
	OutcomeBye         Outcome = "bye"
	OutcomeForfeitWin  Outcome = "forfeit_win"
	OutcomeForfeitLoss Outcome = "forfeit_loss"
)

// RoundRecord is one round of a participant's history.
type RoundRecord struct {
	RoundNumber  int
	OpponentID   *int
	Color        Color
	Outcome      Outcome
	PointsScored float64

	// VirtualOpponentScore is set on bye records only (FIDE Svon).
	VirtualOpponentScore float64
}

// PlayerHistory aggregates a participant's results across completed rounds.
// The pairing engine and tiebreak calculators consume it read-only.
type PlayerHistory struct {
	ParticipantID int
	Score         float64
	AdjustedScore float64
	WhiteCount    int
	BlackCount    int
	LastColor     Color
	HadBye        bool
	Opponents     map[int]struct{}
	Records       []RoundRecord
}

// HasPlayed reports whether the participant already faced the given opponent.
func (h *PlayerHistory) HasPlayed(opponentID int) bool {
	_, ok := h.Opponents[opponentID]
	return ok
}

// ColorDiff is white_count - black_count.
func (h *PlayerHistory) ColorDiff() int {
	return h.WhiteCount - h.BlackCount
}

// LastTwoSameColor returns the color of the last two color-bearing rounds if
// they are equal, otherwise ColorNone.
func (h *PlayerHistory) LastTwoSameColor() Color {
	var last, prev Color
	for i := len(h.Records) - 1; i >= 0; i-- {
		c := h.Records[i].Color
		if c == ColorNone {
			continue
		}
		if last == "" {
			last = c
			continue
		}
		prev = c
		break
	}
	if last != "" && last == prev {
		return last
	}
	return ColorNone
}

// InvalidHistoryError signals that the input history violates an invariant
// the engine cannot recover from.
type InvalidHistoryError struct {
	RoundNumber   int
	ParticipantID int
}

func (e *InvalidHistoryError) Error() string {
	return fmt.Sprintf("invalid history: participant %d appears twice in round %d",
		e.ParticipantID, e.RoundNumber)
}

// Build materializes one PlayerHistory per roster participant from completed
// matches. The map is dense over the roster: participants with no matches get
// an empty history. Matches are processed in ascending (round, board) order.
//
// Locally recoverable defects (unknown result tags, rows referencing
// participants outside the roster) are normalized and logged at info level.
// A participant appearing twice in the same round is fatal and returns
// *InvalidHistoryError.
func Build(participants []*models.Participant, matches []*models.Match, logger *slog.Logger) (map[int]*PlayerHistory, error) {
	if logger == nil {
		logger = slog.Default()
	}

	histories := make(map[int]*PlayerHistory, len(participants))
	for _, p := range participants {
		histories[p.ID] = &PlayerHistory{
			ParticipantID: p.ID,
			LastColor:     ColorNone,
			Opponents:     make(map[int]struct{}),
		}
	}

	ordered := make([]*models.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].RoundNumber != ordered[j].RoundNumber {
			return ordered[i].RoundNumber < ordered[j].RoundNumber
		}
		return ordered[i].BoardNo < ordered[j].BoardNo
	})

	seenInRound := make(map[int]map[int]bool)
	markSeen := func(roundNumber, participantID int) error {
		seen, ok := seenInRound[roundNumber]
		if !ok {
			seen = make(map[int]bool)
			seenInRound[roundNumber] = seen
		}
		if seen[participantID] {
			return &InvalidHistoryError{RoundNumber: roundNumber, ParticipantID: participantID}
		}
		seen[participantID] = true
		return nil
	}

	totalRounds := 0
	for _, m := range ordered {
		if m.RoundNumber > totalRounds {
			totalRounds = m.RoundNumber
		}

		whiteOutcome, blackOutcome := resolveOutcomes(m, logger)

		white, ok := histories[m.WhiteID]
		if !ok {
			logger.Info("skipping match with participant outside roster",
				slog.Int("match_id", m.ID), slog.Int("participant_id", m.WhiteID))
			continue
		}
		if m.BlackID != nil {
			if _, ok := histories[*m.BlackID]; !ok {
				logger.Info("skipping match with participant outside roster",
					slog.Int("match_id", m.ID), slog.Int("participant_id", *m.BlackID))
				continue
			}
		}

		if err := markSeen(m.RoundNumber, m.WhiteID); err != nil {
			return nil, err
		}
		applySide(white, m.RoundNumber, m.BlackID, ColorWhite, whiteOutcome, m.ScoreWhite)

		if m.BlackID != nil {
			if err := markSeen(m.RoundNumber, *m.BlackID); err != nil {
				return nil, err
			}
			whiteID := m.WhiteID
			applySide(histories[*m.BlackID], m.RoundNumber, &whiteID, ColorBlack, blackOutcome, m.ScoreBlack)
		}
	}

	// Second pass: virtual opponent scores for bye rounds.
	for _, h := range histories {
		fillVirtualOpponents(h, totalRounds)
	}

	return histories, nil
}

// resolveOutcomes maps a result tag to per-side outcome labels. Unknown tags
// (and not_played rows) are normalized to draws keeping their explicit scores.
func resolveOutcomes(m *models.Match, logger *slog.Logger) (white, black Outcome) {
	switch m.Result {
	case models.ResultWhiteWins:
		return OutcomeWin, OutcomeLoss
	case models.ResultBlackWins:
		return OutcomeLoss, OutcomeWin
	case models.ResultDraw:
		return OutcomeDraw, OutcomeDraw
	case models.ResultBye:
		return OutcomeBye, OutcomeBye
	case models.ResultForfeitWhite:
		return OutcomeForfeitLoss, OutcomeForfeitWin
	case models.ResultForfeitBlack:
		return OutcomeForfeitWin, OutcomeForfeitLoss
	case models.ResultNotPlayed:
		return OutcomeDraw, OutcomeDraw
	default:
		logger.Info("unknown result tag treated as draw",
			slog.Int("match_id", m.ID), slog.String("result", string(m.Result)))
		return OutcomeDraw, OutcomeDraw
	}
}

func applySide(h *PlayerHistory, roundNumber int, opponentID *int, color Color, outcome Outcome, points float64) {
	if opponentID == nil {
		color = ColorNone
		outcome = OutcomeBye
	}

	h.Records = append(h.Records, RoundRecord{
		RoundNumber:  roundNumber,
		OpponentID:   opponentID,
		Color:        color,
		Outcome:      outcome,
		PointsScored: points,
	})

	h.Score += points
	h.AdjustedScore += adjustedContribution(outcome, points)

	if opponentID != nil {
		h.Opponents[*opponentID] = struct{}{}
		switch color {
		case ColorWhite:
			h.WhiteCount++
		case ColorBlack:
			h.BlackCount++
		}
		h.LastColor = color
	} else {
		h.HadBye = true
	}
}

// adjustedContribution implements the FIDE adjusted-score rule: forfeits
// count as 0.5, a full-point bye counts as 0.5, everything else counts as
// the points actually scored.
func adjustedContribution(outcome Outcome, points float64) float64 {
	switch outcome {
	case OutcomeForfeitWin, OutcomeForfeitLoss:
		return 0.5
	case OutcomeBye:
		if points >= 1 {
			return 0.5
		}
		return points
	default:
		return points
	}
}

// fillVirtualOpponents computes Svon = S_before + (1 - SfPR) + 0.5*(n - R)
// for each bye record, where n is the number of rounds played so far.
func fillVirtualOpponents(h *PlayerHistory, totalRounds int) {
	scoreBefore := 0.0
	for i := range h.Records {
		rec := &h.Records[i]
		if rec.Outcome == OutcomeBye {
			rec.VirtualOpponentScore = scoreBefore +
				(1 - rec.PointsScored) +
				0.5*float64(totalRounds-rec.RoundNumber)
		}
		scoreBefore += rec.PointsScored
	}
}
