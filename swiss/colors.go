package swiss

import (
	"github.com/ravoluxiz-cmyk/RepChessTgApp/history"
)

// Color preference values. Positive prefers white, negative prefers black.
// ±2 is absolute: the player must receive that color.
const (
	prefAbsoluteWhite = 2
	prefMildWhite     = 1
	prefNeutral       = 0
	prefMildBlack     = -1
	prefAbsoluteBlack = -2
)

// Penalties for assigning a color against a player's preference.
const (
	penaltyAbsolute = 1000
	penaltyStrong   = 100
	penaltyNeutral  = 1
)

// colorPreference derives the signed preference from a player's history.
func colorPreference(h *history.PlayerHistory) int {
	diff := h.ColorDiff()
	lastTwo := h.LastTwoSameColor()

	switch {
	case diff < -1 || lastTwo == history.ColorBlack:
		return prefAbsoluteWhite
	case diff > 1 || lastTwo == history.ColorWhite:
		return prefAbsoluteBlack
	case diff == -1:
		return prefMildWhite
	case diff == 1:
		return prefMildBlack
	}

	// Balanced colors: mild preference opposite to the last color played.
	switch h.LastColor {
	case history.ColorBlack:
		return prefMildWhite
	case history.ColorWhite:
		return prefMildBlack
	}
	return prefNeutral
}

// colorPenalty is the cost of giving color c to a player with preference
// pref: 1000 for violating an absolute preference, 100 for a strong one,
// 1 for a neutral player, 0 when the color matches.
func colorPenalty(pref int, c history.Color) int {
	if pref == prefNeutral {
		return penaltyNeutral
	}
	wantsWhite := pref > 0
	getsWhite := c == history.ColorWhite
	if wantsWhite == getsWhite {
		return 0
	}
	if pref == prefAbsoluteWhite || pref == prefAbsoluteBlack {
		return penaltyAbsolute
	}
	return penaltyStrong
}

// pairPenalty is the cheaper of the two color assignments for a candidate
// pair.
func pairPenalty(a, b *playerState) int {
	aWhite := colorPenalty(a.pref, history.ColorWhite) + colorPenalty(b.pref, history.ColorBlack)
	bWhite := colorPenalty(a.pref, history.ColorBlack) + colorPenalty(b.pref, history.ColorWhite)
	if aWhite < bWhite {
		return aWhite
	}
	return bWhite
}

// assignColors resolves colors for a pair: the assignment with the lower
// summed penalty wins; on a tie the higher-rated player receives the color
// matching their preference, or white when neutral.
func assignColors(a, b *playerState) (white, black *playerState) {
	aWhite := colorPenalty(a.pref, history.ColorWhite) + colorPenalty(b.pref, history.ColorBlack)
	bWhite := colorPenalty(a.pref, history.ColorBlack) + colorPenalty(b.pref, history.ColorWhite)

	if aWhite < bWhite {
		return a, b
	}
	if bWhite < aWhite {
		return b, a
	}

	higher, lower := a, b
	if b.participant.Rating > a.participant.Rating {
		higher, lower = b, a
	}
	if higher.pref < 0 {
		return lower, higher
	}
	return higher, lower
}
