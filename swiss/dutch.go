package swiss

import (
	"context"
	"math"
	"sort"
)

// DutchGenerator implements the FIDE Dutch system for rounds with history:
// score groups paired top half against bottom half, down-floats between
// groups, color preference resolution and rematch avoidance.
//
// The inner S1 repair step is a greedy local search over existing pairs, not
// a full FIDE transposition enumeration; the resulting total color penalty
// is a local optimum.
type DutchGenerator struct{}

func NewDutchGenerator() PairingGenerator {
	return &DutchGenerator{}
}

func (g *DutchGenerator) GetName() string {
	return "SwissDutch"
}

type boardPair struct {
	a, b *playerState
}

func (g *DutchGenerator) GeneratePairings(ctx context.Context, params GenerateParams) (*PairingResult, error) {
	players := newPlayerStates(activeParticipants(params), params.Histories)
	if len(players) < 2 {
		return nil, ErrNotEnoughPlayers
	}
	sortByRank(players)

	var bye *playerState
	if len(players)%2 == 1 {
		bye = selectByeCandidate(players, params.Tournament.ForbidRepeatBye)
		players = removePlayer(players, bye)
	}

	groups := groupByScore(players)

	pairs := make([]boardPair, 0, len(players)/2)
	floaters := make([]*playerState, 0)

	for gi, group := range groups {
		u := make([]*playerState, 0, len(floaters)+len(group))
		u = append(u, floaters...)
		u = append(u, group...)
		sortByRank(u)
		floaters = floaters[:0]

		var next []*playerState
		if gi+1 < len(groups) {
			next = groups[gi+1]
		}

		if len(u)%2 == 1 && next != nil {
			down := chooseDownFloater(u, next)
			u = removePlayer(u, down)
			floaters = append(floaters, down)
		}

		made, unpaired := pairGroup(u)
		pairs = append(pairs, made...)
		floaters = append(floaters, unpaired...)
	}

	residualPairs, remaining := pairResidual(floaters)
	pairs = append(pairs, residualPairs...)

	if len(remaining) == 1 && bye == nil {
		bye = remaining[0]
		remaining = nil
	}
	if len(remaining) > 0 {
		ids := make([]int, 0, len(remaining))
		for _, p := range remaining {
			ids = append(ids, p.participant.ID)
		}
		if bye != nil {
			ids = append(ids, bye.participant.ID)
		}
		sort.Ints(ids)
		return nil, &PairingInfeasibleError{ResidualIDs: ids}
	}

	result := &PairingResult{}
	for i, pr := range pairs {
		white, black := assignColors(pr.a, pr.b)
		result.Boards = append(result.Boards,
			boardDraft(i+1, white.participant.ID, black.participant.ID))
	}
	if bye != nil {
		id := bye.participant.ID
		result.Boards = append(result.Boards,
			byeDraft(len(result.Boards)+1, id, params.Tournament.ByePoints))
		result.ByeParticipantID = &id
	}

	return result, nil
}

// selectByeCandidate ranks bye candidates: players without a previous bye
// first (when repeat byes are forbidden), then lower score, then lower
// Buchholz, then the latest registrant.
func selectByeCandidate(players []*playerState, forbidRepeatBye bool) *playerState {
	best := players[0]
	for _, p := range players[1:] {
		if byeLess(p, best, forbidRepeatBye) {
			best = p
		}
	}
	return best
}

func byeLess(a, b *playerState, forbidRepeatBye bool) bool {
	if forbidRepeatBye && a.history.HadBye != b.history.HadBye {
		return !a.history.HadBye
	}
	if a.score != b.score {
		return a.score < b.score
	}
	if math.Abs(a.buchholz-b.buchholz) > 1e-9 {
		return a.buchholz < b.buchholz
	}
	return a.participant.ID > b.participant.ID
}

// groupByScore partitions ranked players into maximal same-score groups,
// highest score first. Input must already be rank-sorted.
func groupByScore(players []*playerState) [][]*playerState {
	groups := make([][]*playerState, 0)
	for _, p := range players {
		n := len(groups)
		if n == 0 || groups[n-1][0].score != p.score {
			groups = append(groups, []*playerState{p})
			continue
		}
		groups[n-1] = append(groups[n-1], p)
	}
	return groups
}

// chooseDownFloater picks the player to float into the next group: a bottom
// half candidate that can still legally meet someone there, preferring the
// one whose color preference is best canceled by the next group's average
// preference, and among equals the lowest-ranked.
func chooseDownFloater(u, next []*playerState) *playerState {
	avg := 0.0
	for _, p := range next {
		avg += float64(p.pref)
	}
	avg /= float64(len(next))

	scoreOf := func(idx int) float64 {
		return 100*math.Abs(float64(u[idx].pref)+avg) + float64(idx)
	}

	bestIdx := -1
	bestScore := 0.0
	for idx := len(u) / 2; idx < len(u); idx++ {
		if !hasLegalOpponent(u[idx], next) {
			continue
		}
		s := scoreOf(idx)
		if bestIdx == -1 || s < bestScore || (s == bestScore && idx > bestIdx) {
			bestIdx, bestScore = idx, s
		}
	}
	if bestIdx >= 0 {
		return u[bestIdx]
	}

	// Everyone in the bottom half is rematch-locked against the next group;
	// float by preference score alone and let the next level sort it out.
	for idx := len(u) / 2; idx < len(u); idx++ {
		s := scoreOf(idx)
		if bestIdx == -1 || s < bestScore || (s == bestScore && idx > bestIdx) {
			bestIdx, bestScore = idx, s
		}
	}
	return u[bestIdx]
}

func hasLegalOpponent(p *playerState, candidates []*playerState) bool {
	for _, c := range candidates {
		if p.canPlay(c) {
			return true
		}
	}
	return false
}

// pairGroup splits an even-sized merged group into halves and greedily pairs
// each top-half player with the cheapest legal bottom-half opponent. When a
// top-half player is rematch-locked, one repair pass re-seats an existing
// pair before the player is floated down.
func pairGroup(u []*playerState) (made []boardPair, unpaired []*playerState) {
	s2 := u[len(u)/2:]

	for _, a := range u[:len(u)/2] {
		if a.paired {
			continue
		}
		if b := bestOpponent(a, s2); b != nil {
			a.paired, b.paired = true, true
			made = append(made, boardPair{a, b})
			continue
		}
		if repaired, ok := transpose(a, made, s2); ok {
			made = append(made, repaired)
		}
	}

	for _, p := range u {
		if !p.paired {
			unpaired = append(unpaired, p)
		}
	}
	return made, unpaired
}

func bestOpponent(a *playerState, candidates []*playerState) *playerState {
	var best *playerState
	bestPenalty := 0
	for _, c := range candidates {
		if c.paired || !a.canPlay(c) {
			continue
		}
		p := pairPenalty(a, c)
		if best == nil || p < bestPenalty {
			best, bestPenalty = c, p
		}
	}
	return best
}

// transpose tries to re-seat one existing pair so that a finds an opponent:
// if a can play the bottom-half member of a made pair and that pair's
// top-half member has another free legal opponent, swap them. Returns the
// new pair for a on success.
func transpose(a *playerState, made []boardPair, s2 []*playerState) (boardPair, bool) {
	for i, pr := range made {
		if !a.canPlay(pr.b) {
			continue
		}
		repl := bestOpponent(pr.a, s2)
		if repl == nil {
			continue
		}
		repl.paired = true
		made[i] = boardPair{pr.a, repl}
		a.paired = true
		return boardPair{a, pr.b}, true
	}
	return boardPair{}, false
}

// pairResidual pairs leftover floaters among themselves after the lowest
// group, still avoiding rematches.
func pairResidual(floaters []*playerState) (made []boardPair, remaining []*playerState) {
	sortByRank(floaters)
	for i, a := range floaters {
		if a.paired {
			continue
		}
		for _, b := range floaters[i+1:] {
			if b.paired || !a.canPlay(b) {
				continue
			}
			a.paired, b.paired = true, true
			made = append(made, boardPair{a, b})
			break
		}
	}
	for _, p := range floaters {
		if !p.paired {
			remaining = append(remaining, p)
		}
	}
	return made, remaining
}

func removePlayer(players []*playerState, target *playerState) []*playerState {
	out := players[:0]
	for _, p := range players {
		if p != target {
			out = append(out, p)
		}
	}
	return out
}
