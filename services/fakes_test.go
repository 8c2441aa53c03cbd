package services

import (
	"context"
	"sort"
	"time"

	"github.com/ravoluxiz-cmyk/RepChessTgApp/models"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/repositories"
)

// In-memory repository fakes. The repository interfaces are the seam the
// services are tested through; no database is involved.

// fakeTxRunner executes the unit of work directly. The fakes ignore the
// SQLExecutor, so passing nil through is enough.
type fakeTxRunner struct {
	failWith error
}

func (f *fakeTxRunner) RunInTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if f.failWith != nil {
		return f.failWith
	}
	return fn(nil)
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
}

func (f *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	t.ID = len(f.tournaments) + 1
	t.CreatedAt = time.Now()
	f.tournaments[t.ID] = t
	return nil
}

func (f *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

type fakeParticipantRepo struct {
	participants map[int]*models.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[int]*models.Participant)}
}

func (f *fakeParticipantRepo) Create(_ context.Context, p *models.Participant) error {
	p.ID = len(f.participants) + 1
	p.CreatedAt = time.Now()
	f.participants[p.ID] = p
	return nil
}

func (f *fakeParticipantRepo) GetByID(_ context.Context, id int) (*models.Participant, error) {
	p, ok := f.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeParticipantRepo) ListByTournament(_ context.Context, tournamentID int, activeOnly bool) ([]*models.Participant, error) {
	out := make([]*models.Participant, 0)
	for _, p := range f.participants {
		if p.TournamentID != tournamentID {
			continue
		}
		if activeOnly && !p.Active {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeParticipantRepo) SetActive(_ context.Context, id int, active bool) error {
	p, ok := f.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Active = active
	return nil
}

type fakeRoundRepo struct {
	rounds map[int]*models.Round
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{rounds: make(map[int]*models.Round)}
}

func (f *fakeRoundRepo) Create(_ context.Context, r *models.Round) error {
	r.ID = len(f.rounds) + 1
	r.CreatedAt = time.Now()
	f.rounds[r.ID] = r
	return nil
}

func (f *fakeRoundRepo) GetByID(_ context.Context, id int) (*models.Round, error) {
	r, ok := f.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRoundRepo) GetByNumber(_ context.Context, tournamentID, number int) (*models.Round, error) {
	for _, r := range f.rounds {
		if r.TournamentID == tournamentID && r.Number == number {
			copied := *r
			return &copied, nil
		}
	}
	return nil, repositories.ErrRoundNotFound
}

func (f *fakeRoundRepo) ListByTournament(_ context.Context, tournamentID int, upToExcluding *int) ([]*models.Round, error) {
	out := make([]*models.Round, 0)
	for _, r := range f.rounds {
		if r.TournamentID != tournamentID {
			continue
		}
		if upToExcluding != nil && r.Number >= *upToExcluding {
			continue
		}
		copied := *r
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f *fakeRoundRepo) MarkPaired(_ context.Context, _ repositories.SQLExecutor, id int, pairedAt time.Time) error {
	r, ok := f.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	r.Status = models.RoundStatusPaired
	r.PairedAt = &pairedAt
	return nil
}

func (f *fakeRoundRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.RoundStatus) error {
	r, ok := f.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	r.Status = status
	return nil
}

type fakeMatchRepo struct {
	rounds  *fakeRoundRepo
	matches map[int]*models.Match
}

func newFakeMatchRepo(rounds *fakeRoundRepo) *fakeMatchRepo {
	return &fakeMatchRepo{rounds: rounds, matches: make(map[int]*models.Match)}
}

func (f *fakeMatchRepo) CreateBatch(_ context.Context, _ repositories.SQLExecutor, roundID int, drafts []models.MatchDraft) ([]*models.Match, error) {
	created := make([]*models.Match, 0, len(drafts))
	for _, d := range drafts {
		m := &models.Match{
			ID:         len(f.matches) + 1,
			RoundID:    roundID,
			BoardNo:    d.BoardNo,
			WhiteID:    d.WhiteID,
			BlackID:    d.BlackID,
			Result:     d.Result,
			ScoreWhite: d.ScoreWhite,
			ScoreBlack: d.ScoreBlack,
			SourceTag:  d.SourceTag,
			CreatedAt:  time.Now(),
		}
		if r, ok := f.rounds.rounds[roundID]; ok {
			m.RoundNumber = r.Number
		}
		f.matches[m.ID] = m
		created = append(created, m)
	}
	return created, nil
}

func (f *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeMatchRepo) ListByRound(_ context.Context, roundID int) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	for _, m := range f.matches {
		if m.RoundID == roundID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BoardNo < out[j].BoardNo })
	return out, nil
}

func (f *fakeMatchRepo) ListByRounds(_ context.Context, roundIDs []int) ([]*models.Match, error) {
	wanted := make(map[int]bool, len(roundIDs))
	for _, id := range roundIDs {
		wanted[id] = true
	}
	out := make([]*models.Match, 0)
	for _, m := range f.matches {
		if wanted[m.RoundID] {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundNumber != out[j].RoundNumber {
			return out[i].RoundNumber < out[j].RoundNumber
		}
		return out[i].BoardNo < out[j].BoardNo
	})
	return out, nil
}

func (f *fakeMatchRepo) UpdateResult(_ context.Context, _ repositories.SQLExecutor, id int, result models.MatchResult, scoreWhite, scoreBlack float64) error {
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Result = result
	m.ScoreWhite = scoreWhite
	m.ScoreBlack = scoreBlack
	return nil
}
