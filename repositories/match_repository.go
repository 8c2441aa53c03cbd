package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/models"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchRoundInvalid       = errors.New("match round conflict or invalid")
	ErrMatchParticipantInvalid = errors.New("match participant conflict or invalid")
	ErrMatchBoardConflict      = errors.New("board number already taken in this round")
)

type MatchRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, roundID int, drafts []models.MatchDraft) ([]*models.Match, error)
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByRound(ctx context.Context, roundID int) ([]*models.Match, error)
	ListByRounds(ctx context.Context, roundIDs []int) ([]*models.Match, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, result models.MatchResult, scoreWhite, scoreBlack float64) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateBatch inserts a full round of pairings. Callers run it inside a
// transaction so the round is written atomically.
func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, roundID int, drafts []models.MatchDraft) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	if len(drafts) == 0 {
		return []*models.Match{}, nil
	}

	query := `
		INSERT INTO matches
			(round_id, board_no, white_id, black_id, result, score_white, score_black, source_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	created := make([]*models.Match, 0, len(drafts))
	for _, d := range drafts {
		m := &models.Match{
			RoundID:    roundID,
			BoardNo:    d.BoardNo,
			WhiteID:    d.WhiteID,
			BlackID:    d.BlackID,
			Result:     d.Result,
			ScoreWhite: d.ScoreWhite,
			ScoreBlack: d.ScoreBlack,
			SourceTag:  d.SourceTag,
		}
		err := executor.QueryRowContext(ctx, query,
			roundID, d.BoardNo, d.WhiteID, d.BlackID, d.Result,
			d.ScoreWhite, d.ScoreBlack, d.SourceTag,
		).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return nil, r.handleMatchError(fmt.Errorf("board %d: %w", d.BoardNo, err))
		}
		created = append(created, m)
	}
	return created, nil
}

func (r *postgresMatchRepository) scanMatch(rowScanner interface {
	Scan(dest ...interface{}) error
}, withRoundNumber bool) (*models.Match, error) {
	var m models.Match
	dest := []interface{}{
		&m.ID, &m.RoundID, &m.BoardNo, &m.WhiteID, &m.BlackID,
		&m.Result, &m.ScoreWhite, &m.ScoreBlack, &m.SourceTag, &m.CreatedAt,
	}
	if withRoundNumber {
		dest = append(dest, &m.RoundNumber)
	}
	if err := rowScanner.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `
		SELECT m.id, m.round_id, m.board_no, m.white_id, m.black_id,
		       m.result, m.score_white, m.score_black, m.source_tag, m.created_at,
		       r.number
		FROM matches m
		JOIN rounds r ON r.id = m.round_id
		WHERE m.id = $1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, id), true)
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, roundID int) ([]*models.Match, error) {
	query := `
		SELECT m.id, m.round_id, m.board_no, m.white_id, m.black_id,
		       m.result, m.score_white, m.score_black, m.source_tag, m.created_at,
		       r.number
		FROM matches m
		JOIN rounds r ON r.id = m.round_id
		WHERE m.round_id = $1
		ORDER BY m.board_no ASC`
	return r.queryMatches(ctx, query, roundID)
}

// ListByRounds loads the matches of several rounds at once, each row carrying
// its round number, ordered by (round, board) the way the history model
// consumes them.
func (r *postgresMatchRepository) ListByRounds(ctx context.Context, roundIDs []int) ([]*models.Match, error) {
	if len(roundIDs) == 0 {
		return []*models.Match{}, nil
	}
	query := `
		SELECT m.id, m.round_id, m.board_no, m.white_id, m.black_id,
		       m.result, m.score_white, m.score_black, m.source_tag, m.created_at,
		       r.number
		FROM matches m
		JOIN rounds r ON r.id = m.round_id
		WHERE m.round_id = ANY($1)
		ORDER BY r.number ASC, m.board_no ASC`
	return r.queryMatches(ctx, query, pq.Array(roundIDs))
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows, true)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, result models.MatchResult, scoreWhite, scoreBlack float64) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET result = $1, score_white = $2, score_black = $3
		WHERE id = $4`
	res, err := executor.ExecContext(ctx, query, result, scoreWhite, scoreBlack, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "matches_round_id_board_no_key" {
				return ErrMatchBoardConflict
			}
		case "23503":
			switch pqErr.Constraint {
			case "matches_round_id_fkey":
				return ErrMatchRoundInvalid
			case "matches_white_id_fkey", "matches_black_id_fkey":
				return ErrMatchParticipantInvalid
			}
		}
	}
	return err
}
