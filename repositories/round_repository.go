package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/models"
)

var (
	ErrRoundNotFound          = errors.New("round not found")
	ErrRoundNumberConflict    = errors.New("round number already exists for this tournament")
	ErrRoundTournamentInvalid = errors.New("round tournament conflict or invalid")
)

type RoundRepository interface {
	Create(ctx context.Context, round *models.Round) error
	GetByID(ctx context.Context, id int) (*models.Round, error)
	GetByNumber(ctx context.Context, tournamentID, number int) (*models.Round, error)
	ListByTournament(ctx context.Context, tournamentID int, upToExcluding *int) ([]*models.Round, error)
	MarkPaired(ctx context.Context, exec SQLExecutor, id int, pairedAt time.Time) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RoundStatus) error
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRoundRepository) Create(ctx context.Context, round *models.Round) error {
	query := `
		INSERT INTO rounds (tournament_id, number, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		round.TournamentID, round.Number, round.Status,
	).Scan(&round.ID, &round.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrRoundNumberConflict
			case "23503":
				return ErrRoundTournamentInvalid
			}
		}
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

func (r *postgresRoundRepository) scanRound(rowScanner interface {
	Scan(dest ...interface{}) error
}) (*models.Round, error) {
	var round models.Round
	err := rowScanner.Scan(
		&round.ID, &round.TournamentID, &round.Number, &round.Status,
		&round.PairedAt, &round.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return &round, nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id int) (*models.Round, error) {
	query := `
		SELECT id, tournament_id, number, status, paired_at, created_at
		FROM rounds
		WHERE id = $1`
	return r.scanRound(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresRoundRepository) GetByNumber(ctx context.Context, tournamentID, number int) (*models.Round, error) {
	query := `
		SELECT id, tournament_id, number, status, paired_at, created_at
		FROM rounds
		WHERE tournament_id = $1 AND number = $2`
	return r.scanRound(r.db.QueryRowContext(ctx, query, tournamentID, number))
}

func (r *postgresRoundRepository) ListByTournament(ctx context.Context, tournamentID int, upToExcluding *int) ([]*models.Round, error) {
	query := `
		SELECT id, tournament_id, number, status, paired_at, created_at
		FROM rounds
		WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if upToExcluding != nil {
		query += ` AND number < $` + strconv.Itoa(len(args)+1)
		args = append(args, *upToExcluding)
	}
	query += ` ORDER BY number ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	rounds := make([]*models.Round, 0)
	for rows.Next() {
		round, scanErr := r.scanRound(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", scanErr)
		}
		rounds = append(rounds, round)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during round rows iteration: %w", err)
	}
	return rounds, nil
}

func (r *postgresRoundRepository) MarkPaired(ctx context.Context, exec SQLExecutor, id int, pairedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `UPDATE rounds SET status = $1, paired_at = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, models.RoundStatusPaired, pairedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark round %d paired: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RoundStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE rounds SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update round %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}
