package repchess

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ravoluxiz-cmyk/RepChessTgApp/config"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/db"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/repositories"
	"github.com/ravoluxiz-cmyk/RepChessTgApp/services"
)

const connectTimeout = 5 * time.Second

// Engine bundles the repositories and services of the pairing core over a
// single database handle. The embedding application (bot, HTTP server, CLI)
// owns the handle's lifetime through Close.
type Engine struct {
	DB        *sql.DB
	Pairing   services.PairingService
	Standings services.StandingsService
	Matches   services.MatchService
}

// Open подключается к базе данных, применяет миграции и собирает граф
// сервисов.
func Open(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, connectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("database connection established")

	if err := db.Migrate(dbConn, cfg.MigrationsDir); err != nil {
		if closeErr := dbConn.Close(); closeErr != nil {
			logger.Error("failed to close database handle after migration error", slog.Any("error", closeErr))
		}
		return nil, err
	}
	logger.Info("migrations applied", slog.String("dir", cfg.MigrationsDir))

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)

	return &Engine{
		DB: dbConn,
		Pairing: services.NewPairingService(
			repositories.NewSQLTxRunner(dbConn),
			tournamentRepo, participantRepo, roundRepo, matchRepo,
			logger, cfg.PairingSeed),
		Standings: services.NewStandingsService(
			tournamentRepo, participantRepo, roundRepo, matchRepo, logger),
		Matches: services.NewMatchService(
			tournamentRepo, roundRepo, matchRepo, logger),
	}, nil
}

// Close releases the database handle.
func (e *Engine) Close() error {
	return e.DB.Close()
}
