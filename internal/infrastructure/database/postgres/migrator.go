package postgres

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

// Migrator applies schema migrations from a directory of SQL files.
type Migrator struct {
	dsn    string
	dir    string
	logger logging.Logger
}

// NewMigrator prepares a migrator for the given DSN and migrations directory.
func NewMigrator(dsn, dir string, log logging.Logger) *Migrator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if dir == "" {
		dir = "migrations"
	}
	return &Migrator{dsn: dsn, dir: dir, logger: log}
}

// Up applies all pending migrations.  An up-to-date schema is not an error.
func (m *Migrator) Up() error {
	mig, err := migrate.New("file://"+m.dir, m.dsn)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "creating migrator")
	}
	defer mig.Close()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, _, _ := mig.Version()
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError,
			"running migrations (current version %d)", version)
	}

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		m.logger.Warn("could not read migration version", logging.Err(err))
		return nil
	}
	m.logger.Info("migrations applied",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// Down rolls back a single migration step.
func (m *Migrator) Down() error {
	mig, err := migrate.New("file://"+m.dir, m.dsn)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "creating migrator")
	}
	defer mig.Close()

	if err := mig.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "rolling back migration")
	}
	return nil
}
