package postgres

import (
	stderrors "errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx5 database driver
	_ "github.com/golang-migrate/migrate/v4/source/file"     // file source driver

	"github.com/clearlens/resolve/internal/config"
	"github.com/clearlens/resolve/pkg/errors"
)

// RunMigrations applies all pending schema migrations.  Called on startup so
// the two tables this module owns (pseudonyms, business_id_assignments) exist
// before any repository touches them.  An up-to-date schema is not an error.
func RunMigrations(cfg config.DatabaseConfig) error {
	m, err := migrate.New("file://"+cfg.MigrationPath, migrationURL(cfg))
	if err != nil {
		return errors.Wrap(err, errors.CodeMigrationFailed, "failed to create migrate instance")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, errors.CodeMigrationFailed, "failed to run migrations")
	}
	return nil
}

// RollbackMigrations rolls the schema back by steps.  Development and test
// use only.
func RollbackMigrations(cfg config.DatabaseConfig, steps int) error {
	if steps <= 0 {
		return errors.InvalidParam("rollback steps must be > 0")
	}
	m, err := migrate.New("file://"+cfg.MigrationPath, migrationURL(cfg))
	if err != nil {
		return errors.Wrap(err, errors.CodeMigrationFailed, "failed to create migrate instance")
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, errors.CodeMigrationFailed, "failed to roll back migrations")
	}
	return nil
}

// migrationURL rewrites the pool DSN onto the scheme golang-migrate's pgx/v5
// driver registers.
func migrationURL(cfg config.DatabaseConfig) string {
	return "pgx5" + DSN(cfg)[len("postgres"):]
}
