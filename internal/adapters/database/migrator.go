package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

var ErrDirtySchema = errors.New("schema is dirty")

type Migrator struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewDatabaseMigrator(db *sqlx.DB, logger *slog.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// Create the schema if needed and bring it up to the latest migration
func (m *Migrator) Migrate(ctx context.Context, schemaName string) error {
	return m.withMigrate(ctx, schemaName, func(instance *migrate.Migrate) error {
		m.logger.InfoContext(ctx, "Starting migrations", "schema", schemaName)

		err := instance.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.InfoContext(ctx, "No migrations to run", "schema", schemaName)
		} else if err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}

		version, dirty, err := instance.Version()
		if err != nil {
			return fmt.Errorf("failed to read version after migrating: %w", err)
		}
		m.logger.InfoContext(ctx, "Migrations completed", "schema", schemaName, "version", version, "dirty", dirty)
		return nil
	})
}

// The latest applied migration in the schema. 0 when nothing has been applied.
func (m *Migrator) Version(ctx context.Context, schemaName string) (uint, error) {
	var version uint
	err := m.withMigrate(ctx, schemaName, func(instance *migrate.Migrate) error {
		v, dirty, err := instance.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		} else if err != nil {
			return fmt.Errorf("failed to read version: %w", err)
		}
		if dirty {
			return fmt.Errorf("%w: failed migration at version %d", ErrDirtySchema, v)
		}
		version = v
		return nil
	})
	return version, err
}

// Run fn against a migrate instance bound to a single connection with search_path set to the schema
func (m *Migrator) withMigrate(ctx context.Context, schemaName string, fn func(instance *migrate.Migrate) error) error {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("migrate: failed to connect to db: %w", err)
	}
	defer conn.Close()

	quotedSchema := pq.QuoteIdentifier(schemaName)
	for _, statement := range []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", quotedSchema),
		fmt.Sprintf("SET search_path TO %s", quotedSchema),
	} {
		if _, err := conn.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("migrate: failed to prepare schema %s: %w", schemaName, err)
		}
	}

	source, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrate: failed to read embedded migrations: %w", err)
	}
	defer source.Close()

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{
		DatabaseName: DB_NAME,
		SchemaName:   schemaName,
	})
	if err != nil {
		return fmt.Errorf("migrate: failed to create postgres driver: %w", err)
	}

	instance, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate: failed to create migration instance: %w", err)
	}
	defer instance.Close()

	if err := fn(instance); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
