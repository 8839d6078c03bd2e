// Package postgresql provides PostgreSQL persistence for personas, threads,
// and generation attempts.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/symposiumhq/symposium/pkg/persistence"
	"github.com/symposiumhq/symposium/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db          *sql.DB
	logger      *slog.Logger
	personaRepo *PersonaRepository
	threadRepo  *ThreadRepository
	attemptRepo *AttemptRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:          database,
		logger:      logger,
		personaRepo: NewPersonaRepository(database, logger),
		threadRepo:  NewThreadRepository(database, logger),
		attemptRepo: NewAttemptRepository(database, logger),
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) PersonaRepository() persistence.PersonaRepository {
	return p.personaRepo
}

func (p *Persistence) ThreadRepository() persistence.ThreadRepository {
	return p.threadRepo
}

func (p *Persistence) AttemptRepository() persistence.AttemptRepository {
	return p.attemptRepo
}
