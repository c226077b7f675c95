package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/healthsync/internal/server/repositories/envelopes"
	"github.com/dmitrijs2005/healthsync/internal/server/repositories/repomanager"
)

type PostgresRepositoryManager struct {
	db        *sql.DB
	envelopes envelopes.Repository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Envelopes() envelopes.Repository {
	return m.envelopes
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// NewPostgresRepositoryManager opens dsn with the pgx driver, applies the
// embedded migrations and binds the repositories to the pool.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (RepositoryManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()

	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &PostgresRepositoryManager{
		db:        db,
		envelopes: repos.Envelopes(db),
	}, nil
}
