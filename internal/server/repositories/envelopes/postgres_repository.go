package envelopes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/healthsync/internal/common"
	"github.com/dmitrijs2005/healthsync/internal/dbx"
	"github.com/dmitrijs2005/healthsync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Put(ctx context.Context, env *models.Envelope) error {

	query :=
		`INSERT INTO envelopes (sync_id, document, updated_at)
		 VALUES ($1, $2::jsonb, $3)
		 ON CONFLICT (sync_id) DO UPDATE
		 SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query, env.SyncID, string(env.Document), env.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, syncID string) (*models.Envelope, error) {
	query :=
		`SELECT sync_id, document::text, updated_at FROM envelopes
		 WHERE sync_id = $1`

	var doc string
	env := &models.Envelope{}
	err := r.db.QueryRowContext(ctx, query, syncID).Scan(&env.SyncID, &doc, &env.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	env.Document = []byte(doc)
	return env, nil
}
