package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/healthsync/internal/dbx"
	"github.com/dmitrijs2005/healthsync/internal/server/repositories/envelopes"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Envelopes(db dbx.DBTX) envelopes.Repository
}
