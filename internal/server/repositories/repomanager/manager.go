// Package repomanager vends repositories bound to a dbx.DBTX and owns the
// store handle: migrations, health pings, transactions and shutdown.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/investsync/internal/dbx"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/configsites"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/investments"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	// DB returns the non-transactional handle.
	DB() dbx.DBTX
	// WithTx runs fn inside a transaction; repositories built from tx see
	// its writes.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error

	Users(db dbx.DBTX) users.Repository
	Investments(db dbx.DBTX) investments.Repository
	ConfigSites(db dbx.DBTX) configsites.Repository
}
