package repomanager

import (
	"context"

	"github.com/dmitrijs2005/investsync/internal/dbx"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/configsites"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/investments"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/memory"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/users"
)

// MemoryRepositoryManager serves every repository from one in-process store.
// WithTx gives no isolation or rollback: fn runs directly against the store.
type MemoryRepositoryManager struct {
	store *memory.Store
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memory.NewStore()}
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }

func (m *MemoryRepositoryManager) Ping(ctx context.Context) error { return ctx.Err() }

func (m *MemoryRepositoryManager) Close() error { return nil }

func (m *MemoryRepositoryManager) DB() dbx.DBTX { return nil }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return memory.NewUserRepository(m.store)
}

func (m *MemoryRepositoryManager) Investments(dbx.DBTX) investments.Repository {
	return memory.NewInvestmentRepository(m.store)
}

func (m *MemoryRepositoryManager) ConfigSites(dbx.DBTX) configsites.Repository {
	return memory.NewSiteConfigRepository(m.store)
}
