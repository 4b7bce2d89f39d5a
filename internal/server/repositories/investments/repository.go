// Package investments persists investment records keyed by
// (user_id, timestamp, entidad).
package investments

import (
	"context"
	"time"

	"github.com/dmitrijs2005/investsync/internal/server/models"
)

type Repository interface {
	// Upsert inserts inv or overwrites the amounts of the record with the same
	// natural key. created reports which of the two happened.
	Upsert(ctx context.Context, inv *models.Investment) (id string, created bool, err error)
	// InsertIfAbsent inserts inv unless its natural key already exists.
	InsertIfAbsent(ctx context.Context, inv *models.Investment) (id string, inserted bool, err error)
	Get(ctx context.Context, userID, id string) (*models.Investment, error)
	// List returns a page ordered by timestamp DESC, id ASC.
	List(ctx context.Context, userID string, filter models.InvestmentFilter, page models.Page) ([]*models.Investment, error)
	Count(ctx context.Context, userID string, filter models.InvestmentFilter) (int, error)
	// ListUpdatedSince returns records with updated_at >= since (all when
	// since is nil), newest update first.
	ListUpdatedSince(ctx context.Context, userID string, since *time.Time) ([]*models.Investment, error)
	// UpdateAmounts writes amounts and updated_at of an existing record.
	UpdateAmounts(ctx context.Context, inv *models.Investment) error
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	// LastUpdated returns the newest updated_at, nil when the user has none.
	LastUpdated(ctx context.Context, userID string) (*time.Time, error)
}
