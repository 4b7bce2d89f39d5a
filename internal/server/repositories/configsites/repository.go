// Package configsites persists per-user scraping configuration keyed by
// (user_id, name, url_pattern).
package configsites

import (
	"context"
	"time"

	"github.com/dmitrijs2005/investsync/internal/server/models"
)

type Repository interface {
	// Upsert inserts s or overwrites selectors and investment of the config
	// with the same natural key.
	Upsert(ctx context.Context, s *models.SiteConfig) (id string, created bool, err error)
	InsertIfAbsent(ctx context.Context, s *models.SiteConfig) (id string, inserted bool, err error)
	Get(ctx context.Context, userID, id string) (*models.SiteConfig, error)
	// List returns all configs of the user in creation order.
	List(ctx context.Context, userID string) ([]*models.SiteConfig, error)
	ListUpdatedSince(ctx context.Context, userID string, since *time.Time) ([]*models.SiteConfig, error)
	Count(ctx context.Context, userID string) (int, error)
	// Update rewrites every mutable field of an existing config. Renaming onto
	// another config's natural key yields common.ErrAlreadyExists.
	Update(ctx context.Context, s *models.SiteConfig) error
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
}
