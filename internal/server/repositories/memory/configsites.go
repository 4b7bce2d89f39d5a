package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/configsites"
)

type SiteConfigRepository struct {
	s *Store
}

var _ configsites.Repository = (*SiteConfigRepository)(nil)

func NewSiteConfigRepository(s *Store) *SiteConfigRepository {
	return &SiteConfigRepository{s: s}
}

func (r *SiteConfigRepository) Upsert(ctx context.Context, site *models.SiteConfig) (string, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if id, ok := r.s.siteKeys[siteKeyOf(site)]; ok {
		cur := r.s.sites[id]
		cur.Selectors = copySite(site).Selectors
		cur.Investment = site.Investment
		cur.UpdatedAt = site.UpdatedAt
		site.ID = id
		return id, false, nil
	}

	r.insert(site)
	return site.ID, true, nil
}

func (r *SiteConfigRepository) InsertIfAbsent(ctx context.Context, site *models.SiteConfig) (string, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.siteKeys[siteKeyOf(site)]; ok {
		return "", false, nil
	}

	r.insert(site)
	return site.ID, true, nil
}

// insert requires r.s.mu held.
func (r *SiteConfigRepository) insert(site *models.SiteConfig) {
	site.ID = r.s.newID()
	site.CreatedAt = site.UpdatedAt
	r.s.sites[site.ID] = copySite(site)
	r.s.siteKeys[siteKeyOf(site)] = site.ID
}

func (r *SiteConfigRepository) Get(ctx context.Context, userID, id string) (*models.SiteConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	s, ok := r.s.sites[id]
	if !ok || s.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return copySite(s), nil
}

func (r *SiteConfigRepository) List(ctx context.Context, userID string) ([]*models.SiteConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*models.SiteConfig{}
	for _, s := range r.s.sites {
		if s.UserID == userID {
			out = append(out, copySite(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *SiteConfigRepository) ListUpdatedSince(ctx context.Context, userID string, since *time.Time) ([]*models.SiteConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*models.SiteConfig{}
	for _, s := range r.s.sites {
		if s.UserID != userID {
			continue
		}
		if since != nil && s.UpdatedAt.Before(*since) {
			continue
		}
		out = append(out, copySite(s))
	}

	sortByUpdatedDesc(out,
		func(s *models.SiteConfig) int64 { return s.UpdatedAt.UnixNano() },
		func(s *models.SiteConfig) string { return s.ID })
	return out, nil
}

func (r *SiteConfigRepository) Count(ctx context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, s := range r.s.sites {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *SiteConfigRepository) Update(ctx context.Context, site *models.SiteConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.sites[site.ID]
	if !ok || cur.UserID != site.UserID {
		return common.ErrorNotFound
	}

	newKey := siteKeyOf(site)
	if owner, taken := r.s.siteKeys[newKey]; taken && owner != site.ID {
		return common.ErrAlreadyExists
	}

	delete(r.s.siteKeys, siteKeyOf(cur))
	updated := copySite(site)
	updated.CreatedAt = cur.CreatedAt
	r.s.sites[site.ID] = updated
	r.s.siteKeys[newKey] = site.ID
	return nil
}

func (r *SiteConfigRepository) Delete(ctx context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	s, ok := r.s.sites[id]
	if !ok || s.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.sites, id)
	delete(r.s.siteKeys, siteKeyOf(s))
	return nil
}

func (r *SiteConfigRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, s := range r.s.sites {
		if s.UserID == userID {
			delete(r.s.sites, id)
			delete(r.s.siteKeys, siteKeyOf(s))
			n++
		}
	}
	return n, nil
}
