package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/investments"
)

type InvestmentRepository struct {
	s *Store
}

var _ investments.Repository = (*InvestmentRepository)(nil)

func NewInvestmentRepository(s *Store) *InvestmentRepository {
	return &InvestmentRepository{s: s}
}

func (r *InvestmentRepository) Upsert(ctx context.Context, inv *models.Investment) (string, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if id, ok := r.s.investmentKeys[keyOf(inv)]; ok {
		cur := r.s.investments[id]
		cur.MontoARS = inv.MontoARS
		cur.MontoUSD = inv.MontoUSD
		cur.UpdatedAt = inv.UpdatedAt
		inv.ID = id
		return id, false, nil
	}

	r.insert(inv)
	return inv.ID, true, nil
}

func (r *InvestmentRepository) InsertIfAbsent(ctx context.Context, inv *models.Investment) (string, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.investmentKeys[keyOf(inv)]; ok {
		return "", false, nil
	}

	r.insert(inv)
	return inv.ID, true, nil
}

// insert requires r.s.mu held.
func (r *InvestmentRepository) insert(inv *models.Investment) {
	inv.ID = r.s.newID()
	inv.CreatedAt = inv.UpdatedAt
	r.s.investments[inv.ID] = copyInvestment(inv)
	r.s.investmentKeys[keyOf(inv)] = inv.ID
}

func (r *InvestmentRepository) Get(ctx context.Context, userID, id string) (*models.Investment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inv, ok := r.s.investments[id]
	if !ok || inv.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return copyInvestment(inv), nil
}

func matches(inv *models.Investment, userID string, f models.InvestmentFilter) bool {
	if inv.UserID != userID {
		return false
	}
	if f.Entity != "" && inv.Entidad != f.Entity {
		return false
	}
	if f.DateFrom != nil && inv.Timestamp < *f.DateFrom {
		return false
	}
	if f.DateTo != nil && inv.Timestamp > *f.DateTo {
		return false
	}
	return true
}

func (r *InvestmentRepository) List(ctx context.Context, userID string, filter models.InvestmentFilter, page models.Page) ([]*models.Investment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := []*models.Investment{}
	for _, inv := range r.s.investments {
		if matches(inv, userID, filter) {
			all = append(all, copyInvestment(inv))
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Timestamp != all[j].Timestamp {
			return all[i].Timestamp > all[j].Timestamp
		}
		return all[i].ID < all[j].ID
	})

	if page.Offset >= len(all) {
		return []*models.Investment{}, nil
	}
	end := len(all)
	if page.Limit >= 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	return all[page.Offset:end], nil
}

func (r *InvestmentRepository) Count(ctx context.Context, userID string, filter models.InvestmentFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, inv := range r.s.investments {
		if matches(inv, userID, filter) {
			n++
		}
	}
	return n, nil
}

func (r *InvestmentRepository) ListUpdatedSince(ctx context.Context, userID string, since *time.Time) ([]*models.Investment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*models.Investment{}
	for _, inv := range r.s.investments {
		if inv.UserID != userID {
			continue
		}
		if since != nil && inv.UpdatedAt.Before(*since) {
			continue
		}
		out = append(out, copyInvestment(inv))
	}

	sortByUpdatedDesc(out,
		func(i *models.Investment) int64 { return i.UpdatedAt.UnixNano() },
		func(i *models.Investment) string { return i.ID })
	return out, nil
}

func (r *InvestmentRepository) UpdateAmounts(ctx context.Context, inv *models.Investment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.investments[inv.ID]
	if !ok || cur.UserID != inv.UserID {
		return common.ErrorNotFound
	}
	cur.MontoARS = inv.MontoARS
	cur.MontoUSD = inv.MontoUSD
	cur.UpdatedAt = inv.UpdatedAt
	return nil
}

func (r *InvestmentRepository) Delete(ctx context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inv, ok := r.s.investments[id]
	if !ok || inv.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.investments, id)
	delete(r.s.investmentKeys, keyOf(inv))
	return nil
}

func (r *InvestmentRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, inv := range r.s.investments {
		if inv.UserID == userID {
			delete(r.s.investments, id)
			delete(r.s.investmentKeys, keyOf(inv))
			n++
		}
	}
	return n, nil
}

func (r *InvestmentRepository) LastUpdated(ctx context.Context, userID string) (*time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var last *time.Time
	for _, inv := range r.s.investments {
		if inv.UserID != userID {
			continue
		}
		if last == nil || inv.UpdatedAt.After(*last) {
			t := inv.UpdatedAt
			last = &t
		}
	}
	return last, nil
}
