package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inv(user string, ts int64, entidad string, at time.Time) *models.Investment {
	return &models.Investment{
		UserID:    user,
		Timestamp: ts,
		Entidad:   entidad,
		MontoARS:  decimal.NewNullDecimal(decimal.NewFromInt(ts)),
		UpdatedAt: at,
	}
}

func TestUsers_EmailUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())

	u, err := repo.Create(ctx, &models.User{Email: "a@b.com", PasswordHash: "h"})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	_, err = repo.Create(ctx, &models.User{Email: "a@b.com", PasswordHash: "h2"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	// emails are case-sensitive as stored
	_, err = repo.Create(ctx, &models.User{Email: "A@b.com", PasswordHash: "h"})
	assert.NoError(t, err)

	got, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUsers_Preferences(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())

	u, err := repo.Create(ctx, &models.User{Email: "a@b.com"})
	require.NoError(t, err)

	prefs, err := repo.MergePreferences(ctx, u.ID, models.Preferences{"theme": "dark", "x": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.Preferences{"theme": "dark", "x": 1}, prefs)

	prefs, err = repo.MergePreferences(ctx, u.ID, models.Preferences{"theme": "light"}, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, models.Preferences{"theme": "light"}, prefs)

	require.NoError(t, repo.ReplacePreferences(ctx, u.ID, models.Preferences{"only": true}))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Preferences{"only": true}, got.Preferences)

	// returned copies do not alias the store
	got.Preferences["only"] = false
	again, _ := repo.GetByID(ctx, u.ID)
	assert.Equal(t, true, again.Preferences["only"])

	at := time.Now()
	require.NoError(t, repo.TouchLastLogin(ctx, u.ID, at))
	again, _ = repo.GetByID(ctx, u.ID)
	require.NotNil(t, again.LastLogin)
	assert.True(t, at.Equal(*again.LastLogin))
}

func TestInvestments_UpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewInvestmentRepository(NewStore())
	t0 := time.Unix(100, 0)

	id1, created, err := repo.Upsert(ctx, inv("u1", 1, "A", t0))
	require.NoError(t, err)
	assert.True(t, created)

	next := inv("u1", 1, "A", t0.Add(time.Second))
	next.MontoARS = decimal.NullDecimal{}
	id2, created, err := repo.Upsert(ctx, next)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id1, id2)

	got, err := repo.Get(ctx, "u1", id1)
	require.NoError(t, err)
	assert.False(t, got.MontoARS.Valid, "null overwrites")
	assert.True(t, got.CreatedAt.Equal(t0))
	assert.True(t, got.UpdatedAt.Equal(t0.Add(time.Second)))

	n, _ := repo.Count(ctx, "u1", models.InvestmentFilter{})
	assert.Equal(t, 1, n)
}

func TestInvestments_InsertIfAbsentNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewInvestmentRepository(NewStore())

	id, _, err := repo.Upsert(ctx, inv("u1", 1, "A", time.Unix(1, 0)))
	require.NoError(t, err)

	other := inv("u1", 1, "A", time.Unix(2, 0))
	other.MontoARS = decimal.NewNullDecimal(decimal.NewFromInt(999))
	_, inserted, err := repo.InsertIfAbsent(ctx, other)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, _ := repo.Get(ctx, "u1", id)
	assert.True(t, got.MontoARS.Decimal.Equal(decimal.NewFromInt(1)))
}

func TestInvestments_ListPagesAreDisjointAndOrdered(t *testing.T) {
	ctx := context.Background()
	repo := NewInvestmentRepository(NewStore())

	for i := int64(1); i <= 5; i++ {
		_, _, err := repo.Upsert(ctx, inv("u1", i*10, "A", time.Unix(i, 0)))
		require.NoError(t, err)
	}
	_, _, _ = repo.Upsert(ctx, inv("u2", 999, "A", time.Unix(1, 0)))

	seen := map[string]bool{}
	var stamps []int64
	for offset := 0; offset < 6; offset += 2 {
		page, err := repo.List(ctx, "u1", models.InvestmentFilter{}, models.Page{Limit: 2, Offset: offset})
		require.NoError(t, err)
		for _, p := range page {
			assert.False(t, seen[p.ID])
			seen[p.ID] = true
			stamps = append(stamps, p.Timestamp)
		}
	}
	assert.Equal(t, []int64{50, 40, 30, 20, 10}, stamps)

	from, to := int64(20), int64(40)
	page, err := repo.List(ctx, "u1", models.InvestmentFilter{DateFrom: &from, DateTo: &to}, models.Page{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, page, 3)

	n, _ := repo.Count(ctx, "u1", models.InvestmentFilter{Entity: "B"})
	assert.Equal(t, 0, n)
}

func TestInvestments_UpdatedSinceAndLastUpdated(t *testing.T) {
	ctx := context.Background()
	repo := NewInvestmentRepository(NewStore())

	last, err := repo.LastUpdated(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, last)

	for i := int64(1); i <= 3; i++ {
		_, _, _ = repo.Upsert(ctx, inv("u1", i, "A", time.Unix(i*100, 0)))
	}

	since := time.Unix(200, 0)
	got, err := repo.ListUpdatedSince(ctx, "u1", &since)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].Timestamp)

	last, err = repo.LastUpdated(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, last.Equal(time.Unix(300, 0)))
}

func TestInvestments_OwnershipAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewInvestmentRepository(NewStore())

	id, _, _ := repo.Upsert(ctx, inv("u1", 1, "A", time.Now()))

	_, err := repo.Get(ctx, "u2", id)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "u2", id), common.ErrorNotFound)

	require.NoError(t, repo.Delete(ctx, "u1", id))
	assert.ErrorIs(t, repo.Delete(ctx, "u1", id), common.ErrorNotFound)

	// natural key is free again
	_, created, _ := repo.Upsert(ctx, inv("u1", 1, "A", time.Now()))
	assert.True(t, created)

	n, err := repo.DeleteAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestInvestments_ConcurrentUpsertKeepsKeyUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewInvestmentRepository(NewStore())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = repo.Upsert(ctx, inv("u1", 7, "same", time.Now()))
		}()
	}
	wg.Wait()

	n, _ := repo.Count(ctx, "u1", models.InvestmentFilter{})
	assert.Equal(t, 1, n)
}

func TestSites_UpsertUpdateAndRenameConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewSiteConfigRepository(NewStore())
	ars := ".a"

	mk := func(name string) *models.SiteConfig {
		return &models.SiteConfig{UserID: "u1", Name: name, URLPattern: "https://x/*",
			Selectors: models.Selectors{ARS: &ars}, Investment: "PF", UpdatedAt: time.Now()}
	}

	idA, created, err := repo.Upsert(ctx, mk("A"))
	require.NoError(t, err)
	assert.True(t, created)

	again := mk("A")
	again.Investment = "FCI"
	_, created, err = repo.Upsert(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)

	got, _ := repo.Get(ctx, "u1", idA)
	assert.Equal(t, "FCI", got.Investment)

	idB, _, _ := repo.Upsert(ctx, mk("B"))
	b, _ := repo.Get(ctx, "u1", idB)
	b.Name = "A"
	assert.ErrorIs(t, repo.Update(ctx, b), common.ErrAlreadyExists)

	b.Name = "C"
	require.NoError(t, repo.Update(ctx, b))
	_, inserted, _ := repo.InsertIfAbsent(ctx, mk("B"))
	assert.True(t, inserted, "old key released on rename")

	list, _ := repo.List(ctx, "u1")
	assert.Len(t, list, 3)
	n, _ := repo.Count(ctx, "u2")
	assert.Equal(t, 0, n)

	deleted, _ := repo.DeleteAll(ctx, "u1")
	assert.Equal(t, int64(3), deleted)
}

func TestStore_IDsAreUnique(t *testing.T) {
	s := NewStore()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := s.newID()
		require.False(t, seen[id], fmt.Sprintf("duplicate id %s", id))
		seen[id] = true
	}
}
