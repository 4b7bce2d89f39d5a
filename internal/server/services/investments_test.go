package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvestments_CreateReconciles(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	u := env.register(t, "ana@example.com")

	id1, isUpdate, err := env.investments.Create(ctx, u.ID, input(1704067200000, "Banco", "100"))
	require.NoError(t, err)
	assert.False(t, isUpdate)

	id2, isUpdate, err := env.investments.Create(ctx, u.ID, input(1704067200000, "Banco", "250.75"))
	require.NoError(t, err)
	assert.True(t, isUpdate)
	assert.Equal(t, id1, id2)

	items, page, err := env.investments.List(ctx, u.ID, models.InvestmentFilter{}, models.Page{Limit: 1000})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, page.Total)
	assert.True(t, items[0].MontoARS.Decimal.Equal(decimal.RequireFromString("250.75")))
	assert.True(t, items[0].UpdatedAt.After(items[0].CreatedAt))

	_, _, err = env.investments.Create(ctx, u.ID, models.InvestmentInput{Entidad: "NoTimestamp"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestInvestments_BulkBestEffort(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	u := env.register(t, "ana@example.com")

	stats, err := env.investments.Bulk(ctx, u.ID, []models.InvestmentInput{
		input(1, "A", "1"),
		input(2, "A", "2"),
		{Entidad: "missing timestamp"},
		input(1, "A", "3"),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Failed)

	_, page, _ := env.investments.List(ctx, u.ID, models.InvestmentFilter{}, models.Page{Limit: 10})
	assert.Equal(t, 2, page.Total)
}

func TestInvestments_ListPagination(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	u := env.register(t, "ana@example.com")

	for i := int64(1); i <= 5; i++ {
		_, _, err := env.investments.Create(ctx, u.ID, input(i*1000, "A", ""))
		require.NoError(t, err)
	}

	first, p1, err := env.investments.List(ctx, u.ID, models.InvestmentFilter{}, models.Page{Limit: 2})
	require.NoError(t, err)
	second, p2, err := env.investments.List(ctx, u.ID, models.InvestmentFilter{}, models.Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	last, p3, err := env.investments.List(ctx, u.ID, models.InvestmentFilter{}, models.Page{Limit: 2, Offset: 4})
	require.NoError(t, err)

	assert.True(t, p1.HasMore)
	assert.True(t, p2.HasMore)
	assert.False(t, p3.HasMore)
	assert.Equal(t, 5, p3.Total)

	var stamps []int64
	for _, page := range [][]*models.Investment{first, second, last} {
		for _, inv := range page {
			stamps = append(stamps, inv.Timestamp)
		}
	}
	assert.Equal(t, []int64{5000, 4000, 3000, 2000, 1000}, stamps)

	_, _, err = env.investments.List(ctx, u.ID, models.InvestmentFilter{}, models.Page{Limit: 1001})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, _, err = env.investments.List(ctx, u.ID, models.InvestmentFilter{}, models.Page{Limit: 10, Offset: -1})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestInvestments_UpdatePatch(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	u := env.register(t, "ana@example.com")
	other := env.register(t, "bob@example.com")

	in := input(1, "A", "100")
	in.MontoUSD = decimal.NewNullDecimal(decimal.NewFromInt(5))
	id, _, err := env.investments.Create(ctx, u.ID, in)
	require.NoError(t, err)

	_, err = env.investments.Update(ctx, u.ID, id, models.InvestmentPatch{})
	assert.ErrorIs(t, err, common.ErrValidation)

	inv, err := env.investments.Update(ctx, u.ID, id, models.InvestmentPatch{MontoARS: models.Null[decimal.Decimal]()})
	require.NoError(t, err)
	assert.False(t, inv.MontoARS.Valid)
	assert.True(t, inv.MontoUSD.Valid, "absent field is kept")

	_, err = env.investments.Update(ctx, other.ID, id, models.InvestmentPatch{MontoUSD: models.Some(decimal.NewFromInt(1))})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = env.investments.Update(ctx, u.ID, "not-an-id", models.InvestmentPatch{MontoUSD: models.Some(decimal.NewFromInt(1))})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInvestments_DeleteScopes(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	u := env.register(t, "ana@example.com")
	other := env.register(t, "bob@example.com")

	id, _, _ := env.investments.Create(ctx, u.ID, input(1, "A", ""))
	_, _, _ = env.investments.Create(ctx, u.ID, input(2, "A", ""))
	_, _, _ = env.investments.Create(ctx, other.ID, input(1, "A", ""))

	assert.ErrorIs(t, env.investments.Delete(ctx, other.ID, id), common.ErrorNotFound)
	require.NoError(t, env.investments.Delete(ctx, u.ID, id))
	assert.ErrorIs(t, env.investments.Delete(ctx, u.ID, id), common.ErrorNotFound)

	n, err := env.investments.DeleteAll(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, page, _ := env.investments.List(ctx, other.ID, models.InvestmentFilter{}, models.Page{Limit: 10})
	assert.Equal(t, 1, page.Total)
}
