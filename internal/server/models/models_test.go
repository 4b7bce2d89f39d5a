package models

import (
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_DistinguishesAbsentNullValue(t *testing.T) {
	var p InvestmentPatch
	require.NoError(t, json.Unmarshal([]byte(`{"monto_ars": null, "monto_usd": 12.5}`), &p))

	assert.True(t, p.MontoARS.Set)
	assert.True(t, p.MontoARS.Null)
	assert.True(t, p.MontoUSD.HasValue())
	assert.True(t, p.MontoUSD.Value.Equal(decimal.RequireFromString("12.5")))

	var empty InvestmentPatch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.True(t, empty.IsEmpty())
}

func TestInvestmentPatch_Apply(t *testing.T) {
	inv := &Investment{
		MontoARS: decimal.NewNullDecimal(decimal.NewFromInt(100)),
		MontoUSD: decimal.NewNullDecimal(decimal.NewFromInt(5)),
	}

	InvestmentPatch{MontoARS: Null[decimal.Decimal]()}.Apply(inv)
	assert.False(t, inv.MontoARS.Valid)
	assert.True(t, inv.MontoUSD.Decimal.Equal(decimal.NewFromInt(5)))

	InvestmentPatch{MontoARS: Some(decimal.NewFromInt(7))}.Apply(inv)
	assert.True(t, inv.MontoARS.Valid)
	assert.True(t, inv.MontoARS.Decimal.Equal(decimal.NewFromInt(7)))
}

func TestInvestment_AmountsAreJSONNumbers(t *testing.T) {
	inv := Investment{
		ID:       "x",
		Entidad:  "Banco",
		MontoARS: decimal.NewNullDecimal(decimal.RequireFromString("150000.5")),
	}
	b, err := json.Marshal(inv)
	require.NoError(t, err)

	assert.Contains(t, string(b), `"monto_ars":150000.5`)
	assert.Contains(t, string(b), `"monto_usd":null`)
}

func TestInvestmentInput_Validate(t *testing.T) {
	ts := int64(1704067200000)

	var in InvestmentInput
	require.NoError(t, json.Unmarshal([]byte(`{"timestamp":1704067200000,"entidad":"Banco","monto_ars":1.5,"id":"ignored"}`), &in))
	require.NoError(t, in.Validate())
	assert.Equal(t, ts, in.ToInvestment("u1").Timestamp)
	assert.Equal(t, "u1", in.ToInvestment("u1").UserID)

	assert.ErrorIs(t, InvestmentInput{Entidad: "x"}.Validate(), common.ErrValidation)
	assert.ErrorIs(t, InvestmentInput{Timestamp: &ts, Entidad: "  "}.Validate(), common.ErrValidation)
}

func TestSiteConfigInput_Validate(t *testing.T) {
	ars := ".saldo"
	ok := SiteConfigInput{Name: "n", URLPattern: "https://x/*", Selectors: &Selectors{ARS: &ars}, Investment: "Plazo Fijo"}
	require.NoError(t, ok.Validate())

	noSel := ok
	noSel.Selectors = nil
	assert.ErrorIs(t, noSel.Validate(), common.ErrValidation)

	noName := ok
	noName.Name = ""
	assert.ErrorIs(t, noName.Validate(), common.ErrValidation)
}

func TestSelectors_ValueScan(t *testing.T) {
	ars := ".a"
	v, err := Selectors{ARS: &ars}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"ars":".a"}`, string(v.([]byte)))

	var s Selectors
	require.NoError(t, s.Scan([]byte(`{"usd":".u"}`)))
	require.NotNil(t, s.USD)
	assert.Equal(t, ".u", *s.USD)
	assert.Nil(t, s.ARS)

	assert.Error(t, s.Scan(42))
}

func TestPreferences_ValueScan(t *testing.T) {
	var p Preferences
	require.NoError(t, p.Scan(nil))
	assert.NotNil(t, p)
	assert.Empty(t, p)

	require.NoError(t, p.Scan(`{"theme":"dark"}`))
	assert.Equal(t, "dark", p["theme"])

	v, err := Preferences(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)
}

func TestPreferencesPatch_SplitAndMerge(t *testing.T) {
	current := Preferences{"theme": "light", "autoReplication": map[string]any{"on": true}, "keep": 1.0}

	var patch PreferencesPatch
	require.NoError(t, json.Unmarshal([]byte(`{"theme":"dark","autoReplication":null,"extra":{"a":1}}`), &patch))

	set, unset, err := patch.Split()
	require.NoError(t, err)
	assert.Equal(t, Preferences{"theme": "dark", "extra": map[string]any{"a": 1.0}}, set)
	assert.Equal(t, []string{"autoReplication"}, unset)

	got := current.Merge(set, unset)
	assert.Equal(t, Preferences{"theme": "dark", "keep": 1.0, "extra": map[string]any{"a": 1.0}}, got)

	// the input map is not mutated
	assert.Equal(t, "light", current["theme"])
}

func TestNewPagination(t *testing.T) {
	assert.True(t, NewPagination(5, Page{Limit: 2, Offset: 0}, 2).HasMore)
	assert.True(t, NewPagination(5, Page{Limit: 2, Offset: 2}, 2).HasMore)
	assert.False(t, NewPagination(5, Page{Limit: 2, Offset: 4}, 1).HasMore)
	assert.False(t, NewPagination(0, Page{Limit: 1000}, 0).HasMore)
}
