package httpapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvestments_CreateReportsUpdate(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	token := api.register(t, "ana@example.com")

	rec := api.do(t, http.MethodPost, "/api/investments", record(1700000000000, "Banco", 100.5), token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode(t, rec)
	assert.Equal(t, false, first["isUpdate"])

	rec = api.do(t, http.MethodPost, "/api/investments", record(1700000000000, "Banco", 200), token)
	second := decode(t, rec)
	assert.Equal(t, true, second["isUpdate"])
	assert.Equal(t, first["data"], second["data"])

	rec = api.do(t, http.MethodGet, "/api/investments", nil, token)
	items := decode(t, rec)["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, 200.0, items[0].(map[string]any)["monto_ars"])
}

func TestInvestments_Pagination(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	token := api.register(t, "ana@example.com")

	records := []any{}
	for i := int64(1); i <= 5; i++ {
		records = append(records, record(i*1000, "Banco", i))
	}
	rec := api.do(t, http.MethodPost, "/api/investments/bulk", map[string]any{"records": records}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)["summary"].(map[string]any)
	assert.Equal(t, 5.0, summary["total"])
	assert.Equal(t, 5.0, summary["created"])

	seen := map[float64]bool{}
	var last float64 = 1e18
	for _, tc := range []struct {
		offset  int
		n       int
		hasMore bool
	}{{0, 2, true}, {2, 2, true}, {4, 1, false}} {
		rec := api.do(t, http.MethodGet, fmt.Sprintf("/api/investments?limit=2&offset=%d", tc.offset), nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)

		items := body["data"].([]any)
		require.Len(t, items, tc.n)
		for _, it := range items {
			ts := it.(map[string]any)["timestamp"].(float64)
			assert.False(t, seen[ts], "pages overlap")
			assert.Less(t, ts, last, "not descending")
			seen[ts] = true
			last = ts
		}

		p := body["pagination"].(map[string]any)
		assert.Equal(t, 5.0, p["total"])
		assert.Equal(t, tc.hasMore, p["hasMore"])
	}
}

func TestInvestments_ListFilters(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	token := api.register(t, "ana@example.com")

	for _, r := range []map[string]any{record(1000, "A", 1), record(2000, "B", 2), record(3000, "A", 3)} {
		require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/investments", r, token).Code)
	}

	rec := api.do(t, http.MethodGet, "/api/investments?entity=A&dateFrom=1000&dateTo=2500", nil, token)
	items := decode(t, rec)["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, 1000.0, items[0].(map[string]any)["timestamp"])
}

func TestInvestments_BadQuery(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	token := api.register(t, "ana@example.com")

	for _, q := range []string{"limit=1001", "limit=0", "offset=-1", "limit=abc", "dateFrom=yesterday"} {
		t.Run(q, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, "/api/investments?"+q, nil, token)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, CodeValidation, errorCode(t, rec))
		})
	}
}

func TestInvestments_UpdateDelete(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	token := api.register(t, "ana@example.com")

	rec := api.do(t, http.MethodPost, "/api/investments",
		map[string]any{"timestamp": 1000, "entidad": "A", "monto_ars": 10, "monto_usd": 1}, token)
	id := decode(t, rec)["data"].(map[string]any)["id"].(string)

	rec = api.do(t, http.MethodPut, "/api/investments/"+id, `{"monto_ars": null}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]any)
	assert.Nil(t, data["monto_ars"])
	assert.Equal(t, 1.0, data["monto_usd"])

	rec = api.do(t, http.MethodPut, "/api/investments/"+id, `{}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPut, "/api/investments/not-a-uuid", `{"monto_usd": 5}`, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/investments/"+id, nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodDelete, "/api/investments/"+id, nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, errorCode(t, rec))

	for i := 1; i <= 3; i++ {
		api.do(t, http.MethodPost, "/api/investments", record(int64(i), "A", nil), token)
	}
	rec = api.do(t, http.MethodDelete, "/api/investments", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, decode(t, rec)["deleted"])
}

func TestInvestments_CrossUserIsolation(t *testing.T) {
	api := newTestAPI(t, Options{}, nil)
	ana := api.register(t, "ana@example.com")
	bob := api.register(t, "bob@example.com")

	rec := api.do(t, http.MethodPost, "/api/investments", record(1000, "A", 10), ana)
	id := decode(t, rec)["data"].(map[string]any)["id"].(string)

	rec = api.do(t, http.MethodGet, "/api/investments", nil, bob)
	assert.Empty(t, decode(t, rec)["data"])

	rec = api.do(t, http.MethodPut, "/api/investments/"+id, `{"monto_ars": 1}`, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(t, http.MethodDelete, "/api/investments/"+id, nil, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/investments", nil, bob)
	assert.Equal(t, 0.0, decode(t, rec)["deleted"])

	rec = api.do(t, http.MethodGet, "/api/investments", nil, ana)
	assert.Len(t, decode(t, rec)["data"], 1)
}
