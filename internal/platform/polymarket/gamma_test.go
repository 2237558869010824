package polymarket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

func TestFlexBool(t *testing.T) {
	var v struct {
		A flexBool `json:"a"`
		B flexBool `json:"b"`
		C flexBool `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": true, "b": "true", "c": "false"}`), &v))
	assert.True(t, bool(v.A))
	assert.True(t, bool(v.B))
	assert.False(t, bool(v.C))
}

func TestFlexFloat(t *testing.T) {
	var v struct {
		A flexFloat `json:"a"`
		B flexFloat `json:"b"`
		C flexFloat `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 0.65, "b": "0.70", "c": null}`), &v))
	require.NotNil(t, v.A.Value)
	assert.InDelta(t, 0.65, *v.A.Value, 1e-9)
	require.NotNil(t, v.B.Value)
	assert.InDelta(t, 0.70, *v.B.Value, 1e-9)
	assert.Nil(t, v.C.Value)
}

func TestGetOpenEventsPaginates(t *testing.T) {
	page := func(n int) []map[string]any {
		out := make([]map[string]any, n)
		for i := range out {
			out[i] = map[string]any{
				"id":    strconv.Itoa(i),
				"title": "Event " + strconv.Itoa(i),
				"tags":  []map[string]any{{"label": "Sports"}},
				"markets": []map[string]any{
					{"id": "m" + strconv.Itoa(i), "question": "Q?", "active": "true", "bestBid": 0.65, "bestAsk": "0.70"},
				},
			}
		}
		return out
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/events", r.URL.Path)
		require.Equal(t, "false", r.URL.Query().Get("closed"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset == 0 {
			require.NoError(t, json.NewEncoder(w).Encode(page(defaultPageSize)))
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(page(3)))
	}))
	defer srv.Close()

	events, err := NewGammaClient(srv.URL).GetOpenEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, defaultPageSize+3)

	first := events[0]
	assert.Equal(t, domain.PlatformPolymarket, first.Event.Platform)
	assert.Equal(t, "Sports", first.Event.Category)
	require.Len(t, first.Contracts, 1)

	c := first.Contracts[0]
	assert.Equal(t, domain.ContractStatusOpen, c.Status)
	require.NotNil(t, c.YesPrice)
	require.NotNil(t, c.NoPrice)
	assert.InDelta(t, 0.70, *c.YesPrice, 1e-9) // best ask buys YES
	assert.InDelta(t, 0.35, *c.NoPrice, 1e-9)  // 1 - best bid buys NO
}

func TestGetEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/events/540286", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"id":          "540286",
			"title":       "NBA Champion 2026",
			"description": "Resolves to the 2026 NBA champion.",
			"markets": []map[string]any{
				{"id": "m1", "question": "Lakers?", "closed": true},
			},
		}))
	}))
	defer srv.Close()

	em, err := NewGammaClient(srv.URL).GetEvent(context.Background(), "540286")
	require.NoError(t, err)
	assert.Equal(t, "540286", em.Event.ID)
	require.Len(t, em.Contracts, 1)
	assert.Equal(t, domain.ContractStatusClosed, em.Contracts[0].Status)
	assert.Nil(t, em.Contracts[0].YesPrice)
}

func TestGetEventNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewGammaClient(srv.URL).GetEvent(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
