package kalshi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

func TestGetOpenEventsPaginates(t *testing.T) {
	pages := map[string]any{
		"": map[string]any{
			"events": []map[string]any{
				{"event_ticker": "KXNBA-26", "title": "NBA Champion 2026", "category": "Basketball"},
			},
			"cursor": "next",
		},
		"next": map[string]any{
			"events": []map[string]any{
				{"event_ticker": "KXBTC-26", "title": "Bitcoin above 250k", "sub_title": "By 2027"},
			},
			"cursor": "",
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/events", r.URL.Path)
		require.Equal(t, "open", r.URL.Query().Get("status"))
		require.NoError(t, json.NewEncoder(w).Encode(pages[r.URL.Query().Get("cursor")]))
	}))
	defer srv.Close()

	events, err := NewClient(srv.URL, "").GetOpenEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.PlatformKalshi, events[0].Platform)
	assert.Equal(t, "KXNBA-26", events[0].ID)
	assert.Equal(t, "Basketball", events[0].Category)
	assert.Equal(t, "By 2027", events[1].Subtitle)
}

func TestGetMarketsForEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/markets", r.URL.Path)
		require.Equal(t, "KXNBA-26", r.URL.Query().Get("event_ticker"))
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"markets": []map[string]any{
				{
					"ticker":        "KXNBA-26-LAL",
					"event_ticker":  "KXNBA-26",
					"title":         "Will the Lakers win?",
					"status":        "active",
					"rules_primary": "Settles on the official result.",
					"yes_ask":       60,
					"no_ask":        45,
				},
				{
					"ticker":       "KXNBA-26-BOS",
					"event_ticker": "KXNBA-26",
					"status":       "active",
					"yes_ask":      0,
					"no_ask":       100,
				},
			},
		}))
	}))
	defer srv.Close()

	contracts, err := NewClient(srv.URL, "").GetMarketsForEvent(context.Background(), "KXNBA-26")
	require.NoError(t, err)
	require.Len(t, contracts, 2)

	lal := contracts[0]
	assert.Equal(t, domain.ContractStatusOpen, lal.Status)
	require.NotNil(t, lal.YesPrice)
	require.NotNil(t, lal.NoPrice)
	assert.InDelta(t, 0.60, *lal.YesPrice, 1e-9)
	assert.InDelta(t, 0.45, *lal.NoPrice, 1e-9)
	assert.Equal(t, "Settles on the official result.", lal.Rules)

	// Asks at 0 and 100 cents mean no resting offers on that side.
	bos := contracts[1]
	assert.Nil(t, bos.YesPrice)
	assert.Nil(t, bos.NoPrice)
}

func TestGetMarketsForEventPaginates(t *testing.T) {
	pages := map[string]any{
		"": map[string]any{
			"markets": []map[string]any{
				{"ticker": "KXHIGHNY-25-T40", "event_ticker": "KXHIGHNY-25", "status": "active", "yes_ask": 10, "no_ask": 95},
			},
			"cursor": "next",
		},
		"next": map[string]any{
			"markets": []map[string]any{
				{"ticker": "KXHIGHNY-25-T45", "event_ticker": "KXHIGHNY-25", "status": "active", "yes_ask": 30, "no_ask": 75},
			},
			"cursor": "",
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/markets", r.URL.Path)
		require.Equal(t, "KXHIGHNY-25", r.URL.Query().Get("event_ticker"))
		require.NoError(t, json.NewEncoder(w).Encode(pages[r.URL.Query().Get("cursor")]))
	}))
	defer srv.Close()

	contracts, err := NewClient(srv.URL, "").GetMarketsForEvent(context.Background(), "KXHIGHNY-25")
	require.NoError(t, err)
	require.Len(t, contracts, 2)
	assert.Equal(t, "KXHIGHNY-25-T40", contracts[0].Ticker)
	assert.Equal(t, "KXHIGHNY-25-T45", contracts[1].Ticker)
}

func TestErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").GetOpenEvents(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
