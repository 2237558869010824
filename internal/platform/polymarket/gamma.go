// Package polymarket is the REST client for the Polymarket Gamma API,
// which provides event and market discovery with top-of-book quotes.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

// defaultPageSize is the events page size used when paginating.
const defaultPageSize = 100

// EventMarkets is one event together with its markets. Gamma embeds
// markets in the event payload, so both come from a single fetch.
type EventMarkets struct {
	Event     domain.Event
	Contracts []domain.Contract
}

// GammaClient is the REST client for the Polymarket Gamma API.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetOpenEvents pages through every active, non-closed event with its
// markets.
func (g *GammaClient) GetOpenEvents(ctx context.Context) ([]EventMarkets, error) {
	var all []EventMarkets
	for offset := 0; ; offset += defaultPageSize {
		page, err := g.getEventsPage(ctx, defaultPageSize, offset)
		if err != nil {
			return nil, err
		}
		for i := range page {
			all = append(all, page[i].ToEventMarkets())
		}
		if len(page) < defaultPageSize {
			return all, nil
		}
	}
}

func (g *GammaClient) getEventsPage(ctx context.Context, limit, offset int) ([]APIEvent, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("active", "true")
	params.Set("closed", "false")

	body, err := g.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get events: %w", err)
	}

	var events []APIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}
	return events, nil
}

// GetEvent returns a single event with its markets by its ID.
func (g *GammaClient) GetEvent(ctx context.Context, id string) (EventMarkets, error) {
	body, err := g.doGet(ctx, "/events/"+url.PathEscape(id))
	if err != nil {
		return EventMarkets{}, fmt.Errorf("polymarket/gamma: get event %s: %w", id, err)
	}

	var event APIEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return EventMarkets{}, fmt.Errorf("polymarket/gamma: decode event: %w", err)
	}
	return event.ToEventMarkets(), nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx HTTP status codes to appropriate errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("polymarket/gamma: %w", domain.ErrNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("polymarket/gamma: %w", domain.ErrRateLimited)
	default:
		return fmt.Errorf("polymarket/gamma: HTTP %d: %s", statusCode, body)
	}
}
