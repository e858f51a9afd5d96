// Package api provides the typed client for the gym directory backend.
//
// All methods speak JSON over HTTP, wrap failures with eris, and retry
// transient responses (429, 5xx, network timeouts) under the shared
// resilience policy. Calls are paced by a client-side rate limiter.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/trainmap/gymdex/internal/filter"
	"github.com/trainmap/gymdex/internal/model"
	"github.com/trainmap/gymdex/internal/resilience"
)

// DefaultBaseURL is the production backend.
const DefaultBaseURL = "https://api.trainmap.jp/v1"

// Client defines the backend operations the directory consumes.
type Client interface {
	// SearchGyms runs the paginated list query for a filter state.
	SearchGyms(ctx context.Context, st filter.State) (*model.SearchResult, error)
	// NearbyGyms fetches one page of map markers around a center.
	NearbyGyms(ctx context.Context, lat, lng float64, radiusKm int) (*model.NearbyResult, error)
	// NearbyGymsPage continues a nearby result set from a cursor token.
	NearbyGymsPage(ctx context.Context, pageToken string) (*model.NearbyResult, error)
	// AllNearbyGyms follows the nearby cursor until exhausted.
	AllNearbyGyms(ctx context.Context, lat, lng float64, radiusKm int) ([]model.NearbyGym, error)
	// GymBySlug fetches the full detail record.
	GymBySlug(ctx context.Context, slug string) (*model.Gym, error)

	// Prefectures lists the top-level region options.
	Prefectures(ctx context.Context) ([]model.Prefecture, error)
	// Cities lists the city options of a prefecture.
	Cities(ctx context.Context, prefSlug string) ([]model.City, error)
	// Categories lists the equipment category options.
	Categories(ctx context.Context) ([]model.Category, error)

	// Favorites lists the server-side favorites of a device.
	Favorites(ctx context.Context, deviceID string) ([]model.Favorite, error)
	// AddFavorite registers a gym as a favorite of a device.
	AddFavorite(ctx context.Context, deviceID, slug string) error
	// RemoveFavorite deletes a favorite of a device.
	RemoveFavorite(ctx context.Context, deviceID, slug string) error

	// Candidates lists scraped facility candidates for admin review.
	Candidates(ctx context.Context, f model.CandidateFilter) (*model.CandidatePage, error)
	// UpdateCandidate applies partial edits to a candidate.
	UpdateCandidate(ctx context.Context, id string, patch model.CandidatePatch) (*model.Candidate, error)
	// ApproveCandidate promotes a candidate into the directory.
	ApproveCandidate(ctx context.Context, id string) (*model.Candidate, error)
	// RejectCandidate rejects a candidate with a review note.
	RejectCandidate(ctx context.Context, id, note string) (*model.Candidate, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithAdminToken sets the bearer token for /admin endpoints.
func WithAdminToken(token string) Option {
	return func(c *httpClient) { c.adminToken = token }
}

// WithRateLimit sets the requests-per-second pacing for all calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
}

// WithRetryPolicy overrides the transient-failure retry policy.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) { c.retry = p }
}

type httpClient struct {
	baseURL    string
	adminToken string
	http       *http.Client
	limiter    *rate.Limiter
	retry      resilience.Policy
}

// New creates a backend client with the given options.
func New(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(10, 11),
		retry:   resilience.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) SearchGyms(ctx context.Context, st filter.State) (*model.SearchResult, error) {
	var out model.SearchResult
	if err := c.getJSON(ctx, "/gyms/search", searchQuery(st), nil, &out); err != nil {
		return nil, eris.Wrap(err, "api: search gyms")
	}
	return &out, nil
}

func (c *httpClient) NearbyGyms(ctx context.Context, lat, lng float64, radiusKm int) (*model.NearbyResult, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', 6, 64))
	q.Set("radius_km", strconv.Itoa(radiusKm))

	var out model.NearbyResult
	if err := c.getJSON(ctx, "/gyms/nearby", q, nil, &out); err != nil {
		return nil, eris.Wrap(err, "api: nearby gyms")
	}
	return &out, nil
}

func (c *httpClient) NearbyGymsPage(ctx context.Context, pageToken string) (*model.NearbyResult, error) {
	q := url.Values{}
	q.Set("pageToken", pageToken)

	var out model.NearbyResult
	if err := c.getJSON(ctx, "/gyms/nearby", q, nil, &out); err != nil {
		return nil, eris.Wrap(err, "api: nearby gyms page")
	}
	return &out, nil
}

func (c *httpClient) AllNearbyGyms(ctx context.Context, lat, lng float64, radiusKm int) ([]model.NearbyGym, error) {
	page, err := c.NearbyGyms(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}
	items := page.Items
	for page.HasNext && page.PageToken != "" {
		page, err = c.NearbyGymsPage(ctx, page.PageToken)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func (c *httpClient) GymBySlug(ctx context.Context, slug string) (*model.Gym, error) {
	var out model.Gym
	if err := c.getJSON(ctx, "/gyms/"+url.PathEscape(slug), nil, nil, &out); err != nil {
		return nil, eris.Wrapf(err, "api: gym by slug %q", slug)
	}
	return &out, nil
}

func (c *httpClient) Prefectures(ctx context.Context) ([]model.Prefecture, error) {
	var out struct {
		Items []model.Prefecture `json:"items"`
	}
	if err := c.getJSON(ctx, "/meta/prefectures", nil, nil, &out); err != nil {
		return nil, eris.Wrap(err, "api: prefectures")
	}
	return out.Items, nil
}

func (c *httpClient) Cities(ctx context.Context, prefSlug string) ([]model.City, error) {
	q := url.Values{}
	q.Set("pref", prefSlug)

	var out struct {
		Items []model.City `json:"items"`
	}
	if err := c.getJSON(ctx, "/meta/cities", q, nil, &out); err != nil {
		return nil, eris.Wrapf(err, "api: cities for %q", prefSlug)
	}
	return out.Items, nil
}

func (c *httpClient) Categories(ctx context.Context) ([]model.Category, error) {
	var out struct {
		Items []model.Category `json:"items"`
	}
	if err := c.getJSON(ctx, "/meta/equipment-categories", nil, nil, &out); err != nil {
		return nil, eris.Wrap(err, "api: categories")
	}
	return out.Items, nil
}

// searchQuery maps a normalized filter state onto backend parameter names.
// The backend uses limit/radius_km where the shareable URL uses
// per_page/distance.
func searchQuery(st filter.State) url.Values {
	st = st.Normalized()
	q := url.Values{}
	if st.Query != "" {
		q.Set("q", st.Query)
	}
	if st.Pref != "" {
		q.Set("pref", st.Pref)
	}
	if st.City != "" {
		q.Set("city", st.City)
	}
	for _, cat := range st.Categories {
		q.Add("cats", cat)
	}
	q.Set("sort", string(st.Sort))
	q.Set("order", string(st.Order))
	q.Set("page", strconv.Itoa(st.Page))
	q.Set("limit", strconv.Itoa(st.Limit))
	if st.HasLocation() {
		q.Set("lat", strconv.FormatFloat(*st.Lat, 'f', 6, 64))
		q.Set("lng", strconv.FormatFloat(*st.Lng, 'f', 6, 64))
		q.Set("radius_km", strconv.Itoa(st.DistanceKm))
	}
	return q
}

// doJSON performs one rate-limited, retried request and decodes a 2xx JSON
// response into out (when out is non-nil).
func (c *httpClient) doJSON(ctx context.Context, method, path string, query url.Values, headers map[string]string, payload, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return eris.Wrap(err, "encode request body")
		}
	}

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return nil, eris.Wrap(err, "create request")
		}
		req.Header.Set("Accept", "application/json")
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "read response body")
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return raw, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := resilience.ParseRetryAfter(resp.Header.Get("Retry-After"))
			return nil, resilience.NewThrottledError(
				eris.Errorf("status 429: %s", truncate(raw)), retryAfter)
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			return nil, resilience.NewTransientError(
				eris.Errorf("status %d: %s", resp.StatusCode, truncate(raw)), resp.StatusCode)
		default:
			return nil, eris.Errorf("status %d: %s", resp.StatusCode, truncate(raw))
		}
	})
	if err != nil {
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, query url.Values, headers map[string]string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, headers, nil, out)
}

func truncate(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
