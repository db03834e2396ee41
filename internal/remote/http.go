package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"gomate/internal/domain"
	"gomate/internal/logger"
)

const (
	userAgent       = "gomate/1.0"
	maxResponseSize = 4 << 20
)

// HTTPConfig configures the REST provider client.
type HTTPConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	APIKey        string
}

// HTTP is a Source backed by a JSON REST provider.
type HTTP struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logger.Logger
}

// NewHTTP creates a REST provider client.
func NewHTTP(cfg HTTPConfig, log logger.Logger) *HTTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	if log == nil {
		log = logger.Nop()
	}

	return &HTTP{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  log,
	}
}

// FetchSchedule implements Source.
func (c *HTTP) FetchSchedule(ctx context.Context) ([]domain.Route, error) {
	body, err := c.get(ctx, "/schedule", nil)
	if err != nil {
		return nil, err
	}
	routes, err := decodeRoutes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule payload: %w", ErrNetwork, err)
	}
	return routes, nil
}

// FetchRouteDetail implements Source.
func (c *HTTP) FetchRouteDetail(ctx context.Context, routeID string) (domain.RouteDetail, error) {
	body, err := c.get(ctx, "/routes/"+url.PathEscape(routeID), nil)
	if err != nil {
		return domain.RouteDetail{}, err
	}
	detail, err := decodeRouteDetail(body)
	if err != nil {
		return domain.RouteDetail{}, fmt.Errorf("%w: invalid route payload: %w", ErrNetwork, err)
	}
	return detail, nil
}

// SearchRoutes implements Source.
func (c *HTTP) SearchRoutes(ctx context.Context, from, to string) ([]domain.Route, error) {
	body, err := c.get(ctx, "/routes/search", url.Values{"from": {from}, "to": {to}})
	if err != nil {
		return nil, err
	}
	routes, err := decodeRoutes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid search payload: %w", ErrNetwork, err)
	}
	return routes, nil
}

// FetchNearbyStops implements Source.
func (c *HTTP) FetchNearbyStops(ctx context.Context, lat, lon float64) ([]domain.NearbyStop, error) {
	query := url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
	body, err := c.get(ctx, "/stops/nearby", query)
	if err != nil {
		return nil, err
	}
	var stops []domain.NearbyStop
	if err := json.Unmarshal(body, &stops); err != nil {
		return nil, fmt.Errorf("%w: invalid stops payload: %w", ErrNetwork, err)
	}
	return stops, nil
}

func (c *HTTP) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", ErrTimeout, err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Provider request failed", "path", path, "error", err)
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Provider request completed", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusRequestTimeout:
		return nil, fmt.Errorf("%w: provider returned %d", ErrTimeout, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: provider returned %d", ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classify(ctx, err)
	}
	return body, nil
}

var _ Source = (*HTTP)(nil)
