package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/metrics"
)

const (
	// DefaultMapboxBaseURL is the public Mapbox API host.
	DefaultMapboxBaseURL = "https://api.mapbox.com"

	metersPerMile = 1609.344
	providerName  = "mapbox"
)

// MapboxConfig configures a MapboxClient. Zero values select the defaults.
type MapboxConfig struct {
	Token   string
	BaseURL string
	// RequestsPerSecond caps outbound calls; 0 means 5.
	RequestsPerSecond float64
	// Attempts is the number of tries per route; 0 means 3.
	Attempts int
	// Backoff is the wait before the second attempt, doubled each retry; 0 means 1s.
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// MapboxClient calls the Mapbox Directions API (driving-traffic profile).
type MapboxClient struct {
	token    string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewMapboxClient returns a client for cfg. cfg.Token is required.
func NewMapboxClient(cfg MapboxConfig) (*MapboxClient, error) {
	if cfg.Token == "" {
		return nil, errors.New("route.NewMapboxClient: token is required")
	}
	c := &MapboxClient{
		token:    cfg.Token,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     cfg.HTTPClient,
		attempts: cfg.Attempts,
		backoff:  cfg.Backoff,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultMapboxBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.attempts <= 0 {
		c.attempts = 3
	}
	if c.backoff <= 0 {
		c.backoff = time.Second
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	return c, nil
}

// permanentError marks a response that retrying cannot fix (bad token,
// unroutable coordinates).
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Route implements Provider. Transient failures are retried with exponential
// backoff; the last error is wrapped in domain.ErrRouteUnavailable.
func (c *MapboxClient) Route(ctx context.Context, start, pickup, dropoff domain.Location) (Route, error) {
	var lastErr error
	wait := c.backoff
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return Route{}, fmt.Errorf("route.MapboxClient.Route: %w", err)
		}
		r, err := c.fetch(ctx, start, pickup, dropoff)
		if err == nil {
			c.metrics.IncRoute(providerName, metrics.ResultSuccess)
			return r, nil
		}
		c.metrics.IncRoute(providerName, metrics.ResultError)
		lastErr = err
		c.logger.WarnContext(ctx, "mapbox directions attempt failed",
			"attempt", attempt, "max_attempts", c.attempts, "error", err)

		var perm *permanentError
		if errors.As(err, &perm) || attempt == c.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return Route{}, fmt.Errorf("route.MapboxClient.Route: %w", ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
	return Route{}, fmt.Errorf("route.MapboxClient.Route: %w: %w", domain.ErrRouteUnavailable, lastErr)
}

type directionsResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
		Legs     []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Steps    []struct {
				Geometry struct {
					Coordinates [][2]float64 `json:"coordinates"`
				} `json:"geometry"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

func (c *MapboxClient) fetch(ctx context.Context, start, pickup, dropoff domain.Location) (Route, error) {
	coords := fmt.Sprintf("%f,%f;%f,%f;%f,%f",
		start.Lng, start.Lat, pickup.Lng, pickup.Lat, dropoff.Lng, dropoff.Lat)
	q := url.Values{}
	q.Set("access_token", c.token)
	q.Set("geometries", "geojson")
	q.Set("overview", "full")
	q.Set("steps", "true")
	endpoint := c.baseURL + "/directions/v5/mapbox/driving-traffic/" + coords + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Route{}, &permanentError{err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error carries the token-bearing URL; keep only the cause.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return Route{}, fmt.Errorf("directions request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return Route{}, fmt.Errorf("read directions response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("directions: HTTP %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return Route{}, &permanentError{err}
		}
		return Route{}, err
	}

	var dr directionsResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return Route{}, fmt.Errorf("decode directions response: %w", err)
	}
	if dr.Code != "" && dr.Code != "Ok" {
		return Route{}, &permanentError{fmt.Errorf("directions: %s %s", dr.Code, dr.Message)}
	}
	if len(dr.Routes) == 0 || len(dr.Routes[0].Legs) == 0 {
		return Route{}, errors.New("directions: no routes returned")
	}

	best := dr.Routes[0]
	points := []domain.Location{start, pickup, dropoff}
	legs := make([]domain.Leg, 0, len(best.Legs))
	for i, l := range best.Legs {
		leg := domain.Leg{
			DistanceMiles:   l.Distance / metersPerMile,
			DurationMinutes: int(l.Duration / 60),
		}
		if i+1 < len(points) {
			leg.From, leg.To = points[i], points[i+1]
		}
		var line [][2]float64
		for _, s := range l.Steps {
			line = append(line, s.Geometry.Coordinates...)
		}
		if len(line) >= 2 {
			leg.Geometry, _ = json.Marshal(map[string]any{"type": "LineString", "coordinates": line})
		} else {
			leg.Geometry = lineString(leg.From, leg.To)
		}
		legs = append(legs, leg)
	}
	domain.MarkEndpoints(legs)

	return Route{
		Provider:        providerName,
		DistanceMiles:   best.Distance / metersPerMile,
		DurationMinutes: int(best.Duration / 60),
		Legs:            legs,
	}, nil
}
