package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/runger/heroes/internal/hero"
)

const (
	// heroesPath is the collection route on the heroes HTTP API.
	heroesPath = "/api/heroes"

	// RequestIDHeader carries the per-request id to the server.
	RequestIDHeader = "X-Request-ID"

	defaultHTTPTimeout = 2 * time.Second
	maxErrorBody       = 4096
)

// HTTPConfig configures an HTTP gateway.
type HTTPConfig struct {
	// BaseURL is the scheme and host of the heroes API, e.g.
	// "http://127.0.0.1:7420".
	BaseURL string

	// Timeout bounds each request. Zero uses a 2s default.
	Timeout time.Duration

	// RequestsPerSecond limits outbound calls. Zero or less disables
	// the limiter.
	RequestsPerSecond float64

	// Client overrides the HTTP client (tests).
	Client *http.Client

	Logger *slog.Logger
}

// HTTP is a Gateway that talks JSON to the heroes HTTP API.
type HTTP struct {
	baseURL *url.URL
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

var _ Gateway = (*HTTP)(nil)

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// NewHTTP creates an HTTP gateway for cfg.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "heroes-http",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		// Client errors are answers, not outages.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < 500
			}
			return err == nil
		},
	})

	return &HTTP{
		baseURL: u,
		client:  client,
		limiter: limiter,
		breaker: breaker,
		logger:  logger,
	}, nil
}

func (g *HTTP) FetchAll(ctx context.Context) ([]hero.Hero, error) {
	var heroes []hero.Hero
	if err := g.do(ctx, http.MethodGet, heroesPath, nil, nil, &heroes); err != nil {
		return nil, err
	}
	return nonNil(heroes), nil
}

func (g *HTTP) FetchByID(ctx context.Context, id int) (hero.Hero, error) {
	var h hero.Hero
	err := g.do(ctx, http.MethodGet, heroesPath+"/"+strconv.Itoa(id), nil, nil, &h)
	if err != nil {
		return hero.Hero{}, mapNotFound(err)
	}
	return h, nil
}

func (g *HTTP) FetchMatching(ctx context.Context, term string) ([]hero.Hero, error) {
	var heroes []hero.Hero
	query := url.Values{"name": {term}}
	if err := g.do(ctx, http.MethodGet, heroesPath+"/", query, nil, &heroes); err != nil {
		return nil, err
	}
	return nonNil(heroes), nil
}

func (g *HTTP) Create(ctx context.Context, h hero.Hero) (hero.Hero, error) {
	var created hero.Hero
	body := hero.Hero{Name: h.Name}
	if err := g.do(ctx, http.MethodPost, heroesPath, nil, body, &created); err != nil {
		return hero.Hero{}, err
	}
	if !created.Persisted() {
		return hero.Hero{}, errors.New("server returned hero without id")
	}
	return created, nil
}

func (g *HTTP) Replace(ctx context.Context, h hero.Hero) error {
	return g.do(ctx, http.MethodPut, heroesPath, nil, h, nil)
}

func (g *HTTP) DeleteByID(ctx context.Context, id int) error {
	return g.do(ctx, http.MethodDelete, heroesPath+"/"+strconv.Itoa(id), nil, nil, nil)
}

// do sends one request through the limiter and the circuit breaker and
// decodes a 2xx JSON body into out when out is non-nil.
func (g *HTTP) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.roundTrip(ctx, method, path, query, in, out)
	})
	return err
}

func (g *HTTP) roundTrip(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *g.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	g.logger.Debug("heroes api call", "method", method, "path", path, "status", resp.StatusCode, "request_id", reqID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readErrorMessage extracts "message" from an error body, falling back to
// the raw text.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}

func mapNotFound(err error) error {
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return hero.ErrNotFound
	}
	return err
}

func nonNil(heroes []hero.Hero) []hero.Hero {
	if heroes == nil {
		return []hero.Hero{}
	}
	return heroes
}
