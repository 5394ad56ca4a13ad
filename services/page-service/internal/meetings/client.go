package meetings

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

	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MethodPath is the whitelisted backend method serving meeting windows.
const MethodPath = "/api/method/frappe_appointment.api.personal_meet.get_meeting_windows"

const (
	defaultMaxAttempts = 3
	maxBodyBytes       = 1 << 20
)

var (
	ErrNotFound     = errors.New("meetings: scheduling link not found")
	ErrSlugRequired = errors.New("meetings: slug is required")
)

// BackendError is a non-2xx answer from the backend.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("meetings: backend returned %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
	HTTPClient  *http.Client
	Logger      *slog.Logger
	Metrics     *metrics.PageMetrics
}

// Client reads meeting definitions over HTTP. It never revalidates: callers
// fetch once per mount, and Fetch retries transient failures up to
// MaxAttempts before giving up.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
	metrics     *metrics.PageMetrics
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("meetings: base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("meetings: invalid base URL: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     baseURL,
		httpClient:  httpClient,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		logger:      logger,
		metrics:     cfg.Metrics,
	}, nil
}

func (c *Client) Fetch(ctx context.Context, slug string) (Definition, error) {
	ctx, span := otel.Tracer("page-service/meetings").Start(ctx, "meetings.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.slug", slug))

	def, attempts, err := c.fetch(ctx, slug)
	span.SetAttributes(attribute.Int("meetings.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.ObserveFetch("error", attempts)
		return Definition{}, err
	}
	c.metrics.ObserveFetch("success", attempts)
	return def, nil
}

func (c *Client) fetch(ctx context.Context, slug string) (Definition, int, error) {
	if strings.TrimSpace(slug) == "" {
		return Definition{}, 0, ErrSlugRequired
	}
	endpoint := c.baseURL + MethodPath + "?" + url.Values{"slug": {slug}}.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		def, status, err := c.do(ctx, endpoint)
		if err == nil {
			return def, attempt, nil
		}
		if ctx.Err() != nil {
			return Definition{}, attempt, ctx.Err()
		}
		lastErr = err
		if !shouldRetry(status, err) || attempt == c.maxAttempts {
			return Definition{}, attempt, err
		}
		c.logger.Warn("meeting definition fetch retry",
			"slug", slug,
			"attempt", attempt,
			"status", status,
			"err", err,
		)
		if err := c.sleep(ctx, attempt); err != nil {
			return Definition{}, attempt, err
		}
	}
	return Definition{}, c.maxAttempts, lastErr
}

func (c *Client) do(ctx context.Context, endpoint string) (Definition, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Definition{}, 0, fmt.Errorf("meetings: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Definition{}, 0, fmt.Errorf("meetings: http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Definition{}, resp.StatusCode, fmt.Errorf("meetings: read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return Definition{}, resp.StatusCode, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Definition{}, resp.StatusCode, &BackendError{StatusCode: resp.StatusCode, Body: truncate(string(data), 256)}
	}

	var envelope struct {
		Message *Definition `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Definition{}, resp.StatusCode, fmt.Errorf("meetings: decode response: %w", err)
	}
	if envelope.Message == nil {
		return Definition{}, resp.StatusCode, errors.New("meetings: response has no message")
	}
	return *envelope.Message, resp.StatusCode, nil
}

func shouldRetry(status int, err error) bool {
	if status == 0 {
		return err != nil
	}
	return status == http.StatusTooManyRequests || status >= 500
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * c.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
