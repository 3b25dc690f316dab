package serp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/FranksOps/scout/internal/metrics"
	"github.com/FranksOps/scout/internal/news"
	"github.com/FranksOps/scout/pkg/httpclient"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"

	fields       = "items(title,link,snippet,htmlSnippet,displayLink,pagemap/metatags)"
	maxBodyBytes = 4 << 20
)

// Config configures the Google Programmable Search client.
type Config struct {
	APIKey   string
	EngineID string
	BaseURL  string

	// CallTimeout bounds every attempt. Default 10s.
	CallTimeout time.Duration
	// MaxAttempts per page, including the first. Default 3.
	MaxAttempts int
	// BackoffBase is the wait before the second attempt; it doubles after
	// that. Default 200ms.
	BackoffBase time.Duration

	HTTP   *httpclient.Client
	Logger *slog.Logger
}

// Google implements Provider against the Custom Search JSON API.
type Google struct {
	cfg    Config
	http   *httpclient.Client
	logger *slog.Logger
}

// NewGoogle validates cfg and fills in defaults.
func NewGoogle(cfg Config) (*Google, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, errors.New("serp: api key and engine id are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 200 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := cfg.HTTP
	if client == nil {
		c, err := httpclient.New(httpclient.Config{Timeout: cfg.CallTimeout})
		if err != nil {
			return nil, fmt.Errorf("serp: %w", err)
		}
		client = c
	}

	return &Google{cfg: cfg, http: client, logger: cfg.Logger}, nil
}

// FetchPage requests one page of results. Transport failures and retryable
// API errors are retried with exponential backoff; the last error is
// returned once attempts are exhausted.
func (g *Google) FetchPage(ctx context.Context, q Query) ([]news.Item, error) {
	reqURL := g.pageURL(q)
	delay := g.cfg.BackoffBase

	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("serp: %w", ctx.Err())
			case <-timer.C:
			}
			delay *= 2
		}

		items, err := g.fetchOnce(ctx, reqURL)
		if err == nil {
			return items, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
		g.logger.Warn("search attempt failed", "query", q.Text, "start", q.Start, "attempt", attempt, "err", err)
	}
	return nil, lastErr
}

func (g *Google) pageURL(q Query) string {
	num := q.Num
	if num < 1 {
		num = 1
	} else if num > PageSize {
		num = PageSize
	}
	start := q.Start
	if start < 1 {
		start = 1
	}

	v := url.Values{}
	v.Set("key", g.cfg.APIKey)
	v.Set("cx", g.cfg.EngineID)
	v.Set("q", q.Text)
	v.Set("num", strconv.Itoa(num))
	v.Set("start", strconv.Itoa(start))
	v.Set("dateRestrict", NormalizeDateWindow(q.DateWindow))
	v.Set("fields", fields)
	return g.cfg.BaseURL + "?" + v.Encode()
}

func (g *Google) fetchOnce(ctx context.Context, reqURL string) ([]news.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("serp: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.http.Do(ctx, req)
	if err != nil {
		metrics.RecordSearch(0, time.Since(start))
		return nil, fmt.Errorf("serp: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.RecordSearch(resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("serp: read body: %w", err)
	}

	var parsed response
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: truncate(body)}
		if decodeErr == nil && parsed.Error != nil {
			apiErr.Status = parsed.Error.Status
			apiErr.Message = parsed.Error.Message
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeErr.Error(),
			Body:       truncate(body),
			Malformed:  true,
		}
	}

	items := make([]news.Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if item, ok := it.toItem(); ok {
			items = append(items, item)
		}
	}
	return items, nil
}
