package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultUserAgent identifies scout to the APIs it calls.
const DefaultUserAgent = "scout/1.0 (+https://github.com/FranksOps/scout)"

// Config defines the setup for the HTTP Client.
type Config struct {
	Timeout time.Duration
	// Profile selects the TLS ClientHello the transport presents.
	// Empty means ProfileGo.
	Profile Profile
	// UserAgent is set on every request that does not carry one.
	UserAgent string
	// Transport overrides Profile when set, e.g. for tests.
	Transport http.RoundTripper
}

// Client wraps a standard http.Client with a per-request timeout, a fixed
// User-Agent and an optional uTLS transport.
type Client struct {
	*http.Client
	userAgent string
}

// New creates a new HTTP client based on the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	transport := cfg.Transport
	if transport == nil {
		t, err := NewTransport(cfg.Profile)
		if err != nil {
			return nil, fmt.Errorf("httpclient: %w", err)
		}
		transport = t
	}

	return &Client{
		Client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		userAgent: cfg.UserAgent,
	}, nil
}

// Do executes an HTTP request bound to ctx. The client timeout still applies
// on top of any deadline carried by ctx.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("httpclient: context cannot be nil")
	}

	reqWithCtx := req.Clone(ctx)
	if reqWithCtx.Header.Get("User-Agent") == "" {
		reqWithCtx.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.Client.Do(reqWithCtx)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	return resp, nil
}
