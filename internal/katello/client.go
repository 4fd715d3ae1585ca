package katello

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/katello-exporter/katello-exporter/internal/config"
)

// Client issues authenticated GET requests against a Katello server and
// returns the parsed JSON body.
//
// The underlying http.Client has no timeout; a hung upstream blocks the
// scrape until the caller's context is cancelled. No request is retried.
type Client struct {
	base   string
	http   *http.Client
	debug  bool
	logger *slog.Logger
}

// New builds a Client for the given connection settings. The HTTP client is
// built once and reused across fetches.
func New(cfg config.KatelloConfig, debug bool) (*Client, error) {
	if cfg.Server == "" {
		return nil, fmt.Errorf("katello: server is required")
	}
	logger := slog.Default().With("server", cfg.BaseURL())
	if cfg.Insecure {
		logger.Warn("katello: TLS certificate verification disabled")
	}
	return &Client{
		base:   cfg.BaseURL(),
		http:   buildHTTPClient(cfg),
		debug:  debug,
		logger: logger,
	}, nil
}

// BaseURL returns the server URL paths are appended to.
func (c *Client) BaseURL() string {
	return c.base
}

// basicAuthRoundTripper injects the static credentials into every
// outgoing request.
type basicAuthRoundTripper struct {
	base     http.RoundTripper
	user     string
	password string
}

func (t *basicAuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.user, t.password)
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the credentials and TLS
// settings in cfg.
func buildHTTPClient(cfg config.KatelloConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.Insecure, //nolint:gosec // user-configured
	}
	return &http.Client{
		Transport: &basicAuthRoundTripper{
			base:     transport,
			user:     cfg.User,
			password: cfg.Password,
		},
	}
}

// Fetch performs a GET to the base URL plus path and returns the parsed
// JSON document. path is appended verbatim, query string included.
//
// Errors are one of *ConnectionError, *UpstreamError or *DecodeError.
func (c *Client) Fetch(ctx context.Context, path string) (gjson.Result, error) {
	url := c.base + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gjson.Result{}, &ConnectionError{URL: url, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	if c.debug {
		c.logger.Debug("katello: request", "url", url)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, &ConnectionError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, &ConnectionError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	if c.debug {
		c.logger.Debug("katello: response", "url", url, "status", resp.StatusCode, "body", string(body))
	}

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, &UpstreamError{URL: url, StatusCode: resp.StatusCode}
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &DecodeError{URL: url, Err: errInvalidJSON}
	}
	return gjson.ParseBytes(body), nil
}
