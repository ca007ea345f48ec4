// Package marketo provides a resilient client for the Marketo REST API.
//
// Marketo Engage is Adobe's marketing automation platform. Its REST API is
// authenticated with short-lived OAuth access tokens obtained through the
// client_credentials grant, enforces strict per-instance request quotas, and
// reports most application failures inside an HTTP 200 body as a list of
// numeric vendor error codes.
//
// The client in this package handles:
//   - Access tokens: fetched lazily, cached for the client's lifetime and
//     refetched after the API rejects them (codes 601/602, HTTP 401/403)
//   - Rate limiting: a minimum spacing between any two request starts
//   - Retries: a fixed delay between attempts, with a retry policy that
//     distinguishes transient transport faults, 5xx responses and the
//     vendor codes known to be transient from permanent failures
//   - Error categories: credential problems surface as ErrConfiguration,
//     everything else as ErrDataProcessing
package marketo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/natserract/mkto/pkg/config"
	httpclient "github.com/natserract/mkto/pkg/http"
	"go.uber.org/zap"
)

// Engine sends one HTTP request. Implementations return any HTTP status as a
// response and use the error only for transport failures.
type Engine interface {
	Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

// Client is the main client for interacting with the Marketo REST API
type Client struct {
	config     config.Config
	engine     Engine
	limiter    *RateLimiter
	tokenCache *tokenCache
	logger     *zap.Logger
	metrics    *Metrics
}

// tokenCache holds at most one access token. The mutex is held across a
// fetch so concurrent callers share one identity request.
type tokenCache struct {
	mu          sync.Mutex
	accessToken string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default is zap.NewProduction.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithEngine replaces the default net/http engine.
func WithEngine(engine Engine) Option {
	return func(c *Client) { c.engine = engine }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a Client. cfg is copied; later changes to it have no effect.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("marketo: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("marketo: invalid config: %w", err)
	}

	c := &Client{
		config:     *cfg,
		limiter:    NewRateLimiter(cfg.MinInterval),
		tokenCache: &tokenCache{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger, _ = zap.NewProduction()
	}
	if c.engine == nil {
		c.engine = httpclient.NewClientWithLogger(c.logger)
	}
	c.logger.Debug("Marketo client ready",
		zap.Duration("min_interval", c.limiter.Interval()),
		zap.Int("max_retries", c.config.MaxRetries),
		zap.Duration("retry_delay", c.config.RetryDelay))
	return c, nil
}

// resolve turns a relative target into an absolute URL under RestBaseURI.
func (c *Client) resolve(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("failed to parse target: %w", err)
	}
	if u.IsAbs() {
		return target, nil
	}
	if c.config.RestBaseURI == "" {
		return "", fmt.Errorf("relative target %q needs MARKETO_REST_URI", target)
	}
	base, err := url.Parse(strings.TrimRight(c.config.RestBaseURI, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("failed to parse rest base uri: %w", err)
	}
	return base.ResolveReference(&url.URL{Path: strings.TrimLeft(u.Path, "/"), RawQuery: u.RawQuery}).String(), nil
}
