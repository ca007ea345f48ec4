package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxResponseSize caps how much of a response body is buffered.
const DefaultMaxResponseSize int64 = 64 << 20

// ErrResponseTooLarge is returned instead of a truncated body.
var ErrResponseTooLarge = errors.New("response body too large")

type Client struct {
	httpClient      *http.Client
	logger          *zap.Logger
	maxResponseSize int64
}

// Request describes a single outbound call. Headers are last-write-wins;
// Params are appended to the URL query in order.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Params  Params
	Body    *Body
	Timeout time.Duration
}

// Body is request content together with its media type.
type Body struct {
	Content     []byte
	ContentType string
}

type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// NewClientWithLogger creates a new HTTP client with a custom logger
func NewClientWithLogger(logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:          logger,
		maxResponseSize: DefaultMaxResponseSize,
	}
}

// NewClientWithHTTPClient wraps an existing *http.Client, e.g. one from httptest.
func NewClientWithHTTPClient(hc *http.Client, logger *zap.Logger) *Client {
	return &Client{
		httpClient:      hc,
		logger:          logger,
		maxResponseSize: DefaultMaxResponseSize,
	}
}

// Do sends req once. Any HTTP status is returned as a Response; only
// transport failures (dial, timeout, short or oversized body) produce an error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		c.logger.Error("Failed to build request", zap.Error(err), zap.String("method", req.Method), zap.String("url", req.URL))
		return nil, err
	}

	c.logger.Debug("Making HTTP request",
		zap.String("method", req.Method),
		zap.String("url", req.URL))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("HTTP request failed",
			zap.Error(err),
			zap.String("method", req.Method),
			zap.String("url", req.URL))
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxResponseSize+1))
	if err != nil {
		c.logger.Warn("Failed to read response body", zap.Error(err))
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxResponseSize {
		c.logger.Warn("Response body too large",
			zap.Int64("limit", c.maxResponseSize),
			zap.String("url", req.URL))
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrResponseTooLarge, c.maxResponseSize)
	}

	c.logger.Debug("HTTP request finished",
		zap.Int("status_code", httpResp.StatusCode),
		zap.String("method", req.Method),
		zap.String("url", req.URL))

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	if req.Method == "" {
		return nil, fmt.Errorf("method is required")
	}
	if req.URL == "" {
		return nil, fmt.Errorf("url is required")
	}

	target, err := BuildURL(req.URL, "", req.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to build url: %w", err)
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body.Content)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if req.Body != nil && req.Body.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.Body.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, nil
}

// MarshalJSONBody encodes v as a JSON request body.
func MarshalJSONBody(v interface{}) (*Body, error) {
	bodyJSON, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return JSONBody(bodyJSON), nil
}
