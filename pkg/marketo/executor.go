package marketo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	httpclient "github.com/natserract/mkto/pkg/http"
	"go.uber.org/zap"
)

type (
	Request = httpclient.Request
	Params  = httpclient.Params
	Body    = httpclient.Body
)

// apiErrorCarrier is implemented by envelopes that can report vendor errors.
type apiErrorCarrier interface {
	APIErrors() []Error
}

// execute performs exactly one attempt: wait for a rate limit slot, send,
// and map the outcome onto TransportError, HTTPStatusError or APIError.
// An empty token sends no Authorization header.
func execute[T any](ctx context.Context, c *Client, endpoint string, req Request, token string, reader ResponseReader[T]) (T, error) {
	var zero T

	waitStart := time.Now()
	if err := c.limiter.Acquire(ctx); err != nil {
		return zero, fmt.Errorf("rate limiter: %w", err)
	}
	c.metrics.observeWait(time.Since(waitStart))

	headers := make(map[string]string, len(req.Headers)+1)
	for k, v := range req.Headers {
		if token != "" && http.CanonicalHeaderKey(k) == "Authorization" {
			continue
		}
		headers[k] = v
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	req.Headers = headers
	if req.Timeout == 0 {
		req.Timeout = c.config.RequestTimeout
	}

	resp, err := c.engine.Do(ctx, req)
	if err != nil {
		err = &TransportError{Err: err}
		c.metrics.observeRequest(endpoint, err)
		return zero, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &HTTPStatusError{StatusCode: resp.StatusCode, Body: resp.Body}
		c.metrics.observeRequest(endpoint, err)
		return zero, err
	}

	v, err := reader.ReadResponse(resp.Body)
	if err != nil {
		c.metrics.observeRequest(endpoint, err)
		return zero, fmt.Errorf("failed to read response: %w", err)
	}

	if carrier, ok := any(v).(apiErrorCarrier); ok {
		if errs := carrier.APIErrors(); len(errs) > 0 {
			err := &APIError{Errors: errs}
			c.metrics.observeRequest(endpoint, err)
			return zero, err
		}
	}

	c.metrics.observeRequest(endpoint, nil)
	return v, nil
}

// Do issues req with retries and returns the value produced by reader.
// Relative URLs are resolved against MARKETO_REST_URI. Failures are either
// an *AuthError (ErrConfiguration) or a *DataError (ErrDataProcessing).
func Do[T any](ctx context.Context, c *Client, req Request, reader ResponseReader[T]) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := c.resolve(req.URL)
	if err != nil {
		return zero, &DataError{Method: req.Method, URL: req.URL, Err: err}
	}
	req.URL = target

	logger := c.logger.With(
		zap.String("call_id", uuid.NewString()),
		zap.String("method", req.Method),
		zap.String("url", req.URL))
	logger.Debug("Making Marketo request", zap.Int("params", len(req.Params)))

	v, err := retry(ctx, c, logger, endpointData, func(ctx context.Context) (T, error) {
		token, err := c.AccessToken(ctx)
		if err != nil {
			return zero, err
		}
		v, err := execute(ctx, c, endpointData, req, token, reader)
		if err != nil && invalidatesToken(err) {
			logger.Info("Access token rejected, dropping cached token", zap.Error(err))
			c.invalidateToken(token)
		}
		return v, err
	})
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			logger.Error("Marketo request failed on authentication", zap.Error(err))
			return zero, authErr
		}
		logger.Error("Marketo request failed", zap.Error(err))
		return zero, &DataError{Method: req.Method, URL: req.URL, Err: err}
	}

	logger.Debug("Marketo request succeeded")
	return v, nil
}

// Get issues a GET with the given headers and query parameters.
func Get[T any](ctx context.Context, c *Client, target string, headers map[string]string, params Params, reader ResponseReader[T]) (T, error) {
	return Do(ctx, c, Request{
		Method:  http.MethodGet,
		URL:     target,
		Headers: headers,
		Params:  params,
	}, reader)
}

// Post issues a POST. body may be nil.
func Post[T any](ctx context.Context, c *Client, target string, headers map[string]string, params Params, body *Body, reader ResponseReader[T]) (T, error) {
	return Do(ctx, c, Request{
		Method:  http.MethodPost,
		URL:     target,
		Headers: headers,
		Params:  params,
		Body:    body,
	}, reader)
}
