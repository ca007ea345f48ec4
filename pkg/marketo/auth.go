package marketo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	httpclient "github.com/natserract/mkto/pkg/http"
	"go.uber.org/zap"
)

const identityTokenPath = "/identity/oauth/token"

// AuthResponse is the identity endpoint's reply. On failure only Error and
// ErrorDescription are set.
type AuthResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	Scope            string `json:"scope"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// AccessToken returns the cached access token, fetching one first if none
// is cached. Failures are *AuthError.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.tokenCache.mu.Lock()
	defer c.tokenCache.mu.Unlock()

	if c.tokenCache.accessToken != "" {
		c.logger.Debug("Using cached access token")
		return c.tokenCache.accessToken, nil
	}

	c.logger.Info("Access token not available, authenticating")
	authResp, err := c.Authenticate(ctx)
	if err != nil {
		return "", err
	}

	c.tokenCache.accessToken = authResp.AccessToken
	c.logger.Info("Successfully authenticated and cached access token",
		zap.String("token_type", authResp.TokenType),
		zap.Int("expires_in", authResp.ExpiresIn))

	return authResp.AccessToken, nil
}

// InvalidateToken drops the cached token so the next call refetches it.
func (c *Client) InvalidateToken() {
	c.tokenCache.mu.Lock()
	defer c.tokenCache.mu.Unlock()
	c.tokenCache.accessToken = ""
}

// invalidateToken drops the cached token only if it is the rejected one, so
// a late failure cannot evict a token fetched after that request was sent.
func (c *Client) invalidateToken(rejected string) {
	c.tokenCache.mu.Lock()
	defer c.tokenCache.mu.Unlock()
	if c.tokenCache.accessToken == rejected {
		c.tokenCache.accessToken = ""
	}
}

// Authenticate requests a new access token from the identity endpoint. It
// goes through the same rate limiter and retry policy as data requests but
// does not touch the cache.
func (c *Client) Authenticate(ctx context.Context) (*AuthResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	params := httpclient.Params{}.
		Add("client_id", c.config.ClientID).
		Add("client_secret", c.config.ClientSecret).
		Add("grant_type", "client_credentials")

	endpoint, err := httpclient.BuildURL(c.config.IdentityBaseURI, identityTokenPath, nil)
	if err != nil {
		return nil, &AuthError{Err: err}
	}

	logger := c.logger.With(zap.String("url", endpoint))
	logger.Info("Authenticating with Marketo")

	req := Request{
		Method: http.MethodGet,
		URL:    endpoint,
		Params: params,
	}

	body, err := retry(ctx, c, logger, endpointIdentity, func(ctx context.Context) (string, error) {
		c.metrics.observeTokenFetch()
		return execute(ctx, c, endpointIdentity, req, "", StringReader{})
	})
	if err != nil {
		authErr := authFailure(err)
		logger.Error("Authentication request failed", zap.Error(authErr))
		return nil, authErr
	}

	var authResp AuthResponse
	if err := json.Unmarshal([]byte(body), &authResp); err != nil {
		logger.Error("Failed to parse authentication response", zap.Error(err))
		return nil, &AuthError{Err: fmt.Errorf("failed to parse authentication response: %w", err)}
	}

	if authResp.ErrorDescription != "" {
		logger.Error("Authentication rejected",
			zap.String("error", authResp.Error),
			zap.String("error_description", authResp.ErrorDescription))
		return nil, &AuthError{Code: authResp.Error, Description: authResp.ErrorDescription}
	}
	if authResp.AccessToken == "" {
		logger.Error("Authentication response has no access token")
		return nil, &AuthError{Err: errors.New("authentication response has no access token")}
	}

	return &authResp, nil
}

// authFailure turns a failed identity request into an *AuthError, lifting
// error_description out of an HTTP error body when there is one.
func authFailure(err error) *AuthError {
	authErr := &AuthError{Err: err}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		var body AuthResponse
		if json.Unmarshal(statusErr.Body, &body) == nil {
			authErr.Code = body.Error
			authErr.Description = body.ErrorDescription
		}
	}
	return authErr
}
