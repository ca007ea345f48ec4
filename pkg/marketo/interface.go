package marketo

import "context"

// TokenSource defines the access token operations of a Client
type TokenSource interface {
	// AccessToken returns a cached token or fetches a new one
	AccessToken(ctx context.Context) (string, error)

	// InvalidateToken forces the next AccessToken call to refetch
	InvalidateToken()

	// Authenticate fetches a token without touching the cache
	Authenticate(ctx context.Context) (*AuthResponse, error)
}

var _ TokenSource = (*Client)(nil)
