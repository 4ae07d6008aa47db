package auth

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// ClientConfig records which OAuth2 client produced a stored token. Tokens
// are only reusable by the client that minted them.
type ClientConfig struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// StoredCredentials is the persisted credential record.
type StoredCredentials struct {
	Token        *oauth2.Token `json:"token"`
	ClientConfig ClientConfig  `json:"clientConfig"`
	StoredAt     time.Time     `json:"storedAt"`
}

// TokenStorage persists OAuth2 credentials between runs. Implementations
// must be safe for concurrent use.
//
// GetTokens returns (nil, nil) when no credentials are stored; an error
// means the backend itself failed.
type TokenStorage interface {
	SaveTokens(ctx context.Context, creds *StoredCredentials) error
	GetTokens(ctx context.Context) (*StoredCredentials, error)
	DeleteTokens(ctx context.Context) error
	HasTokens(ctx context.Context) (bool, error)
}

// cloneCredentials copies creds so storage backends and callers never share
// a mutable token.
func cloneCredentials(creds *StoredCredentials) *StoredCredentials {
	if creds == nil {
		return nil
	}
	out := *creds
	if creds.Token != nil {
		tok := *creds.Token
		out.Token = &tok
	}
	return &out
}
