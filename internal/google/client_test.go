package google

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// staticTokenProvider implements TokenProvider without the token source
// extension.
type staticTokenProvider struct {
	token *oauth2.Token
	err   error
}

func (p *staticTokenProvider) GetTokenForAccount(context.Context, string) (*oauth2.Token, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.token, nil
}

func (p *staticTokenProvider) HasTokenForAccount(string) bool {
	return p.token != nil
}

// sourceTokenProvider additionally implements TokenSourceProvider and
// records whether the source path was taken.
type sourceTokenProvider struct {
	staticTokenProvider
	sourceUsed bool
}

func (p *sourceTokenProvider) TokenSourceForAccount(context.Context, string) (oauth2.TokenSource, error) {
	p.sourceUsed = true
	return oauth2.StaticTokenSource(p.token), nil
}

func TestGetHTTPClientForAccount(t *testing.T) {
	provider := &staticTokenProvider{token: &oauth2.Token{
		AccessToken: "access-token",
		Expiry:      time.Now().Add(time.Hour),
	}}

	client, err := GetHTTPClientForAccount(context.Background(), "default", provider)
	if err != nil {
		t.Fatalf("GetHTTPClientForAccount() returned error: %v", err)
	}

	transport, ok := client.Transport.(*oauth2.Transport)
	if !ok {
		t.Fatalf("Expected *oauth2.Transport, got %T", client.Transport)
	}
	base, ok := transport.Base.(*http.Transport)
	if !ok {
		t.Fatalf("Expected *http.Transport base, got %T", transport.Base)
	}
	if base.ForceAttemptHTTP2 {
		t.Error("Expected HTTP/2 to be disabled on the base transport")
	}
}

func TestGetHTTPClientForAccountProviderError(t *testing.T) {
	providerErr := errors.New("no token")
	provider := &staticTokenProvider{err: providerErr}

	_, err := GetHTTPClientForAccount(context.Background(), "default", provider)
	if err == nil {
		t.Fatal("Expected error when the provider has no token")
	}
	if !errors.Is(err, providerErr) {
		t.Errorf("Expected the provider error, got %v", err)
	}
}

func TestGetHTTPClientForAccountPrefersTokenSource(t *testing.T) {
	provider := &sourceTokenProvider{staticTokenProvider: staticTokenProvider{
		token: &oauth2.Token{AccessToken: "access-token", Expiry: time.Now().Add(time.Hour)},
	}}

	if _, err := GetHTTPClientForAccount(context.Background(), "default", provider); err != nil {
		t.Fatalf("GetHTTPClientForAccount() returned error: %v", err)
	}
	if !provider.sourceUsed {
		t.Error("Expected the token source path to be used")
	}
}
