package google

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// GetHTTPClientForAccount returns an HTTP client that authorizes requests as
// the given account. Providers that can mint self-refreshing token sources
// yield clients that survive token expiry; otherwise the client carries the
// single token the provider returned.
//
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func GetHTTPClientForAccount(ctx context.Context, account string, tokens TokenProvider) (*http.Client, error) {
	var ts oauth2.TokenSource
	if sp, ok := tokens.(TokenSourceProvider); ok {
		source, err := sp.TokenSourceForAccount(ctx, account)
		if err != nil {
			return nil, err
		}
		ts = source
	} else {
		token, err := tokens.GetTokenForAccount(ctx, account)
		if err != nil {
			return nil, err
		}
		ts = oauth2.StaticTokenSource(token)
	}

	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	return client, nil
}
