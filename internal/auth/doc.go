// Package auth implements OAuth2 authentication for Google Workspace APIs.
//
// The central type is OAuth2Provider, which owns the full token lifecycle:
//   - Initialize loads previously persisted credentials from a TokenStorage
//     backend and is safe to call concurrently (duplicate calls are collapsed
//     into one shared execution).
//   - ValidateAuth reports whether the current token is usable, refreshing
//     proactively when the token is inside the configured refresh window.
//   - RefreshToken forces a refresh against the token endpoint; concurrent
//     callers share a single refresh round trip.
//   - Authorize runs the interactive authorization-code flow with PKCE,
//     binding a loopback listener for the redirect before the browser opens.
//   - TokenSource and AuthClient expose the credentials to Google API
//     clients, persisting rotated tokens in the background.
//
// Provider errors carry a Kind so callers can branch on the failure class
// (AuthorizationRequired, RefreshTokenExpired, TokenStorageError, ...)
// without string matching. Convert normalizes errors coming back from the
// oauth2 endpoint into that taxonomy and is idempotent.
//
// Persistence is pluggable through the TokenStorage interface; FileStorage,
// KeyringStorage, and MemoryStorage are provided.
//
// # Example Usage
//
//	storage, err := auth.NewFileStorage("default")
//	if err != nil {
//		return err
//	}
//	provider, err := auth.NewOAuth2Provider(auth.Config{
//		ClientID: clientID,
//		Scopes:   google.ScopesForServices("sheets", "drive"),
//	}, auth.Options{Storage: storage})
//	if err != nil {
//		return err
//	}
//	client, err := provider.AuthClient(ctx)
//	if err != nil {
//		return err
//	}
package auth
