package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// flowState tracks where an authorization attempt is in its lifecycle.
type flowState int

const (
	stateBuildingURL flowState = iota
	stateAwaitingCallback
	stateExchangingCode
	stateSucceeded
	stateFailed
)

func (s flowState) String() string {
	switch s {
	case stateBuildingURL:
		return "building_url"
	case stateAwaitingCallback:
		return "awaiting_callback"
	case stateExchangingCode:
		return "exchanging_code"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// oauthExchanger is the slice of *oauth2.Config the flow needs.
type oauthExchanger interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// authFlow drives one interactive authorization attempt: build the consent
// URL, stand up the loopback listener, wait for the redirect, exchange the
// code. A flow is single-use; the provider creates a fresh one per attempt.
type authFlow struct {
	oauth       oauthExchanger
	redirectURL string

	// timeout bounds the wait for the redirect callback. Zero means wait
	// until ctx is canceled.
	timeout time.Duration

	// opener launches the consent URL. When nil the URL is logged instead,
	// which is how test mode and headless environments drive the flow.
	opener BrowserOpener

	logger *slog.Logger

	mu    sync.Mutex
	state flowState

	// csrfState and verifier are written once before the listener starts
	// and read by the callback handler.
	csrfState string
	verifier  string
}

func (f *authFlow) setState(s flowState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
	f.logger.Debug("authorization flow state changed", "state", s.String())
}

func (f *authFlow) currentState() flowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *authFlow) fail() {
	f.setState(stateFailed)
}

// Run executes the flow and returns the exchanged token. The loopback
// listener is torn down on every exit path.
func (f *authFlow) Run(ctx context.Context) (*oauth2.Token, error) {
	f.setState(stateBuildingURL)

	state, err := GenerateState()
	if err != nil {
		f.fail()
		return nil, WrapError(KindOAuth2Error, "failed to generate state parameter", err)
	}
	f.csrfState = state

	verifier, err := GenerateCodeVerifier()
	if err != nil {
		f.fail()
		return nil, WrapError(KindOAuth2Error, "failed to generate PKCE parameters", err)
	}
	f.verifier = verifier

	authURL := f.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("code_challenge", ComputeCodeChallenge(verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", codeChallengeMethodS256),
	)

	addr, callbackPath, err := callbackEndpoint(f.redirectURL)
	if err != nil {
		f.fail()
		return nil, WrapError(KindOAuth2Error, "invalid redirect URL", err)
	}

	// The listener must be bound before the browser opens so the user is
	// never sent to a consent screen with nowhere to land.
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		f.fail()
		return nil, WrapError(KindNetworkError, fmt.Sprintf("failed to bind callback listener on %s", addr), err)
	}

	f.setState(stateAwaitingCallback)

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != callbackPath {
			http.NotFound(w, r)
			return
		}
		f.handleCallback(w, r, codeCh, errCh)
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	f.openBrowser(authURL)

	var timeoutCh <-chan time.Time
	if f.timeout > 0 {
		timer := time.NewTimer(f.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		f.fail()
		return nil, err
	case err := <-serveErr:
		f.fail()
		return nil, WrapError(KindNetworkError, "callback listener failed", err)
	case <-ctx.Done():
		f.fail()
		return nil, WrapError(KindOAuth2Error, "authorization flow canceled", ctx.Err())
	case <-timeoutCh:
		f.fail()
		return nil, NewError(KindOAuth2Error, "timed out waiting for authorization callback")
	}

	f.setState(stateExchangingCode)

	token, err := f.oauth.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		f.fail()
		return nil, Convert(err)
	}

	f.setState(stateSucceeded)
	return token, nil
}

// openBrowser launches the consent URL. Launch failures are logged, not
// fatal, since the user can still open the URL manually.
func (f *authFlow) openBrowser(authURL string) {
	if f.opener == nil {
		f.logger.Info("open this URL in your browser to authorize", "url", authURL)
		return
	}
	if err := f.opener(authURL); err != nil {
		f.logger.Warn("failed to open browser, open the URL manually", "error", err, "url", authURL)
		return
	}
	f.logger.Debug("opened browser for authorization")
}

// handleCallback processes the OAuth redirect. Outcomes are delivered
// through buffered channels with non-blocking sends so duplicate requests
// cannot wedge the handler.
func (f *authFlow) handleCallback(w http.ResponseWriter, r *http.Request, codeCh chan<- string, errCh chan<- error) {
	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		msg := fmt.Sprintf("authorization was denied: %s", errCode)
		if desc := query.Get("error_description"); desc != "" {
			msg = fmt.Sprintf("%s: %s", msg, desc)
		}
		writeCallbackPage(w, http.StatusOK, "Authorization failed",
			"The authorization request was denied. You can close this window.")
		sendFlowError(errCh, NewError(KindUserDenied, msg))
		return
	}

	if query.Get("state") != f.csrfState {
		writeCallbackPage(w, http.StatusBadRequest, "Authorization failed",
			"State validation failed. You can close this window and retry.")
		sendFlowError(errCh, NewError(KindNetworkError, "State parameter mismatch: possible CSRF attempt"))
		return
	}

	code := query.Get("code")
	if code == "" {
		writeCallbackPage(w, http.StatusBadRequest, "Authorization failed",
			"The authorization response did not include a code. You can close this window and retry.")
		sendFlowError(errCh, NewError(KindOAuth2Error, "authorization response missing code parameter"))
		return
	}

	writeCallbackPage(w, http.StatusOK, "Authorization complete",
		"You are authenticated. You can close this window and return to the terminal.")
	select {
	case codeCh <- code:
	default:
	}
}

func sendFlowError(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
}

// callbackEndpoint resolves the listen address and handler path from the
// redirect URL.
func callbackEndpoint(redirectURL string) (addr, path string, err error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse redirect URL %q: %w", redirectURL, err)
	}

	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}

	path = u.Path
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(u.Hostname(), port), path, nil
}

func writeCallbackPage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(title), html.EscapeString(message))
}
