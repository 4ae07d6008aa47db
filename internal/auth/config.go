package auth

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultRedirectURL is the loopback redirect used when a Config does not
// specify one. Google allows any loopback port for desktop OAuth clients.
const DefaultRedirectURL = "http://127.0.0.1:8765/callback"

// Config describes an OAuth2 client. A Config with an empty ClientSecret is
// a public client and authorizes with PKCE only.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// AuthURL and TokenURL override the Google endpoints. Used by tests to
	// point the provider at a local server.
	AuthURL  string
	TokenURL string
}

// IsPublicClient reports whether the client has no secret.
func (c Config) IsPublicClient() bool {
	return c.ClientSecret == ""
}

// Validate checks the Config and reports every problem found, not just the
// first, so a misconfigured deployment can be fixed in one pass.
func (c Config) Validate() error {
	var problems []string

	if c.ClientID == "" {
		problems = append(problems, "clientId is required")
	}
	if len(c.Scopes) == 0 {
		problems = append(problems, "at least one scope is required")
	}
	if c.RedirectURL != "" {
		u, err := url.Parse(c.RedirectURL)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("redirectUrl is not a valid URL: %v", err))
		case u.Scheme != "http" && u.Scheme != "https":
			problems = append(problems, fmt.Sprintf("redirectUrl must use http or https, got %q", u.Scheme))
		case u.Hostname() == "":
			problems = append(problems, "redirectUrl must include a host")
		}
	}

	if len(problems) > 0 {
		return NewError(KindConfigurationInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func (c Config) endpoint() oauth2.Endpoint {
	ep := google.Endpoint
	if c.AuthURL != "" {
		ep.AuthURL = c.AuthURL
	}
	if c.TokenURL != "" {
		ep.TokenURL = c.TokenURL
	}
	return ep
}

// oauthConfig builds the oauth2.Config used for URL construction, code
// exchange, and refresh.
func (c Config) oauthConfig() *oauth2.Config {
	redirect := c.RedirectURL
	if redirect == "" {
		redirect = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       c.Scopes,
		Endpoint:     c.endpoint(),
	}
}

// Settings tune token lifecycle behavior. They are read once at provider
// construction; changing the environment afterwards has no effect.
type Settings struct {
	// RefreshThreshold is how long before expiry a token is considered due
	// for proactive refresh.
	RefreshThreshold time.Duration `env:"WORKDESK_TOKEN_REFRESH_THRESHOLD" envDefault:"5m"`

	// RefreshJitter randomizes the refresh boundary so that multiple
	// processes sharing credentials do not refresh in lockstep.
	RefreshJitter time.Duration `env:"WORKDESK_TOKEN_REFRESH_JITTER" envDefault:"30s"`

	// ProactiveRefresh enables refreshing tokens before they expire. When
	// disabled, tokens are only refreshed once invalid.
	ProactiveRefresh bool `env:"WORKDESK_PROACTIVE_REFRESH" envDefault:"true"`

	// FlowTimeout bounds how long the authorization flow waits for the
	// redirect callback. Zero waits until the context is canceled.
	FlowTimeout time.Duration `env:"WORKDESK_AUTH_FLOW_TIMEOUT" envDefault:"5m"`

	// TestMode suppresses browser launches. The authorization URL is logged
	// instead so tests and headless environments can drive the flow.
	TestMode bool `env:"WORKDESK_TEST_MODE" envDefault:"false"`
}

// DefaultSettings returns the built-in defaults without consulting the
// environment.
func DefaultSettings() Settings {
	return Settings{
		RefreshThreshold: 5 * time.Minute,
		RefreshJitter:    30 * time.Second,
		ProactiveRefresh: true,
		FlowTimeout:      5 * time.Minute,
	}
}

// LoadSettings reads Settings from WORKDESK_* environment variables.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse auth settings: %w", err)
	}
	s.normalize()
	return s, nil
}

// normalize clamps negative durations to zero.
func (s *Settings) normalize() {
	if s.RefreshThreshold < 0 {
		s.RefreshThreshold = 0
	}
	if s.RefreshJitter < 0 {
		s.RefreshJitter = 0
	}
	if s.FlowTimeout < 0 {
		s.FlowTimeout = 0
	}
}
