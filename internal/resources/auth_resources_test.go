package resources

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/oauth2"

	"github.com/kvollmer/workdesk/internal/auth"
	"github.com/kvollmer/workdesk/internal/google"
	"github.com/kvollmer/workdesk/internal/server"
)

// plainProvider implements only the base token provider interface, the way
// the OAuth store provider does for HTTP deployments.
type plainProvider struct {
	accounts map[string]bool
}

func (p *plainProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	if !p.accounts[account] {
		return nil, errors.New("no token stored for account")
	}
	return &oauth2.Token{AccessToken: "test-token"}, nil
}

func (p *plainProvider) HasTokenForAccount(account string) bool {
	return p.accounts[account]
}

// reportingProvider also enumerates accounts and reports credential state,
// the way the local account manager does for stdio deployments.
type reportingProvider struct {
	plainProvider
	infos map[string]auth.AuthInfo
}

func (p *reportingProvider) KnownAccounts() []string {
	names := make([]string, 0, len(p.infos))
	for name := range p.infos {
		names = append(names, name)
	}
	return names
}

func (p *reportingProvider) AuthInfoForAccount(_ context.Context, account string) (auth.AuthInfo, error) {
	info, ok := p.infos[account]
	if !ok {
		return auth.AuthInfo{}, errors.New("unknown account")
	}
	return info, nil
}

func decodeSingleContent(t *testing.T, contents []mcp.ResourceContents, out interface{}) {
	t.Helper()

	if len(contents) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if text.MIMEType != "application/json" {
		t.Errorf("MIMEType = %q, expected application/json", text.MIMEType)
	}
	if err := json.Unmarshal([]byte(text.Text), out); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
}

func TestAccountFromStatusURI(t *testing.T) {
	tests := []struct {
		uri     string
		want    string
		wantErr bool
	}{
		{uri: "auth://status/default", want: "default"},
		{uri: "auth://status/work@example.com", want: "work@example.com"},
		{uri: "auth://status/", wantErr: true},
		{uri: "auth://accounts", wantErr: true},
		{uri: "user://profile", wantErr: true},
	}

	for _, tt := range tests {
		account, err := accountFromStatusURI(tt.uri)
		if tt.wantErr {
			if err == nil {
				t.Errorf("accountFromStatusURI(%q) expected error, got %q", tt.uri, account)
			}
			continue
		}
		if err != nil {
			t.Errorf("accountFromStatusURI(%q) returned error: %v", tt.uri, err)
			continue
		}
		if account != tt.want {
			t.Errorf("accountFromStatusURI(%q) = %q, expected %q", tt.uri, account, tt.want)
		}
	}
}

func TestAccountStatusPlainProvider(t *testing.T) {
	provider := &plainProvider{accounts: map[string]bool{"work": true}}

	status := accountStatus(context.Background(), provider, "work")
	if !status.Authorized {
		t.Error("expected authorized status for account with token")
	}

	status = accountStatus(context.Background(), provider, "missing")
	if status.Authorized {
		t.Error("expected unauthorized status for account without token")
	}
}

func TestAccountStatusReportingProvider(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	provider := &reportingProvider{
		infos: map[string]auth.AuthInfo{
			"work": {
				Authenticated:   true,
				HasToken:        true,
				HasRefreshToken: true,
				Expiry:          expiry,
				Scopes:          []string{"scope-a", "scope-b"},
			},
		},
	}

	status := accountStatus(context.Background(), provider, "work")
	if !status.Authorized {
		t.Error("expected authorized status")
	}
	if !status.HasRefreshToken {
		t.Error("expected refresh token to be reported")
	}
	if status.Expiry == nil || !status.Expiry.Equal(expiry) {
		t.Errorf("Expiry = %v, expected %v", status.Expiry, expiry)
	}
	if len(status.Scopes) != 2 {
		t.Errorf("Scopes = %v, expected 2 entries", status.Scopes)
	}

	status = accountStatus(context.Background(), provider, "missing")
	if status.Error == "" {
		t.Error("expected error for unknown account")
	}
	if status.Authorized {
		t.Error("expected unauthorized status when lookup fails")
	}
}

func TestHandleAccounts(t *testing.T) {
	provider := &reportingProvider{
		infos: map[string]auth.AuthInfo{
			"default": {Authenticated: true, HasToken: true},
			"work":    {Authenticated: false},
		},
	}

	sc, err := server.NewServerContext(context.Background(), provider, nil)
	if err != nil {
		t.Fatalf("NewServerContext() error: %v", err)
	}
	defer sc.Shutdown()

	var request mcp.ReadResourceRequest
	request.Params.URI = AccountsResourceURI

	contents, err := handleAccounts(context.Background(), request, sc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var response AccountsResponse
	decodeSingleContent(t, contents, &response)

	if len(response.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(response.Accounts))
	}

	byName := make(map[string]AccountStatus, len(response.Accounts))
	for _, status := range response.Accounts {
		byName[status.Account] = status
	}
	if !byName["default"].Authorized {
		t.Error("expected default account to be authorized")
	}
	if byName["work"].Authorized {
		t.Error("expected work account to be unauthorized")
	}
}

func TestHandleAccountsIncludesRequestAccount(t *testing.T) {
	// A provider that cannot enumerate still answers for the request account
	provider := &plainProvider{accounts: map[string]bool{"user@example.com": true}}

	sc, err := server.NewServerContext(context.Background(), provider, nil)
	if err != nil {
		t.Fatalf("NewServerContext() error: %v", err)
	}
	defer sc.Shutdown()

	ctx := google.ContextWithAccount(context.Background(), "user@example.com")

	var request mcp.ReadResourceRequest
	request.Params.URI = AccountsResourceURI

	contents, err := handleAccounts(ctx, request, sc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var response AccountsResponse
	decodeSingleContent(t, contents, &response)

	if len(response.Accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(response.Accounts))
	}
	if response.Accounts[0].Account != "user@example.com" {
		t.Errorf("Account = %q, expected user@example.com", response.Accounts[0].Account)
	}
	if !response.Accounts[0].Authorized {
		t.Error("expected request account to be authorized")
	}
}

func TestHandleAccountStatus(t *testing.T) {
	provider := &plainProvider{accounts: map[string]bool{"work": true}}

	sc, err := server.NewServerContext(context.Background(), provider, nil)
	if err != nil {
		t.Fatalf("NewServerContext() error: %v", err)
	}
	defer sc.Shutdown()

	var request mcp.ReadResourceRequest
	request.Params.URI = "auth://status/work"

	contents, err := handleAccountStatus(context.Background(), request, sc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var status AccountStatus
	decodeSingleContent(t, contents, &status)

	if status.Account != "work" {
		t.Errorf("Account = %q, expected work", status.Account)
	}
	if !status.Authorized {
		t.Error("expected authorized status")
	}
}

func TestHandleAccountStatusBadURI(t *testing.T) {
	provider := &plainProvider{accounts: map[string]bool{}}

	sc, err := server.NewServerContext(context.Background(), provider, nil)
	if err != nil {
		t.Fatalf("NewServerContext() error: %v", err)
	}
	defer sc.Shutdown()

	var request mcp.ReadResourceRequest
	request.Params.URI = "auth://status/"

	if _, err := handleAccountStatus(context.Background(), request, sc); err == nil {
		t.Error("expected error for URI without an account segment")
	}
}
