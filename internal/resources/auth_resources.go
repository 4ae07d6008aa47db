package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kvollmer/workdesk/internal/auth"
	"github.com/kvollmer/workdesk/internal/google"
	"github.com/kvollmer/workdesk/internal/server"
)

// AccountsResourceURI lists every account known to the server together with
// its authorization state.
const AccountsResourceURI = "auth://accounts"

// AccountStatusURITemplate resolves the authorization state of one account.
const AccountStatusURITemplate = "auth://status/{account}"

// AccountStatus is the per-account entry served by the auth resources.
type AccountStatus struct {
	Account         string     `json:"account"`
	Authorized      bool       `json:"authorized"`
	HasRefreshToken bool       `json:"hasRefreshToken,omitempty"`
	Expiry          *time.Time `json:"expiry,omitempty"`
	Scopes          []string   `json:"scopes,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// AccountsResponse is the payload of the auth://accounts resource.
type AccountsResponse struct {
	Accounts []AccountStatus `json:"accounts"`
}

// accountEnumerator lists the account names a token provider knows about.
// The local account manager implements it; the OAuth store provider serves
// tokens keyed by user email and cannot enumerate, so HTTP deployments fall
// back to the request account.
type accountEnumerator interface {
	KnownAccounts() []string
}

// authInfoReporter projects per-account credential state beyond bare token
// presence.
type authInfoReporter interface {
	AuthInfoForAccount(ctx context.Context, account string) (auth.AuthInfo, error)
}

// RegisterAuthResources registers the authorization status resources:
// auth://accounts and auth://status/{account}.
func RegisterAuthResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	accountsResource := mcp.NewResource(
		AccountsResourceURI,
		"Authorized Accounts",
		mcp.WithResourceDescription("Google accounts known to this server and whether each holds usable credentials"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(accountsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleAccounts(ctx, request, sc)
	})

	statusTemplate := mcp.NewResourceTemplate(
		AccountStatusURITemplate,
		"Account Authorization Status",
		mcp.WithTemplateDescription("Authorization state of a single account: token validity, refresh token presence, expiry and granted scopes"),
		mcp.WithTemplateMIMEType("application/json"),
	)

	s.AddResourceTemplate(statusTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleAccountStatus(ctx, request, sc)
	})

	return nil
}

// handleAccounts returns the authorization state of every known account.
func handleAccounts(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	provider := sc.TokenProvider()

	var accounts []string
	if enumerator, ok := provider.(accountEnumerator); ok {
		accounts = enumerator.KnownAccounts()
	}
	// The request account belongs in the listing even when the provider
	// cannot enumerate.
	if requestAccount, ok := google.AccountFromContext(ctx); ok {
		accounts = mergeAccount(accounts, requestAccount)
	}
	if len(accounts) == 0 {
		accounts = []string{google.DefaultAccount}
	}

	response := AccountsResponse{Accounts: make([]AccountStatus, 0, len(accounts))}
	for _, account := range accounts {
		response.Accounts = append(response.Accounts, accountStatus(ctx, provider, account))
	}

	return jsonResourceContents(request.Params.URI, response)
}

// handleAccountStatus returns the authorization state of the account named
// in the URI.
func handleAccountStatus(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	account, err := accountFromStatusURI(request.Params.URI)
	if err != nil {
		return nil, err
	}

	status := accountStatus(ctx, sc.TokenProvider(), account)
	return jsonResourceContents(request.Params.URI, status)
}

// accountFromStatusURI extracts the account segment from auth://status/{account}.
func accountFromStatusURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, "auth://status/")
	if !ok || rest == "" {
		return "", fmt.Errorf("invalid account status URI %q: expected auth://status/{account}", uri)
	}
	return rest, nil
}

// accountStatus projects what the token provider knows about the account.
// Providers that report full credential state do; the rest answer with token
// presence only.
func accountStatus(ctx context.Context, provider google.TokenProvider, account string) AccountStatus {
	status := AccountStatus{Account: account}

	reporter, ok := provider.(authInfoReporter)
	if !ok {
		status.Authorized = provider.HasTokenForAccount(account)
		return status
	}

	info, err := reporter.AuthInfoForAccount(ctx, account)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	status.Authorized = info.Authenticated
	status.HasRefreshToken = info.HasRefreshToken
	status.Scopes = info.Scopes
	if !info.Expiry.IsZero() {
		expiry := info.Expiry
		status.Expiry = &expiry
	}
	return status
}

func mergeAccount(accounts []string, account string) []string {
	for _, existing := range accounts {
		if existing == account {
			return accounts
		}
	}
	accounts = append(accounts, account)
	sort.Strings(accounts)
	return accounts
}

func jsonResourceContents(uri string, payload interface{}) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource payload: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
