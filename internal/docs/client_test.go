package docs

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/kvollmer/workdesk/internal/google"
)

// fakeTokenProvider implements google.TokenProvider for tests.
type fakeTokenProvider struct {
	accounts map[string]*oauth2.Token
}

var _ google.TokenProvider = (*fakeTokenProvider)(nil)

func (p *fakeTokenProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	if tok, ok := p.accounts[account]; ok {
		return tok, nil
	}
	return nil, errors.New("no token stored for account")
}

func (p *fakeTokenProvider) HasTokenForAccount(account string) bool {
	_, ok := p.accounts[account]
	return ok
}

func TestHasTokenForAccountWithProvider(t *testing.T) {
	provider := &fakeTokenProvider{accounts: map[string]*oauth2.Token{
		"work": {AccessToken: "token"},
	}}

	if !HasTokenForAccountWithProvider("work", provider) {
		t.Error("Expected true for an account the provider knows")
	}
	if HasTokenForAccountWithProvider("personal", provider) {
		t.Error("Expected false for an unknown account")
	}
	if HasTokenForAccountWithProvider("work", nil) {
		t.Error("Expected false for a nil provider")
	}
}

func TestNewClientForAccountWithProviderNilProvider(t *testing.T) {
	_, err := NewClientForAccountWithProvider(context.Background(), "work", nil)
	if err == nil {
		t.Fatal("Expected error for nil token provider")
	}
}

func TestNewClientForAccountWithProviderNoToken(t *testing.T) {
	provider := &fakeTokenProvider{}

	_, err := NewClientForAccountWithProvider(context.Background(), "work", provider)
	if err == nil {
		t.Fatal("Expected error when the provider has no token for the account")
	}
}

func TestNewClientForAccountWithProvider(t *testing.T) {
	provider := &fakeTokenProvider{accounts: map[string]*oauth2.Token{
		"work": {AccessToken: "token", Expiry: time.Now().Add(time.Hour)},
	}}

	client, err := NewClientForAccountWithProvider(context.Background(), "work", provider)
	if err != nil {
		t.Fatalf("NewClientForAccountWithProvider() returned error: %v", err)
	}
	if client.Account() != "work" {
		t.Errorf("Account() = %q, expected work", client.Account())
	}
}

func TestGetDocumentRequiresID(t *testing.T) {
	client := &Client{}

	_, err := client.GetDocument("")
	if err == nil {
		t.Fatal("Expected error for empty document ID")
	}
}

func TestCreateDocumentRequiresTitle(t *testing.T) {
	client := &Client{}

	_, err := client.CreateDocument("")
	if err == nil {
		t.Fatal("Expected error for empty title")
	}
}

func TestInsertTextValidation(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name       string
		documentID string
		index      int64
		text       string
	}{
		{name: "missing document ID", documentID: "", index: 1, text: "hello"},
		{name: "missing text", documentID: "doc-1", index: 1, text: ""},
		{name: "index zero", documentID: "doc-1", index: 0, text: "hello"},
		{name: "negative index", documentID: "doc-1", index: -3, text: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.InsertText(tt.documentID, tt.index, tt.text); err == nil {
				t.Error("InsertText() expected validation error but got none")
			}
		})
	}
}

func TestAppendTextValidation(t *testing.T) {
	client := &Client{}

	if err := client.AppendText("", "hello"); err == nil {
		t.Error("AppendText() expected error for empty document ID")
	}
	if err := client.AppendText("doc-1", ""); err == nil {
		t.Error("AppendText() expected error for empty text")
	}
}

func TestGetFileMetadataRequiresID(t *testing.T) {
	client := &Client{}

	_, err := client.GetFileMetadata("")
	if err == nil {
		t.Fatal("Expected error for empty file ID")
	}
}
