package common

import (
	"context"

	"github.com/kvollmer/workdesk/internal/google"
)

// GetAccountFromArgs extracts the account name from request arguments and context.
// For OAuth-authenticated requests, uses the authenticated user's email.
// Otherwise defaults to "default" or the explicitly provided account name.
//
// Priority order:
//  1. Authenticated user email from context (set by the OAuth middleware)
//  2. Explicit "account" argument in request
//  3. "default"
//
// The context wins over the argument so an HTTP caller cannot act as a
// different account than the one their token was issued for.
func GetAccountFromArgs(ctx context.Context, args map[string]interface{}) string {
	if account, ok := google.AccountFromContext(ctx); ok {
		return account
	}

	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	return google.DefaultAccount
}
