package google

import "context"

type accountContextKey struct{}

// ContextWithAccount returns a context carrying the account an authenticated
// request acts on behalf of. The HTTP transport sets this from the validated
// OAuth user so tool handlers resolve tokens for the right user.
func ContextWithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, accountContextKey{}, account)
}

// AccountFromContext returns the account set by ContextWithAccount, if any.
func AccountFromContext(ctx context.Context) (string, bool) {
	account, ok := ctx.Value(accountContextKey{}).(string)
	if !ok || account == "" {
		return "", false
	}
	return account, true
}
