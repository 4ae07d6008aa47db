package google

import "fmt"

// GetAuthenticationErrorMessage returns the instructive error text shown when
// an account has no stored OAuth token. Tool handlers surface it verbatim so
// agents can relay the fix to the user.
func GetAuthenticationErrorMessage(account string) string {
	return fmt.Sprintf(`Google OAuth token not found for account %q. To authorize access, run:

    workdesk auth login --account %s

Sign in with your Google account and grant access to Sheets, Docs, Calendar
and Drive. Tokens are stored locally and refreshed automatically, so this is
needed only once per account.`, account, account)
}
