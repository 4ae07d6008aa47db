package google

// DefaultOAuthScopes are the Google OAuth scopes required for full MCP functionality.
// These scopes are used consistently across the application for OAuth configurations.
//
// The scopes provide access to:
//   - Google Sheets: full access
//   - Google Docs: full access
//   - Google Calendar: full access
//   - Google Drive: full access
var DefaultOAuthScopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Google Sheets scope
	"https://www.googleapis.com/auth/spreadsheets",

	// Google Docs scope
	"https://www.googleapis.com/auth/documents",

	// Google Calendar scope
	"https://www.googleapis.com/auth/calendar",

	// Google Drive scope
	"https://www.googleapis.com/auth/drive",
}
