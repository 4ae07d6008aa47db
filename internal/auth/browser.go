package auth

import (
	"github.com/pkg/browser"
)

// BrowserOpener opens a URL in the user's browser. Injected so tests and
// headless environments can capture the authorization URL instead.
type BrowserOpener func(url string) error

// OpenSystemBrowser opens the URL with the platform default browser.
func OpenSystemBrowser(url string) error {
	return browser.OpenURL(url)
}
