package auth

import (
	"errors"
	"net"
	"strings"

	"golang.org/x/oauth2"
)

// Kind classifies authentication failures so callers can branch on the
// failure class instead of matching message text.
type Kind string

const (
	// KindConfigurationInvalid indicates the provider was constructed with
	// an invalid Config. Raised at construction time only.
	KindConfigurationInvalid Kind = "configuration_invalid"

	// KindNotInitialized indicates an operation that requires Initialize
	// was called before initialization succeeded.
	KindNotInitialized Kind = "not_initialized"

	// KindAuthorizationRequired indicates no usable credentials exist and
	// an interactive authorization flow is needed.
	KindAuthorizationRequired Kind = "authorization_required"

	// KindUserDenied indicates the user rejected the consent prompt.
	KindUserDenied Kind = "user_denied"

	// KindNetworkError indicates a transport-level failure, including
	// loopback listener bind failures and redirect state mismatches.
	KindNetworkError Kind = "network_error"

	// KindRefreshTokenExpired indicates the refresh token was rejected by
	// the token endpoint and a new authorization flow is required.
	KindRefreshTokenExpired Kind = "refresh_token_expired"

	// KindTokenStorageError indicates the TokenStorage backend failed.
	KindTokenStorageError Kind = "token_storage_error"

	// KindOAuth2Error is the catch-all for protocol-level OAuth2 failures.
	KindOAuth2Error Kind = "oauth2_error"
)

// Error is the error type returned by this package. It pairs a Kind with a
// human-readable message and the underlying cause when one exists.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// NewError returns an *Error with the given kind and message.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError returns an *Error of the given kind wrapping err.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether err is or wraps an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// Convert normalizes err into the package taxonomy. Errors that are already
// an *Error pass through unchanged, so the conversion is idempotent.
func Convert(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		switch re.ErrorCode {
		case "invalid_grant":
			return WrapError(KindRefreshTokenExpired, "refresh token is expired or revoked", err)
		case "access_denied":
			return WrapError(KindUserDenied, "user denied the authorization request", err)
		}
		return WrapError(KindOAuth2Error, "token endpoint rejected the request", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid_grant"), strings.Contains(msg, "expired or revoked"):
		return WrapError(KindRefreshTokenExpired, "refresh token is expired or revoked", err)
	case strings.Contains(msg, "access_denied"):
		return WrapError(KindUserDenied, "user denied the authorization request", err)
	case isNetworkError(err, msg):
		return WrapError(KindNetworkError, "network failure during OAuth2 operation", err)
	}
	return WrapError(KindOAuth2Error, "OAuth2 operation failed", err)
}

func isNetworkError(err error, msg string) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "i/o timeout")
}

// storageError wraps a TokenStorage failure, leaving already-classified
// errors untouched so conversion stays idempotent.
func storageError(message string, err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return WrapError(KindTokenStorageError, message, err)
}
