package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected slog.Level
		wantErr  bool
	}{
		{
			name:     "empty defaults to info",
			level:    "",
			expected: slog.LevelInfo,
		},
		{
			name:     "debug",
			level:    "debug",
			expected: slog.LevelDebug,
		},
		{
			name:     "info",
			level:    "info",
			expected: slog.LevelInfo,
		},
		{
			name:     "warn",
			level:    "warn",
			expected: slog.LevelWarn,
		},
		{
			name:     "warning alias",
			level:    "warning",
			expected: slog.LevelWarn,
		},
		{
			name:     "error",
			level:    "error",
			expected: slog.LevelError,
		},
		{
			name:     "mixed case",
			level:    "DeBuG",
			expected: slog.LevelDebug,
		},
		{
			name:    "unknown level",
			level:   "verbose",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := ParseLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if level != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.level, level, tt.expected)
			}
		})
	}
}

func TestSetupTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Options{Level: "debug", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	logger.Debug("hello", Operation("test_op"))

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "operation=test_op") {
		t.Errorf("output missing operation attribute: %q", out)
	}
}

func TestSetupJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	logger.Info("hello", Service("sheets"))

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) {
		t.Errorf("output not JSON formatted: %q", out)
	}
	if !strings.Contains(out, `"service":"sheets"`) {
		t.Errorf("output missing service attribute: %q", out)
	}
}

func TestSetupLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Options{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestSetupRejectsUnknownFormat(t *testing.T) {
	if _, err := Setup(Options{Format: "yaml"}); err == nil {
		t.Fatal("Setup() with unknown format should fail")
	}
	if _, err := Setup(Options{Level: "loudest"}); err == nil {
		t.Fatal("Setup() with unknown level should fail")
	}
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	WithService(base, "calendar").Info("a")
	WithAccount(base, "work").Info("b")
	WithTool(base, "sheets_read_range").Info("c")

	out := buf.String()
	for _, want := range []string{"service=calendar", "account=work", "tool=sheets_read_range"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestErrAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("ok", Err(nil))
	if strings.Contains(buf.String(), "error=") {
		t.Errorf("Err(nil) should not emit an error attribute: %q", buf.String())
	}

	buf.Reset()
	logger.Info("bad", Err(errTest))
	if !strings.Contains(buf.String(), "error="+errTest.Error()) {
		t.Errorf("Err() missing error attribute: %q", buf.String())
	}
}

var errTest = errFixed("boom")

type errFixed string

func (e errFixed) Error() string { return string(e) }

func TestDurationAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("timed", Duration(1500*time.Millisecond))
	if !strings.Contains(buf.String(), "duration=1.5s") {
		t.Errorf("Duration attribute missing: %q", buf.String())
	}
}

func TestAnonymizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{
			name:  "regular email",
			email: "user@example.com",
		},
		{
			name:  "another email",
			email: "admin@company.org",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnonymizeEmail(tt.email)

			// Should produce "user:" prefix plus 16 hex characters.
			if len(result) != 21 {
				t.Errorf("AnonymizeEmail(%q) length = %d, expected 21", tt.email, len(result))
			}
			if !strings.HasPrefix(result, "user:") {
				t.Errorf("AnonymizeEmail(%q) = %q, expected user: prefix", tt.email, result)
			}

			// Same input must hash to the same value for log correlation.
			if again := AnonymizeEmail(tt.email); again != result {
				t.Errorf("AnonymizeEmail(%q) not deterministic: %q != %q", tt.email, result, again)
			}

			// Raw email must never appear in the output.
			if strings.Contains(result, tt.email) {
				t.Errorf("AnonymizeEmail(%q) = %q leaks the email", tt.email, result)
			}
		})
	}

	if AnonymizeEmail("") != "" {
		t.Error("AnonymizeEmail(\"\") should return empty string")
	}

	if AnonymizeEmail("a@b.c") == AnonymizeEmail("x@y.z") {
		t.Error("different emails should produce different hashes")
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{
			name:     "empty token",
			token:    "",
			expected: "<empty>",
		},
		{
			name:     "short token",
			token:    "abc",
			expected: "[token:3 chars]",
		},
		{
			name:     "jwt-like token",
			token:    strings.Repeat("x", 40) + "." + strings.Repeat("y", 14),
			expected: "[token:55 chars]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, expected %q", tt.token, got, tt.expected)
			}
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{
			name:     "regular email",
			email:    "user@example.com",
			expected: "example.com",
		},
		{
			name:     "empty email",
			email:    "",
			expected: "",
		},
		{
			name:     "missing domain",
			email:    "user@",
			expected: "",
		},
		{
			name:     "no at sign",
			email:    "not-an-email",
			expected: "",
		},
		{
			name:     "multiple at signs",
			email:    "a@b@c.com",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDomain(tt.email); got != tt.expected {
				t.Errorf("ExtractDomain(%q) = %q, expected %q", tt.email, got, tt.expected)
			}
		})
	}
}

func TestUserHashAttr(t *testing.T) {
	attr := UserHash("user@example.com")
	if attr.Key != KeyUserHash {
		t.Errorf("UserHash key = %q, expected %q", attr.Key, KeyUserHash)
	}
	if v := attr.Value.String(); strings.Contains(v, "example.com") {
		t.Errorf("UserHash value %q leaks the email", v)
	}
}
