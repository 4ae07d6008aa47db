package common

import (
	"context"
	"testing"

	"github.com/kvollmer/workdesk/internal/google"
)

func TestGetAccountFromArgs(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		args     map[string]interface{}
		expected string
	}{
		{
			name:     "no account specified returns default",
			args:     map[string]interface{}{},
			expected: "default",
		},
		{
			name: "account specified returns account",
			args: map[string]interface{}{
				"account": "work",
			},
			expected: "work",
		},
		{
			name: "empty account returns default",
			args: map[string]interface{}{
				"account": "",
			},
			expected: "default",
		},
		{
			name: "account with other params",
			args: map[string]interface{}{
				"account": "personal",
				"other":   "value",
			},
			expected: "personal",
		},
		{
			name:     "nil args returns default",
			args:     nil,
			expected: "default",
		},
		{
			name: "non-string account type returns default",
			args: map[string]interface{}{
				"account": 123,
			},
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetAccountFromArgs(ctx, tt.args)
			if result != tt.expected {
				t.Errorf("GetAccountFromArgs() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestGetAccountFromArgs_WithAuthenticatedContext(t *testing.T) {
	ctx := google.ContextWithAccount(context.Background(), "oauth-user@example.com")

	tests := []struct {
		name     string
		args     map[string]interface{}
		expected string
	}{
		{
			name:     "authenticated context takes precedence over default",
			args:     map[string]interface{}{},
			expected: "oauth-user@example.com",
		},
		{
			name: "authenticated context takes precedence over explicit account",
			args: map[string]interface{}{
				"account": "explicit-account",
			},
			expected: "oauth-user@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetAccountFromArgs(ctx, tt.args)
			if result != tt.expected {
				t.Errorf("GetAccountFromArgs() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestGetAccountFromArgs_WithEmptyContextAccount(t *testing.T) {
	ctx := google.ContextWithAccount(context.Background(), "")

	tests := []struct {
		name     string
		args     map[string]interface{}
		expected string
	}{
		{
			name:     "empty context account falls back to default",
			args:     map[string]interface{}{},
			expected: "default",
		},
		{
			name: "empty context account falls back to explicit account",
			args: map[string]interface{}{
				"account": "fallback-account",
			},
			expected: "fallback-account",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetAccountFromArgs(ctx, tt.args)
			if result != tt.expected {
				t.Errorf("GetAccountFromArgs() = %v, expected %v", result, tt.expected)
			}
		})
	}
}
