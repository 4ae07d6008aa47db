package drive_tools

import (
	"strings"
	"testing"
)

func TestListOptionsFromArgs(t *testing.T) {
	tests := []struct {
		name               string
		args               map[string]interface{}
		wantQuery          string
		wantMaxResults     int
		wantOrderBy        string
		wantIncludeTrashed bool
		wantPageToken      string
	}{
		{
			name:           "defaults",
			args:           map[string]interface{}{},
			wantMaxResults: 100,
		},
		{
			name: "all options set",
			args: map[string]interface{}{
				"query":          "name contains 'report'",
				"maxResults":     float64(25),
				"orderBy":        "modifiedTime desc",
				"includeTrashed": true,
				"pageToken":      "tok123",
			},
			wantQuery:          "name contains 'report'",
			wantMaxResults:     25,
			wantOrderBy:        "modifiedTime desc",
			wantIncludeTrashed: true,
			wantPageToken:      "tok123",
		},
		{
			name: "zero maxResults keeps default",
			args: map[string]interface{}{
				"maxResults": float64(0),
			},
			wantMaxResults: 100,
		},
		{
			name: "empty strings ignored",
			args: map[string]interface{}{
				"query":   "",
				"orderBy": "",
			},
			wantMaxResults: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := listOptionsFromArgs(tt.args)
			if options.Query != tt.wantQuery {
				t.Errorf("Query = %q, expected %q", options.Query, tt.wantQuery)
			}
			if options.MaxResults != tt.wantMaxResults {
				t.Errorf("MaxResults = %d, expected %d", options.MaxResults, tt.wantMaxResults)
			}
			if options.OrderBy != tt.wantOrderBy {
				t.Errorf("OrderBy = %q, expected %q", options.OrderBy, tt.wantOrderBy)
			}
			if options.IncludeTrashed != tt.wantIncludeTrashed {
				t.Errorf("IncludeTrashed = %v, expected %v", options.IncludeTrashed, tt.wantIncludeTrashed)
			}
			if options.PageToken != tt.wantPageToken {
				t.Errorf("PageToken = %q, expected %q", options.PageToken, tt.wantPageToken)
			}
		})
	}
}

func TestShareOptionsFromArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		wantErr string
	}{
		{
			name: "user with email",
			args: map[string]interface{}{
				"type":         "user",
				"role":         "reader",
				"emailAddress": "test@example.com",
			},
		},
		{
			name: "group with email",
			args: map[string]interface{}{
				"type":         "group",
				"role":         "writer",
				"emailAddress": "team@example.com",
			},
		},
		{
			name: "domain with domain",
			args: map[string]interface{}{
				"type":   "domain",
				"role":   "commenter",
				"domain": "example.com",
			},
		},
		{
			name: "anyone needs no grantee",
			args: map[string]interface{}{
				"type": "anyone",
				"role": "reader",
			},
		},
		{
			name: "missing type",
			args: map[string]interface{}{
				"role": "reader",
			},
			wantErr: "type is required",
		},
		{
			name: "missing role",
			args: map[string]interface{}{
				"type": "anyone",
			},
			wantErr: "role is required",
		},
		{
			name: "user without email",
			args: map[string]interface{}{
				"type": "user",
				"role": "reader",
			},
			wantErr: "emailAddress is required",
		},
		{
			name: "domain without domain",
			args: map[string]interface{}{
				"type": "domain",
				"role": "reader",
			},
			wantErr: "domain is required",
		},
		{
			name: "unknown type",
			args: map[string]interface{}{
				"type": "everyone",
				"role": "reader",
			},
			wantErr: "invalid type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options, err := shareOptionsFromArgs(tt.args)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Error = %q, expected it to contain %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if options.Type != tt.args["type"].(string) {
				t.Errorf("Type = %q, expected %q", options.Type, tt.args["type"])
			}
			if options.Role != tt.args["role"].(string) {
				t.Errorf("Role = %q, expected %q", options.Role, tt.args["role"])
			}
		})
	}
}

func TestShareOptionsFromArgs_NotificationFields(t *testing.T) {
	args := map[string]interface{}{
		"type":                  "user",
		"role":                  "writer",
		"emailAddress":          "test@example.com",
		"sendNotificationEmail": true,
		"emailMessage":          "Here is the doc",
	}

	options, err := shareOptionsFromArgs(args)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !options.SendNotificationEmail {
		t.Error("SendNotificationEmail = false, expected true")
	}
	if options.EmailMessage != "Here is the doc" {
		t.Errorf("EmailMessage = %q, expected %q", options.EmailMessage, "Here is the doc")
	}
}
