package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"
	calendarapi "google.golang.org/api/calendar/v3"

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

func TestToEventSummary(t *testing.T) {
	summary := toEventSummary(nil)
	if summary.ID != "" {
		t.Errorf("Expected empty ID for nil event, got %s", summary.ID)
	}
}

func TestToEventSummary_TimedEvent(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	event := &calendarapi.Event{
		Id:          "evt-1",
		Summary:     "Planning",
		Description: "Weekly planning",
		Location:    "Room 4",
		Status:      "confirmed",
		Start:       &calendarapi.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendarapi.EventDateTime{DateTime: end.Format(time.RFC3339)},
		Creator:     &calendarapi.EventCreator{Email: "creator@example.com"},
		Organizer:   &calendarapi.EventOrganizer{Email: "organizer@example.com"},
		Attendees: []*calendarapi.EventAttendee{
			{Email: "a@example.com", ResponseStatus: "accepted"},
			{Email: "b@example.com", ResponseStatus: "needsAction", Optional: true},
		},
		ConferenceData: &calendarapi.ConferenceData{
			EntryPoints: []*calendarapi.EntryPoint{
				{EntryPointType: "phone", Uri: "tel:+1-555-0100"},
				{EntryPointType: "video", Uri: "https://meet.google.com/abc-defg-hij"},
			},
		},
	}

	summary := toEventSummary(event)
	if summary.ID != "evt-1" {
		t.Errorf("ID = %q, expected evt-1", summary.ID)
	}
	if !summary.Start.Equal(start) {
		t.Errorf("Start = %v, expected %v", summary.Start, start)
	}
	if !summary.End.Equal(end) {
		t.Errorf("End = %v, expected %v", summary.End, end)
	}
	if summary.Creator != "creator@example.com" {
		t.Errorf("Creator = %q", summary.Creator)
	}
	if summary.Organizer != "organizer@example.com" {
		t.Errorf("Organizer = %q", summary.Organizer)
	}
	if len(summary.Attendees) != 2 {
		t.Fatalf("Expected 2 attendees, got %d", len(summary.Attendees))
	}
	if !summary.Attendees[1].Optional {
		t.Error("Expected second attendee to be optional")
	}
	if summary.MeetLink != "https://meet.google.com/abc-defg-hij" {
		t.Errorf("MeetLink = %q, expected the video entry point", summary.MeetLink)
	}
}

func TestToEventSummary_AllDayEvent(t *testing.T) {
	event := &calendarapi.Event{
		Id:      "evt-2",
		Summary: "Offsite",
		Start:   &calendarapi.EventDateTime{Date: "2026-03-02"},
		End:     &calendarapi.EventDateTime{Date: "2026-03-03"},
	}

	summary := toEventSummary(event)
	expected := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !summary.Start.Equal(expected) {
		t.Errorf("Start = %v, expected %v", summary.Start, expected)
	}
}

func TestToCalendarInfo(t *testing.T) {
	info := toCalendarInfo(nil)
	if info.ID != "" {
		t.Errorf("Expected empty ID for nil entry, got %s", info.ID)
	}

	entry := &calendarapi.CalendarListEntry{
		Id:         "primary",
		Summary:    "Work",
		TimeZone:   "Europe/Berlin",
		Primary:    true,
		AccessRole: "owner",
	}
	info = toCalendarInfo(entry)
	if info.ID != "primary" || !info.Primary || info.AccessRole != "owner" {
		t.Errorf("Unexpected conversion result: %+v", info)
	}
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

func TestEventInput_Validation(t *testing.T) {
	// Test EventInput structure with various valid and invalid inputs
	tests := []struct {
		name  string
		input EventInput
	}{
		{
			name: "valid basic event",
			input: EventInput{
				Summary: "Test Event",
				Start:   time.Now(),
				End:     time.Now().Add(time.Hour),
			},
		},
		{
			name: "valid recurring event",
			input: EventInput{
				Summary:    "Weekly Meeting",
				Start:      time.Now(),
				End:        time.Now().Add(time.Hour),
				Recurrence: []string{"RRULE:FREQ=WEEKLY;BYDAY=MO"},
			},
		},
		{
			name: "valid out-of-office event",
			input: EventInput{
				Summary:   "Out of Office",
				Start:     time.Now(),
				End:       time.Now().Add(8 * time.Hour),
				EventType: "outOfOffice",
			},
		},
		{
			name: "all-day event",
			input: EventInput{
				Summary: "Company Holiday",
				Start:   time.Now(),
				End:     time.Now().Add(24 * time.Hour),
				AllDay:  true,
			},
		},
		{
			name: "event with attendees",
			input: EventInput{
				Summary:   "Team Meeting",
				Start:     time.Now(),
				End:       time.Now().Add(time.Hour),
				Attendees: []string{"user1@example.com", "user2@example.com"},
			},
		},
		{
			name: "event with Google Meet",
			input: EventInput{
				Summary:                  "Video Call",
				Start:                    time.Now(),
				End:                      time.Now().Add(time.Hour),
				UseDefaultConferenceData: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Verify the input structure is correctly formed
			if tt.input.Summary == "" {
				t.Error("Expected non-empty summary")
			}
			if tt.input.Start.IsZero() {
				t.Error("Expected non-zero start time")
			}
			if tt.input.End.IsZero() {
				t.Error("Expected non-zero end time")
			}
			if tt.input.End.Before(tt.input.Start) {
				t.Error("End time should be after start time")
			}
		})
	}
}

func TestAttendeeInfo_Structure(t *testing.T) {
	// Test AttendeeInfo structure
	attendee := AttendeeInfo{
		Email:          "test@example.com",
		DisplayName:    "Test User",
		ResponseStatus: "accepted",
		Optional:       false,
		Organizer:      true,
	}

	if attendee.Email == "" {
		t.Error("Expected non-empty email")
	}
	if attendee.ResponseStatus != "accepted" {
		t.Errorf("Expected response status 'accepted', got %s", attendee.ResponseStatus)
	}
	if !attendee.Organizer {
		t.Error("Expected organizer to be true")
	}
}

func TestFreeBusyInfo_Structure(t *testing.T) {
	// Test FreeBusyInfo structure
	now := time.Now()
	later := now.Add(time.Hour)

	info := FreeBusyInfo{
		Calendar: "test@example.com",
		Busy: []TimeRange{
			{Start: now, End: later},
		},
		Errors: []string{},
	}

	if info.Calendar == "" {
		t.Error("Expected non-empty calendar")
	}
	if len(info.Busy) != 1 {
		t.Errorf("Expected 1 busy period, got %d", len(info.Busy))
	}
	if info.Busy[0].Start.After(info.Busy[0].End) {
		t.Error("Start time should be before end time in busy period")
	}
}

func TestAvailableSlot_Structure(t *testing.T) {
	// Test AvailableSlot structure
	now := time.Now()
	duration := 30 * time.Minute

	slot := AvailableSlot{
		Start:    now,
		End:      now.Add(duration),
		Duration: duration,
	}

	if slot.Start.IsZero() {
		t.Error("Expected non-zero start time")
	}
	if slot.End.IsZero() {
		t.Error("Expected non-zero end time")
	}
	if slot.Duration != duration {
		t.Errorf("Expected duration %v, got %v", duration, slot.Duration)
	}
	if slot.End.Sub(slot.Start) != duration {
		t.Error("End-Start should equal Duration")
	}
}

func TestIsGoogleDocsLink(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"Google Docs URL", "https://docs.google.com/document/d/123/edit", true},
		{"Google Drive URL", "https://drive.google.com/file/d/456/view", true},
		{"Non-Google URL", "https://example.com/document", false},
		{"Empty URL", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isGoogleDocsLink(tt.url)
			if result != tt.expected {
				t.Errorf("isGoogleDocsLink(%q) = %v, expected %v", tt.url, result, tt.expected)
			}
		})
	}
}

func TestExtractLinksFromText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int // number of links expected
	}{
		{
			name:     "single link",
			text:     "Check out https://example.com for more info",
			expected: 1,
		},
		{
			name:     "multiple links",
			text:     "Visit https://example.com and https://test.com",
			expected: 2,
		},
		{
			name:     "no links",
			text:     "This is just plain text",
			expected: 0,
		},
		{
			name:     "http link",
			text:     "Visit http://example.com",
			expected: 1,
		},
		{
			name:     "empty text",
			text:     "",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := extractLinksFromText(tt.text)
			if len(links) != tt.expected {
				t.Errorf("extractLinksFromText(%q) returned %d links, expected %d", tt.text, len(links), tt.expected)
			}
		})
	}
}
