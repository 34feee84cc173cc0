package agent_test

import (
	"testing"

	"interviewrag/src/core/agent"
)

func TestProgressNext(t *testing.T) {
	tests := []struct {
		from agent.Progress
		want agent.Progress
	}{
		{agent.ProgressAwaitingName, agent.ProgressAwaitingEmail},
		{agent.ProgressAwaitingEmail, agent.ProgressAwaitingDate},
		{agent.ProgressAwaitingDate, agent.ProgressAwaitingTime},
		{agent.ProgressAwaitingTime, agent.ProgressComplete},
		{agent.ProgressNone, agent.ProgressNone},
	}

	for _, tt := range tests {
		if got := tt.from.Next(); got != tt.want {
			t.Errorf("%q.Next() = %q, want %q", tt.from, got, tt.want)
		}
	}
}

func TestParseProgress(t *testing.T) {
	tests := []struct {
		in      string
		want    agent.Progress
		wantErr bool
	}{
		{"", agent.ProgressNone, false},
		{"name", agent.ProgressAwaitingName, false},
		{"time", agent.ProgressAwaitingTime, false},
		{"complete", agent.ProgressNone, true},
		{"bogus", agent.ProgressNone, true},
	}

	for _, tt := range tests {
		got, err := agent.ParseProgress(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProgress(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseProgress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHistoryEntryRoundTrip(t *testing.T) {
	entry := agent.HistoryEntry{Role: agent.RoleAssistant, Content: "Time: 14:30"}
	line := entry.String()
	if line != "Assistant: Time: 14:30" {
		t.Fatalf("String() = %q", line)
	}
	if got := agent.ParseHistoryEntry(line); got != entry {
		t.Errorf("ParseHistoryEntry(%q) = %+v, want %+v", line, got, entry)
	}
	if got := agent.ParseHistoryEntry("no prefix"); got.Role != "" || got.Content != "no prefix" {
		t.Errorf("unexpected entry for unprefixed line: %+v", got)
	}
}
