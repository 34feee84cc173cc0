package agent

import (
	"fmt"
	"strings"
)

// Progress is the booking dialogue stage of a session. The stored value names the field
// being awaited.
type Progress string

const (
	ProgressNone          Progress = ""
	ProgressAwaitingName  Progress = "name"
	ProgressAwaitingEmail Progress = "email"
	ProgressAwaitingDate  Progress = "date"
	ProgressAwaitingTime  Progress = "time"
	// ProgressComplete is transient: it is never written to the session store.
	ProgressComplete Progress = "complete"
)

// ParseProgress converts a stored progress value. The empty string is ProgressNone.
func ParseProgress(s string) (Progress, error) {
	switch p := Progress(s); p {
	case ProgressNone, ProgressAwaitingName, ProgressAwaitingEmail, ProgressAwaitingDate, ProgressAwaitingTime:
		return p, nil
	default:
		return ProgressNone, fmt.Errorf("unknown booking progress %q", s)
	}
}

// Active reports whether a booking is being collected.
func (p Progress) Active() bool {
	switch p {
	case ProgressAwaitingName, ProgressAwaitingEmail, ProgressAwaitingDate, ProgressAwaitingTime:
		return true
	}
	return false
}

// Next returns the following stage. Stages never skip.
func (p Progress) Next() Progress {
	switch p {
	case ProgressAwaitingName:
		return ProgressAwaitingEmail
	case ProgressAwaitingEmail:
		return ProgressAwaitingDate
	case ProgressAwaitingDate:
		return ProgressAwaitingTime
	case ProgressAwaitingTime:
		return ProgressComplete
	}
	return ProgressNone
}

// BookingState is the booking record of a single session. Fields are only set once they
// passed validation.
type BookingState struct {
	SessionID string
	Progress  Progress
	Name      string
	Email     string
	Date      string
	Time      string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Title renders the role the way history lines are prefixed, e.g. "Assistant".
func (r Role) Title() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// HistoryEntry is one line of a session's chat history.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func (e HistoryEntry) String() string {
	return fmt.Sprintf("%s: %s", e.Role.Title(), e.Content)
}

// ParseHistoryEntry reverses HistoryEntry.String. Lines without a known role prefix are
// returned with an empty role.
func ParseHistoryEntry(line string) HistoryEntry {
	for _, role := range []Role{RoleUser, RoleAssistant} {
		prefix := role.Title() + ": "
		if strings.HasPrefix(line, prefix) {
			return HistoryEntry{Role: role, Content: strings.TrimPrefix(line, prefix)}
		}
	}
	return HistoryEntry{Content: line}
}
