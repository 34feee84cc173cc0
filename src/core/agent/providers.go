package agent

import (
	"context"

	"github.com/tmc/langchaingo/schema"

	"interviewrag/src/core/booking"
)

// SessionStore keeps per-session booking state and chat history.
type SessionStore interface {
	// GetBookingState returns the session's state; a session without a booking has ProgressNone.
	GetBookingState(ctx context.Context, sessionID string) (*BookingState, error)
	// StartBooking discards any previous state and sets the session to ProgressAwaitingName.
	StartBooking(ctx context.Context, sessionID string) error
	// UpdateBookingState merges the non-empty fields of state into the stored record.
	UpdateBookingState(ctx context.Context, state *BookingState) error
	ClearBookingState(ctx context.Context, sessionID string) error

	AppendHistory(ctx context.Context, sessionID string, entry HistoryEntry) error
	History(ctx context.Context, sessionID string) ([]HistoryEntry, error)
}

// Retriever finds the documents most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]schema.Document, error)
}

// Generator produces a single completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// BookingService persists a completed booking.
type BookingService interface {
	Book(ctx context.Context, name, email, date, timeOfDay string) (*booking.Interview, error)
}
