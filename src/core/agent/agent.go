package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"

	"interviewrag/src/core/booking"
	"interviewrag/src/infrastructure/log"
)

const DefaultTopK = 3

// Orchestrator answers user turns. It runs the interview booking dialogue when a booking is
// active and falls back to retrieval augmented chat otherwise. It keeps no state of its own.
type Orchestrator struct {
	sessions  SessionStore
	retriever Retriever
	generator Generator
	bookings  BookingService
	prompt    prompts.PromptTemplate
	topK      int
	logger    logr.Logger
}

type Option func(o *Orchestrator)

func WithTopK(topK int) Option {
	return func(o *Orchestrator) {
		if topK > 0 {
			o.topK = topK
		}
	}
}

// NewOrchestrator wires the collaborators. The retriever may be nil, in which case chat
// answers are generated without document context.
func NewOrchestrator(sessions SessionStore, retriever Retriever, generator Generator, bookings BookingService, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		sessions:  sessions,
		retriever: retriever,
		generator: generator,
		bookings:  bookings,
		prompt:    newChatPrompt(),
		topK:      DefaultTopK,
		logger:    log.WithName("agent"),
	}

	for _, opt := range opts {
		opt(o)
	}

	if err := o.validateDependencies(); err != nil {
		return nil, fmt.Errorf("failed to validate dependencies: %w", err)
	}

	return o, nil
}

func (o *Orchestrator) validateDependencies() error {
	if o.sessions == nil {
		return fmt.Errorf("session store is required")
	}
	if o.generator == nil {
		return fmt.Errorf("generator is required")
	}
	if o.bookings == nil {
		return fmt.Errorf("booking service is required")
	}
	return nil
}

// Chat handles one user turn and returns the reply.
func (o *Orchestrator) Chat(ctx context.Context, sessionID, utterance string) (string, error) {
	query := strings.ToLower(strings.TrimSpace(utterance))

	// A trigger phrase always wins, even over a booking in progress.
	if hasBookingIntent(query) {
		if err := o.sessions.StartBooking(ctx, sessionID); err != nil {
			return "", fmt.Errorf("failed to start booking: %w", err)
		}
		o.logger.V(1).Info("booking started", "session_id", sessionID)
		return o.reply(ctx, sessionID, replyAskName), nil
	}

	state, err := o.sessions.GetBookingState(ctx, sessionID)
	if err != nil {
		o.logger.Error(err, "failed to load booking state, answering as chat", "session_id", sessionID)
		state = &BookingState{SessionID: sessionID}
	}

	if state.Progress.Active() {
		return o.collect(ctx, state, query)
	}

	return o.answer(ctx, sessionID, query)
}

// collect advances the booking by one field. Invalid input leaves the state untouched.
func (o *Orchestrator) collect(ctx context.Context, state *BookingState, query string) (string, error) {
	update := &BookingState{SessionID: state.SessionID, Progress: state.Progress.Next()}

	var next string
	switch state.Progress {
	case ProgressAwaitingName:
		if query == "" {
			return o.reply(ctx, state.SessionID, replyNameRequired), nil
		}
		update.Name = query
		next = replyAskEmail
	case ProgressAwaitingEmail:
		if !IsValidEmail(query) {
			return o.reply(ctx, state.SessionID, replyInvalidEmail), nil
		}
		update.Email = query
		next = replyAskDate
	case ProgressAwaitingDate:
		if !IsValidDate(query) {
			return o.reply(ctx, state.SessionID, replyInvalidDate), nil
		}
		update.Date = query
		next = replyAskTime
	case ProgressAwaitingTime:
		if !IsValidTime(query) {
			return o.reply(ctx, state.SessionID, replyInvalidTime), nil
		}
		return o.complete(ctx, state, query)
	default:
		return "", fmt.Errorf("unexpected booking progress %q", state.Progress)
	}

	if err := o.sessions.UpdateBookingState(ctx, update); err != nil {
		return "", fmt.Errorf("failed to update booking state: %w", err)
	}

	return o.reply(ctx, state.SessionID, next), nil
}

// complete hands the collected booking to persistence. A failed save keeps the state so
// resending the time retries it. Rejected input can never succeed, so that state is dropped.
func (o *Orchestrator) complete(ctx context.Context, state *BookingState, timeOfDay string) (string, error) {
	interview, err := o.bookings.Book(ctx, state.Name, state.Email, state.Date, timeOfDay)
	if errors.Is(err, booking.ErrInvalidInput) {
		o.logger.Info("booking rejected", "session_id", state.SessionID, "reason", err.Error())
		if clearErr := o.sessions.ClearBookingState(ctx, state.SessionID); clearErr != nil {
			o.logger.Error(clearErr, "failed to clear booking state", "session_id", state.SessionID)
		}
		return o.reply(ctx, state.SessionID, invalidBookingReply(err)+replyRestartBooking), nil
	}
	if err != nil {
		o.logger.Error(err, "failed to book interview", "session_id", state.SessionID)
		return o.reply(ctx, state.SessionID, invalidBookingReply(err)), nil
	}

	if err := o.sessions.ClearBookingState(ctx, state.SessionID); err != nil {
		o.logger.Error(err, "failed to clear booking state", "session_id", state.SessionID, "interview_id", interview.ID)
	}

	o.logger.Info("interview booked", "session_id", state.SessionID, "interview_id", interview.ID)
	msg := fmt.Sprintf(replyBookedFmt, interview.Name, interview.Date.Format(booking.DateLayout), interview.Time)
	return o.reply(ctx, state.SessionID, msg), nil
}

func invalidBookingReply(err error) string {
	reason := err.Error()
	if errors.Is(err, booking.ErrInvalidInput) {
		reason = strings.TrimPrefix(reason, booking.ErrInvalidInput.Error()+": ")
	}
	return replyInvalidBooking + reason
}

// answer is the retrieval augmented chat path.
func (o *Orchestrator) answer(ctx context.Context, sessionID, query string) (string, error) {
	prompt, err := o.prompt.Format(map[string]any{
		"context": o.retrieveContext(ctx, query),
		"history": o.renderHistory(ctx, sessionID),
		"query":   query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to format prompt: %w", err)
	}

	response, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	o.appendHistory(ctx, sessionID, RoleUser, query)
	o.appendHistory(ctx, sessionID, RoleAssistant, response)

	return response, nil
}

// retrieveContext renders retrieval results, or the reason they are missing, as prompt text.
func (o *Orchestrator) retrieveContext(ctx context.Context, query string) string {
	if o.retriever == nil {
		return contextUnavailable
	}

	docs, err := o.retriever.Retrieve(ctx, query, o.topK)
	if err != nil {
		o.logger.Error(err, "failed to retrieve context")
		return contextErrorPrefix + err.Error()
	}
	if len(docs) == 0 {
		return contextEmpty
	}

	return joinDocuments(docs)
}

func joinDocuments(docs []schema.Document) string {
	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.PageContent)
	}
	return strings.Join(contents, "\n\n")
}

func (o *Orchestrator) renderHistory(ctx context.Context, sessionID string) string {
	entries, err := o.sessions.History(ctx, sessionID)
	if err != nil {
		o.logger.Error(err, "failed to load chat history", "session_id", sessionID)
		return historyUnavailable
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.String())
	}
	return strings.Join(lines, "\n")
}

// reply records an assistant message and returns it.
func (o *Orchestrator) reply(ctx context.Context, sessionID, msg string) string {
	o.appendHistory(ctx, sessionID, RoleAssistant, msg)
	return msg
}

func (o *Orchestrator) appendHistory(ctx context.Context, sessionID string, role Role, msg string) {
	if err := o.sessions.AppendHistory(ctx, sessionID, HistoryEntry{Role: role, Content: msg}); err != nil {
		o.logger.Error(err, "failed to append chat history", "session_id", sessionID, "role", role)
	}
}

// History returns the session's chat history.
func (o *Orchestrator) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	return o.sessions.History(ctx, sessionID)
}
