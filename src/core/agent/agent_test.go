package agent_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tmc/langchaingo/schema"

	"interviewrag/src/core/agent"
	"interviewrag/src/core/booking"
)

type memoryStore struct {
	states  map[string]agent.BookingState
	history map[string][]agent.HistoryEntry

	getErr     error
	historyErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		states:  map[string]agent.BookingState{},
		history: map[string][]agent.HistoryEntry{},
	}
}

func (s *memoryStore) GetBookingState(ctx context.Context, sessionID string) (*agent.BookingState, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	state, ok := s.states[sessionID]
	if !ok {
		return &agent.BookingState{SessionID: sessionID}, nil
	}
	return &state, nil
}

func (s *memoryStore) StartBooking(ctx context.Context, sessionID string) error {
	s.states[sessionID] = agent.BookingState{SessionID: sessionID, Progress: agent.ProgressAwaitingName}
	return nil
}

func (s *memoryStore) UpdateBookingState(ctx context.Context, update *agent.BookingState) error {
	state := s.states[update.SessionID]
	state.SessionID = update.SessionID
	if update.Progress != agent.ProgressNone {
		state.Progress = update.Progress
	}
	if update.Name != "" {
		state.Name = update.Name
	}
	if update.Email != "" {
		state.Email = update.Email
	}
	if update.Date != "" {
		state.Date = update.Date
	}
	if update.Time != "" {
		state.Time = update.Time
	}
	s.states[update.SessionID] = state
	return nil
}

func (s *memoryStore) ClearBookingState(ctx context.Context, sessionID string) error {
	delete(s.states, sessionID)
	return nil
}

func (s *memoryStore) AppendHistory(ctx context.Context, sessionID string, entry agent.HistoryEntry) error {
	s.history[sessionID] = append(s.history[sessionID], entry)
	return nil
}

func (s *memoryStore) History(ctx context.Context, sessionID string) ([]agent.HistoryEntry, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history[sessionID], nil
}

type fakeRetriever struct {
	docs    []schema.Document
	err     error
	calls   int
	lastTop int
}

func (r *fakeRetriever) Retrieve(ctx context.Context, query string, topK int) ([]schema.Document, error) {
	r.calls++
	r.lastTop = topK
	return r.docs, r.err
}

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.response, g.err
}

type bookCall struct {
	name, email, date, time string
}

type fakeBookings struct {
	calls []bookCall
	err   error
}

func (b *fakeBookings) Book(ctx context.Context, name, email, date, timeOfDay string) (*booking.Interview, error) {
	b.calls = append(b.calls, bookCall{name, email, date, timeOfDay})
	if b.err != nil {
		return nil, b.err
	}
	d, _ := time.Parse(booking.DateLayout, date)
	t, _ := booking.ParseTimeOfDay(timeOfDay)
	return &booking.Interview{ID: 1, Name: name, Email: email, Date: d, Time: t}, nil
}

type fixture struct {
	store     *memoryStore
	retriever *fakeRetriever
	generator *fakeGenerator
	bookings  *fakeBookings
	agent     *agent.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     newMemoryStore(),
		retriever: &fakeRetriever{docs: []schema.Document{{PageContent: "interviews last one hour"}}},
		generator: &fakeGenerator{response: "Interviews last one hour."},
		bookings:  &fakeBookings{},
	}
	o, err := agent.NewOrchestrator(f.store, f.retriever, f.generator, f.bookings)
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	f.agent = o
	return f
}

func (f *fixture) say(t *testing.T, sessionID, utterance string) string {
	t.Helper()
	reply, err := f.agent.Chat(context.Background(), sessionID, utterance)
	if err != nil {
		t.Fatalf("Chat(%q) error = %v", utterance, err)
	}
	return reply
}

func TestChatFullBooking(t *testing.T) {
	f := newFixture(t)
	const sid = "s1"

	steps := []struct {
		utterance string
		want      string
		progress  agent.Progress
	}{
		{"I want to book interview", "Sure! Let's book your interview. What's your full name?", agent.ProgressAwaitingName},
		{"Jane Doe", "Got it. Could you provide your email address?", agent.ProgressAwaitingEmail},
		{"jane@example.com", "Thanks! What date would you like for the interview? (Format: YYYY-MM-DD)", agent.ProgressAwaitingDate},
		{"2025-03-10", "Perfect. What time works best for you? (Format: HH:MM in 24-hour time)", agent.ProgressAwaitingTime},
	}
	for _, step := range steps {
		if got := f.say(t, sid, step.utterance); got != step.want {
			t.Fatalf("Chat(%q) = %q, want %q", step.utterance, got, step.want)
		}
		if got := f.store.states[sid].Progress; got != step.progress {
			t.Fatalf("after %q progress = %q, want %q", step.utterance, got, step.progress)
		}
	}

	reply := f.say(t, sid, "14:30")
	if want := "Interview booked successfully for jane doe on 2025-03-10 at 14:30."; reply != want {
		t.Errorf("final reply = %q, want %q", reply, want)
	}

	if len(f.bookings.calls) != 1 {
		t.Fatalf("expected 1 booking call, got %d", len(f.bookings.calls))
	}
	want := bookCall{name: "jane doe", email: "jane@example.com", date: "2025-03-10", time: "14:30"}
	if f.bookings.calls[0] != want {
		t.Errorf("booking call = %+v, want %+v", f.bookings.calls[0], want)
	}

	if _, ok := f.store.states[sid]; ok {
		t.Error("booking state should be cleared after a successful booking")
	}

	if f.retriever.calls != 0 || len(f.generator.prompts) != 0 {
		t.Errorf("booking turns must not reach the chat path: retriever=%d generator=%d",
			f.retriever.calls, len(f.generator.prompts))
	}

	// Only assistant replies are recorded while collecting.
	history := f.store.history[sid]
	if len(history) != 5 {
		t.Fatalf("expected 5 history entries, got %d", len(history))
	}
	for _, entry := range history {
		if entry.Role != agent.RoleAssistant {
			t.Errorf("unexpected %q entry during booking: %q", entry.Role, entry.Content)
		}
	}
}

func TestChatIntentRestartsBooking(t *testing.T) {
	f := newFixture(t)
	const sid = "s1"

	for _, u := range []string{"schedule interview", "Jane Doe", "jane@example.com"} {
		f.say(t, sid, u)
	}
	if got := f.store.states[sid].Progress; got != agent.ProgressAwaitingDate {
		t.Fatalf("progress = %q, want %q", got, agent.ProgressAwaitingDate)
	}

	reply := f.say(t, sid, "actually, set interview again please")
	if reply != "Sure! Let's book your interview. What's your full name?" {
		t.Errorf("restart reply = %q", reply)
	}

	state := f.store.states[sid]
	if state.Progress != agent.ProgressAwaitingName {
		t.Errorf("progress = %q, want %q", state.Progress, agent.ProgressAwaitingName)
	}
	if state.Name != "" || state.Email != "" {
		t.Errorf("restart should discard collected fields, got name=%q email=%q", state.Name, state.Email)
	}
}

func TestChatRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		setup     []string
		input     string
		wantReply string
		progress  agent.Progress
	}{
		{
			name:      "invalid email",
			setup:     []string{"book interview", "jane"},
			input:     "not-an-email",
			wantReply: "Hmm, that doesn't look like a valid email. Please provide a valid email address (e.g., john@example.com).",
			progress:  agent.ProgressAwaitingEmail,
		},
		{
			name:      "invalid date",
			setup:     []string{"book interview", "jane", "jane@example.com"},
			input:     "2025-13-40",
			wantReply: "That date doesn't look right. Please provide a valid date in YYYY-MM-DD format.",
			progress:  agent.ProgressAwaitingDate,
		},
		{
			name:      "invalid time",
			setup:     []string{"book interview", "jane", "jane@example.com", "2025-03-10"},
			input:     "2:30pm",
			wantReply: "Please provide a valid time in 24-hour format (e.g., 14:30).",
			progress:  agent.ProgressAwaitingTime,
		},
		{
			name:      "blank name",
			setup:     []string{"book interview"},
			input:     "   ",
			wantReply: "Please tell me your full name.",
			progress:  agent.ProgressAwaitingName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			const sid = "s1"
			for _, u := range tt.setup {
				f.say(t, sid, u)
			}
			before := f.store.states[sid]

			if got := f.say(t, sid, tt.input); got != tt.wantReply {
				t.Errorf("reply = %q, want %q", got, tt.wantReply)
			}

			after := f.store.states[sid]
			if after != before {
				t.Errorf("state changed on invalid input: before %+v, after %+v", before, after)
			}
			if after.Progress != tt.progress {
				t.Errorf("progress = %q, want %q", after.Progress, tt.progress)
			}
			if len(f.bookings.calls) != 0 {
				t.Errorf("unexpected booking calls: %+v", f.bookings.calls)
			}
		})
	}
}

func TestChatBookingFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	f.bookings.err = fmt.Errorf("failed to save booking: %w", errors.New("connection refused"))
	const sid = "s1"

	for _, u := range []string{"book interview", "jane", "jane@example.com", "2025-03-10"} {
		f.say(t, sid, u)
	}

	reply := f.say(t, sid, "14:30")
	if !strings.HasPrefix(reply, "Invalid booking input: ") {
		t.Errorf("reply = %q, want invalid booking message", reply)
	}

	state := f.store.states[sid]
	if state.Progress != agent.ProgressAwaitingTime || state.Name != "jane" || state.Date != "2025-03-10" {
		t.Errorf("collected state should survive a failed save, got %+v", state)
	}

	f.bookings.err = nil
	if reply := f.say(t, sid, "14:30"); !strings.HasPrefix(reply, "Interview booked successfully") {
		t.Errorf("retry reply = %q", reply)
	}
	if _, ok := f.store.states[sid]; ok {
		t.Error("state should be cleared after the retried booking")
	}
}

func TestChatInvalidBookingInputClearsState(t *testing.T) {
	f := newFixture(t)
	f.bookings.err = fmt.Errorf("%w: email is not valid", booking.ErrInvalidInput)
	const sid = "s1"

	for _, u := range []string{"book interview", "jane", "jane@example.com", "2025-03-10"} {
		f.say(t, sid, u)
	}

	want := `Invalid booking input: email is not valid. Say "book interview" to start again.`
	if got := f.say(t, sid, "14:30"); got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if state, ok := f.store.states[sid]; ok {
		t.Fatalf("rejected booking should clear state, got %+v", state)
	}

	// the next turn is ordinary chat, not another time prompt
	if got := f.say(t, sid, "14:30"); got != f.generator.response {
		t.Errorf("reply after rejection = %q, want chat answer", got)
	}
	if len(f.bookings.calls) != 1 {
		t.Errorf("Book called %d times, want 1", len(f.bookings.calls))
	}
}

type interviewRepo struct {
	created []*booking.Interview
}

func (r *interviewRepo) Create(ctx context.Context, interview *booking.Interview) error {
	interview.ID = uint(len(r.created) + 1)
	r.created = append(r.created, interview)
	return nil
}

func TestChatEmailRuleMatchesBookingService(t *testing.T) {
	tests := []struct {
		email  string
		booked bool
	}{
		{email: "jane@example.com", booked: true},
		{email: "j.doe-1@mail.co.uk", booked: true},
		{email: "jane@example..com"},
		{email: "jane@-example.com"},
		{email: "jane.@example.com"},
		{email: ".jane@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			repo := &interviewRepo{}
			store := newMemoryStore()
			o, err := agent.NewOrchestrator(store, &fakeRetriever{}, &fakeGenerator{}, booking.NewService(repo))
			if err != nil {
				t.Fatalf("NewOrchestrator() error = %v", err)
			}
			const sid = "s1"
			say := func(u string) string {
				reply, err := o.Chat(context.Background(), sid, u)
				if err != nil {
					t.Fatalf("Chat(%q) error = %v", u, err)
				}
				return reply
			}

			say("book interview")
			say("Jane Doe")
			reply := say(tt.email)

			if !tt.booked {
				if !strings.HasPrefix(reply, "Hmm, that doesn't look like a valid email.") {
					t.Errorf("reply = %q, want email re-prompt", reply)
				}
				if got := store.states[sid].Progress; got != agent.ProgressAwaitingEmail {
					t.Errorf("progress = %q, want %q", got, agent.ProgressAwaitingEmail)
				}
				return
			}

			say("2025-03-10")
			if reply := say("14:30"); !strings.HasPrefix(reply, "Interview booked successfully") {
				t.Fatalf("reply = %q, want booking confirmation", reply)
			}
			if len(repo.created) != 1 || repo.created[0].Email != tt.email {
				t.Errorf("created = %+v, want one row for %q", repo.created, tt.email)
			}
		})
	}
}

func TestChatFallback(t *testing.T) {
	f := newFixture(t)
	const sid = "s1"
	f.store.history[sid] = []agent.HistoryEntry{{Role: agent.RoleUser, Content: "hello"}}

	reply := f.say(t, sid, "How LONG are interviews?")
	if reply != "Interviews last one hour." {
		t.Errorf("reply = %q", reply)
	}

	if f.retriever.calls != 1 {
		t.Errorf("retriever calls = %d, want 1", f.retriever.calls)
	}
	if f.retriever.lastTop != agent.DefaultTopK {
		t.Errorf("topK = %d, want %d", f.retriever.lastTop, agent.DefaultTopK)
	}
	if len(f.generator.prompts) != 1 {
		t.Fatalf("generator calls = %d, want 1", len(f.generator.prompts))
	}

	prompt := f.generator.prompts[0]
	for _, want := range []string{"interviews last one hour", "User: hello", "User: how long are interviews?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	history := f.store.history[sid]
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	if history[1] != (agent.HistoryEntry{Role: agent.RoleUser, Content: "how long are interviews?"}) {
		t.Errorf("history[1] = %+v", history[1])
	}
	if history[2] != (agent.HistoryEntry{Role: agent.RoleAssistant, Content: "Interviews last one hour."}) {
		t.Errorf("history[2] = %+v", history[2])
	}
}

func TestChatFallbackDegradedContext(t *testing.T) {
	tests := []struct {
		name      string
		retriever agent.Retriever
		want      string
	}{
		{name: "no retriever", retriever: nil, want: "Vector store not available"},
		{name: "no results", retriever: &fakeRetriever{}, want: "No relevant context found."},
		{name: "retrieval error", retriever: &fakeRetriever{err: errors.New("weaviate down")}, want: "Error retrieving context: weaviate down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			gen := &fakeGenerator{response: "ok"}
			o, err := agent.NewOrchestrator(store, tt.retriever, gen, &fakeBookings{})
			if err != nil {
				t.Fatalf("NewOrchestrator() error = %v", err)
			}

			if _, err := o.Chat(context.Background(), "s1", "hi"); err != nil {
				t.Fatalf("Chat() error = %v", err)
			}
			if !strings.Contains(gen.prompts[0], tt.want) {
				t.Errorf("prompt missing %q:\n%s", tt.want, gen.prompts[0])
			}
		})
	}
}

func TestChatFallbackHistoryUnavailable(t *testing.T) {
	f := newFixture(t)
	f.store.historyErr = errors.New("redis down")

	if _, err := f.agent.Chat(context.Background(), "s1", "hi"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !strings.Contains(f.generator.prompts[0], "chat history not available") {
		t.Errorf("prompt should carry the history sentinel:\n%s", f.generator.prompts[0])
	}
}

func TestChatStateReadFailureFallsBackToChat(t *testing.T) {
	f := newFixture(t)
	f.store.getErr = errors.New("redis down")

	reply := f.say(t, "s1", "what is this?")
	if reply != f.generator.response {
		t.Errorf("reply = %q, want generated response", reply)
	}
}

func TestChatGenerationError(t *testing.T) {
	f := newFixture(t)
	f.generator.err = errors.New("model unavailable")

	if _, err := f.agent.Chat(context.Background(), "s1", "hi"); err == nil {
		t.Fatal("expected error")
	}
	if len(f.store.history["s1"]) != 0 {
		t.Errorf("failed turns must not be recorded, got %+v", f.store.history["s1"])
	}
}

func TestNewOrchestratorRequiresDependencies(t *testing.T) {
	if _, err := agent.NewOrchestrator(nil, nil, &fakeGenerator{}, &fakeBookings{}); err == nil {
		t.Error("expected error without session store")
	}
	if _, err := agent.NewOrchestrator(newMemoryStore(), nil, nil, &fakeBookings{}); err == nil {
		t.Error("expected error without generator")
	}
	if _, err := agent.NewOrchestrator(newMemoryStore(), nil, &fakeGenerator{}, nil); err == nil {
		t.Error("expected error without booking service")
	}
}

func TestWithTopK(t *testing.T) {
	retriever := &fakeRetriever{}
	o, err := agent.NewOrchestrator(newMemoryStore(), retriever, &fakeGenerator{}, &fakeBookings{}, agent.WithTopK(7))
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	if _, err := o.Chat(context.Background(), "s1", "hi"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if retriever.lastTop != 7 {
		t.Errorf("topK = %d, want 7", retriever.lastTop)
	}
}
