package redisctrl

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"interviewrag/src/core/agent"
	"interviewrag/src/infrastructure/log"
)

const bookingStatePrefix = "booking_state:"

const (
	fieldProgress = "progress"
	fieldName     = "name"
	fieldEmail    = "email"
	fieldDate     = "date"
	fieldTime     = "time"
)

// SessionStore keeps booking state in the hash booking_state:{session} and chat history
// in a list keyed by the bare session id.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// NewClient connects from a redis:// URL.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func bookingKey(sessionID string) string {
	return bookingStatePrefix + sessionID
}

func (s *SessionStore) GetBookingState(ctx context.Context, sessionID string) (*agent.BookingState, error) {
	fields, err := s.client.HGetAll(ctx, bookingKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read booking state: %w", err)
	}

	progress, err := agent.ParseProgress(fields[fieldProgress])
	if err != nil {
		log.Error(err, "ignoring booking state with unknown progress", "session_id", sessionID)
		return &agent.BookingState{SessionID: sessionID}, nil
	}

	return &agent.BookingState{
		SessionID: sessionID,
		Progress:  progress,
		Name:      fields[fieldName],
		Email:     fields[fieldEmail],
		Date:      fields[fieldDate],
		Time:      fields[fieldTime],
	}, nil
}

// StartBooking replaces whatever state the session had in a single MULTI/EXEC.
func (s *SessionStore) StartBooking(ctx context.Context, sessionID string) error {
	key := bookingKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fieldProgress, string(agent.ProgressAwaitingName))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to start booking: %w", err)
	}
	return nil
}

func (s *SessionStore) UpdateBookingState(ctx context.Context, state *agent.BookingState) error {
	values := make(map[string]interface{}, 5)
	if state.Progress != agent.ProgressNone {
		values[fieldProgress] = string(state.Progress)
	}
	for field, value := range map[string]string{
		fieldName:  state.Name,
		fieldEmail: state.Email,
		fieldDate:  state.Date,
		fieldTime:  state.Time,
	} {
		if value != "" {
			values[field] = value
		}
	}
	if len(values) == 0 {
		return nil
	}

	if err := s.client.HSet(ctx, bookingKey(state.SessionID), values).Err(); err != nil {
		return fmt.Errorf("failed to update booking state: %w", err)
	}
	return nil
}

func (s *SessionStore) ClearBookingState(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, bookingKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear booking state: %w", err)
	}
	return nil
}

func (s *SessionStore) AppendHistory(ctx context.Context, sessionID string, entry agent.HistoryEntry) error {
	if err := s.client.RPush(ctx, sessionID, entry.String()).Err(); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (s *SessionStore) History(ctx context.Context, sessionID string) ([]agent.HistoryEntry, error) {
	lines, err := s.client.LRange(ctx, sessionID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]agent.HistoryEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, agent.ParseHistoryEntry(line))
	}
	return entries, nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
