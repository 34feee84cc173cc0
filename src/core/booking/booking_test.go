package booking_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"interviewrag/src/core/booking"
)

type fakeRepository struct {
	created []*booking.Interview
	err     error
}

func (r *fakeRepository) Create(ctx context.Context, interview *booking.Interview) error {
	if r.err != nil {
		return r.err
	}
	interview.ID = uint(len(r.created) + 1)
	r.created = append(r.created, interview)
	return nil
}

func TestServiceBook(t *testing.T) {
	repo := &fakeRepository{}
	svc := booking.NewService(repo)

	interview, err := svc.Book(context.Background(), "jane doe", "jane@example.com", "2025-03-10", "14:30")
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 row, got %d", len(repo.created))
	}
	if interview.Name != "jane doe" || interview.Email != "jane@example.com" {
		t.Errorf("unexpected interview: %+v", interview)
	}
	wantDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !interview.Date.Equal(wantDate) {
		t.Errorf("Date = %v, want %v", interview.Date, wantDate)
	}
	if interview.Time != (booking.TimeOfDay{Hour: 14, Minute: 30}) {
		t.Errorf("Time = %v, want 14:30", interview.Time)
	}
}

func TestServiceBookInvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		fullName   string
		email      string
		date       string
		time       string
		wantReason string
	}{
		{name: "bad email", fullName: "jane", email: "not-an-email", date: "2025-03-10", time: "14:30", wantReason: "email is not valid"},
		{name: "double dot domain", fullName: "jane", email: "jane@example..com", date: "2025-03-10", time: "14:30", wantReason: "email is not valid"},
		{name: "hyphen led domain", fullName: "jane", email: "jane@-example.com", date: "2025-03-10", time: "14:30", wantReason: "email is not valid"},
		{name: "missing name", email: "jane@example.com", date: "2025-03-10", time: "14:30", wantReason: "name is required"},
		{name: "bad date", fullName: "jane", email: "jane@example.com", date: "2025-13-40", time: "14:30", wantReason: `date "2025-13-40" is not valid`},
		{name: "bad time", fullName: "jane", email: "jane@example.com", date: "2025-03-10", time: "25:00", wantReason: `time "25:00" is not valid`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepository{}
			svc := booking.NewService(repo)

			_, err := svc.Book(context.Background(), tt.fullName, tt.email, tt.date, tt.time)
			if !errors.Is(err, booking.ErrInvalidInput) {
				t.Fatalf("Book() error = %v, want ErrInvalidInput", err)
			}
			if want := "invalid booking input: " + tt.wantReason; err.Error() != want {
				t.Errorf("Book() error = %q, want %q", err.Error(), want)
			}
			if strings.Contains(err.Error(), "Key: '") {
				t.Errorf("Book() error leaks validator output: %q", err.Error())
			}
			if len(repo.created) != 0 {
				t.Errorf("expected no rows, got %d", len(repo.created))
			}
		})
	}
}

func TestIsValidEmailAgreesWithBook(t *testing.T) {
	emails := []string{
		"jane@example.com",
		"j.doe-1@mail.co.uk",
		"jane@example..com",
		"jane@-example.com",
		"jane.@example.com",
		"jane@example",
		"jane+tag@example.com",
		"",
	}

	for _, email := range emails {
		t.Run(email, func(t *testing.T) {
			svc := booking.NewService(&fakeRepository{})
			_, err := svc.Book(context.Background(), "jane", email, "2025-03-10", "14:30")
			if got, want := booking.IsValidEmail(email), err == nil; got != want {
				t.Errorf("IsValidEmail(%q) = %v but Book() error = %v", email, got, err)
			}
		})
	}
}

func TestServiceBookRepositoryFailure(t *testing.T) {
	repo := &fakeRepository{err: errors.New("connection refused")}
	svc := booking.NewService(repo)

	_, err := svc.Book(context.Background(), "jane", "jane@example.com", "2025-03-10", "14:30")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, booking.ErrInvalidInput) {
		t.Errorf("repository failure should not be reported as invalid input: %v", err)
	}
}

func TestTimeOfDayScan(t *testing.T) {
	tests := []struct {
		name    string
		src     interface{}
		want    booking.TimeOfDay
		wantErr bool
	}{
		{name: "postgres text", src: "14:30:00", want: booking.TimeOfDay{Hour: 14, Minute: 30}},
		{name: "short text", src: []byte("09:05"), want: booking.TimeOfDay{Hour: 9, Minute: 5}},
		{name: "time value", src: time.Date(0, 1, 1, 23, 59, 0, 0, time.UTC), want: booking.TimeOfDay{Hour: 23, Minute: 59}},
		{name: "nil", src: nil, want: booking.TimeOfDay{}},
		{name: "garbage", src: "noon", wantErr: true},
		{name: "wrong type", src: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got booking.TimeOfDay
			err := got.Scan(tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Scan() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Scan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeOfDayValue(t *testing.T) {
	v, err := booking.TimeOfDay{Hour: 7, Minute: 3}.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if v != "07:03" {
		t.Errorf("Value() = %v, want 07:03", v)
	}
}
