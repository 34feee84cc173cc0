package booking

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrInvalidInput = errors.New("invalid booking input")
)

// emailShape narrows the validator's email rule to local@domain.tld.
var emailShape = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("email_shape", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// IsValidEmail reports whether Book would accept the address.
func IsValidEmail(email string) bool {
	return validate.StructPartial(&Request{Email: email}, "Email") == nil
}

// Interview is a persisted interview booking.
type Interview struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Date      time.Time `gorm:"type:date;not null" json:"date"`
	Time      TimeOfDay `gorm:"type:time;not null" json:"time"`
	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;autoCreateTime:false" json:"created_at"`
}

func (Interview) TableName() string {
	return "interviews"
}

// Repository persists interviews. Create must insert exactly one row or nothing.
type Repository interface {
	Create(ctx context.Context, interview *Interview) error
}

// Request is a booking assembled from the raw collected fields.
type Request struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email_shape,email"`
	Date  time.Time
	Time  TimeOfDay
}

// NewRequest parses the raw date and time strings into a Request.
func NewRequest(name, email, date, timeOfDay string) (*Request, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q is not valid", ErrInvalidInput, date)
	}
	t, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("%w: time %q is not valid", ErrInvalidInput, timeOfDay)
	}

	return &Request{
		Name:  name,
		Email: email,
		Date:  d,
		Time:  t,
	}, nil
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Book validates the collected fields and stores a new interview.
func (s *Service) Book(ctx context.Context, name, email, date, timeOfDay string) (*Interview, error) {
	req, err := NewRequest(name, email, date, timeOfDay)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validationReason(err))
	}

	interview := &Interview{
		Name:  req.Name,
		Email: req.Email,
		Date:  req.Date,
		Time:  req.Time,
	}
	if err := s.repo.Create(ctx, interview); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	return interview, nil
}

// validationReason turns validator output into one short clause per failing field.
func validationReason(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		if fe.Tag() == "required" {
			reasons = append(reasons, field+" is required")
			continue
		}
		reasons = append(reasons, field+" is not valid")
	}
	return strings.Join(reasons, "; ")
}

// TimeOfDay is a wall clock time without a date, stored in a postgres time column.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return TimeOfDay{}, err
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = TimeOfDay{}
		return nil
	case time.Time:
		*t = TimeOfDay{Hour: v.Hour(), Minute: v.Minute()}
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

func (t *TimeOfDay) scanString(s string) error {
	for _, layout := range []string{"15:04:05", TimeLayout} {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}
			return nil
		}
	}
	return fmt.Errorf("invalid time of day %q", s)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	return t.scanString(string(b))
}
