package agent

import (
	"strings"
	"time"

	"interviewrag/src/core/booking"
)

// bookingTriggers start (or restart) a booking when found anywhere in the utterance.
var bookingTriggers = []string{"book interview", "schedule interview", "set interview"}

func hasBookingIntent(query string) bool {
	for _, trigger := range bookingTriggers {
		if strings.Contains(query, trigger) {
			return true
		}
	}
	return false
}

// IsValidEmail applies the rule the booking service enforces on save.
func IsValidEmail(email string) bool {
	return booking.IsValidEmail(email)
}

// IsValidDate checks for a real calendar date in YYYY-MM-DD form.
func IsValidDate(date string) bool {
	_, err := time.Parse(booking.DateLayout, date)
	return err == nil
}

// IsValidTime checks for a 24-hour HH:MM time.
func IsValidTime(t string) bool {
	_, err := booking.ParseTimeOfDay(t)
	return err == nil
}
