package interviewctrl

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"interviewrag/src/core/booking"
)

type InterviewService struct {
	db *gorm.DB
}

func NewInterviewService(db *gorm.DB) *InterviewService {
	return &InterviewService{
		db: db,
	}
}

// Create inserts the interview and fills in its generated id and created_at.
func (s *InterviewService) Create(ctx context.Context, interview *booking.Interview) error {
	result := s.db.WithContext(ctx).Create(interview)
	if result.Error != nil {
		return fmt.Errorf("failed to create interview: %w", result.Error)
	}
	return nil
}
