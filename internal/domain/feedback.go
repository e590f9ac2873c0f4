package domain

import (
	"context"
	"time"
)

// Feedback is a free-text message a user left about the app.
type Feedback struct {
	ID        int64
	UserID    int64
	ChatID    int64
	Message   string
	CreatedAt time.Time
}

// FeedbackRepo stores user feedback.
type FeedbackRepo interface {
	SaveFeedback(ctx context.Context, feedback Feedback) error
}
