package domain

import (
	"context"
	"time"
)

// BusinessEvent is a product event stored for later analysis.
type BusinessEvent struct {
	Event      string
	UserID     *int64
	Metadata   map[string]any
	OccurredAt time.Time
}

const (
	// EventUserRegistered marks a new user registration.
	EventUserRegistered = "user_registered"
	// EventPanchangGenerated marks a fresh panchang computed and cached.
	EventPanchangGenerated = "panchang_generated"
	// EventInsightGenerated marks a daily insight composed.
	EventInsightGenerated = "insight_generated"
	// EventQuestionAsked marks an assistant question answered.
	EventQuestionAsked = "question_asked"
	// EventDeliveryRequested marks a manual delivery put on the queue.
	EventDeliveryRequested = "delivery_requested"
	// EventDeliveryScheduled marks a scheduled delivery put on the queue.
	EventDeliveryScheduled = "delivery_scheduled"
	// EventDeliverySent marks a daily message delivered to the user.
	EventDeliverySent = "delivery_sent"
)

// EventRepo stores business events.
type EventRepo interface {
	RecordEvent(ctx context.Context, event BusinessEvent) error
}
