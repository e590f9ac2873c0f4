package domain

import (
	"context"
	"time"
)

// DeliveryCause records what triggered a daily delivery.
type DeliveryCause string

const (
	// DeliveryCauseManual means the user asked for today's almanac explicitly.
	DeliveryCauseManual DeliveryCause = "manual"
	// DeliveryCauseScheduled means the delivery fired on the user's daily time.
	DeliveryCauseScheduled DeliveryCause = "scheduled"
)

// DeliveryJob is one unit of daily-almanac delivery work.
type DeliveryJob struct {
	ID          string        `json:"job_id,omitempty"`
	UserID      int64         `json:"user_id"`
	ChatID      int64         `json:"chat_id"`
	Date        time.Time     `json:"date"`
	RequestedAt time.Time     `json:"requested_at"`
	Cause       DeliveryCause `json:"cause"`
}

// DeliveryAckFunc confirms processing or asks the queue to redeliver.
type DeliveryAckFunc func(success bool) error

// DeliveryQueue transports delivery jobs between scheduler and worker.
type DeliveryQueue interface {
	Enqueue(ctx context.Context, job DeliveryJob) error
	Receive(ctx context.Context) (DeliveryJob, DeliveryAckFunc, error)
}

// ScheduleTaskRepo makes the scheduler's enqueue idempotent per user and
// slot.
type ScheduleTaskRepo interface {
	// AcquireScheduleTask records the slot and reports true when this call
	// created it. A conflict returns false without error.
	AcquireScheduleTask(userID int64, scheduledFor time.Time) (bool, error)
}

// DeliveryStatusRepo tracks per-job attempts and final delivery.
type DeliveryStatusRepo interface {
	// EnsureDeliveryJob registers an attempt and reports whether the job was
	// already delivered plus the current attempt number.
	EnsureDeliveryJob(jobID string) (delivered bool, attempt int, err error)
	// MarkDeliveryJobDone marks the job as finally delivered.
	MarkDeliveryJobDone(jobID string) error
}
