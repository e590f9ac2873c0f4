package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"panchang-backend/internal/domain"
)

// ErrInvalidTimezone is returned when the timezone cannot be resolved.
var ErrInvalidTimezone = errors.New("invalid timezone")

// ErrNoChatLinked is returned when delivery is requested for a profile
// without a Telegram chat.
var ErrNoChatLinked = errors.New("no telegram chat linked")

// Service owns daily delivery scheduling: per-user delivery times,
// timezones, and the minute tick that turns due times into queued jobs.
type Service struct {
	users  domain.UserRepo
	tasks  domain.ScheduleTaskRepo
	jobs   domain.DeliveryQueue
	events domain.EventRepo
	log    zerolog.Logger
}

// NewService creates the schedule service.
func NewService(users domain.UserRepo, tasks domain.ScheduleTaskRepo, jobs domain.DeliveryQueue, events domain.EventRepo, log zerolog.Logger) *Service {
	return &Service{users: users, tasks: tasks, jobs: jobs, events: events, log: log}
}

// UpdateDailyTime sets the user's delivery time. A nil value disables the
// daily delivery.
func (s *Service) UpdateDailyTime(ctx context.Context, userID int64, local *time.Time) error {
	if err := s.users.UpdateDailyTime(userID, local); err != nil {
		return fmt.Errorf("update daily time: %w", err)
	}
	return nil
}

// UpdateTimezone validates and saves the user's timezone.
func (s *Service) UpdateTimezone(ctx context.Context, userID int64, timezone string) error {
	normalized, err := NormalizeTimezone(timezone)
	if err != nil {
		return err
	}
	if err := s.users.UpdateTimezone(userID, normalized); err != nil {
		return fmt.Errorf("update timezone: %w", err)
	}
	return nil
}

// EnqueueNow queues a manual delivery for the user's current almanac day.
func (s *Service) EnqueueNow(ctx context.Context, user domain.User) error {
	if user.TelegramChatID == nil {
		return ErrNoChatLinked
	}
	now := time.Now().UTC()
	job := domain.DeliveryJob{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		ChatID:      *user.TelegramChatID,
		Date:        domain.LocalDay(now, user.Timezone),
		RequestedAt: now,
		Cause:       domain.DeliveryCauseManual,
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue delivery: %w", err)
	}
	s.recordEvent(ctx, domain.BusinessEvent{
		Event:    domain.EventDeliveryRequested,
		UserID:   &user.ID,
		Metadata: map[string]any{"job_id": job.ID},
	})
	return nil
}

// RunTick scans profiles whose local delivery time matches the given
// minute and queues one job per user. The schedule task table keeps
// concurrent scheduler instances from double-queueing the same minute.
func (s *Service) RunTick(ctx context.Context, now time.Time) (int, error) {
	users, err := s.users.ListForDailyTime(now)
	if err != nil {
		return 0, fmt.Errorf("list profiles: %w", err)
	}

	scheduledFor := now.UTC().Truncate(time.Minute)
	queued := 0
	for _, user := range users {
		if user.DailyTime == nil || user.TelegramChatID == nil {
			continue
		}
		if !dueNow(now, *user.DailyTime, user.Timezone) {
			continue
		}
		acquired, err := s.tasks.AcquireScheduleTask(user.ID, scheduledFor)
		if err != nil {
			s.log.Error().Err(err).Int64("user_id", user.ID).Msg("schedule: task acquire failed")
			continue
		}
		if !acquired {
			continue
		}
		job := domain.DeliveryJob{
			ID:          uuid.NewString(),
			UserID:      user.ID,
			ChatID:      *user.TelegramChatID,
			Date:        domain.LocalDay(now, user.Timezone),
			RequestedAt: now.UTC(),
			Cause:       domain.DeliveryCauseScheduled,
		}
		if err := s.jobs.Enqueue(ctx, job); err != nil {
			s.log.Error().Err(err).Int64("user_id", user.ID).Msg("schedule: enqueue failed")
			continue
		}
		s.recordEvent(ctx, domain.BusinessEvent{
			Event:    domain.EventDeliveryScheduled,
			UserID:   &user.ID,
			Metadata: map[string]any{"job_id": job.ID, "scheduled_for": scheduledFor.Format(time.RFC3339)},
		})
		queued++
	}
	return queued, nil
}

// ParseDailyTime parses an HH:MM delivery time.
func ParseDailyTime(input string) (time.Time, error) {
	return time.Parse("15:04", strings.TrimSpace(input))
}

// NormalizeTimezone fixes the casing of an IANA zone name and verifies it
// loads.
func NormalizeTimezone(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", ErrInvalidTimezone
	}
	candidate = strings.ReplaceAll(candidate, " ", "_")
	if _, err := time.LoadLocation(candidate); err == nil {
		return candidate, nil
	}

	parts := strings.Split(strings.ToLower(candidate), "/")
	for i, part := range parts {
		segments := strings.Split(part, "_")
		for j, segment := range segments {
			if segment == "" {
				continue
			}
			segments[j] = strings.ToUpper(segment[:1]) + segment[1:]
		}
		parts[i] = strings.Join(segments, "_")
	}
	normalized := strings.Join(parts, "/")
	if _, err := time.LoadLocation(normalized); err == nil {
		return normalized, nil
	}
	return "", ErrInvalidTimezone
}

func dueNow(now time.Time, daily time.Time, timezone string) bool {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	return now.In(loc).Format("15:04") == daily.Format("15:04")
}

func (s *Service) recordEvent(ctx context.Context, event domain.BusinessEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.RecordEvent(ctx, event); err != nil {
		s.log.Debug().Err(err).Str("event", event.Event).Msg("schedule: event write failed")
	}
}
