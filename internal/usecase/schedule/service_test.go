package schedule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"panchang-backend/internal/domain"
)

type stubUsers struct {
	users []domain.User
}

func (s *stubUsers) GetByID(int64) (domain.User, error)     { return domain.User{}, nil }
func (s *stubUsers) GetByEmail(string) (domain.User, error) { return domain.User{}, nil }
func (s *stubUsers) UpsertByTelegram(domain.TelegramProfile) (domain.User, bool, error) {
	return domain.User{}, false, nil
}
func (s *stubUsers) GetByTelegram(int64) (domain.User, error) { return domain.User{}, nil }
func (s *stubUsers) UpdateProfile(int64, domain.ProfileUpdate) (domain.User, error) {
	return domain.User{}, nil
}
func (s *stubUsers) UpdateDailyTime(int64, *time.Time) error { return nil }
func (s *stubUsers) UpdateTimezone(int64, string) error      { return nil }
func (s *stubUsers) ListForDailyTime(time.Time) ([]domain.User, error) {
	return append([]domain.User(nil), s.users...), nil
}
func (s *stubUsers) ReserveAsk(int64, time.Time) (domain.AskState, error) {
	return domain.AskState{}, nil
}
func (s *stubUsers) DeleteUserData(int64) error { return nil }

type stubTasks struct {
	acquired map[string]bool
	deny     bool
}

func newStubTasks() *stubTasks {
	return &stubTasks{acquired: map[string]bool{}}
}

func (s *stubTasks) AcquireScheduleTask(userID int64, scheduledFor time.Time) (bool, error) {
	if s.deny {
		return false, nil
	}
	key := fmt.Sprintf("%d|%s", userID, scheduledFor.Format(time.RFC3339))
	if s.acquired[key] {
		return false, nil
	}
	s.acquired[key] = true
	return true, nil
}

type recQueue struct {
	jobs []domain.DeliveryJob
	err  error
}

func (q *recQueue) Enqueue(_ context.Context, job domain.DeliveryJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recQueue) Receive(context.Context) (domain.DeliveryJob, domain.DeliveryAckFunc, error) {
	return domain.DeliveryJob{}, nil, errors.New("not implemented")
}

type recEvents struct {
	events []domain.BusinessEvent
}

func (r *recEvents) RecordEvent(_ context.Context, event domain.BusinessEvent) error {
	r.events = append(r.events, event)
	return nil
}

func userWithDailyTime(id, chatID int64, hhmm, timezone string) domain.User {
	daily, err := ParseDailyTime(hhmm)
	if err != nil {
		panic(err)
	}
	return domain.User{ID: id, Timezone: timezone, TelegramChatID: &chatID, DailyTime: &daily}
}

func TestRunTickQueuesDueUsers(t *testing.T) {
	// 03:00 UTC is 08:30 in IST.
	now := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)
	users := &stubUsers{users: []domain.User{
		userWithDailyTime(1, 100, "08:30", "Asia/Kolkata"),
		userWithDailyTime(2, 200, "09:00", "Asia/Kolkata"),
	}}
	queue := &recQueue{}
	events := &recEvents{}
	service := NewService(users, newStubTasks(), queue, events, zerolog.Nop())

	queued, err := service.RunTick(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 1 || len(queue.jobs) != 1 {
		t.Fatalf("expected exactly the due user queued, got %d", queued)
	}
	job := queue.jobs[0]
	if job.UserID != 1 || job.ChatID != 100 {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.Cause != domain.DeliveryCauseScheduled {
		t.Fatalf("expected a scheduled cause, got %q", job.Cause)
	}
	if job.Date.Format(domain.DateLayout) != "2024-03-10" {
		t.Fatalf("expected the IST calendar day, got %s", job.Date.Format(domain.DateLayout))
	}
	if job.ID == "" {
		t.Fatalf("expected a job id")
	}
	if len(events.events) != 1 || events.events[0].Event != domain.EventDeliveryScheduled {
		t.Fatalf("expected a delivery_scheduled event, got %+v", events.events)
	}
}

func TestRunTickIsIdempotentPerMinute(t *testing.T) {
	now := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)
	users := &stubUsers{users: []domain.User{userWithDailyTime(1, 100, "08:30", "Asia/Kolkata")}}
	queue := &recQueue{}
	service := NewService(users, newStubTasks(), queue, &recEvents{}, zerolog.Nop())

	if _, err := service.RunTick(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	queued, err := service.RunTick(context.Background(), now.Add(10*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 0 || len(queue.jobs) != 1 {
		t.Fatalf("expected the minute to be claimed once, got %d jobs", len(queue.jobs))
	}
}

func TestRunTickSkipsIncompleteProfiles(t *testing.T) {
	now := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)
	daily, _ := ParseDailyTime("08:30")
	chatID := int64(100)
	users := &stubUsers{users: []domain.User{
		// No chat linked and no daily time, respectively.
		{ID: 1, Timezone: "Asia/Kolkata", DailyTime: &daily},
		{ID: 2, Timezone: "Asia/Kolkata", TelegramChatID: &chatID},
	}}
	queue := &recQueue{}
	service := NewService(users, newStubTasks(), queue, &recEvents{}, zerolog.Nop())

	queued, err := service.RunTick(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 0 || len(queue.jobs) != 0 {
		t.Fatalf("expected incomplete profiles skipped, got %d jobs", len(queue.jobs))
	}
}

func TestEnqueueNow(t *testing.T) {
	queue := &recQueue{}
	events := &recEvents{}
	service := NewService(&stubUsers{}, newStubTasks(), queue, events, zerolog.Nop())

	chatID := int64(500)
	user := domain.User{ID: 9, Timezone: "Asia/Kolkata", TelegramChatID: &chatID}
	if err := service.EnqueueNow(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queue.jobs) != 1 || queue.jobs[0].Cause != domain.DeliveryCauseManual {
		t.Fatalf("expected one manual job, got %+v", queue.jobs)
	}
	if len(events.events) != 1 || events.events[0].Event != domain.EventDeliveryRequested {
		t.Fatalf("expected a delivery_requested event")
	}

	if err := service.EnqueueNow(context.Background(), domain.User{ID: 10}); !errors.Is(err, ErrNoChatLinked) {
		t.Fatalf("expected ErrNoChatLinked, got %v", err)
	}
}

func TestNormalizeTimezone(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Asia/Kolkata", "Asia/Kolkata", false},
		{"asia/kolkata", "Asia/Kolkata", false},
		{"america/new_york", "America/New_York", false},
		{"europe/moscow", "Europe/Moscow", false},
		{"Mars/Olympus", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeTimezone(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidTimezone) {
				t.Fatalf("%q: expected ErrInvalidTimezone, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestParseDailyTime(t *testing.T) {
	tm, err := ParseDailyTime(" 21:30 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tm.Format("15:04") != "21:30" {
		t.Fatalf("unexpected time %s", tm.Format("15:04"))
	}
	if _, err := ParseDailyTime("25:99"); err == nil {
		t.Fatalf("expected error for impossible time")
	}
}
