package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"panchang-backend/internal/domain"
	"panchang-backend/internal/infra/metrics"
)

// ErrQuotaExceeded is returned when the user's plan allows no more
// questions today.
var ErrQuotaExceeded = errors.New("ask quota exceeded")

// ErrEmptyQuestion is returned for blank input.
var ErrEmptyQuestion = errors.New("empty question")

// Answer text served when the composer is unavailable.
const fallbackAnswerText = "I could not consult the detailed reading just now. As a general rule the almanac favors starting things in Abhijit Muhurat and waiting out Rahu Kaal; please ask again in a little while."

const defaultHistoryLimit = 50

// Answer is one assistant reply together with the remaining quota.
type Answer struct {
	Text  string
	State domain.AskState
}

// almanacSource provides the day a question is asked about.
// *panchang.Service satisfies it.
type almanacSource interface {
	ForDate(ctx context.Context, date time.Time, loc domain.Location) (domain.Panchang, error)
}

// Service answers free-form questions against the almanac, enforcing the
// per-plan ask quota and keeping the dialog history.
type Service struct {
	users    domain.UserRepo
	chat     domain.ChatRepo
	composer domain.AnswerComposer
	almanac  almanacSource
	events   domain.EventRepo
	log      zerolog.Logger
}

// NewService creates the assistant service.
func NewService(users domain.UserRepo, chat domain.ChatRepo, composer domain.AnswerComposer, almanac almanacSource, events domain.EventRepo, log zerolog.Logger) *Service {
	return &Service{users: users, chat: chat, composer: composer, almanac: almanac, events: events, log: log}
}

// Ask reserves one question from the user's quota and answers it against
// the almanac for the given date. Composer failures degrade to a fixed
// fallback text; quota exhaustion is reported as ErrQuotaExceeded with the
// state attached so callers can explain the limit.
func (s *Service) Ask(ctx context.Context, userID int64, date time.Time, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return Answer{}, fmt.Errorf("load user: %w", err)
	}

	state, err := s.users.ReserveAsk(user.ID, time.Now().UTC())
	if err != nil {
		return Answer{}, fmt.Errorf("reserve ask: %w", err)
	}
	if !state.Allowed {
		return Answer{State: state}, ErrQuotaExceeded
	}
	metrics.IncAskOverall()
	metrics.IncAskForUser(user.ID)

	day, err := s.almanac.ForDate(ctx, date, user.Location)
	if err != nil {
		return Answer{State: state}, fmt.Errorf("load almanac day: %w", err)
	}

	text, err := s.composer.ComposeAnswer(ctx, day, user, question)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("assistant: compose failed, serving fallback")
		metrics.AnswerFallbacks.Inc()
		text = fallbackAnswerText
	}

	s.saveMessage(user.ID, domain.ChatRoleUser, question, day.Date)
	s.saveMessage(user.ID, domain.ChatRoleAssistant, text, day.Date)

	if s.events != nil {
		event := domain.BusinessEvent{
			Event:    domain.EventQuestionAsked,
			UserID:   &user.ID,
			Metadata: map[string]any{"date": day.DateKey(), "remaining_today": state.RemainingToday()},
		}
		if err := s.events.RecordEvent(ctx, event); err != nil {
			s.log.Debug().Err(err).Msg("assistant: event write failed")
		}
	}

	return Answer{Text: text, State: state}, nil
}

// History returns the dialog in chronological order.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultHistoryLimit
	}
	messages, err := s.chat.ListHistory(userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *Service) saveMessage(userID int64, role, text string, date time.Time) {
	msg := domain.ChatMessage{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
		Text:   text,
		Date:   date,
	}
	if err := s.chat.SaveMessage(msg); err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("assistant: history write failed")
	}
}
