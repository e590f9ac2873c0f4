package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup targets a row that does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidCredentials is returned by identity adapters on a failed
// sign-in. Callers learn nothing beyond success-or-failure.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken is returned when sign-up collides with an existing account.
var ErrEmailTaken = errors.New("email already registered")

// Calculator derives almanac values for a date. Implementations are pure:
// the same date and location always produce the same record.
type Calculator interface {
	Daily(date time.Time, loc Location) Panchang
	Month(year int, month time.Month) []CalendarDay
}

// PanchangRepo is the persistent day cache keyed by ISO date string and
// location label.
type PanchangRepo interface {
	GetByDate(dateKey, location string) (Panchang, error)
	Upsert(p Panchang) error
}

// UserRepo manages accounts and profiles.
type UserRepo interface {
	GetByID(id int64) (User, error)
	GetByEmail(email string) (User, error)
	UpsertByTelegram(profile TelegramProfile) (User, bool, error)
	GetByTelegram(chatID int64) (User, error)
	UpdateProfile(userID int64, update ProfileUpdate) (User, error)
	UpdateDailyTime(userID int64, daily *time.Time) error
	UpdateTimezone(userID int64, timezone string) error
	ListForDailyTime(now time.Time) ([]User, error)
	ReserveAsk(userID int64, now time.Time) (AskState, error)
	DeleteUserData(userID int64) error
}

// CredentialRepo stores password hashes for the self-hosted identity mode.
type CredentialRepo interface {
	CreateWithPassword(email, displayName, passwordHash string) (User, error)
	CredentialsByEmail(email string) (User, string, error)
}

// ChatRepo keeps the assistant dialog history.
type ChatRepo interface {
	SaveMessage(msg ChatMessage) error
	ListHistory(userID int64, limit int) ([]ChatMessage, error)
}

// InsightRepo persists generated daily texts.
type InsightRepo interface {
	SaveInsight(ins Insight) (Insight, error)
	GetInsight(dateKey, location, language string) (Insight, error)
}

// InsightComposer writes the daily guidance text for an almanac day.
type InsightComposer interface {
	ComposeDaily(ctx context.Context, p Panchang, language string) (string, error)
}

// AnswerComposer answers a free-form question against an almanac day and
// the asking user's profile.
type AnswerComposer interface {
	ComposeAnswer(ctx context.Context, p Panchang, profile User, question string) (string, error)
}

// Identity is the external auth boundary: sign-up, sign-in, sign-out and
// profile update, each reported as success or failure only.
type Identity interface {
	SignUp(ctx context.Context, email, password, displayName string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, token string) error
	Update(ctx context.Context, userID int64, update ProfileUpdate) error
}

// Locator resolves a place query to coordinates. Best effort: callers fall
// back to a default location on any error.
type Locator interface {
	Resolve(ctx context.Context, query string) (Location, error)
}

// Cache is a simple TTL byte store.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
