package panchang

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"panchang-backend/internal/domain"
	"panchang-backend/internal/infra/metrics"
)

// ErrInvalidMonth is returned for month requests outside the calendar.
var ErrInvalidMonth = errors.New("invalid month request")

// Insight text served when the composer is unavailable.
const fallbackInsightText = "The almanac for this day is ready, but the detailed guidance is taking a moment. The classical advice always holds: begin important work in Abhijit Muhurat, keep quiet practice for Brahma Muhurta and let Rahu Kaal pass before new undertakings."

// Service answers almanac queries through a date-keyed cache: a day is
// computed once, stored, and every later read for the same date and
// location returns the stored record.
type Service struct {
	repo       domain.PanchangRepo
	calc       domain.Calculator
	insights   domain.InsightRepo
	composer   domain.InsightComposer
	cache      domain.Cache
	events     domain.EventRepo
	log        zerolog.Logger
	defaultLoc domain.Location
	language   string
	insightTTL time.Duration
	model      string
}

// NewService creates the almanac service.
func NewService(repo domain.PanchangRepo, calc domain.Calculator, insights domain.InsightRepo, composer domain.InsightComposer, cache domain.Cache, events domain.EventRepo, log zerolog.Logger, defaultLoc domain.Location, language string, insightTTL time.Duration, model string) *Service {
	if language == "" {
		language = "en"
	}
	if insightTTL <= 0 {
		insightTTL = 24 * time.Hour
	}
	if model == "" {
		model = "template"
	}
	return &Service{
		repo:       repo,
		calc:       calc,
		insights:   insights,
		composer:   composer,
		cache:      cache,
		events:     events,
		log:        log,
		defaultLoc: defaultLoc,
		language:   language,
		insightTTL: insightTTL,
		model:      model,
	}
}

// DefaultLocation returns the location used when a profile has none.
func (s *Service) DefaultLocation() domain.Location {
	return s.defaultLoc
}

// ForDate returns the almanac for one date, generating and storing it on
// first request. Storage trouble never blocks the answer: the day is
// recomputed and returned even when the cache cannot be read or written.
func (s *Service) ForDate(ctx context.Context, date time.Time, loc domain.Location) (domain.Panchang, error) {
	loc = s.locationOrDefault(loc)
	dateKey := date.Format(domain.DateLayout)

	cached, err := s.repo.GetByDate(dateKey, loc.Label)
	if err == nil {
		metrics.PanchangCacheHits.Inc()
		return cached, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.log.Warn().Err(err).Str("date", dateKey).Msg("panchang: cache read failed, regenerating")
	}
	metrics.PanchangCacheMisses.Inc()

	generated := s.calc.Daily(date, loc)
	generated.GeneratedAt = time.Now().UTC()
	if err := s.repo.Upsert(generated); err != nil {
		s.log.Warn().Err(err).Str("date", dateKey).Msg("panchang: cache write failed")
	} else {
		s.recordEvent(ctx, domain.BusinessEvent{
			Event:    domain.EventPanchangGenerated,
			Metadata: map[string]any{"date": dateKey, "location": loc.Label},
		})
	}
	return generated, nil
}

// MonthOverview returns the calendar rows for one month.
func (s *Service) MonthOverview(year int, month time.Month) ([]domain.CalendarDay, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", ErrInvalidMonth, month)
	}
	if year < 1900 || year > 2100 {
		return nil, fmt.Errorf("%w: year %d", ErrInvalidMonth, year)
	}
	return s.calc.Month(year, month), nil
}

// DailyInsight returns the guidance text for an almanac day. The result is
// cached by date, location and language. Composer failures degrade to a
// fixed fallback text instead of an error.
func (s *Service) DailyInsight(ctx context.Context, p domain.Panchang, language string) domain.Insight {
	if language == "" {
		language = s.language
	}
	key := insightCacheKey(p.DateKey(), p.Location, language)

	if raw, err := s.cache.Get(key); err == nil {
		var cached domain.Insight
		if err := json.Unmarshal(raw, &cached); err == nil && cached.Text != "" {
			return cached
		}
	}

	if stored, err := s.insights.GetInsight(p.DateKey(), p.Location, language); err == nil {
		s.cacheInsight(key, stored)
		return stored
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.log.Warn().Err(err).Str("date", p.DateKey()).Msg("insight: lookup failed")
	}

	text, err := s.composer.ComposeDaily(ctx, p, language)
	if err != nil {
		s.log.Warn().Err(err).Str("date", p.DateKey()).Msg("insight: compose failed, serving fallback")
		metrics.InsightFallbacks.Inc()
		return domain.Insight{
			ID:        uuid.NewString(),
			Date:      p.Date,
			Location:  p.Location,
			Language:  language,
			Text:      fallbackInsightText,
			Model:     "fallback",
			CreatedAt: time.Now().UTC(),
		}
	}

	ins := domain.Insight{
		ID:        uuid.NewString(),
		Date:      p.Date,
		Location:  p.Location,
		Language:  language,
		Text:      text,
		Model:     s.model,
		CreatedAt: time.Now().UTC(),
	}
	saved, err := s.insights.SaveInsight(ins)
	if err != nil {
		s.log.Warn().Err(err).Str("date", p.DateKey()).Msg("insight: save failed")
		saved = ins
	}
	s.cacheInsight(key, saved)
	s.recordEvent(ctx, domain.BusinessEvent{
		Event:    domain.EventInsightGenerated,
		Metadata: map[string]any{"date": p.DateKey(), "location": p.Location, "language": language, "model": saved.Model},
	})
	return saved
}

func (s *Service) locationOrDefault(loc domain.Location) domain.Location {
	if loc.Label == "" {
		return s.defaultLoc
	}
	return loc
}

func (s *Service) cacheInsight(key string, ins domain.Insight) {
	raw, err := json.Marshal(ins)
	if err != nil {
		return
	}
	if err := s.cache.Set(key, raw, s.insightTTL); err != nil {
		s.log.Debug().Err(err).Msg("insight: cache write failed")
	}
}

func (s *Service) recordEvent(ctx context.Context, event domain.BusinessEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.RecordEvent(ctx, event); err != nil {
		s.log.Debug().Err(err).Str("event", event.Event).Msg("panchang: event write failed")
	}
}

func insightCacheKey(dateKey, location, language string) string {
	return fmt.Sprintf("insight:%s|%s|%s", dateKey, location, language)
}
