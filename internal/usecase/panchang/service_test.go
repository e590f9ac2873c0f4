package panchang

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"panchang-backend/internal/adapters/almanac"
	"panchang-backend/internal/domain"
)

type stubStore struct {
	records   map[string]domain.Panchang
	getErr    error
	upsertErr error
	upserts   int
}

func newStubStore() *stubStore {
	return &stubStore{records: map[string]domain.Panchang{}}
}

func (s *stubStore) GetByDate(dateKey, location string) (domain.Panchang, error) {
	if s.getErr != nil {
		return domain.Panchang{}, s.getErr
	}
	p, ok := s.records[dateKey+"|"+location]
	if !ok {
		return domain.Panchang{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *stubStore) Upsert(p domain.Panchang) error {
	s.upserts++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.records[p.DateKey()+"|"+p.Location] = p
	return nil
}

type stubInsights struct {
	records map[string]domain.Insight
	saves   int
}

func newStubInsights() *stubInsights {
	return &stubInsights{records: map[string]domain.Insight{}}
}

func (s *stubInsights) SaveInsight(ins domain.Insight) (domain.Insight, error) {
	s.saves++
	s.records[ins.Date.Format(domain.DateLayout)+"|"+ins.Location+"|"+ins.Language] = ins
	return ins, nil
}

func (s *stubInsights) GetInsight(dateKey, location, language string) (domain.Insight, error) {
	ins, ok := s.records[dateKey+"|"+location+"|"+language]
	if !ok {
		return domain.Insight{}, domain.ErrNotFound
	}
	return ins, nil
}

type stubComposer struct {
	text  string
	err   error
	calls int
}

func (s *stubComposer) ComposeDaily(context.Context, domain.Panchang, string) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubCache struct {
	values map[string][]byte
}

func newStubCache() *stubCache {
	return &stubCache{values: map[string][]byte{}}
}

func (s *stubCache) Once(key string, ttl time.Duration, fn func() error) error { return fn() }

func (s *stubCache) Set(key string, value []byte, ttl time.Duration) error {
	s.values[key] = value
	return nil
}

func (s *stubCache) Get(key string) ([]byte, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

type stubEvents struct {
	events []domain.BusinessEvent
}

func (s *stubEvents) RecordEvent(_ context.Context, event domain.BusinessEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newTestService(store *stubStore, insights *stubInsights, composer *stubComposer, cache *stubCache, events *stubEvents) *Service {
	delhi := domain.Location{Label: "New Delhi", Latitude: 28.6139, Longitude: 77.2090}
	return NewService(store, almanac.New(), insights, composer, cache, events, zerolog.Nop(), delhi, "en", time.Hour, "test-model")
}

func TestForDateGeneratesThenServesStored(t *testing.T) {
	store := newStubStore()
	service := newTestService(store, newStubInsights(), &stubComposer{text: "ok"}, newStubCache(), &stubEvents{})

	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	loc := domain.Location{Label: "Mumbai", Latitude: 19.07, Longitude: 72.88}

	first, err := service.ForDate(context.Background(), date, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.DateKey() != "2024-03-10" {
		t.Fatalf("expected the generated day to carry the requested date, got %s", first.DateKey())
	}
	if first.GeneratedAt.IsZero() {
		t.Fatalf("expected a generation timestamp")
	}
	if store.upserts != 1 {
		t.Fatalf("expected the day to be stored once, got %d", store.upserts)
	}

	second, err := service.ForDate(context.Background(), date, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.GeneratedAt.Equal(first.GeneratedAt) {
		t.Fatalf("expected the stored record back, not a regeneration")
	}
	if store.upserts != 1 {
		t.Fatalf("expected no second write, got %d", store.upserts)
	}
}

func TestForDateSurvivesStoreFailures(t *testing.T) {
	store := newStubStore()
	store.getErr = errors.New("connection refused")
	store.upsertErr = errors.New("connection refused")
	service := newTestService(store, newStubInsights(), &stubComposer{text: "ok"}, newStubCache(), &stubEvents{})

	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	p, err := service.ForDate(context.Background(), date, domain.Location{Label: "Pune"})
	if err != nil {
		t.Fatalf("expected the day despite store failures, got %v", err)
	}
	if p.DateKey() != "2024-05-01" || p.Tithi == "" {
		t.Fatalf("expected a usable generated day, got %+v", p)
	}
}

func TestForDateUsesDefaultLocation(t *testing.T) {
	store := newStubStore()
	service := newTestService(store, newStubInsights(), &stubComposer{text: "ok"}, newStubCache(), &stubEvents{})

	p, err := service.ForDate(context.Background(), time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), domain.Location{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Location != "New Delhi" {
		t.Fatalf("expected the default location, got %q", p.Location)
	}
}

func TestMonthOverview(t *testing.T) {
	service := newTestService(newStubStore(), newStubInsights(), &stubComposer{text: "ok"}, newStubCache(), &stubEvents{})

	cases := []struct {
		year  int
		month time.Month
		days  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2024, time.April, 30},
		{2024, time.January, 31},
	}
	for _, tc := range cases {
		days, err := service.MonthOverview(tc.year, tc.month)
		if err != nil {
			t.Fatalf("%d-%d: unexpected error: %v", tc.year, tc.month, err)
		}
		if len(days) != tc.days {
			t.Fatalf("%d-%d: expected %d days, got %d", tc.year, tc.month, tc.days, len(days))
		}
		for _, day := range days {
			if day.Tithi == "" {
				t.Fatalf("expected a tithi for %s", day.Date.Format(domain.DateLayout))
			}
			if day.Festival != (day.Date.Day()%10 == 0) {
				t.Fatalf("unexpected festival flag on day %d", day.Date.Day())
			}
			if day.Festival && day.Label == "" {
				t.Fatalf("expected a festival name on day %d", day.Date.Day())
			}
		}
	}
}

func TestMonthOverviewRejectsBadInput(t *testing.T) {
	service := newTestService(newStubStore(), newStubInsights(), &stubComposer{text: "ok"}, newStubCache(), &stubEvents{})

	if _, err := service.MonthOverview(2024, time.Month(13)); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth for month 13, got %v", err)
	}
	if _, err := service.MonthOverview(1500, time.March); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth for year 1500, got %v", err)
	}
}

func TestDailyInsightComposesOnce(t *testing.T) {
	composer := &stubComposer{text: "A fine day for beginnings."}
	insights := newStubInsights()
	events := &stubEvents{}
	service := newTestService(newStubStore(), insights, composer, newStubCache(), events)

	day := almanac.New().Daily(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), domain.Location{Label: "New Delhi"})

	first := service.DailyInsight(context.Background(), day, "")
	if first.Text != "A fine day for beginnings." {
		t.Fatalf("unexpected insight text %q", first.Text)
	}
	if first.Model != "test-model" || first.Language != "en" {
		t.Fatalf("unexpected insight metadata %+v", first)
	}
	if insights.saves != 1 {
		t.Fatalf("expected the insight to be stored, got %d saves", insights.saves)
	}

	second := service.DailyInsight(context.Background(), day, "en")
	if composer.calls != 1 {
		t.Fatalf("expected a single composition, got %d", composer.calls)
	}
	if second.Text != first.Text {
		t.Fatalf("expected the cached text back")
	}

	var seen bool
	for _, event := range events.events {
		if event.Event == domain.EventInsightGenerated {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("expected an insight_generated event")
	}
}

func TestDailyInsightFallback(t *testing.T) {
	composer := &stubComposer{err: errors.New("llm down")}
	insights := newStubInsights()
	service := newTestService(newStubStore(), insights, composer, newStubCache(), &stubEvents{})

	day := almanac.New().Daily(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), domain.Location{Label: "New Delhi"})

	ins := service.DailyInsight(context.Background(), day, "en")
	if ins.Model != "fallback" || ins.Text != fallbackInsightText {
		t.Fatalf("expected the canned fallback, got %+v", ins)
	}
	if insights.saves != 0 {
		t.Fatalf("fallback must not be persisted, got %d saves", insights.saves)
	}

	// The next request tries the composer again instead of reusing the fallback.
	service.DailyInsight(context.Background(), day, "en")
	if composer.calls != 2 {
		t.Fatalf("expected a fresh attempt per request, got %d", composer.calls)
	}
}

func TestDailyInsightPrefersStored(t *testing.T) {
	composer := &stubComposer{text: "fresh"}
	insights := newStubInsights()
	stored := domain.Insight{
		ID:       "ins-1",
		Date:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Location: "New Delhi",
		Language: "en",
		Text:     "already written",
		Model:    "gpt-4o-mini",
	}
	if _, err := insights.SaveInsight(stored); err != nil {
		t.Fatalf("seed: %v", err)
	}
	insights.saves = 0
	service := newTestService(newStubStore(), insights, composer, newStubCache(), &stubEvents{})

	day := almanac.New().Daily(stored.Date, domain.Location{Label: "New Delhi"})
	ins := service.DailyInsight(context.Background(), day, "en")
	if ins.Text != "already written" {
		t.Fatalf("expected the stored insight, got %q", ins.Text)
	}
	if composer.calls != 0 {
		t.Fatalf("expected no composition for a stored insight")
	}
}

