package panchang

import (
	"strings"
	"testing"
	"time"

	"panchang-backend/internal/adapters/almanac"
	"panchang-backend/internal/domain"
)

func TestFormatDaily(t *testing.T) {
	day := almanac.New().Daily(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), domain.Location{Label: "New Delhi"})

	formatted := FormatDaily(day, "Keep the morning for <important> work.")

	mustContain(t, formatted, "🗓 <b>Panchang for Ravivar, 10 March 2024</b>")
	mustContain(t, formatted, "📍 New Delhi")
	mustContain(t, formatted, "Tithi: <b>Dashami</b> (Shukla Paksha)")
	mustContain(t, formatted, "Nakshatra: <b>Magha</b>, pada 3")
	mustContain(t, formatted, "🌅 Sunrise 06:00 · 🌇 Sunset 18:15")
	mustContain(t, formatted, "⚠️ Rahu Kaal: 16:43 – 18:15")
	mustContain(t, formatted, "<b>Choghadiya</b>")
	mustContain(t, formatted, "<b>Graha positions</b>")
	mustContain(t, formatted, "Rahu in")
	mustContain(t, formatted, "℞")
	// Insight text is escaped for Telegram HTML mode.
	mustContain(t, formatted, "💫 <i>Keep the morning for &lt;important&gt; work.</i>")
}

func TestFormatDailyWithoutInsight(t *testing.T) {
	day := almanac.New().Daily(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), domain.Location{Label: "New Delhi"})

	formatted := FormatDaily(day, "   ")
	if strings.Contains(formatted, "💫") {
		t.Fatalf("expected no insight section for blank text")
	}
}

func TestFormatMonth(t *testing.T) {
	days, err := newTestService(newStubStore(), newStubInsights(), &stubComposer{}, newStubCache(), &stubEvents{}).MonthOverview(2024, time.March)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	formatted := FormatMonth(2024, time.March, days)

	mustContain(t, formatted, "📅 <b>March 2024</b>")
	mustContain(t, formatted, "🎉")
	mustContain(t, formatted, "festival day(s) this month")
	if got := strings.Count(formatted, "\n"); got < len(days) {
		t.Fatalf("expected one line per day, got %d lines for %d days", got, len(days))
	}
}

func mustContain(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Fatalf("expected to find %q in %q", substr, s)
	}
}
