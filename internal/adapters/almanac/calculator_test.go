package almanac

import (
	"reflect"
	"testing"
	"time"

	"panchang-backend/internal/domain"
)

var testLoc = domain.Location{Label: "New Delhi", Latitude: 28.6139, Longitude: 77.2090}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDailyDeterministic(t *testing.T) {
	c := New()
	d := date(2024, time.March, 10)
	first := c.Daily(d, testLoc)
	second := c.Daily(d, testLoc)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Daily is not deterministic: %+v != %+v", first, second)
	}
}

func TestDailyDerivations(t *testing.T) {
	tests := []struct {
		name      string
		date      time.Time
		tithi     string
		paksha    string
		nakshatra string
		pada      int
		yoga      string
		karana    string
		vara      string
		sunrise   string
		sunset    string
	}{
		{
			name: "sunday day ten", date: date(2024, time.March, 10),
			tithi: "Dashami", paksha: "Shukla", nakshatra: "Magha", pada: 3,
			yoga: "Vyaghata", karana: "Naga", vara: "Ravivar",
			sunrise: "06:00", sunset: "18:15",
		},
		{
			name: "friday krishna paksha", date: date(2024, time.March, 22),
			tithi: "Saptami", paksha: "Krishna", nakshatra: "Shravana", pada: 3,
			yoga: "Brahma", karana: "Kimstughna", vara: "Shukravar",
			sunrise: "06:12", sunset: "18:27",
		},
		{
			name: "day thirty one wraps", date: date(2024, time.January, 31),
			tithi: "Pratipada", paksha: "Shukla", nakshatra: "Rohini", pada: 4,
			yoga: "Sukarma", karana: "Chatushpada", vara: "Budhvar",
			sunrise: "05:56", sunset: "18:36",
		},
	}
	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := c.Daily(tt.date, testLoc)
			if p.Tithi != tt.tithi || p.Paksha != tt.paksha {
				t.Fatalf("tithi = %s %s, want %s %s", p.Paksha, p.Tithi, tt.paksha, tt.tithi)
			}
			if p.Nakshatra != tt.nakshatra || p.Pada != tt.pada {
				t.Fatalf("nakshatra = %s pada %d, want %s pada %d", p.Nakshatra, p.Pada, tt.nakshatra, tt.pada)
			}
			if p.Yoga != tt.yoga {
				t.Fatalf("yoga = %s, want %s", p.Yoga, tt.yoga)
			}
			if p.Karana != tt.karana {
				t.Fatalf("karana = %s, want %s", p.Karana, tt.karana)
			}
			if p.Vara != tt.vara {
				t.Fatalf("vara = %s, want %s", p.Vara, tt.vara)
			}
			if p.Sunrise != tt.sunrise || p.Sunset != tt.sunset {
				t.Fatalf("sun = %s/%s, want %s/%s", p.Sunrise, p.Sunset, tt.sunrise, tt.sunset)
			}
			if p.Location != testLoc.Label {
				t.Fatalf("location = %s, want %s", p.Location, testLoc.Label)
			}
			if !p.GeneratedAt.IsZero() {
				t.Fatalf("GeneratedAt should be left zero, got %v", p.GeneratedAt)
			}
		})
	}
}

func TestDailyWindows(t *testing.T) {
	c := New()
	p := c.Daily(date(2024, time.March, 10), testLoc) // sunday

	if got, want := p.RahuKaal, (domain.TimeWindow{Start: "16:43", End: "18:15"}); got != want {
		t.Fatalf("RahuKaal = %v, want %v", got, want)
	}
	if got, want := p.BrahmaMuhurta, (domain.TimeWindow{Start: "04:24", End: "06:00"}); got != want {
		t.Fatalf("BrahmaMuhurta = %v, want %v", got, want)
	}
	if p.AbhijitMuhurat.Start >= "12:07" || p.AbhijitMuhurat.End <= "12:07" {
		t.Fatalf("AbhijitMuhurat %v does not straddle midday 12:07", p.AbhijitMuhurat)
	}
	for _, w := range []domain.TimeWindow{p.RahuKaal, p.GulikaKaal, p.Yamaganda} {
		if w.Start == "" || w.End == "" || w.Start >= w.End {
			t.Fatalf("octant window %v is not a forward interval", w)
		}
	}
}

func TestDailyChoghadiya(t *testing.T) {
	c := New()
	p := c.Daily(date(2024, time.March, 11), testLoc) // monday

	if len(p.Choghadiya) != 8 {
		t.Fatalf("choghadiya slots = %d, want 8", len(p.Choghadiya))
	}
	if p.Choghadiya[0].Name != "Amrit" {
		t.Fatalf("monday first slot = %s, want Amrit", p.Choghadiya[0].Name)
	}
	if p.Choghadiya[0].Start != p.Sunrise {
		t.Fatalf("first slot starts %s, want sunrise %s", p.Choghadiya[0].Start, p.Sunrise)
	}
	if p.Choghadiya[7].End != p.Sunset {
		t.Fatalf("last slot ends %s, want sunset %s", p.Choghadiya[7].End, p.Sunset)
	}
	for i, slot := range p.Choghadiya {
		if slot.Nature == "" {
			t.Fatalf("slot %d (%s) has no nature", i, slot.Name)
		}
		if i > 0 && p.Choghadiya[i-1].End != slot.Start {
			t.Fatalf("slot %d starts %s, previous ends %s", i, slot.Start, p.Choghadiya[i-1].End)
		}
	}
}

func TestDailyPlanets(t *testing.T) {
	c := New()
	p := c.Daily(date(2024, time.March, 10), testLoc)

	if len(p.Planets) != 9 {
		t.Fatalf("planets = %d, want 9", len(p.Planets))
	}
	for _, pl := range p.Planets {
		if pl.Longitude < 0 || pl.Longitude >= 360 {
			t.Fatalf("%s longitude %v out of range", pl.Graha, pl.Longitude)
		}
		wantRashi := rashiNames[int(pl.Longitude)/30]
		if pl.Rashi != wantRashi {
			t.Fatalf("%s rashi = %s, want %s for longitude %v", pl.Graha, pl.Rashi, wantRashi, pl.Longitude)
		}
		wantRetro := pl.Graha == "Rahu" || pl.Graha == "Ketu"
		if pl.Retrograde != wantRetro {
			t.Fatalf("%s retrograde = %v, want %v", pl.Graha, pl.Retrograde, wantRetro)
		}
	}
}

func TestMonthDayCount(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		days  int
	}{
		{name: "leap february", year: 2024, month: time.February, days: 29},
		{name: "plain february", year: 2023, month: time.February, days: 28},
		{name: "april", year: 2024, month: time.April, days: 30},
		{name: "january", year: 2024, month: time.January, days: 31},
	}
	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := c.Month(tt.year, tt.month)
			if len(days) != tt.days {
				t.Fatalf("Month(%d, %v) = %d days, want %d", tt.year, tt.month, len(days), tt.days)
			}
			for _, d := range days {
				if d.Tithi == "" {
					t.Fatalf("day %v has empty tithi", d.Date)
				}
			}
		})
	}
}

func TestMonthFestivals(t *testing.T) {
	c := New()
	days := c.Month(2024, time.January)
	for _, d := range days {
		wantFestival := d.Date.Day()%10 == 0
		if d.Festival != wantFestival {
			t.Fatalf("day %d festival = %v, want %v", d.Date.Day(), d.Festival, wantFestival)
		}
		if wantFestival && d.Label == "" {
			t.Fatalf("festival day %d has no label", d.Date.Day())
		}
		if !wantFestival && d.Label != "" {
			t.Fatalf("ordinary day %d carries label %q", d.Date.Day(), d.Label)
		}
	}
}
