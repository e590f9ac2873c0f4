package almanac

import (
	"fmt"
	"time"

	"panchang-backend/internal/domain"
)

// Calculator derives almanac values without an ephemeris: every field is a
// fixed table lookup or day-of-month modulo arithmetic. That keeps the
// output deterministic and the tests stable; swapping in a real
// astronomical engine means replacing this adapter, nothing else.
type Calculator struct{}

// New creates a Calculator.
func New() *Calculator {
	return &Calculator{}
}

const (
	sunriseBaseMin = 5*60 + 50 // 05:50
	sunsetBaseMin  = 18*60 + 5 // 18:05
	brahmaLeadMin  = 96
)

// Daily derives the full almanac record for a date. Pure: the same date and
// location always produce the same record. GeneratedAt is left zero; the
// caller stamps it when the record is cached.
func (c *Calculator) Daily(date time.Time, loc domain.Location) domain.Panchang {
	day := date.Day()
	weekday := date.Weekday()

	sunrise := sunriseBaseMin + day%25
	sunset := sunsetBaseMin + day%35
	dayLen := sunset - sunrise

	tithiIdx := (day - 1) % 30
	paksha := pakshaShukla
	if tithiIdx >= 15 {
		paksha = pakshaKrishna
	}

	p := domain.Panchang{
		Date:      time.Date(date.Year(), date.Month(), day, 0, 0, 0, 0, time.UTC),
		Location:  loc.Label,
		Sunrise:   clock(sunrise),
		Sunset:    clock(sunset),
		Tithi:     tithiNames[tithiIdx],
		Paksha:    paksha,
		Nakshatra: nakshatraNames[(day-1)%27],
		Pada:      day%4 + 1,
		Yoga:      yogaNames[(day+2)%27],
		Karana:    karanaNames[(day-1)%11],
		Vara:      varaName(weekday),

		RahuKaal:   octantWindow(sunrise, dayLen, rahuKaalOctant[weekday]),
		GulikaKaal: octantWindow(sunrise, dayLen, gulikaKaalOctant[weekday]),
		Yamaganda:  octantWindow(sunrise, dayLen, yamagandaOctant[weekday]),

		AbhijitMuhurat: abhijit(sunrise, dayLen),
		BrahmaMuhurta: domain.TimeWindow{
			Start: clock(sunrise - brahmaLeadMin),
			End:   clock(sunrise),
		},

		Choghadiya: choghadiya(weekday, sunrise, dayLen),
		Planets:    planets(day),
	}
	return p
}

// Month produces one calendar cell per day of the month. Every tenth day is
// flagged a festival with a name from the fixed cycle.
func (c *Calculator) Month(year int, month time.Month) []domain.CalendarDay {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	days := make([]domain.CalendarDay, 0, last)
	for day := 1; day <= last; day++ {
		cell := domain.CalendarDay{
			Date:  time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
			Tithi: tithiNames[(day-1)%30],
		}
		if day%10 == 0 {
			cell.Festival = true
			cell.Label = festivalNames[(day/10-1)%len(festivalNames)]
		}
		days = append(days, cell)
	}
	return days
}

// octantWindow returns the o-th (1-based) eighth of the daylight span.
func octantWindow(sunrise, dayLen, o int) domain.TimeWindow {
	return domain.TimeWindow{
		Start: clock(sunrise + (o-1)*dayLen/8),
		End:   clock(sunrise + o*dayLen/8),
	}
}

// abhijit straddles midday with one fifteenth of the daylight span.
func abhijit(sunrise, dayLen int) domain.TimeWindow {
	midday := sunrise + dayLen/2
	half := dayLen / 30
	return domain.TimeWindow{
		Start: clock(midday - half),
		End:   clock(midday + half),
	}
}

// choghadiya splits daylight into eight equal segments, naming them by the
// weekday-rotated classical cycle.
func choghadiya(weekday time.Weekday, sunrise, dayLen int) []domain.ChoghadiyaSlot {
	start := choghadiyaStart[weekday]
	slots := make([]domain.ChoghadiyaSlot, 0, 8)
	for i := 0; i < 8; i++ {
		name := choghadiyaCycle[(start+i)%len(choghadiyaCycle)]
		slots = append(slots, domain.ChoghadiyaSlot{
			Name:   name,
			Start:  clock(sunrise + i*dayLen/8),
			End:    clock(sunrise + (i+1)*dayLen/8),
			Nature: choghadiyaNatures[name],
		})
	}
	return slots
}

func planets(day int) []domain.PlanetPosition {
	out := make([]domain.PlanetPosition, 0, len(grahas))
	for _, g := range grahas {
		lon := (day*g.Step + g.Offset) % 360
		out = append(out, domain.PlanetPosition{
			Graha:      g.Name,
			Longitude:  float64(lon),
			Rashi:      rashiNames[lon/30],
			Retrograde: g.Retrograde,
		})
	}
	return out
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
