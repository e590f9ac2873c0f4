package domain

import "time"

// DateLayout is the ISO day key every cached almanac row is addressed by.
const DateLayout = "2006-01-02"

// DateKey renders a date as the cache key for its almanac row.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// LocalDay resolves which calendar date "today" means in a timezone,
// normalized to midnight UTC so it matches stored almanac dates. Unknown
// zones fall back to UTC.
func LocalDay(now time.Time, timezone string) time.Time {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Location is a named observation point almanac values are derived for.
type Location struct {
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TimeWindow is a daily interval rendered as wall-clock strings.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// String renders the window the way the mobile client prints it.
func (w TimeWindow) String() string {
	return w.Start + " – " + w.End
}

// ChoghadiyaSlot is one of the eight daylight segments used for
// auspicious-timing judgments.
type ChoghadiyaSlot struct {
	Name   string `json:"name"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Nature string `json:"nature"`
}

// Choghadiya natures.
const (
	NatureAuspicious   = "auspicious"
	NatureNeutral      = "neutral"
	NatureInauspicious = "inauspicious"
)

// PlanetPosition is a graha's fabricated ecliptic position.
type PlanetPosition struct {
	Graha      string  `json:"graha"`
	Longitude  float64 `json:"longitude"`
	Rashi      string  `json:"rashi"`
	Retrograde bool    `json:"retrograde"`
}

// Panchang is one day's almanac record.
type Panchang struct {
	Date      time.Time
	Location  string
	Sunrise   string
	Sunset    string
	Tithi     string
	Paksha    string
	Nakshatra string
	Pada      int
	Yoga      string
	Karana    string
	Vara      string

	RahuKaal       TimeWindow
	GulikaKaal     TimeWindow
	Yamaganda      TimeWindow
	AbhijitMuhurat TimeWindow
	BrahmaMuhurta  TimeWindow

	Choghadiya []ChoghadiyaSlot
	Planets    []PlanetPosition

	GeneratedAt time.Time
}

// DateKey returns the cache key of this record.
func (p Panchang) DateKey() string {
	return DateKey(p.Date)
}

// CalendarDay is one cell of the month view.
type CalendarDay struct {
	Date     time.Time
	Tithi    string
	Festival bool
	Label    string
}

// TelegramProfile carries what the bot learns about a chat peer.
type TelegramProfile struct {
	ChatID    int64
	Locale    string
	FirstName string
	LastName  string
	Username  string
}

// User is an app account with the optional birth details the insight
// prompts draw on.
type User struct {
	ID             int64
	Email          string
	DisplayName    string
	Locale         string
	Timezone       string
	Location       Location
	BirthDate      *time.Time
	BirthTime      string
	BirthPlace     string
	Role           UserRole
	TelegramChatID *int64
	Username       string
	DailyTime      *time.Time
	AsksTotal      int
	AsksToday      int
	AsksDate       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProfileUpdate is the editable subset of a user, saved whole from the
// profile form.
type ProfileUpdate struct {
	DisplayName string
	Locale      string
	Timezone    string
	Location    Location
	BirthDate   *time.Time
	BirthTime   string
	BirthPlace  string
}

// Chat message roles.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of the assistant dialog.
type ChatMessage struct {
	ID        string
	UserID    int64
	Role      string
	Text      string
	Date      time.Time
	CreatedAt time.Time
}

// Insight is a generated daily guidance text, cached per day, location
// and language.
type Insight struct {
	ID        string
	Date      time.Time
	Location  string
	Language  string
	Text      string
	Model     string
	CreatedAt time.Time
}

// Session is the successful outcome of an identity operation.
type Session struct {
	UserID    int64
	Email     string
	Token     string
	ExpiresAt time.Time
}
