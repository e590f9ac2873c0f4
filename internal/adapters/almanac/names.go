package almanac

import (
	"time"

	"panchang-backend/internal/domain"
)

// Canonical name tables the derivations index into. Order matters: the
// modulo arithmetic in calculator.go is defined against these exact
// positions.

var tithiNames = []string{
	"Pratipada", "Dwitiya", "Tritiya", "Chaturthi", "Panchami",
	"Shashthi", "Saptami", "Ashtami", "Navami", "Dashami",
	"Ekadashi", "Dwadashi", "Trayodashi", "Chaturdashi", "Purnima",
	"Pratipada", "Dwitiya", "Tritiya", "Chaturthi", "Panchami",
	"Shashthi", "Saptami", "Ashtami", "Navami", "Dashami",
	"Ekadashi", "Dwadashi", "Trayodashi", "Chaturdashi", "Amavasya",
}

const (
	pakshaShukla  = "Shukla"
	pakshaKrishna = "Krishna"
)

var nakshatraNames = []string{
	"Ashwini", "Bharani", "Krittika", "Rohini", "Mrigashira",
	"Ardra", "Punarvasu", "Pushya", "Ashlesha", "Magha",
	"Purva Phalguni", "Uttara Phalguni", "Hasta", "Chitra", "Swati",
	"Vishakha", "Anuradha", "Jyeshtha", "Mula", "Purva Ashadha",
	"Uttara Ashadha", "Shravana", "Dhanishta", "Shatabhisha",
	"Purva Bhadrapada", "Uttara Bhadrapada", "Revati",
}

var yogaNames = []string{
	"Vishkambha", "Priti", "Ayushman", "Saubhagya", "Shobhana",
	"Atiganda", "Sukarma", "Dhriti", "Shula", "Ganda",
	"Vriddhi", "Dhruva", "Vyaghata", "Harshana", "Vajra",
	"Siddhi", "Vyatipata", "Variyana", "Parigha", "Shiva",
	"Siddha", "Sadhya", "Shubha", "Shukla", "Brahma",
	"Indra", "Vaidhriti",
}

var karanaNames = []string{
	"Bava", "Balava", "Kaulava", "Taitila", "Gara",
	"Vanija", "Vishti", "Shakuni", "Chatushpada", "Naga",
	"Kimstughna",
}

var rashiNames = []string{
	"Mesha", "Vrishabha", "Mithuna", "Karka", "Simha", "Kanya",
	"Tula", "Vrishchika", "Dhanu", "Makara", "Kumbha", "Meena",
}

// varaNames is indexed by time.Weekday (Sunday = 0).
var varaNames = []string{
	"Ravivar", "Somvar", "Mangalvar", "Budhvar",
	"Guruvar", "Shukravar", "Shanivar",
}

// grahaSpec fixes the fabricated orbital constants of one planet. Longitude
// on day D is (D*step + offset) mod 360.
type grahaSpec struct {
	Name       string
	Step       int
	Offset     int
	Retrograde bool
}

var grahas = []grahaSpec{
	{Name: "Surya", Step: 1, Offset: 280},
	{Name: "Chandra", Step: 13, Offset: 35},
	{Name: "Mangala", Step: 2, Offset: 120},
	{Name: "Budha", Step: 4, Offset: 200},
	{Name: "Guru", Step: 3, Offset: 75},
	{Name: "Shukra", Step: 5, Offset: 310},
	{Name: "Shani", Step: 1, Offset: 45},
	{Name: "Rahu", Step: 7, Offset: 160, Retrograde: true},
	{Name: "Ketu", Step: 7, Offset: 340, Retrograde: true},
}

// The five daylight-octant tables, indexed by time.Weekday. Octants are
// 1-based eighths of the sunrise-to-sunset span, per the classical tables.
var (
	rahuKaalOctant   = []int{8, 2, 7, 5, 6, 4, 3}
	yamagandaOctant  = []int{5, 4, 3, 2, 1, 7, 6}
	gulikaKaalOctant = []int{7, 6, 5, 4, 3, 2, 1}
)

// Choghadiya cycle and the cycle position each weekday starts at.
var choghadiyaCycle = []string{
	"Udveg", "Chara", "Labh", "Amrit", "Kala", "Shubha", "Roga",
}

var choghadiyaStart = []int{0, 3, 6, 2, 5, 1, 4}

var choghadiyaNatures = map[string]string{
	"Udveg":  domain.NatureInauspicious,
	"Chara":  domain.NatureNeutral,
	"Labh":   domain.NatureAuspicious,
	"Amrit":  domain.NatureAuspicious,
	"Kala":   domain.NatureInauspicious,
	"Shubha": domain.NatureAuspicious,
	"Roga":   domain.NatureInauspicious,
}

// festivalNames cycle across the flagged days of a month.
var festivalNames = []string{
	"Dashami Utsav", "Vijaya Parva", "Purnima Snan",
}

func varaName(w time.Weekday) string {
	return varaNames[int(w)]
}
