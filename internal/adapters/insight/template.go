package insight

import (
	"context"
	"fmt"
	"strings"

	"panchang-backend/internal/domain"
)

// Template is the deterministic no-LLM composer used in development and as
// the answer source when no API key is configured.
type Template struct{}

var (
	_ domain.InsightComposer = (*Template)(nil)
	_ domain.AnswerComposer  = (*Template)(nil)
)

// NewTemplate creates the composer.
func NewTemplate() *Template {
	return &Template{}
}

// ComposeDaily renders fixed sentences from the almanac fields.
func (t *Template) ComposeDaily(_ context.Context, p domain.Panchang, _ string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s brings %s tithi of the %s Paksha, with the Moon in %s (pada %d). ", p.Vara, p.Tithi, p.Paksha, p.Nakshatra, p.Pada)
	fmt.Fprintf(&b, "The prevailing yoga is %s and the karana %s. ", p.Yoga, p.Karana)
	fmt.Fprintf(&b, "The day runs from sunrise at %s to sunset at %s. ", p.Sunrise, p.Sunset)
	fmt.Fprintf(&b, "Favor important beginnings during Abhijit Muhurat (%s) and quiet practice in Brahma Muhurta (%s). ", p.AbhijitMuhurat, p.BrahmaMuhurta)
	fmt.Fprintf(&b, "Hold back new undertakings during Rahu Kaal (%s).", p.RahuKaal)
	return b.String(), nil
}

// ComposeAnswer renders a fixed answer shape around the question.
func (t *Template) ComposeAnswer(_ context.Context, p domain.Panchang, _ domain.User, question string) (string, error) {
	question = strings.TrimSpace(question)
	var b strings.Builder
	fmt.Fprintf(&b, "For %s the almanac shows %s tithi (%s Paksha) under %s nakshatra. ", p.DateKey(), p.Tithi, p.Paksha, p.Nakshatra)
	if question != "" {
		fmt.Fprintf(&b, "Regarding %q, the ", question)
	} else {
		b.WriteString("The ")
	}
	fmt.Fprintf(&b, "traditional reading favors acting within Abhijit Muhurat (%s) and avoiding Rahu Kaal (%s).", p.AbhijitMuhurat, p.RahuKaal)
	return b.String(), nil
}
