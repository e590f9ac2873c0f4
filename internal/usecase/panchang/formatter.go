package panchang

import (
	"fmt"
	"html"
	"strings"
	"time"

	"panchang-backend/internal/domain"
)

// FormatDaily renders the almanac day as a Telegram HTML message.
func FormatDaily(p domain.Panchang, insightText string) string {
	var sections []string

	header := fmt.Sprintf("🗓 <b>Panchang for %s, %s</b>\n📍 %s",
		escapeHTML(p.Vara), p.Date.Format("2 January 2006"), escapeHTML(p.Location))
	sections = append(sections, header)

	var angas strings.Builder
	fmt.Fprintf(&angas, "🌖 Tithi: <b>%s</b> (%s Paksha)\n", escapeHTML(p.Tithi), escapeHTML(p.Paksha))
	fmt.Fprintf(&angas, "✨ Nakshatra: <b>%s</b>, pada %d\n", escapeHTML(p.Nakshatra), p.Pada)
	fmt.Fprintf(&angas, "🧘 Yoga: %s\n", escapeHTML(p.Yoga))
	fmt.Fprintf(&angas, "🌗 Karana: %s\n", escapeHTML(p.Karana))
	fmt.Fprintf(&angas, "🌅 Sunrise %s · 🌇 Sunset %s", p.Sunrise, p.Sunset)
	sections = append(sections, angas.String())

	var windows strings.Builder
	windows.WriteString("<b>Muhurtas</b>\n")
	fmt.Fprintf(&windows, "✅ Abhijit Muhurat: %s\n", p.AbhijitMuhurat)
	fmt.Fprintf(&windows, "🕉 Brahma Muhurta: %s\n", p.BrahmaMuhurta)
	fmt.Fprintf(&windows, "⚠️ Rahu Kaal: %s\n", p.RahuKaal)
	fmt.Fprintf(&windows, "⚠️ Yamaganda: %s\n", p.Yamaganda)
	fmt.Fprintf(&windows, "⚠️ Gulika Kaal: %s", p.GulikaKaal)
	sections = append(sections, windows.String())

	if len(p.Choghadiya) > 0 {
		var chog strings.Builder
		chog.WriteString("<b>Choghadiya</b>")
		for _, slot := range p.Choghadiya {
			chog.WriteString("\n" + fmt.Sprintf("%s %s: %s – %s", natureMark(slot.Nature), escapeHTML(slot.Name), slot.Start, slot.End))
		}
		sections = append(sections, chog.String())
	}

	if len(p.Planets) > 0 {
		var planets strings.Builder
		planets.WriteString("<b>Graha positions</b>")
		for _, pl := range p.Planets {
			line := fmt.Sprintf("%s in %s", escapeHTML(pl.Graha), escapeHTML(pl.Rashi))
			if pl.Retrograde {
				line += " ℞"
			}
			planets.WriteString("\n• " + line)
		}
		sections = append(sections, planets.String())
	}

	if insight := strings.TrimSpace(insightText); insight != "" {
		sections = append(sections, "💫 <i>"+escapeHTML(insight)+"</i>")
	}

	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}

// FormatMonth renders the month overview with festival days marked.
func FormatMonth(year int, month time.Month, days []domain.CalendarDay) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 <b>%s %d</b>", month.String(), year)

	festivals := 0
	for _, day := range days {
		line := fmt.Sprintf("\n%2d: %s", day.Date.Day(), escapeHTML(day.Tithi))
		if day.Festival {
			line += " 🎉 " + escapeHTML(day.Label)
			festivals++
		}
		b.WriteString(line)
	}
	if festivals > 0 {
		fmt.Fprintf(&b, "\n\n🎉 %d festival day(s) this month.", festivals)
	}
	return strings.TrimSpace(b.String())
}

func natureMark(nature string) string {
	switch nature {
	case domain.NatureAuspicious:
		return "✅"
	case domain.NatureInauspicious:
		return "⚠️"
	default:
		return "▫️"
	}
}

func escapeHTML(s string) string {
	return html.EscapeString(s)
}
