// Package format renders durations, countdowns and labels for pt-BR display.
package format

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/n8nhub/community_hub/internal/countdown"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Duration renders minutes as "45min", "2h" or "1h 30min".
func Duration(minutes int) string {
	if minutes <= 0 {
		return "0min"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dmin", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %02dmin", h, m)
}

// Countdown renders c as "2d 03:04:05", dropping the day part when zero.
func Countdown(c countdown.Countdown) string {
	if c.Expired {
		return "Expirado"
	}
	clock := fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
	if c.Days > 0 {
		return fmt.Sprintf("%dd %s", c.Days, clock)
	}
	return clock
}

var difficultyLabels = map[string]string{
	"iniciante":     "Iniciante",
	"intermediario": "Intermediário",
	"avancado":      "Avançado",
}

// DifficultyLabel returns the display label of a difficulty key.
func DifficultyLabel(key string) string {
	if l, ok := difficultyLabels[key]; ok {
		return l
	}
	return key
}

// RelativeTime renders t relative to now, e.g. "há 5 minutos".
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		return "agora"
	}
	switch {
	case d < time.Minute:
		return "agora mesmo"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minuto", "minutos")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hora", "horas")
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "dia", "dias")
	case d < 365*24*time.Hour:
		return plural(int(d/(30*24*time.Hour)), "mês", "meses")
	}
	return plural(int(d/(365*24*time.Hour)), "ano", "anos")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "há 1 " + one
	}
	return fmt.Sprintf("há %d %s", n, many)
}

// Number renders n with pt-BR grouping, e.g. "1.250".
func Number(n int64) string {
	return printer.Sprintf("%d", n)
}

// XP renders an XP amount, e.g. "1.250 XP".
func XP(n int64) string {
	return Number(n) + " XP"
}

// Percent renders p rounded to an integer, e.g. "42%".
func Percent(p float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(p)))
}
