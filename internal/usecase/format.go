package usecase

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
)

// Format truncates text to max characters, ellipsis included, then
// substitutes every {key} occurrence with its placeholder value.
// Placeholder keys absent from the map stay literal. Truncation counts
// runes, not bytes, so multibyte content stays valid UTF-8.
func Format(text string, max int, placeholders map[string]string) string {
	if max > 3 {
		if runes := []rune(text); len(runes) > max {
			text = string(runes[:max-3]) + "..."
		}
	}
	for key, value := range placeholders {
		text = strings.ReplaceAll(text, "{"+key+"}", value)
	}
	return text
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripMarkup removes HTML tags and entity escapes from a notification
// body so it reads as plain chat text.
func StripMarkup(s string) string {
	s = html.UnescapeString(s)
	s = tagPattern.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}

// RelativeTime renders how long ago t was, in the coarse buckets the
// /recent listing uses.
func RelativeTime(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "moments ago"
	case d < 2*time.Minute:
		return "a minute ago"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 2*time.Hour:
		return "an hour ago"
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "a day ago"
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}
