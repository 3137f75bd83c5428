package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"teamsync-backend/internal/chatparse"
)

const (
	maxScannedTitle    = 80
	scannedDescription = "Mentioned in chat"
)

var (
	monthDayYear = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	dayMonthYear = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{4}|\d{2})\b`)
	yearMonthDay = regexp.MustCompile(`\b(\d{4})[-/](\d{1,2})[-/](\d{1,2})\b`)

	months = map[string]int{
		"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
		"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	}
)

// ScanTranscriptDates finds explicit dates written in message bodies. Message
// header timestamps are not treated as mentions.
func ScanTranscriptDates(text string, ref time.Time) []ScheduledEvent {
	ref = day(ref)

	bodies := messageBodies(text)
	var events []ScheduledEvent
	seen := map[string]bool{}
	for _, body := range bodies {
		title := truncateRunes(strings.Join(strings.Fields(body), " "), maxScannedTitle)
		for _, d := range datesIn(body) {
			if d.Before(ref) {
				continue
			}
			key := d.Format(isoLayout) + "\x00" + title
			if seen[key] {
				continue
			}
			seen[key] = true
			date := d
			events = append(events, ScheduledEvent{Date: &date, Title: title, Description: scannedDescription})
		}
	}
	return events
}

func messageBodies(text string) []string {
	messages := chatparse.Parse(text)
	if len(messages) == 0 {
		var lines []string
		for _, line := range strings.Split(text, "\n") {
			if strings.TrimSpace(line) != "" {
				lines = append(lines, line)
			}
		}
		return lines
	}
	bodies := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.System {
			continue
		}
		bodies = append(bodies, m.Body())
	}
	return bodies
}

func datesIn(s string) []time.Time {
	var out []time.Time
	for _, m := range monthDayYear.FindAllStringSubmatch(s, -1) {
		if d, ok := validDate(atoi(m[3]), months[strings.ToLower(m[1])], atoi(m[2])); ok {
			out = append(out, d)
		}
	}
	for _, m := range yearMonthDay.FindAllStringSubmatch(s, -1) {
		if d, ok := validDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			out = append(out, d)
		}
	}
	for _, m := range dayMonthYear.FindAllStringSubmatch(s, -1) {
		year := atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if d, ok := validDate(year, atoi(m[2]), atoi(m[1])); ok {
			out = append(out, d)
		}
	}
	return out
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
