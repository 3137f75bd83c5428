package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

const isoLayout = "2006-01-02"

// DateParser resolves a free-form date phrase relative to ref.
type DateParser interface {
	ParseDate(candidate string, ref time.Time) (time.Time, bool)
}

// DateParserFunc adapts a function to DateParser.
type DateParserFunc func(candidate string, ref time.Time) (time.Time, bool)

// ParseDate calls f.
func (f DateParserFunc) ParseDate(candidate string, ref time.Time) (time.Time, bool) {
	return f(candidate, ref)
}

var absoluteLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Monday, January 2, 2006",
	"Mon, Jan 2, 2006",
	"2006/1/2",
	"2006-1-2",
	"1/2/2006",
	"1/2/06",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

var (
	ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	// dateRange spots spans such as "Nov 20 - 22" or "Monday to Wednesday".
	dateRange = regexp.MustCompile(`(?i)\s(?:to|until|till|through|thru)\s|\s[-–—]\s|\d\s*[–—]\s*\d`)
	// dateHint is any token that names a day rather than a time of day.
	dateHint = regexp.MustCompile(`(?i)\d{1,4}[/.-]\d{1,2}|\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b|\b(?:mon|tue|wed|thu|fri|sat|sun)[a-z]*\b|\b(?:today|tonight|tomorrow|yesterday|days?|weeks?|weekend|fortnight|months?|years?)\b`)
)

// NaturalParser tries a fixed set of absolute layouts, then a
// natural-language interpreter anchored at the reference date.
type NaturalParser struct {
	w *when.Parser
}

// NewNaturalParser builds the English rule set.
func NewNaturalParser() *NaturalParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &NaturalParser{w: w}
}

// ParseDate implements DateParser. Ranges and matches that carry only a time
// of day stay unresolved rather than landing on a guessed day.
func (p *NaturalParser) ParseDate(candidate string, ref time.Time) (time.Time, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || strings.EqualFold(candidate, "TBD") || dateRange.MatchString(candidate) {
		return time.Time{}, false
	}
	cleaned := ordinalSuffix.ReplaceAllString(candidate, "$1")
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return day(t), true
		}
	}

	res, err := p.w.Parse(cleaned, day(ref))
	if err != nil || res == nil || !dateHint.MatchString(res.Text) {
		return time.Time{}, false
	}
	return day(res.Time), true
}

var defaultParser = NewNaturalParser()

// ResolveDate resolves candidate as strict ISO first, then fuzzily.
func ResolveDate(candidate string, ref time.Time) (time.Time, bool) {
	return resolveDate(defaultParser, candidate, ref)
}

func resolveDate(fuzzy DateParser, candidate string, ref time.Time) (time.Time, bool) {
	candidate = strings.TrimSpace(candidate)
	if t, err := time.Parse(isoLayout, candidate); err == nil {
		return t, true
	}
	if fuzzy == nil {
		return time.Time{}, false
	}
	return fuzzy.ParseDate(candidate, ref)
}

// day truncates t to its calendar date in UTC.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// validDate builds a date and rejects overflowing components such as 31/02.
func validDate(year, month, dayOfMonth int) (time.Time, bool) {
	if month < 1 || month > 12 || dayOfMonth < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), dayOfMonth, 0, 0, 0, 0, time.UTC)
	if t.Day() != dayOfMonth || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
