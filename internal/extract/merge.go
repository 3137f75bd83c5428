package extract

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxMergedTitle = 150
	titleSeparator = " | "
)

// MergeEvents drops dated events before ref, folds events sharing a date into
// one entry, and folds unscheduled events with identical titles. Dated events
// come first in ascending order, then unscheduled ones in input order.
func MergeEvents(ref time.Time, lists ...[]ScheduledEvent) []ScheduledEvent {
	ref = day(ref)

	type dated struct {
		date        time.Time
		titles      []string
		description string
	}
	byDate := map[time.Time]*dated{}
	var dates []time.Time

	var unscheduled []ScheduledEvent
	seenTitle := map[string]int{}

	for _, list := range lists {
		for _, ev := range list {
			if !ev.Scheduled() {
				if idx, ok := seenTitle[ev.Title]; ok {
					if ev.Description != "" {
						unscheduled[idx].Description = ev.Description
					}
					continue
				}
				seenTitle[ev.Title] = len(unscheduled)
				unscheduled = append(unscheduled, ScheduledEvent{Title: ev.Title, Description: ev.Description})
				continue
			}

			d := day(*ev.Date)
			if d.Before(ref) {
				continue
			}
			entry, ok := byDate[d]
			if !ok {
				entry = &dated{date: d}
				byDate[d] = entry
				dates = append(dates, d)
			}
			if !containsString(entry.titles, ev.Title) {
				entry.titles = append(entry.titles, ev.Title)
			}
			if ev.Description != "" {
				entry.description = ev.Description
			}
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]ScheduledEvent, 0, len(dates)+len(unscheduled))
	for _, d := range dates {
		entry := byDate[d]
		date := entry.date
		out = append(out, ScheduledEvent{
			Date:        &date,
			Title:       truncateRunes(strings.Join(entry.titles, titleSeparator), maxMergedTitle),
			Description: entry.description,
		})
	}
	return append(out, unscheduled...)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
