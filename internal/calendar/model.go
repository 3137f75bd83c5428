package calendar

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("event not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Event is a scheduled or unscheduled event extracted from a transcript.
type Event struct {
	ID           string
	UserID       string
	TranscriptID string
	Title        string
	EventDate    *time.Time
	Description  string
	IsScheduled  bool
	Position     int
	CreatedAt    time.Time
}

// Filter narrows an event listing. From and To bound dated events only,
// both inclusive; unscheduled events are controlled by Scheduled.
type Filter struct {
	From         *time.Time
	To           *time.Time
	Scheduled    *bool
	TranscriptID string
}

func (f Filter) matches(e Event) bool {
	if f.Scheduled != nil && e.IsScheduled != *f.Scheduled {
		return false
	}
	if f.TranscriptID != "" && e.TranscriptID != f.TranscriptID {
		return false
	}
	if e.EventDate != nil {
		if f.From != nil && e.EventDate.Before(*f.From) {
			return false
		}
		if f.To != nil && e.EventDate.After(*f.To) {
			return false
		}
	}
	return true
}
