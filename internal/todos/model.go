package todos

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("todo not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Todo is an action item extracted from a transcript.
type Todo struct {
	ID           string
	UserID       string
	TranscriptID string
	Task         string
	Priority     string
	Completed    bool
	DueDate      *time.Time
	Position     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Filter narrows a todo listing.
type Filter struct {
	Completed    *bool
	TranscriptID string
}

func (f Filter) matches(t Todo) bool {
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.TranscriptID != "" && t.TranscriptID != f.TranscriptID {
		return false
	}
	return true
}
