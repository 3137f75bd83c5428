package extract

import "time"

// Priority classifies an action item.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ActionItem is a task pulled from a transcript.
type ActionItem struct {
	Description string
	Priority    Priority
}

// ScheduledEvent is a calendar entry. A nil Date means unscheduled.
type ScheduledEvent struct {
	Date        *time.Time
	Title       string
	Description string
}

// Scheduled reports whether the event has a resolved date.
func (e ScheduledEvent) Scheduled() bool {
	return e.Date != nil
}

// Status is the outcome of one extraction call.
type Status string

const (
	StatusOK             Status = "ok"
	StatusEmpty          Status = "empty"
	StatusUpstreamFailed Status = "upstream_failed"
)

// ActionItemsResult carries items plus whether the upstream call worked.
type ActionItemsResult struct {
	Items  []ActionItem
	Status Status
	Err    error
}

// ScheduledEventsResult carries events plus whether the upstream call worked.
type ScheduledEventsResult struct {
	Events []ScheduledEvent
	Status Status
	Err    error
}
