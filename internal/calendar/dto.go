package calendar

import "time"

const unscheduledDate = "TBD"

// EventResponse is the outward-facing representation of an event.
type EventResponse struct {
	ID           string    `json:"id"`
	TranscriptID string    `json:"transcriptId"`
	Title        string    `json:"title"`
	Date         string    `json:"date"`
	Description  string    `json:"description"`
	IsScheduled  bool      `json:"isScheduled"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ListResponse wraps an event listing.
type ListResponse struct {
	Events []EventResponse `json:"events"`
	Count  int             `json:"count"`
}

func toResponse(e Event) EventResponse {
	date := unscheduledDate
	if e.EventDate != nil {
		date = e.EventDate.Format(dateLayout)
	}
	return EventResponse{
		ID:           e.ID,
		TranscriptID: e.TranscriptID,
		Title:        e.Title,
		Date:         date,
		Description:  e.Description,
		IsScheduled:  e.IsScheduled,
		CreatedAt:    e.CreatedAt,
	}
}
