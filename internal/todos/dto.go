package todos

import "time"

// TodoResponse is the outward-facing representation of a todo.
type TodoResponse struct {
	ID           string    `json:"id"`
	TranscriptID string    `json:"transcriptId"`
	Task         string    `json:"task"`
	Priority     string    `json:"priority"`
	Completed    bool      `json:"completed"`
	DueDate      *string   `json:"dueDate,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ListResponse wraps a todo listing.
type ListResponse struct {
	Todos       []TodoResponse `json:"todos"`
	Count       int            `json:"count"`
	LastUpdated *time.Time     `json:"lastUpdated"`
}

// UpdateRequest is the body of PATCH /todos/:id.
type UpdateRequest struct {
	Completed *bool `json:"completed"`
}

func toResponse(t Todo) TodoResponse {
	resp := TodoResponse{
		ID:           t.ID,
		TranscriptID: t.TranscriptID,
		Task:         t.Task,
		Priority:     t.Priority,
		Completed:    t.Completed,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format("2006-01-02")
		resp.DueDate = &d
	}
	return resp
}
