package transcripts

import "time"

// TranscriptResponse is the outward-facing representation of a transcript.
type TranscriptResponse struct {
	ID           string     `json:"id"`
	FileName     string     `json:"fileName"`
	SizeBytes    int64      `json:"sizeBytes"`
	MessageCount int        `json:"messageCount"`
	Status       Status     `json:"status"`
	StatusError  string     `json:"statusError,omitempty"`
	Attempts     int        `json:"attempts"`
	UploadedAt   time.Time  `json:"uploadedAt"`
	ProcessedAt  *time.Time `json:"processedAt,omitempty"`
	Content      string     `json:"content,omitempty"`
}

// UploadResponse is returned after an upload is accepted.
type UploadResponse struct {
	TranscriptResponse
	Replaced bool `json:"replaced"`
}

func toResponse(t Transcript) TranscriptResponse {
	return TranscriptResponse{
		ID:           t.ID,
		FileName:     t.FileName,
		SizeBytes:    t.SizeBytes,
		MessageCount: t.MessageCount,
		Status:       t.Status,
		StatusError:  t.StatusError,
		Attempts:     t.Attempts,
		UploadedAt:   t.UploadedAt,
		ProcessedAt:  t.ProcessedAt,
	}
}
