package transcripts

import "time"

// Status tracks a transcript through background extraction.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusEmpty      Status = "empty"
	StatusFailed     Status = "failed"
)

// Transcript is an uploaded chat export owned by a user. (UserID, FileName)
// is unique; re-uploading the same name replaces the content.
type Transcript struct {
	ID           string
	UserID       string
	FileName     string
	StorageKey   string
	SizeBytes    int64
	Content      string
	MessageCount int
	Status       Status
	StatusError  string
	Attempts     int
	UploadedAt   time.Time
	ProcessedAt  *time.Time
}

// ReferenceDate is the day relative phrases in the transcript resolve against.
func (t Transcript) ReferenceDate() time.Time {
	y, m, d := t.UploadedAt.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StatusUpdate describes a status transition.
type StatusUpdate struct {
	Status           Status
	Error            string
	IncrementAttempt bool
	ProcessedAt      *time.Time
}

// Stats summarizes a user's uploads.
type Stats struct {
	Files    int
	Messages int
	Pending  int
}
