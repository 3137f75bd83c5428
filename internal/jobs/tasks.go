package jobs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// TypeProcessTranscript runs extraction for one uploaded transcript.
	TypeProcessTranscript = "transcript:process"
	// TypeCleanup removes transcripts past the retention window.
	TypeCleanup = "transcripts:cleanup"

	DefaultQueue    = "default"
	DefaultMaxRetry = 3
)

// ProcessPayload is the body of a transcript:process task.
type ProcessPayload struct {
	TranscriptID string `json:"transcriptId"`
	UserID       string `json:"userId"`
	RequestID    string `json:"requestId,omitempty"`
	EnqueuedAt   string `json:"enqueuedAt"`
}

// CleanupPayload is the body of a transcripts:cleanup task.
type CleanupPayload struct {
	OlderThanDays int `json:"olderThanDays"`
}

// NewProcessTask builds a transcript:process task.
func NewProcessTask(p ProcessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeProcessTranscript, data), nil
}

// NewCleanupTask builds a transcripts:cleanup task.
func NewCleanupTask(olderThanDays int) (*asynq.Task, error) {
	data, err := json.Marshal(CleanupPayload{OlderThanDays: olderThanDays})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeCleanup, data), nil
}

// PayloadMeta captures details useful for logging and diagnostics.
type PayloadMeta struct {
	Len int
	SHA string
}

// ComputeMeta returns the payload length and SHA-256 hash.
func ComputeMeta(payload []byte) PayloadMeta {
	if len(payload) == 0 {
		return PayloadMeta{}
	}
	sum := sha256.Sum256(payload)
	return PayloadMeta{Len: len(payload), SHA: hex.EncodeToString(sum[:])}
}

// ErrDecode indicates a payload that is empty or not valid JSON.
type ErrDecode struct {
	Meta PayloadMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode payload"
	}
	return "decode payload: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingTranscriptID indicates a payload without a transcript id.
type ErrMissingTranscriptID struct {
	Meta      PayloadMeta
	RequestID string
}

func (e ErrMissingTranscriptID) Error() string { return "missing transcript id" }

// ErrProcess indicates processing failed after the payload was accepted.
type ErrProcess struct {
	TranscriptID string
	RequestID    string
	Err          error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process transcript"
	}
	return "process transcript: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseProcessPayload validates and decodes a transcript:process payload.
func ParseProcessPayload(payload []byte) (ProcessPayload, PayloadMeta, error) {
	meta := ComputeMeta(payload)
	if len(strings.TrimSpace(string(payload))) == 0 {
		return ProcessPayload{}, meta, ErrDecode{Meta: meta, Err: fmt.Errorf("empty payload")}
	}
	var p ProcessPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return ProcessPayload{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(p.TranscriptID) == "" {
		return p, meta, ErrMissingTranscriptID{Meta: meta, RequestID: p.RequestID}
	}
	return p, meta, nil
}

// ParseCleanupPayload decodes a transcripts:cleanup payload; an empty body
// means the configured default.
func ParseCleanupPayload(payload []byte) (CleanupPayload, error) {
	var p CleanupPayload
	if len(strings.TrimSpace(string(payload))) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return CleanupPayload{}, ErrDecode{Meta: ComputeMeta(payload), Err: err}
	}
	return p, nil
}
