package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamsync-backend/internal/llm"
	"teamsync-backend/internal/shared/telemetry"
	"teamsync-backend/internal/transcripts"
)

const (
	defaultMaxContextChars = 60000
	defaultHistorySize     = 10
)

var (
	ErrEmptyQuestion = errors.New("question is required")
	ErrUpstream      = errors.New("assistant unavailable")
)

// TranscriptSource lists a user's transcripts, most recent first.
type TranscriptSource interface {
	List(ctx context.Context, userID string) ([]transcripts.Transcript, error)
}

// Service answers questions about a user's uploaded chats.
type Service struct {
	Transcripts     TranscriptSource
	LLM             llm.Client
	History         History
	MaxContextChars int
	HistorySize     int
	Now             func() time.Time
}

// Ask answers question using the user's transcripts and recent conversation.
func (s *Service) Ask(ctx context.Context, userID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	items, err := s.Transcripts.List(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load transcripts: %w", err)
	}
	combined := CombineTranscripts(items, s.maxContextChars())

	var history []Exchange
	if s.History != nil {
		history, err = s.History.Recent(ctx, userID, s.historySize())
		if err != nil {
			telemetry.Warn("assistant.history_unavailable", map[string]any{"user_id": userID, "error": err})
			history = nil
		}
	}

	if s.LLM == nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, llm.ErrNotConfigured)
	}
	reply, err := s.LLM.Complete(ctx, BuildPrompt(combined, question, history))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	answer := strings.TrimSpace(reply)
	if answer == "" {
		return "", fmt.Errorf("%w: %v", ErrUpstream, llm.ErrEmptyResponse)
	}

	if s.History != nil {
		if err := s.History.Append(ctx, userID, Exchange{Question: question, Answer: answer, At: s.now()}); err != nil {
			telemetry.Warn("assistant.history_append_failed", map[string]any{"user_id": userID, "error": err})
		}
	}
	return answer, nil
}

// ClearHistory forgets the user's conversation.
func (s *Service) ClearHistory(ctx context.Context, userID string) error {
	if s.History == nil {
		return nil
	}
	return s.History.Clear(ctx, userID)
}

// CombineTranscripts joins transcripts under per-file headers, stopping once
// maxChars is reached. The last included transcript may be cut short.
func CombineTranscripts(items []transcripts.Transcript, maxChars int) string {
	var b strings.Builder
	remaining := maxChars
	for _, t := range items {
		if remaining <= 0 {
			break
		}
		var part strings.Builder
		if b.Len() > 0 {
			part.WriteString("\n\n")
		}
		part.WriteString("--- File: ")
		part.WriteString(t.FileName)
		part.WriteString(" ---\n")
		part.WriteString(t.Content)

		chunk := []rune(part.String())
		if len(chunk) > remaining {
			chunk = chunk[:remaining]
		}
		b.WriteString(string(chunk))
		remaining -= len(chunk)
	}
	return b.String()
}

func (s *Service) maxContextChars() int {
	if s.MaxContextChars > 0 {
		return s.MaxContextChars
	}
	return defaultMaxContextChars
}

func (s *Service) historySize() int {
	if s.HistorySize > 0 {
		return s.HistorySize
	}
	return defaultHistorySize
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
