package processing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"teamsync-backend/internal/calendar"
	"teamsync-backend/internal/extract"
	"teamsync-backend/internal/shared/metrics"
	"teamsync-backend/internal/shared/telemetry"
	"teamsync-backend/internal/todos"
	"teamsync-backend/internal/transcripts"
)

var (
	// ErrTranscriptMissing is permanent: the transcript was deleted or never existed.
	ErrTranscriptMissing = errors.New("transcript not found")
	// ErrUpstream means extraction produced nothing because the LLM failed.
	ErrUpstream = errors.New("extraction upstream failed")
	// ErrSuperseded is permanent: the transcript was re-uploaded or deleted
	// while this run was extracting.
	ErrSuperseded = errors.New("transcript superseded")
)

// Extractor runs the two LLM extractions.
type Extractor interface {
	ActionItems(ctx context.Context, text string) extract.ActionItemsResult
	ScheduledEvents(ctx context.Context, text string, ref time.Time) extract.ScheduledEventsResult
}

// Service turns a stored transcript into todos and calendar events.
type Service struct {
	Transcripts transcripts.Repo
	Extractor   Extractor
	Results     ResultsStore
	ScanDates   bool
	NewID       func() string
	Now         func() time.Time
}

// Outcome summarizes one processing run.
type Outcome struct {
	Status transcripts.Status
	Todos  int
	Events int
}

// Process extracts and persists the records of one transcript. A userID that
// does not own the transcript is treated as missing.
func (s *Service) Process(ctx context.Context, transcriptID, userID string) (Outcome, error) {
	started := time.Now()

	t, err := s.Transcripts.GetByID(ctx, transcriptID)
	if errors.Is(err, transcripts.ErrNotFound) || (err == nil && userID != "" && t.UserID != userID) {
		return Outcome{}, fmt.Errorf("%w: %s", ErrTranscriptMissing, transcriptID)
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("load transcript: %w", err)
	}

	if err := s.Transcripts.UpdateStatus(ctx, t.ID, transcripts.StatusUpdate{
		Status:           transcripts.StatusProcessing,
		IncrementAttempt: true,
	}); err != nil {
		return Outcome{}, fmt.Errorf("mark processing: %w", err)
	}

	ref := t.ReferenceDate()
	var (
		itemsRes  extract.ActionItemsResult
		eventsRes extract.ScheduledEventsResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		itemsRes = s.Extractor.ActionItems(gctx, t.Content)
		return nil
	})
	g.Go(func() error {
		eventsRes = s.Extractor.ScheduledEvents(gctx, t.Content, ref)
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	events := eventsRes.Events
	if s.ScanDates {
		events = extract.MergeEvents(ref, extract.ScanTranscriptDates(t.Content, ref), events)
	}

	itemsFailed := itemsRes.Status == extract.StatusUpstreamFailed
	eventsFailed := eventsRes.Status == extract.StatusUpstreamFailed
	found := len(itemsRes.Items) + len(events)
	if (itemsFailed && eventsFailed) || ((itemsFailed || eventsFailed) && found == 0) {
		cause := upstreamCause(itemsRes.Err, eventsRes.Err)
		_ = s.Transcripts.UpdateStatus(ctx, t.ID, transcripts.StatusUpdate{
			Status: transcripts.StatusProcessing,
			Error:  cause.Error(),
		})
		return Outcome{}, fmt.Errorf("%w: %w", ErrUpstream, cause)
	}

	now := s.now()
	todoRecords := s.toTodos(t, itemsRes.Items, now)
	eventRecords := s.toEvents(t, events, now)
	if err := s.Results.Replace(ctx, t.ID, t.UploadedAt, todoRecords, eventRecords); err != nil {
		if errors.Is(err, ErrSuperseded) {
			telemetry.Warn("transcript.superseded", map[string]any{
				"transcript_id": t.ID,
				"uploaded_at":   t.UploadedAt,
			})
			return Outcome{}, fmt.Errorf("%w: %s", ErrSuperseded, t.ID)
		}
		return Outcome{}, fmt.Errorf("store results: %w", err)
	}

	out := Outcome{Status: transcripts.StatusCompleted, Todos: len(todoRecords), Events: len(eventRecords)}
	if found == 0 {
		out.Status = transcripts.StatusEmpty
	}
	var note string
	switch {
	case itemsFailed:
		note = "action items unavailable: " + errString(itemsRes.Err)
	case eventsFailed:
		note = "scheduled events unavailable: " + errString(eventsRes.Err)
	}
	if err := s.Transcripts.UpdateStatus(ctx, t.ID, transcripts.StatusUpdate{
		Status:      out.Status,
		Error:       note,
		ProcessedAt: &now,
	}); err != nil {
		return Outcome{}, fmt.Errorf("mark %s: %w", out.Status, err)
	}

	metrics.AddExtracted("todos", out.Todos)
	metrics.AddExtracted("events", out.Events)
	metrics.ObserveProcessing(time.Since(started))
	telemetry.Info("transcript.processed", map[string]any{
		"transcript_id": t.ID,
		"user_id":       t.UserID,
		"status":        string(out.Status),
		"todos":         out.Todos,
		"events":        out.Events,
		"partial":       note != "",
		"duration_ms":   time.Since(started).Milliseconds(),
	})
	return out, nil
}

// MarkFailed records a terminal failure once retries are exhausted.
func (s *Service) MarkFailed(ctx context.Context, transcriptID string, cause error) error {
	now := s.now()
	err := s.Transcripts.UpdateStatus(ctx, transcriptID, transcripts.StatusUpdate{
		Status:      transcripts.StatusFailed,
		Error:       errString(cause),
		ProcessedAt: &now,
	})
	if errors.Is(err, transcripts.ErrNotFound) {
		return nil
	}
	return err
}

func (s *Service) toTodos(t transcripts.Transcript, items []extract.ActionItem, now time.Time) []todos.Todo {
	out := make([]todos.Todo, 0, len(items))
	for i, item := range items {
		out = append(out, todos.Todo{
			ID:           s.newID(),
			UserID:       t.UserID,
			TranscriptID: t.ID,
			Task:         item.Description,
			Priority:     string(item.Priority),
			Position:     i,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return out
}

func (s *Service) toEvents(t transcripts.Transcript, events []extract.ScheduledEvent, now time.Time) []calendar.Event {
	out := make([]calendar.Event, 0, len(events))
	for i, e := range events {
		out = append(out, calendar.Event{
			ID:           s.newID(),
			UserID:       t.UserID,
			TranscriptID: t.ID,
			Title:        e.Title,
			EventDate:    e.Date,
			Description:  e.Description,
			IsScheduled:  e.Scheduled(),
			Position:     i,
			CreatedAt:    now,
		})
	}
	return out
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// upstreamCause keeps the extraction errors matchable with errors.Is.
func upstreamCause(errs ...error) error {
	var causes []error
	for _, err := range errs {
		if err != nil {
			causes = append(causes, err)
		}
	}
	if len(causes) == 0 {
		return errors.New("no usable reply")
	}
	return joinedError(causes)
}

// joinedError reads as "a; b" where errors.Join would use a newline.
type joinedError []error

func (e joinedError) Error() string {
	parts := make([]string, len(e))
	for i, err := range e {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

func (e joinedError) Unwrap() []error { return e }

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
