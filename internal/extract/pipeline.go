package extract

import (
	"context"
	"regexp"
	"strings"
	"time"

	"teamsync-backend/internal/llm"
	"teamsync-backend/internal/shared/metrics"
	"teamsync-backend/internal/shared/telemetry"
)

const (
	kindTodos  = "todos"
	kindEvents = "events"
)

// listMarker needs whitespace after the bullet so rules, bold text and
// decimals are not read as list items. A task checkbox is part of the marker.
var listMarker = regexp.MustCompile(`^(?:[-*•–]|\d{1,3}[.)])\s+(?:\[[ xX]\]\s*)?`)

// Pipeline turns transcripts into action items and scheduled events.
// It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	LLM   llm.Client
	Fuzzy DateParser
}

// New returns a pipeline using client and the default natural-language date parser.
func New(client llm.Client) *Pipeline {
	return &Pipeline{LLM: client, Fuzzy: defaultParser}
}

// ExtractActionItems returns the action items found in text. Upstream
// failures yield an empty slice.
func (p *Pipeline) ExtractActionItems(ctx context.Context, text string) []ActionItem {
	return p.ActionItems(ctx, text).Items
}

// ExtractScheduledEvents returns events on or after ref. Upstream failures
// yield an empty slice.
func (p *Pipeline) ExtractScheduledEvents(ctx context.Context, text string, ref time.Time) []ScheduledEvent {
	return p.ScheduledEvents(ctx, text, ref).Events
}

// ActionItems is ExtractActionItems with the upstream outcome reported.
func (p *Pipeline) ActionItems(ctx context.Context, text string) ActionItemsResult {
	reply, err := p.complete(ctx, kindTodos, ActionItemsPrompt(text))
	if err != nil {
		metrics.IncExtraction(kindTodos, string(StatusUpstreamFailed))
		return ActionItemsResult{Items: []ActionItem{}, Status: StatusUpstreamFailed, Err: err}
	}

	items := ParseActionItems(reply)
	status := StatusOK
	if len(items) == 0 {
		status = StatusEmpty
	}
	metrics.IncExtraction(kindTodos, string(status))
	return ActionItemsResult{Items: items, Status: status}
}

// ScheduledEvents is ExtractScheduledEvents with the upstream outcome reported.
func (p *Pipeline) ScheduledEvents(ctx context.Context, text string, ref time.Time) ScheduledEventsResult {
	ref = day(ref)
	reply, err := p.complete(ctx, kindEvents, ScheduledEventsPrompt(text, ref))
	if err != nil {
		metrics.IncExtraction(kindEvents, string(StatusUpstreamFailed))
		return ScheduledEventsResult{Events: []ScheduledEvent{}, Status: StatusUpstreamFailed, Err: err}
	}

	events := MergeEvents(ref, p.ParseScheduledEvents(reply, ref))
	status := StatusOK
	if len(events) == 0 {
		status = StatusEmpty
	}
	metrics.IncExtraction(kindEvents, string(status))
	return ScheduledEventsResult{Events: events, Status: status}
}

func (p *Pipeline) complete(ctx context.Context, kind, prompt string) (string, error) {
	if p == nil || p.LLM == nil {
		return "", llm.ErrNotConfigured
	}
	reply, err := p.LLM.Complete(ctx, prompt)
	if err != nil {
		telemetry.Warn("extract.llm_failed", map[string]any{
			"kind":  kind,
			"error": err,
		})
		return "", err
	}
	return reply, nil
}

// ParseActionItems keeps list-marked lines of reply with the marker stripped.
func ParseActionItems(reply string) []ActionItem {
	items := []ActionItem{}
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		loc := listMarker.FindStringIndex(line)
		if loc == nil {
			continue
		}
		desc := strings.TrimSpace(line[loc[1]:])
		if desc == "" {
			continue
		}
		items = append(items, ActionItem{Description: desc, Priority: PriorityMedium})
	}
	return items
}

// ParseScheduledEvents reads DATE/EVENT lines from reply. Dates are resolved
// but not yet filtered or merged.
func (p *Pipeline) ParseScheduledEvents(reply string, ref time.Time) []ScheduledEvent {
	var fuzzy DateParser
	if p != nil {
		fuzzy = p.Fuzzy
	}

	var events []ScheduledEvent
	for _, line := range strings.Split(reply, "\n") {
		candidate, title, ok := splitEventLine(line)
		if !ok {
			continue
		}
		ev := ScheduledEvent{Title: title, Description: title}
		if d, resolved := resolveDate(fuzzy, candidate, ref); resolved {
			d = day(d)
			ev.Date = &d
		}
		events = append(events, ev)
	}
	return events
}

// splitEventLine reads "DATE: <value> | EVENT: <title>". A "|" inside the
// title ends it.
func splitEventLine(line string) (candidate, title string, ok bool) {
	if !strings.Contains(line, "DATE:") || !strings.Contains(line, "EVENT:") {
		return "", "", false
	}
	parts := strings.Split(line, "|")
	if len(parts) < 2 {
		return "", "", false
	}
	for _, part := range parts {
		if i := strings.Index(part, "DATE:"); i >= 0 && candidate == "" {
			candidate = strings.TrimSpace(part[i+len("DATE:"):])
			continue
		}
		if i := strings.Index(part, "EVENT:"); i >= 0 && title == "" {
			title = strings.TrimSpace(part[i+len("EVENT:"):])
		}
	}
	if title == "" {
		return "", "", false
	}
	return candidate, title, true
}
