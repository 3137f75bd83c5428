package extract

import (
	_ "embed"
	"strings"
	"time"
)

var (
	//go:embed prompts/action_items.txt
	actionItemsTemplate string
	//go:embed prompts/scheduled_events.txt
	scheduledEventsTemplate string
)

// ActionItemsPrompt renders the todo extraction prompt for text.
func ActionItemsPrompt(text string) string {
	return strings.NewReplacer("{{transcript}}", text).Replace(actionItemsTemplate)
}

// ScheduledEventsPrompt renders the event extraction prompt for text and ref.
func ScheduledEventsPrompt(text string, ref time.Time) string {
	return strings.NewReplacer(
		"{{transcript}}", text,
		"{{reference_date}}", ref.Format(isoLayout),
	).Replace(scheduledEventsTemplate)
}
