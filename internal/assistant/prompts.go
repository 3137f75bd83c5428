package assistant

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/with_chat.txt
	withChatTemplate string
	//go:embed prompts/no_chat.txt
	noChatTemplate string
)

// minChatChars is the shortest combined transcript treated as real chat data.
const minChatChars = 10

// BuildPrompt renders the question prompt. An empty or near-empty transcript
// selects the variant that asks the user to upload a chat first.
func BuildPrompt(transcript, question string, history []Exchange) string {
	r := strings.NewReplacer(
		"{{history}}", formatHistory(history),
		"{{transcript}}", transcript,
		"{{question}}", question,
	)
	if len(strings.TrimSpace(transcript)) > minChatChars {
		return r.Replace(withChatTemplate)
	}
	return r.Replace(noChatTemplate)
}

func formatHistory(history []Exchange) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nPrevious conversation:\n")
	for _, e := range history {
		b.WriteString("User: ")
		b.WriteString(e.Question)
		b.WriteString("\nAssistant: ")
		b.WriteString(e.Answer)
		b.WriteString("\n")
	}
	return b.String()
}
