package chatparse

import (
	"regexp"
	"strings"
)

// Message is one chat entry. System messages have no author.
type Message struct {
	Timestamp string
	Author    string
	Text      string
	System    bool
	Bracketed bool
}

var (
	// 15/11/2025, 14:30 - Alice: text
	userLine = regexp.MustCompile(`^(\d[\d/\-.,\s:APMapm\x{202f}]*?)\s+-\s+([^:]+?):\s?(.*)$`)
	// 15/11/2025, 14:30 - Alice created group "Team"
	systemLine = regexp.MustCompile(`^(\d[\d/\-.,\s:APMapm\x{202f}]*?)\s+-\s+([^:]+)$`)
	// [11/15/25, 2:30 PM] Alice: text
	bracketUserLine = regexp.MustCompile(`^\[([^\]]+)\]\s*([^:]+?):\s?(.*)$`)
	// [11/15/25, 2:30 PM] Messages are end-to-end encrypted
	bracketSystemLine = regexp.MustCompile(`^\[([^\]]+)\]\s*(.+)$`)
)

// Parse splits an export into messages. Lines that match no header continue
// the previous message; leading lines before the first header are ignored.
func Parse(text string) []Message {
	var (
		messages []Message
		current  *Message
	)
	flush := func() {
		if current != nil {
			messages = append(messages, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimLeft(line, "\u200e\u200f")
		if msg, ok := parseHeader(line); ok {
			flush()
			current = &msg
			continue
		}
		if current != nil && strings.TrimSpace(line) != "" {
			current.Text += "\n" + line
		}
	}
	flush()
	return messages
}

func parseHeader(line string) (Message, bool) {
	if m := bracketUserLine.FindStringSubmatch(line); m != nil {
		return Message{Timestamp: m[1], Author: strings.TrimSpace(m[2]), Text: m[3], Bracketed: true}, true
	}
	if m := bracketSystemLine.FindStringSubmatch(line); m != nil {
		return Message{Timestamp: m[1], Text: m[2], System: true, Bracketed: true}, true
	}
	if m := userLine.FindStringSubmatch(line); m != nil {
		return Message{Timestamp: strings.TrimSpace(m[1]), Author: strings.TrimSpace(m[2]), Text: m[3]}, true
	}
	if m := systemLine.FindStringSubmatch(line); m != nil {
		return Message{Timestamp: strings.TrimSpace(m[1]), Text: m[2], System: true}, true
	}
	return Message{}, false
}

// Format rebuilds export text from messages.
func Format(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, m.String())
	}
	return strings.Join(lines, "\n")
}

// String renders the message in the export form it was parsed from.
func (m Message) String() string {
	switch {
	case m.Bracketed && m.System:
		return "[" + m.Timestamp + "] " + m.Text
	case m.Bracketed:
		return "[" + m.Timestamp + "] " + m.Author + ": " + m.Text
	case m.System:
		return m.Timestamp + " - " + m.Text
	default:
		return m.Timestamp + " - " + m.Author + ": " + m.Text
	}
}

// Body is the author-prefixed text without the timestamp.
func (m Message) Body() string {
	if m.System || m.Author == "" {
		return m.Text
	}
	return m.Author + ": " + m.Text
}

// CountMessages counts authored messages. Plain-text transcripts with no
// recognizable headers count one message per non-empty line.
func CountMessages(text string) int {
	messages := Parse(text)
	if len(messages) == 0 {
		n := 0
		for _, line := range strings.Split(text, "\n") {
			if strings.TrimSpace(line) != "" {
				n++
			}
		}
		return n
	}
	n := 0
	for _, m := range messages {
		if !m.System {
			n++
		}
	}
	return n
}
