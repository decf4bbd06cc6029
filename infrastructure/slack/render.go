package slack

import (
	"maps"
	"slices"
	"strings"

	"github.com/emundo/emubot/botengine/domain"
)

// renderText flattens a response into the plain text posted to Slack.
func renderText(msg domain.ChatMessage) (string, bool) {
	var b strings.Builder

	switch msg.Type {
	case domain.MessageTypeText:
		return msg.Text, msg.Text != ""

	case domain.MessageTypeImage:
		if msg.Title != "" {
			b.WriteString(msg.Title)
			b.WriteString("\n")
		}
		b.WriteString(msg.URL)

	case domain.MessageTypeQuickReply:
		b.WriteString(msg.Title)
		for _, r := range msg.Replies {
			b.WriteString("\n• ")
			b.WriteString(r)
		}

	case domain.MessageTypeCustomQuickReply:
		b.WriteString(msg.Title)
		for _, name := range slices.Sorted(maps.Keys(msg.CustomReplies)) {
			b.WriteString("\n• ")
			b.WriteString(name)
		}

	case domain.MessageTypeButtonAttachment:
		b.WriteString(msg.Text)
		for _, button := range msg.Buttons {
			target := button.URL
			if target == "" {
				target = button.Payload
			}
			b.WriteString("\n")
			b.WriteString(button.Title)
			b.WriteString(": ")
			b.WriteString(target)
		}

	default:
		return "", false
	}

	return b.String(), b.Len() > 0
}
