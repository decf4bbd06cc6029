package facebook

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/emundo/emubot/botengine/domain"
	"github.com/sirupsen/logrus"
)

var urlAttachmentTypes = map[string]domain.AttachmentType{
	"audio": domain.AttachmentAudio,
	"file":  domain.AttachmentFile,
	"image": domain.AttachmentImage,
	"video": domain.AttachmentVideo,
}

// convertRequest maps one messaging event to a ChatRequest and the platform
// user it belongs to. Echoes of page messages are addressed to the recipient.
func convertRequest(raw json.RawMessage) (domain.ChatRequest, string) {
	var event Messaging
	if err := json.Unmarshal(raw, &event); err != nil {
		return domain.NewInvalidRequest(raw, false), ""
	}

	userID := event.Sender.ID
	if event.Message != nil && event.Message.IsEcho {
		// An echo is a message the page sent, so Sender is the page and
		// Recipient is the user. Keying it by the user keeps a human
		// takeover in the same conversation, pseudonym and contexts as the
		// user's own messages.
		userID = event.Recipient.ID
	}

	switch {
	case event.Message != nil && len(event.Message.Attachments) > 0:
		msg := event.Message
		first := msg.Attachments[0]
		kind, ok := urlAttachmentTypes[first.Type]
		if !ok || first.Payload == nil || first.Payload.URL == "" {
			return domain.NewInvalidRequest(raw, msg.IsEcho), userID
		}
		return domain.NewAttachmentRequest(domain.Attachment{
			Type:      kind,
			URL:       first.Payload.URL,
			StickerID: first.Payload.StickerID,
		}, msg.IsEcho), userID

	case event.Message != nil && event.Message.QuickReply != nil && event.Message.QuickReply.Payload != "":
		return domain.NewTextRequest(event.Message.QuickReply.Payload, event.Message.IsEcho), userID

	case event.Message != nil && event.Message.Text != "":
		return domain.NewTextRequest(event.Message.Text, event.Message.IsEcho), userID

	case event.Postback != nil && event.Postback.Payload != "":
		return domain.NewTextRequest(event.Postback.Payload, false), userID
	}

	return domain.NewInvalidRequest(raw, event.Message != nil && event.Message.IsEcho), userID
}

// convertResponse builds the Send API message for a response. ok is false
// for message types Messenger cannot render.
func convertResponse(msg domain.ChatMessage) (out *OutMessage, ok bool) {
	switch msg.Type {
	case domain.MessageTypeText:
		return &OutMessage{Text: msg.Text}, true

	case domain.MessageTypeImage:
		return convertImage(msg), true

	case domain.MessageTypeQuickReply:
		replies := make([]QuickReply, 0, len(msg.Replies))
		for _, r := range msg.Replies {
			replies = append(replies, QuickReply{ContentType: "text", Title: r, Payload: r})
		}
		return &OutMessage{Text: msg.Title, QuickReplies: replies}, true

	case domain.MessageTypeCustomQuickReply:
		replies := make([]QuickReply, 0, len(msg.CustomReplies))
		for _, name := range slices.Sorted(maps.Keys(msg.CustomReplies)) {
			replies = append(replies, QuickReply{ContentType: "text", Title: name, Payload: msg.CustomReplies[name]})
		}
		return &OutMessage{Text: msg.Title, QuickReplies: replies}, true

	case domain.MessageTypeButtonAttachment:
		buttons := make([]Button, 0, len(msg.Buttons))
		for _, b := range msg.Buttons {
			buttons = append(buttons, Button{
				Type:    string(b.Type),
				Title:   b.Title,
				URL:     b.URL,
				Payload: b.Payload,
			})
		}
		return &OutMessage{Attachment: &OutAttachment{
			Type: "template",
			Payload: AttachmentBody{
				TemplateType: "button",
				Text:         msg.Text,
				Buttons:      buttons,
			},
		}}, true
	}

	logrus.WithField("type", msg.Type).Warn("[FACEBOOK] dropping response of unsupported type")
	return nil, false
}

func convertImage(msg domain.ChatMessage) *OutMessage {
	if msg.Title != "" {
		return &OutMessage{Attachment: &OutAttachment{
			Type: "template",
			Payload: AttachmentBody{
				TemplateType: "generic",
				Elements: []Element{{
					Title:         msg.Title,
					ImageURL:      msg.URL,
					DefaultAction: DefaultAction{Type: "web_url", URL: msg.URL},
				}},
			},
		}}
	}

	body := AttachmentBody{URL: msg.URL}
	if msg.StickerID != nil {
		body.StickerID = msg.StickerID
	} else {
		reusable := false
		body.IsReusable = &reusable
	}
	return &OutMessage{Attachment: &OutAttachment{Type: "image", Payload: body}}
}
