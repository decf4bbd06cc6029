package domain

type MessageType string

const (
	MessageTypeText             MessageType = "text"
	MessageTypeImage            MessageType = "image"
	MessageTypeQuickReply       MessageType = "quickReply"
	MessageTypeCustomQuickReply MessageType = "customQuickReply"
	MessageTypeButtonAttachment MessageType = "buttonAttachment"
)

type ButtonKind string

const (
	ButtonKindURL      ButtonKind = "url"
	ButtonKindPostback ButtonKind = "postback"
	ButtonKindCall     ButtonKind = "call"
)

// ButtonType is the wire type of a single button inside a button payload.
type ButtonType string

const (
	ButtonTypeWebURL      ButtonType = "web_url"
	ButtonTypePostback    ButtonType = "postback"
	ButtonTypePhoneNumber ButtonType = "phone_number"
)

// Button is a url, postback or call button. Payload holds the postback
// message or the phone number.
type Button struct {
	Type    ButtonType `json:"type"`
	Title   string     `json:"title"`
	URL     string     `json:"url,omitempty"`
	Payload string     `json:"payload,omitempty"`
}

// ChatMessage is the content of a reply. Type selects which fields are set:
//
//	text             Text
//	image            URL, Title, StickerID
//	quickReply       Title, Replies
//	customQuickReply Title, CustomReplies (reply title -> payload)
//	buttonAttachment ButtonKind, Text, Buttons
type ChatMessage struct {
	Type          MessageType       `json:"type"`
	Text          string            `json:"text,omitempty"`
	URL           string            `json:"url,omitempty"`
	Title         string            `json:"title,omitempty"`
	StickerID     *int64            `json:"sticker_id,omitempty"`
	Replies       []string          `json:"replies,omitempty"`
	CustomReplies map[string]string `json:"custom_replies,omitempty"`
	ButtonKind    ButtonKind        `json:"button_kind,omitempty"`
	Buttons       []Button          `json:"buttons,omitempty"`
}

// ChatResponse is one reply addressed to a platform user.
type ChatResponse struct {
	Message     ChatMessage `json:"message"`
	RecipientID string      `json:"recipient_id"`
}

func TextResponse(text, recipientID string) ChatResponse {
	return ChatResponse{
		Message:     ChatMessage{Type: MessageTypeText, Text: text},
		RecipientID: recipientID,
	}
}
