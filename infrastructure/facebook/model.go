package facebook

// Webhook payload (subset used here).

type Messaging struct {
	Sender    Party     `json:"sender"`
	Recipient Party     `json:"recipient"`
	Timestamp int64     `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
	Postback  *Postback `json:"postback,omitempty"`
}

type Party struct {
	ID string `json:"id"`
}

type Message struct {
	IsEcho      bool                 `json:"is_echo,omitempty"`
	MID         string               `json:"mid"`
	Text        string               `json:"text,omitempty"`
	QuickReply  *QuickReplyAnswer    `json:"quick_reply,omitempty"`
	Attachments []IncomingAttachment `json:"attachments,omitempty"`
	StickerID   *int64               `json:"sticker_id,omitempty"`
}

type QuickReplyAnswer struct {
	Payload string `json:"payload"`
}

type Postback struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// IncomingAttachment covers url attachments (audio, file, image, video);
// fallback and location attachments only carry their type here.
type IncomingAttachment struct {
	Type    string `json:"type"`
	Payload *struct {
		URL       string `json:"url"`
		StickerID *int64 `json:"sticker_id,omitempty"`
	} `json:"payload,omitempty"`
}

// Send API payload.

type SendRequest struct {
	MessagingType string      `json:"messaging_type"`
	Recipient     Party       `json:"recipient"`
	Message       *OutMessage `json:"message"`
}

type OutMessage struct {
	Text         string         `json:"text,omitempty"`
	QuickReplies []QuickReply   `json:"quick_replies,omitempty"`
	Attachment   *OutAttachment `json:"attachment,omitempty"`
}

type QuickReply struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Payload     string `json:"payload"`
}

type OutAttachment struct {
	Type    string         `json:"type"`
	Payload AttachmentBody `json:"payload"`
}

// AttachmentBody holds the fields of image and template attachments.
type AttachmentBody struct {
	URL          string    `json:"url,omitempty"`
	IsReusable   *bool     `json:"is_reusable,omitempty"`
	StickerID    *int64    `json:"sticker_id,omitempty"`
	TemplateType string    `json:"template_type,omitempty"`
	Text         string    `json:"text,omitempty"`
	Buttons      []Button  `json:"buttons,omitempty"`
	Elements     []Element `json:"elements,omitempty"`
}

type Button struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Payload string `json:"payload,omitempty"`
}

type Element struct {
	Title         string        `json:"title"`
	ImageURL      string        `json:"image_url"`
	DefaultAction DefaultAction `json:"default_action"`
}

type DefaultAction struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// SendResult is the confirmation returned by the Send API.
type SendResult struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}
