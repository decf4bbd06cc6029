package domain

import (
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// RequestType discriminates the variants of ChatRequest.
type RequestType string

const (
	RequestTypeText       RequestType = "text"
	RequestTypeAttachment RequestType = "attachment"
	RequestTypeInitial    RequestType = "initial"
	RequestTypeInvalid    RequestType = "invalid"
)

type AttachmentType string

const (
	AttachmentAudio    AttachmentType = "audio"
	AttachmentVideo    AttachmentType = "video"
	AttachmentImage    AttachmentType = "image"
	AttachmentFile     AttachmentType = "file"
	AttachmentTemplate AttachmentType = "template"
)

// Attachment is either url based (URL set) or id based (AttachmentID set).
type Attachment struct {
	Type         AttachmentType `json:"attachment_type"`
	URL          string         `json:"url,omitempty"`
	StickerID    *int64         `json:"sticker_id,omitempty"`
	AttachmentID string         `json:"attachment_id,omitempty"`
}

func (a Attachment) IsURLBased() bool {
	return a.URL != ""
}

func (a Attachment) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Type, validation.Required, validation.In(
			AttachmentAudio, AttachmentVideo, AttachmentImage, AttachmentFile, AttachmentTemplate,
		)),
		validation.Field(&a.URL, validation.When(a.AttachmentID == "", validation.Required).Else(validation.Empty)),
		validation.Field(&a.StickerID, validation.When(a.URL == "", validation.Nil)),
	)
}

// ChatRequest is the platform independent form of an incoming message.
// Only the fields belonging to Type are populated; Raw keeps the undecoded
// platform payload of an invalid request so an interceptor can reclassify it.
type ChatRequest struct {
	Type        RequestType     `json:"type"`
	IsFromAdmin bool            `json:"is_from_admin,omitempty"`
	Text        string          `json:"text,omitempty"`
	Attachment  *Attachment     `json:"attachment,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

func NewTextRequest(text string, isFromAdmin bool) ChatRequest {
	return ChatRequest{Type: RequestTypeText, Text: text, IsFromAdmin: isFromAdmin}
}

func NewAttachmentRequest(attachment Attachment, isFromAdmin bool) ChatRequest {
	return ChatRequest{Type: RequestTypeAttachment, Attachment: &attachment, IsFromAdmin: isFromAdmin}
}

func NewInitialRequest() ChatRequest {
	return ChatRequest{Type: RequestTypeInitial}
}

func NewInvalidRequest(raw json.RawMessage, isFromAdmin bool) ChatRequest {
	return ChatRequest{Type: RequestTypeInvalid, Raw: raw, IsFromAdmin: isFromAdmin}
}

// Validate enforces that exactly one variant is populated.
func (r ChatRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(
			RequestTypeText, RequestTypeAttachment, RequestTypeInitial, RequestTypeInvalid,
		)),
		validation.Field(&r.Text, validation.When(r.Type != RequestTypeText, validation.Empty)),
		validation.Field(&r.Attachment, validation.When(r.Type == RequestTypeAttachment, validation.Required).Else(validation.Nil)),
		validation.Field(&r.Raw, validation.When(r.Type != RequestTypeInvalid, validation.Empty)),
		validation.Field(&r.IsFromAdmin, validation.When(r.Type == RequestTypeInitial, validation.Empty)),
	)
}
