package domain

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

type CustomPayloadType string

const (
	CustomPayloadURLButton        CustomPayloadType = "urlButton"
	CustomPayloadPostBackButton   CustomPayloadType = "postBackButton"
	CustomPayloadCallButton       CustomPayloadType = "callButton"
	CustomPayloadCustomQuickReply CustomPayloadType = "customQuickReply"
)

// CustomPayload is the decoded form of a custom NLU message. Buttons is set
// for the three button kinds, Replies for customQuickReply.
type CustomPayload struct {
	Type    CustomPayloadType
	Title   string
	Buttons []Button
	Replies map[string]string
}

// ButtonKind maps a button payload type to the kind used in ChatMessage.
func (p CustomPayload) ButtonKind() (ButtonKind, bool) {
	switch p.Type {
	case CustomPayloadURLButton:
		return ButtonKindURL, true
	case CustomPayloadPostBackButton:
		return ButtonKindPostback, true
	case CustomPayloadCallButton:
		return ButtonKindCall, true
	}
	return "", false
}

var defaultButtonTypes = map[CustomPayloadType]ButtonType{
	CustomPayloadURLButton:      ButtonTypeWebURL,
	CustomPayloadPostBackButton: ButtonTypePostback,
	CustomPayloadCallButton:     ButtonTypePhoneNumber,
}

// DecodeCustomPayload re-parses the opaque payload of a custom NLU message.
// The wire shape is {"type": ..., "title": ..., "payload": ...} where payload
// is a button list or a reply object. Every other shape, including provider
// specific structs, fails with ErrUnsupportedPayload.
func DecodeCustomPayload(raw json.RawMessage) (CustomPayload, error) {
	if !gjson.ValidBytes(raw) {
		return CustomPayload{}, fmt.Errorf("%w: payload is not valid JSON", ErrUnsupportedPayload)
	}

	kind := gjson.GetBytes(raw, "type")
	if !kind.Exists() {
		return CustomPayload{}, fmt.Errorf("%w: payload has no type", ErrUnsupportedPayload)
	}

	payload := CustomPayload{
		Type:  CustomPayloadType(kind.String()),
		Title: gjson.GetBytes(raw, "title").String(),
	}
	inner := gjson.GetBytes(raw, "payload")

	switch payload.Type {
	case CustomPayloadURLButton, CustomPayloadPostBackButton, CustomPayloadCallButton:
		if !inner.IsArray() {
			return CustomPayload{}, fmt.Errorf("%w: %s payload must be a list of buttons", ErrUnsupportedPayload, payload.Type)
		}
		if err := json.Unmarshal([]byte(inner.Raw), &payload.Buttons); err != nil {
			return CustomPayload{}, fmt.Errorf("%w: %v", ErrUnsupportedPayload, err)
		}
		for i := range payload.Buttons {
			if payload.Buttons[i].Type == "" {
				payload.Buttons[i].Type = defaultButtonTypes[payload.Type]
			}
		}
	case CustomPayloadCustomQuickReply:
		if !inner.IsObject() {
			return CustomPayload{}, fmt.Errorf("%w: customQuickReply payload must be an object", ErrUnsupportedPayload)
		}
		payload.Replies = make(map[string]string)
		inner.ForEach(func(key, value gjson.Result) bool {
			payload.Replies[key.String()] = value.String()
			return true
		})
	default:
		return CustomPayload{}, fmt.Errorf("%w: %q", ErrUnsupportedPayload, kind.String())
	}

	return payload, nil
}

// EncodeCustomPayload is the inverse of DecodeCustomPayload.
func EncodeCustomPayload(p CustomPayload) (json.RawMessage, error) {
	wire := struct {
		Type    CustomPayloadType `json:"type"`
		Title   string            `json:"title"`
		Payload any               `json:"payload"`
	}{Type: p.Type, Title: p.Title}

	if _, ok := p.ButtonKind(); ok {
		wire.Payload = p.Buttons
	} else {
		wire.Payload = p.Replies
	}

	return json.Marshal(wire)
}

// NluCustom wraps an encoded payload into a custom NLU message.
func NluCustom(p CustomPayload) (NluMessage, error) {
	raw, err := EncodeCustomPayload(p)
	if err != nil {
		return NluMessage{}, err
	}
	return NluMessage{Type: NluMessageCustom, Payload: raw}, nil
}
