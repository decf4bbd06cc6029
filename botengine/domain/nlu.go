package domain

import "encoding/json"

// NluStatus reports whether the NLU backend call succeeded.
type NluStatus struct {
	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorDetails string `json:"error_details,omitempty"`
}

type NluContext struct {
	Name          string `json:"name"`
	LifespanCount int    `json:"lifespan_count"`
}

type NluMessageType string

const (
	NluMessageText       NluMessageType = "text"
	NluMessageQuickReply NluMessageType = "quickReply"
	NluMessageImage      NluMessageType = "image"
	NluMessageCustom     NluMessageType = "custom"
)

// NluMessage is a single message produced by an agent. For custom messages
// Payload carries developer defined JSON untouched; use DecodeCustomPayload
// to read it. Images may name a Messenger sticker instead of a plain picture.
type NluMessage struct {
	Type      NluMessageType  `json:"type"`
	Text      string          `json:"text,omitempty"`
	URL       string          `json:"url,omitempty"`
	Title     string          `json:"title,omitempty"`
	StickerID *int64          `json:"sticker_id,omitempty"`
	Replies   []string        `json:"replies,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func NluText(text string) NluMessage {
	return NluMessage{Type: NluMessageText, Text: text}
}

type NluResult struct {
	ResolvedQuery    string         `json:"resolved_query"`
	IntentName       string         `json:"intent_name"`
	Action           string         `json:"action,omitempty"`
	IsFallbackIntent bool           `json:"is_fallback_intent"`
	Parameters       map[string]any `json:"parameters,omitempty"`
	FulfillmentText  string         `json:"fulfillment_text,omitempty"`
	Contexts         []NluContext   `json:"contexts,omitempty"`
	Messages         []NluMessage   `json:"messages"`
	Score            float64        `json:"score"`
}

// NluResponse is the answer of one agent to one text request.
type NluResponse struct {
	AgentName string    `json:"agent_name"`
	Status    NluStatus `json:"status"`
	Result    NluResult `json:"result"`
}
