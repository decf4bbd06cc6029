package botengine

import (
	"fmt"

	"github.com/emundo/emubot/botengine/domain"
)

// AttachmentIntent names the synthetic answer built for requests that skip
// the NLU agents.
const AttachmentIntent = "Attachment"

// ToChatResponses converts every NLU message into one chat response, in
// order. A single unsupported message fails the whole batch.
func ToChatResponses(nlu domain.NluResponse, recipientID string) ([]domain.ChatResponse, error) {
	responses := make([]domain.ChatResponse, 0, len(nlu.Result.Messages))
	for i, m := range nlu.Result.Messages {
		msg, err := toChatMessage(m)
		if err != nil {
			return nil, fmt.Errorf("message %d of %s: %w", i, nlu.AgentName, err)
		}
		responses = append(responses, domain.ChatResponse{Message: msg, RecipientID: recipientID})
	}
	return responses, nil
}

func toChatMessage(m domain.NluMessage) (domain.ChatMessage, error) {
	switch m.Type {
	case domain.NluMessageText:
		return domain.ChatMessage{Type: domain.MessageTypeText, Text: m.Text}, nil
	case domain.NluMessageQuickReply:
		return domain.ChatMessage{Type: domain.MessageTypeQuickReply, Title: m.Title, Replies: m.Replies}, nil
	case domain.NluMessageImage:
		return domain.ChatMessage{Type: domain.MessageTypeImage, URL: m.URL, Title: m.Title, StickerID: m.StickerID}, nil
	case domain.NluMessageCustom:
		payload, err := domain.DecodeCustomPayload(m.Payload)
		if err != nil {
			return domain.ChatMessage{}, err
		}
		if kind, ok := payload.ButtonKind(); ok {
			return domain.ChatMessage{
				Type:       domain.MessageTypeButtonAttachment,
				ButtonKind: kind,
				Text:       payload.Title,
				Buttons:    payload.Buttons,
			}, nil
		}
		return domain.ChatMessage{
			Type:          domain.MessageTypeCustomQuickReply,
			Title:         payload.Title,
			CustomReplies: payload.Replies,
		}, nil
	}
	return domain.ChatMessage{}, fmt.Errorf("%w: nlu message type %q", domain.ErrUnsupportedPayload, m.Type)
}

// ToNluResponse builds the answer for a request that did not go through the
// agents: an interrupted request or an initial one. The action set by the
// chatToCore stage is kept so later stages can react to it.
func ToNluResponse(result domain.PipelineResult[domain.ChatRequest]) domain.NluResponse {
	return domain.NluResponse{
		AgentName: "None",
		Status:    domain.NluStatus{Success: true},
		Result: domain.NluResult{
			ResolvedQuery:    AttachmentIntent,
			IntentName:       AttachmentIntent,
			Action:           result.Action,
			IsFallbackIntent: false,
			Messages:         []domain.NluMessage{},
			Score:            1,
		},
	}
}
