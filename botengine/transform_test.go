package botengine

import (
	"encoding/json"
	"testing"

	"github.com/emundo/emubot/botengine/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToChatResponses_SupportedMessages(t *testing.T) {
	buttons, err := domain.NluCustom(domain.CustomPayload{
		Type:  domain.CustomPayloadPostBackButton,
		Title: "Pick one",
		Buttons: []domain.Button{
			{Type: domain.ButtonTypePostback, Title: "Yes", Payload: "yes"},
			{Type: domain.ButtonTypePostback, Title: "No", Payload: "no"},
		},
	})
	require.NoError(t, err)
	replies, err := domain.NluCustom(domain.CustomPayload{
		Type:    domain.CustomPayloadCustomQuickReply,
		Title:   "Size?",
		Replies: map[string]string{"Small": "SIZE_S", "Large": "SIZE_L"},
	})
	require.NoError(t, err)

	nlu := domain.NluResponse{
		AgentName: "first",
		Result: domain.NluResult{Messages: []domain.NluMessage{
			domain.NluText("hello"),
			{Type: domain.NluMessageQuickReply, Title: "Continue?", Replies: []string{"yes", "no"}},
			{Type: domain.NluMessageImage, URL: "https://example.org/cat.png", Title: "Cat"},
			buttons,
			replies,
		}},
	}

	got, err := ToChatResponses(nlu, "user-1")
	require.NoError(t, err)

	assert.Equal(t, []domain.ChatResponse{
		{RecipientID: "user-1", Message: domain.ChatMessage{Type: domain.MessageTypeText, Text: "hello"}},
		{RecipientID: "user-1", Message: domain.ChatMessage{Type: domain.MessageTypeQuickReply, Title: "Continue?", Replies: []string{"yes", "no"}}},
		{RecipientID: "user-1", Message: domain.ChatMessage{Type: domain.MessageTypeImage, URL: "https://example.org/cat.png", Title: "Cat"}},
		{RecipientID: "user-1", Message: domain.ChatMessage{
			Type:       domain.MessageTypeButtonAttachment,
			ButtonKind: domain.ButtonKindPostback,
			Text:       "Pick one",
			Buttons: []domain.Button{
				{Type: domain.ButtonTypePostback, Title: "Yes", Payload: "yes"},
				{Type: domain.ButtonTypePostback, Title: "No", Payload: "no"},
			},
		}},
		{RecipientID: "user-1", Message: domain.ChatMessage{
			Type:          domain.MessageTypeCustomQuickReply,
			Title:         "Size?",
			CustomReplies: map[string]string{"Small": "SIZE_S", "Large": "SIZE_L"},
		}},
	}, got)
}

func TestToChatResponses_KeepsStickerID(t *testing.T) {
	sticker := int64(369239263222822)
	nlu := domain.NluResponse{Result: domain.NluResult{Messages: []domain.NluMessage{
		{Type: domain.NluMessageImage, URL: "https://example.org/thumbs-up.png", StickerID: &sticker},
	}}}

	got, err := ToChatResponses(nlu, "user-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.MessageTypeImage, got[0].Message.Type)
	require.NotNil(t, got[0].Message.StickerID)
	assert.Equal(t, sticker, *got[0].Message.StickerID)
}

func TestToChatResponses_UnsupportedPayloadAbortsBatch(t *testing.T) {
	nlu := domain.NluResponse{Result: domain.NluResult{Messages: []domain.NluMessage{
		domain.NluText("fine"),
		{Type: domain.NluMessageCustom, Payload: json.RawMessage(`{"type":"istruct","payload":{}}`)},
		domain.NluText("also fine"),
	}}}

	got, err := ToChatResponses(nlu, "u")
	assert.ErrorIs(t, err, domain.ErrUnsupportedPayload)
	assert.Nil(t, got)
}

func TestToChatResponses_Empty(t *testing.T) {
	got, err := ToChatResponses(domain.NluResponse{}, "u")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestToNluResponse(t *testing.T) {
	interrupted := domain.RespondOK(domain.NewTextRequest("x", false), "u").Interrupt("attachment")

	got := ToNluResponse(interrupted)

	assert.Equal(t, "None", got.AgentName)
	assert.True(t, got.Status.Success)
	assert.Equal(t, "Attachment", got.Result.IntentName)
	assert.Equal(t, "Attachment", got.Result.ResolvedQuery)
	assert.Equal(t, "attachment", got.Result.Action)
	assert.False(t, got.Result.IsFallbackIntent)
	assert.Equal(t, 1.0, got.Result.Score)
	assert.Empty(t, got.Result.Messages)

	initial := ToNluResponse(domain.RespondOK(domain.NewInitialRequest(), "u"))
	assert.Empty(t, initial.Result.Action)
}
