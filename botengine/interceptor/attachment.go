package interceptor

import (
	"context"

	"github.com/emundo/emubot/botengine/domain"
)

// ActionAttachment is set on requests stopped by AttachmentGate.
const ActionAttachment = "attachment"

// AttachmentGate keeps attachments away from the NLU agents. Its chatToCore
// half interrupts processing for attachment requests; its nluToCore half
// answers them with Reply (nothing is sent when Reply is empty).
type AttachmentGate struct {
	Reply string
}

func (g AttachmentGate) ChatToCore() domain.Interceptor[domain.ChatRequest] {
	return Func[domain.ChatRequest](func(_ context.Context, userID string, req domain.ChatRequest) (domain.PipelineResult[domain.ChatRequest], error) {
		result := domain.RespondOK(req, userID)
		if req.Type == domain.RequestTypeAttachment {
			return result.Interrupt(ActionAttachment), nil
		}
		return result, nil
	})
}

func (g AttachmentGate) NluToCore() domain.Interceptor[domain.NluResponse] {
	return Func[domain.NluResponse](func(_ context.Context, userID string, resp domain.NluResponse) (domain.PipelineResult[domain.NluResponse], error) {
		if resp.Result.Action == ActionAttachment && len(resp.Result.Messages) == 0 && g.Reply != "" {
			resp.Result.Messages = []domain.NluMessage{domain.NluText(g.Reply)}
		}
		return domain.RespondOK(resp, userID), nil
	})
}
