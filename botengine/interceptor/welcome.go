package interceptor

import (
	"context"

	"github.com/emundo/emubot/botengine/domain"
)

const ActionWelcome = "welcome"

// Welcome greets users that open a conversation. Initial requests are
// interrupted with ActionWelcome and answered with Text.
type Welcome struct {
	Text string
}

func (w Welcome) ChatToCore() domain.Interceptor[domain.ChatRequest] {
	return Func[domain.ChatRequest](func(_ context.Context, userID string, req domain.ChatRequest) (domain.PipelineResult[domain.ChatRequest], error) {
		result := domain.RespondOK(req, userID)
		if req.Type == domain.RequestTypeInitial {
			return result.Interrupt(ActionWelcome), nil
		}
		return result, nil
	})
}

func (w Welcome) NluToCore() domain.Interceptor[domain.NluResponse] {
	return Func[domain.NluResponse](func(_ context.Context, userID string, resp domain.NluResponse) (domain.PipelineResult[domain.NluResponse], error) {
		if resp.Result.Action == ActionWelcome && w.Text != "" {
			resp.Result.Messages = append(resp.Result.Messages, domain.NluText(w.Text))
		}
		return domain.RespondOK(resp, userID), nil
	})
}
