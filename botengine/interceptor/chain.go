package interceptor

import (
	"context"

	"github.com/emundo/emubot/botengine/domain"
)

// Chain runs interceptors in order, feeding each one the payload and user id
// produced by the previous one. A NoResponse ends the chain. Interrupt flags
// stick once set; the last non-empty action wins.
type Chain[T any] []domain.Interceptor[T]

func (c Chain[T]) HandleMessage(ctx context.Context, userID string, message T) (domain.PipelineResult[T], error) {
	result := domain.RespondOK(message, userID)

	for _, next := range c {
		out, err := next.HandleMessage(ctx, result.UserID, result.Payload)
		if err != nil {
			return out, err
		}
		if out.IsNoResponse() {
			return out, nil
		}

		out.InterruptProcessing = out.InterruptProcessing || result.InterruptProcessing
		if out.Action == "" {
			out.Action = result.Action
		}
		result = out
	}

	return result, nil
}
