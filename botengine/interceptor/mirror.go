package interceptor

import (
	"context"

	"github.com/emundo/emubot/botengine/domain"
)

// Mirror passes every message through unchanged with status 200. It is the
// behaviour of any stage that has no interceptor configured.
type Mirror[T any] struct{}

func (Mirror[T]) HandleMessage(_ context.Context, userID string, message T) (domain.PipelineResult[T], error) {
	return domain.RespondOK(message, userID), nil
}

// Func adapts a plain function to the Interceptor interface.
type Func[T any] func(ctx context.Context, userID string, message T) (domain.PipelineResult[T], error)

func (f Func[T]) HandleMessage(ctx context.Context, userID string, message T) (domain.PipelineResult[T], error) {
	return f(ctx, userID, message)
}

// OrMirror returns i, or a Mirror when i is nil.
func OrMirror[T any](i domain.Interceptor[T]) domain.Interceptor[T] {
	if i == nil {
		return Mirror[T]{}
	}
	return i
}
