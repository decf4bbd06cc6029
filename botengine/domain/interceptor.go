package domain

import "context"

// Interceptor is a hook at one stage of the pipeline. It may rewrite the
// message, change the user id or stop processing with NoResponse.
type Interceptor[T any] interface {
	HandleMessage(ctx context.Context, userID string, message T) (PipelineResult[T], error)
}

// Interceptors groups the three hook points. Nil entries behave like a mirror.
type Interceptors struct {
	ChatToCore Interceptor[ChatRequest]
	NluToNlu   Interceptor[NluResponse]
	NluToCore  Interceptor[NluResponse]
}
