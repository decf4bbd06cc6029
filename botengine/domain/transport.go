package domain

import "context"

// MessageHandler processes one normalized request for a platform user.
type MessageHandler func(ctx context.Context, req ChatRequest, userID string) PipelineResult[[]ChatResponse]

// ChatTransport connects a chat platform to the pipeline.
type ChatTransport interface {
	// Name identifies the platform (facebook, slack, cli).
	Name() string

	// Init registers handler for every message received from the platform.
	Init(ctx context.Context, handler MessageHandler) error

	Deinit(ctx context.Context) error

	// Deliver sends one response to its recipient. Delivery is best effort;
	// failures are logged by the transport and not retried.
	Deliver(ctx context.Context, response ChatResponse) error
}
