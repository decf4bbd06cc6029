package agent

import (
	"context"

	"github.com/emundo/emubot/botengine/domain"
)

type IAgentUsecase interface {
	List(ctx context.Context) []domain.Agent
	ListContexts(ctx context.Context, agentName string, request ContextsRequest) ([]domain.NluContext, error)
	PostContexts(ctx context.Context, agentName string, request ContextsRequest) (domain.NluStatus, error)
	DeleteContexts(ctx context.Context, agentName string, request ContextsRequest) (domain.NluStatus, error)
	DeleteAllContexts(ctx context.Context, agentName string, request ContextsRequest) (domain.NluStatus, error)
}

// ContextsRequest addresses the NLU session of one user. Contexts is unused
// when all contexts are deleted.
type ContextsRequest struct {
	UserID   string   `json:"user_id" form:"user_id"`
	Contexts []string `json:"contexts" form:"contexts"`
}
