package domain

import "context"

// TextRequest is what an agent is asked. UserID is the id after the
// chatToCore stage (possibly pseudonymized) and scopes the NLU session.
type TextRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

// NluClient queries one agent. Implementations must honour ctx deadlines.
type NluClient interface {
	Query(ctx context.Context, req TextRequest, agent Agent) (NluResponse, error)
}

// ContextManager is the session state side channel of an NLU backend. It is
// independent of answer selection; failures are reported in the status.
type ContextManager interface {
	PostContexts(ctx context.Context, userID string, agent Agent, contexts []string) NluStatus
	DeleteContexts(ctx context.Context, userID string, agent Agent, contexts []string) NluStatus
	DeleteAllContexts(ctx context.Context, userID string, agent Agent) NluStatus
}

// ContextLister is implemented by context managers that can report the
// contexts currently active for a user.
type ContextLister interface {
	ListContexts(ctx context.Context, userID string, agent Agent) ([]NluContext, error)
}
