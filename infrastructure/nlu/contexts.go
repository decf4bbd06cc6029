package nlu

import (
	"context"
	"net/http"
	"time"

	"github.com/emundo/emubot/botengine/domain"
	pkgError "github.com/emundo/emubot/pkg/error"
	"github.com/sirupsen/logrus"
)

// ContextClient manages session contexts through the /postContexts,
// /deleteContexts and /deleteAllContexts routes of an agent. Backends
// without contexts may ignore these calls.
type ContextClient struct {
	http httpClient
}

func NewContextClient(doer Doer, timeout time.Duration) *ContextClient {
	return &ContextClient{http: newHTTPClient(doer, timeout)}
}

type postContextsRequest struct {
	Contexts []string `json:"contexts"`
	Lifespan int      `json:"lifespan"`
	User     string   `json:"user"`
}

type deleteContextsRequest struct {
	Contexts []string `json:"contexts,omitempty"`
	User     string   `json:"user"`
}

func (c *ContextClient) PostContexts(ctx context.Context, userID string, agent domain.Agent, contexts []string) domain.NluStatus {
	err := c.http.doJSON(ctx, http.MethodPost, agent.URL+"/postContexts", agent.Token, postContextsRequest{
		Contexts: contexts,
		Lifespan: agent.DefaultLifespanMinutes,
		User:     userID,
	}, nil)
	return status("post contexts", agent, err)
}

func (c *ContextClient) DeleteContexts(ctx context.Context, userID string, agent domain.Agent, contexts []string) domain.NluStatus {
	err := c.http.doJSON(ctx, http.MethodDelete, agent.URL+"/deleteContexts", agent.Token, deleteContextsRequest{
		Contexts: contexts,
		User:     userID,
	}, nil)
	return status("delete contexts", agent, err)
}

func (c *ContextClient) DeleteAllContexts(ctx context.Context, userID string, agent domain.Agent) domain.NluStatus {
	err := c.http.doJSON(ctx, http.MethodDelete, agent.URL+"/deleteAllContexts", agent.Token, deleteContextsRequest{
		User: userID,
	}, nil)
	return status("delete all contexts", agent, err)
}

func status(op string, agent domain.Agent, err error) domain.NluStatus {
	if err == nil {
		return domain.NluStatus{Success: true}
	}
	logrus.WithError(err).WithField("agent", agent.Name).Errorf("[NLU] Unable to %s", op)

	st := domain.NluStatus{Success: false, ErrorDetails: err.Error()}
	if ge, ok := err.(pkgError.GenericError); ok {
		st.ErrorType = ge.ErrCode()
	}
	return st
}
