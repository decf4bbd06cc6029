package usecase

import (
	"context"
	"fmt"

	"github.com/emundo/emubot/botengine"
	"github.com/emundo/emubot/botengine/domain"
	"github.com/emundo/emubot/botengine/interceptor"
	domainAgent "github.com/emundo/emubot/domains/agent"
	pkgError "github.com/emundo/emubot/pkg/error"
	"github.com/emundo/emubot/validations"
	"github.com/sirupsen/logrus"
)

type agentService struct {
	engine        *botengine.Engine
	contexts      domain.ContextManager
	pseudonymizer *interceptor.Pseudonymizer
}

// NewAgentService exposes the configured agents and their context side
// channel. With a pseudonymizer, user ids given by the caller are platform
// ids and get translated before reaching the NLU backend.
func NewAgentService(engine *botengine.Engine, contexts domain.ContextManager, pseudonymizer *interceptor.Pseudonymizer) domainAgent.IAgentUsecase {
	return &agentService{engine: engine, contexts: contexts, pseudonymizer: pseudonymizer}
}

func (s *agentService) List(_ context.Context) []domain.Agent {
	agents := s.engine.Agents()
	for i := range agents {
		agents[i] = agents[i].Redacted()
	}
	return agents
}

func (s *agentService) ListContexts(ctx context.Context, agentName string, request domainAgent.ContextsRequest) ([]domain.NluContext, error) {
	if err := validations.ValidateDeleteAllContextsRequest(ctx, request); err != nil {
		return nil, err
	}
	lister, ok := s.contexts.(domain.ContextLister)
	if !ok {
		return nil, pkgError.UnsupportedError("the nlu backend cannot list contexts")
	}
	agent, userID, err := s.resolve(ctx, agentName, request.UserID)
	if err != nil {
		return nil, err
	}

	contexts, err := lister.ListContexts(ctx, userID, agent)
	if err != nil {
		logrus.WithError(err).WithField("agent", agent.Name).Error("[AGENT] Failed to list contexts")
		return nil, pkgError.NluError(err.Error())
	}
	return contexts, nil
}

func (s *agentService) PostContexts(ctx context.Context, agentName string, request domainAgent.ContextsRequest) (domain.NluStatus, error) {
	if err := validations.ValidateContextsRequest(ctx, request); err != nil {
		return domain.NluStatus{}, err
	}
	agent, userID, err := s.resolve(ctx, agentName, request.UserID)
	if err != nil {
		return domain.NluStatus{}, err
	}
	return s.contexts.PostContexts(ctx, userID, agent, request.Contexts), nil
}

func (s *agentService) DeleteContexts(ctx context.Context, agentName string, request domainAgent.ContextsRequest) (domain.NluStatus, error) {
	if err := validations.ValidateContextsRequest(ctx, request); err != nil {
		return domain.NluStatus{}, err
	}
	agent, userID, err := s.resolve(ctx, agentName, request.UserID)
	if err != nil {
		return domain.NluStatus{}, err
	}
	return s.contexts.DeleteContexts(ctx, userID, agent, request.Contexts), nil
}

func (s *agentService) DeleteAllContexts(ctx context.Context, agentName string, request domainAgent.ContextsRequest) (domain.NluStatus, error) {
	if err := validations.ValidateDeleteAllContextsRequest(ctx, request); err != nil {
		return domain.NluStatus{}, err
	}
	agent, userID, err := s.resolve(ctx, agentName, request.UserID)
	if err != nil {
		return domain.NluStatus{}, err
	}
	return s.contexts.DeleteAllContexts(ctx, userID, agent), nil
}

func (s *agentService) resolve(ctx context.Context, agentName, userID string) (domain.Agent, string, error) {
	if s.contexts == nil {
		return domain.Agent{}, "", pkgError.InternalServerError("no context side channel configured")
	}

	agent, err := s.engine.Agent(agentName)
	if err != nil {
		return domain.Agent{}, "", pkgError.NotFoundError(fmt.Sprintf("agent %q not found", agentName))
	}

	if s.pseudonymizer == nil {
		return agent, userID, nil
	}
	internalID, err := s.pseudonymizer.Pseudonymize(ctx, userID)
	if err != nil {
		logrus.WithError(err).Error("[AGENT] Failed to resolve pseudonym")
		return domain.Agent{}, "", pkgError.InternalServerError("failed to resolve user id")
	}
	return agent, internalID, nil
}
