package nlu

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/emundo/emubot/botengine/domain"
	"github.com/google/uuid"
)

const (
	StaticOneResponse       = "oneResponse"
	StaticMultipleResponses = "multipleResponses"
	StaticFallbackIntent    = "Default Fallback Intent"
)

// StaticClient is an offline NLU backend for demos and tests. It knows two
// phrases and answers everything else with a low scoring fallback. Contexts
// are kept in memory per agent and user.
type StaticClient struct {
	mu       sync.Mutex
	contexts map[string]map[string][]string
}

func NewStaticClient() *StaticClient {
	return &StaticClient{contexts: make(map[string]map[string][]string)}
}

func (c *StaticClient) Query(_ context.Context, req domain.TextRequest, agent domain.Agent) (domain.NluResponse, error) {
	result := domain.NluResult{
		ResolvedQuery: req.Text,
		IntentName:    uuid.NewString(),
		Action:        uuid.NewString(),
		Parameters:    map[string]any{},
		Contexts:      c.active(agent.Name, req.UserID, agent),
		Score:         0.9,
	}

	switch strings.TrimSpace(req.Text) {
	case StaticOneResponse:
		result.Messages = []domain.NluMessage{domain.NluText("Hello!")}
	case StaticMultipleResponses:
		for i := 1; i <= 10; i++ {
			result.Messages = append(result.Messages, domain.NluText(fmt.Sprintf("Response %d of 10", i)))
		}
	default:
		result.IntentName = StaticFallbackIntent
		result.Action = ""
		result.IsFallbackIntent = true
		result.Score = 0.1
		result.Messages = []domain.NluMessage{domain.NluText("Sorry, I did not understand that.")}
	}

	return domain.NluResponse{
		AgentName: agent.Name,
		Status:    domain.NluStatus{Success: true},
		Result:    result,
	}, nil
}

func (c *StaticClient) active(agentName, userID string, agent domain.Agent) []domain.NluContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return toContexts(c.contexts[agentName][userID], agent)
}

func (c *StaticClient) PostContexts(_ context.Context, userID string, agent domain.Agent, contexts []string) domain.NluStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.contexts[agent.Name] == nil {
		c.contexts[agent.Name] = make(map[string][]string)
	}
	c.contexts[agent.Name][userID] = append([]string(nil), contexts...)
	return domain.NluStatus{Success: true}
}

func (c *StaticClient) DeleteContexts(_ context.Context, userID string, agent domain.Agent, contexts []string) domain.NluStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	drop := make(map[string]bool, len(contexts))
	for _, name := range contexts {
		drop[name] = true
	}
	kept := c.contexts[agent.Name][userID][:0]
	for _, name := range c.contexts[agent.Name][userID] {
		if !drop[name] {
			kept = append(kept, name)
		}
	}
	if c.contexts[agent.Name] != nil {
		c.contexts[agent.Name][userID] = kept
	}
	return domain.NluStatus{Success: true}
}

func (c *StaticClient) ListContexts(_ context.Context, userID string, agent domain.Agent) ([]domain.NluContext, error) {
	contexts := c.active(agent.Name, userID, agent)
	if contexts == nil {
		return []domain.NluContext{}, nil
	}
	return contexts, nil
}

// DeleteAllContexts reports success only when the user had contexts.
func (c *StaticClient) DeleteAllContexts(_ context.Context, userID string, agent domain.Agent) domain.NluStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.contexts[agent.Name][userID]; !ok {
		return domain.NluStatus{Success: false, ErrorType: "NotFound", ErrorDetails: "no contexts for user"}
	}
	delete(c.contexts[agent.Name], userID)
	return domain.NluStatus{Success: true}
}

// DemoAgents are used when no agents are configured for the static backend.
func DemoAgents() []domain.Agent {
	return []domain.Agent{
		{Name: "first", ExecutionIndex: 0, MinScore: 0.8, DefaultLifespanMinutes: 5},
		{Name: "second", ExecutionIndex: 1, MinScore: 0.8, DefaultLifespanMinutes: 5},
	}
}
