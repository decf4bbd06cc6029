package botengine

import (
	"context"
	"sync"

	"github.com/emundo/emubot/botengine/domain"
)

// stubClient answers every agent from a fixed table and records the order
// and user ids of the queries it receives.
type stubClient struct {
	mu      sync.Mutex
	answers map[string]domain.NluResponse
	errs    map[string]error
	calls   []string
	users   []string
}

func newStubClient() *stubClient {
	return &stubClient{
		answers: make(map[string]domain.NluResponse),
		errs:    make(map[string]error),
	}
}

func (c *stubClient) on(agent string, resp domain.NluResponse) *stubClient {
	resp.AgentName = agent
	c.answers[agent] = resp
	return c
}

func (c *stubClient) Query(_ context.Context, req domain.TextRequest, agent domain.Agent) (domain.NluResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, agent.Name)
	c.users = append(c.users, req.UserID)
	if err := c.errs[agent.Name]; err != nil {
		return domain.NluResponse{}, err
	}
	return c.answers[agent.Name], nil
}

func (c *stubClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func answer(score float64, fallback bool, texts ...string) domain.NluResponse {
	messages := make([]domain.NluMessage, 0, len(texts))
	for _, t := range texts {
		messages = append(messages, domain.NluText(t))
	}
	return domain.NluResponse{
		Status: domain.NluStatus{Success: true},
		Result: domain.NluResult{
			IntentName:       "intent",
			IsFallbackIntent: fallback,
			Messages:         messages,
			Score:            score,
		},
	}
}

func agent(name string, index int, minScore float64) domain.Agent {
	return domain.Agent{Name: name, ExecutionIndex: index, MinScore: minScore}
}
