package nlu

import (
	"context"
	"net/http"
	"time"

	"github.com/emundo/emubot/botengine/domain"
)

type rasaTextRequest struct {
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
	Token     string `json:"token"`
}

type rasaParseRequest struct {
	MessageID string `json:"message_id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Token     string `json:"token"`
}

type rasaTextResponse struct {
	Text        string `json:"text"`
	RecipientID string `json:"recipient_id"`
}

type rasaEntity struct {
	Value  any    `json:"value"`
	Entity string `json:"entity"`
}

type rasaParseResponse struct {
	Entities []rasaEntity `json:"entities"`
	Intent   struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	} `json:"intent"`
	Contexts []string `json:"contexts"`
	Action   string   `json:"action"`
}

// RasaClient queries a Rasa server: the REST channel webhook for the bot
// messages and /model/parse for intent and confidence.
type RasaClient struct {
	http httpClient
}

func NewRasaClient(doer Doer, timeout time.Duration) *RasaClient {
	return &RasaClient{http: newHTTPClient(doer, timeout)}
}

func (c *RasaClient) Query(ctx context.Context, req domain.TextRequest, agent domain.Agent) (domain.NluResponse, error) {
	var messages []rasaTextResponse
	err := c.http.doJSON(ctx, http.MethodPost, agent.URL+"/webhooks/rest/webhook", "", rasaTextRequest{
		Message:   req.Text,
		MessageID: req.UserID,
		Token:     agent.Token,
	}, &messages)
	if err != nil {
		return domain.NluResponse{}, err
	}

	var parsed rasaParseResponse
	err = c.http.doJSON(ctx, http.MethodPost, agent.URL+"/model/parse", "", rasaParseRequest{
		MessageID: req.UserID,
		Sender:    "user",
		Text:      req.Text,
		Token:     agent.Token,
	}, &parsed)
	if err != nil {
		return domain.NluResponse{}, err
	}

	out := make([]domain.NluMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, domain.NluText(m.Text))
	}

	params := make(map[string]any, len(parsed.Entities))
	for _, e := range parsed.Entities {
		params[e.Entity] = e.Value
	}

	return domain.NluResponse{
		AgentName: agent.Name,
		Status:    domain.NluStatus{Success: true},
		Result: domain.NluResult{
			ResolvedQuery:    req.Text,
			IntentName:       parsed.Intent.Name,
			Action:           parsed.Action,
			IsFallbackIntent: false,
			Parameters:       params,
			Contexts:         toContexts(parsed.Contexts, agent),
			Messages:         out,
			Score:            parsed.Intent.Confidence,
		},
	}, nil
}

// toContexts gives every context name the agent's default lifespan.
func toContexts(names []string, agent domain.Agent) []domain.NluContext {
	if names == nil {
		return nil
	}
	contexts := make([]domain.NluContext, 0, len(names))
	for _, name := range names {
		contexts = append(contexts, domain.NluContext{Name: name, LifespanCount: agent.DefaultLifespanMinutes})
	}
	return contexts
}
