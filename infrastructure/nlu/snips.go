package nlu

import (
	"context"
	"net/http"
	"time"

	"github.com/emundo/emubot/botengine/domain"
)

type snipsRequest struct {
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
	Token     string `json:"token"`
}

type snipsResponse struct {
	Messages []string `json:"messages"`
	Intent   struct {
		IntentName  string  `json:"intentName"`
		Probability float64 `json:"probability"`
	} `json:"intent"`
	Slots []struct {
		Value    any    `json:"value"`
		Entity   string `json:"entity"`
		SlotName string `json:"slotName"`
	} `json:"slots"`
	Contexts []string `json:"contexts"`
	Action   string   `json:"action"`
}

// SnipsClient queries a Snips NLU webhook on /parse. Replies come from the
// optional messages field the webhook adds to the parse result.
type SnipsClient struct {
	http httpClient
}

func NewSnipsClient(doer Doer, timeout time.Duration) *SnipsClient {
	return &SnipsClient{http: newHTTPClient(doer, timeout)}
}

func (c *SnipsClient) Query(ctx context.Context, req domain.TextRequest, agent domain.Agent) (domain.NluResponse, error) {
	var parsed snipsResponse
	err := c.http.doJSON(ctx, http.MethodPost, agent.URL+"/parse", "", snipsRequest{
		MessageID: req.UserID,
		Text:      req.Text,
		Token:     agent.Token,
	}, &parsed)
	if err != nil {
		return domain.NluResponse{}, err
	}

	messages := make([]domain.NluMessage, 0, len(parsed.Messages))
	for _, m := range parsed.Messages {
		messages = append(messages, domain.NluText(m))
	}

	params := make(map[string]any, len(parsed.Slots))
	for _, s := range parsed.Slots {
		params[s.Entity] = s.Value
	}

	return domain.NluResponse{
		AgentName: agent.Name,
		Status:    domain.NluStatus{Success: true},
		Result: domain.NluResult{
			ResolvedQuery: req.Text,
			IntentName:    parsed.Intent.IntentName,
			Action:        parsed.Action,
			Parameters:    params,
			Contexts:      toContexts(parsed.Contexts, agent),
			Messages:      messages,
			Score:         parsed.Intent.Probability,
		},
	}, nil
}
