package nlu

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	dialogflow "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/emundo/emubot/botengine/domain"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"
)

const dialogflowUnknownIntent = "unknown"

// dialogflowAPI is the part of the Dialogflow v2 sessions and contexts
// services used by DialogflowClient.
type dialogflowAPI interface {
	DetectIntent(ctx context.Context, req *dialogflowpb.DetectIntentRequest) (*dialogflowpb.DetectIntentResponse, error)
	ListContexts(ctx context.Context, session string) ([]*dialogflowpb.Context, error)
	CreateContext(ctx context.Context, req *dialogflowpb.CreateContextRequest) error
	DeleteContext(ctx context.Context, name string) error
	DeleteAllContexts(ctx context.Context, session string) error
	Close() error
}

type dialFunc func(ctx context.Context, agent domain.Agent) (dialogflowAPI, error)

// DialogflowClient talks to Dialogflow ES agents over gRPC. Every agent
// authenticates with its own service account key (agent.Token), so one
// connection is kept per agent.
type DialogflowClient struct {
	timeout time.Duration
	dial    dialFunc

	mu    sync.Mutex
	conns map[string]dialogflowAPI
}

func NewDialogflowClient(timeout time.Duration) *DialogflowClient {
	return newDialogflowClient(timeout, dialDialogflow)
}

func newDialogflowClient(timeout time.Duration, dial dialFunc) *DialogflowClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DialogflowClient{timeout: timeout, dial: dial, conns: make(map[string]dialogflowAPI)}
}

func (c *DialogflowClient) conn(ctx context.Context, agent domain.Agent) (dialogflowAPI, error) {
	if agent.ProjectID == "" {
		return nil, fmt.Errorf("dialogflow agent %s has no project_id", agent.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if api, ok := c.conns[agent.Name]; ok {
		return api, nil
	}
	api, err := c.dial(ctx, agent)
	if err != nil {
		return nil, fmt.Errorf("failed to connect dialogflow agent %s: %w", agent.Name, err)
	}
	c.conns[agent.Name] = api
	return api, nil
}

// Close releases the connections of all agents.
func (c *DialogflowClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for name, api := range c.conns {
		errs = append(errs, api.Close())
		delete(c.conns, name)
	}
	return errors.Join(errs...)
}

func sessionPath(agent domain.Agent, userID string) string {
	return fmt.Sprintf("projects/%s/agent/sessions/%s", agent.ProjectID, userID)
}

func (c *DialogflowClient) Query(ctx context.Context, req domain.TextRequest, agent domain.Agent) (domain.NluResponse, error) {
	api, err := c.conn(ctx, agent)
	if err != nil {
		return domain.NluResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := api.DetectIntent(ctx, &dialogflowpb.DetectIntentRequest{
		Session: sessionPath(agent, req.UserID),
		QueryInput: &dialogflowpb.QueryInput{
			Input: &dialogflowpb.QueryInput_Text{
				Text: &dialogflowpb.TextInput{Text: req.Text, LanguageCode: agent.LanguageCode},
			},
		},
	})
	if err != nil {
		return domain.NluResponse{}, fmt.Errorf("dialogflow detect intent: %w", err)
	}
	return fromDetectIntent(resp, agent), nil
}

// fromDetectIntent converts a DetectIntent answer. A failed fulfillment
// webhook marks the status unsuccessful but the result is kept.
func fromDetectIntent(resp *dialogflowpb.DetectIntentResponse, agent domain.Agent) domain.NluResponse {
	status := domain.NluStatus{Success: true}
	if ws := resp.GetWebhookStatus(); ws != nil && ws.GetCode() != 0 {
		status = domain.NluStatus{
			Success:      false,
			ErrorType:    ws.GetMessage(),
			ErrorDetails: fmt.Sprintf("webhook status code %d", ws.GetCode()),
		}
	}

	qr := resp.GetQueryResult()
	intentName := qr.GetIntent().GetDisplayName()
	if intentName == "" {
		intentName = dialogflowUnknownIntent
	}

	var params map[string]any
	if qr.GetParameters() != nil {
		params = qr.GetParameters().AsMap()
	}

	var contexts []domain.NluContext
	for _, oc := range qr.GetOutputContexts() {
		lifespan := int(oc.GetLifespanCount())
		if lifespan <= 0 {
			lifespan = agent.DefaultLifespanMinutes
		}
		contexts = append(contexts, domain.NluContext{Name: path.Base(oc.GetName()), LifespanCount: lifespan})
	}

	messages := make([]domain.NluMessage, 0, len(qr.GetFulfillmentMessages()))
	for _, m := range qr.GetFulfillmentMessages() {
		msg, ok := fromIntentMessage(m)
		if !ok {
			logrus.WithField("agent", agent.Name).Errorf("[NLU] Skipping unsupported dialogflow message %T", m.GetMessage())
			continue
		}
		messages = append(messages, msg)
	}

	return domain.NluResponse{
		AgentName: agent.Name,
		Status:    status,
		Result: domain.NluResult{
			ResolvedQuery:    qr.GetQueryText(),
			IntentName:       intentName,
			Action:           qr.GetAction(),
			IsFallbackIntent: qr.GetIntent().GetIsFallback(),
			Parameters:       params,
			FulfillmentText:  qr.GetFulfillmentText(),
			Contexts:         contexts,
			Messages:         messages,
			Score:            float64(qr.GetIntentDetectionConfidence()),
		},
	}
}

func fromIntentMessage(m *dialogflowpb.Intent_Message) (domain.NluMessage, bool) {
	switch msg := m.GetMessage().(type) {
	case *dialogflowpb.Intent_Message_Text_:
		texts := msg.Text.GetText()
		if len(texts) == 0 {
			return domain.NluMessage{}, false
		}
		return domain.NluText(texts[0]), true
	case *dialogflowpb.Intent_Message_QuickReplies_:
		return domain.NluMessage{
			Type:    domain.NluMessageQuickReply,
			Title:   msg.QuickReplies.GetTitle(),
			Replies: msg.QuickReplies.GetQuickReplies(),
		}, true
	case *dialogflowpb.Intent_Message_Image_:
		return domain.NluMessage{
			Type:  domain.NluMessageImage,
			URL:   msg.Image.GetImageUri(),
			Title: msg.Image.GetAccessibilityText(),
		}, true
	case *dialogflowpb.Intent_Message_Payload:
		raw, err := protojson.Marshal(msg.Payload)
		if err != nil {
			return domain.NluMessage{}, false
		}
		return domain.NluMessage{Type: domain.NluMessageCustom, Payload: raw}, true
	}
	return domain.NluMessage{}, false
}

func (c *DialogflowClient) ListContexts(ctx context.Context, userID string, agent domain.Agent) ([]domain.NluContext, error) {
	api, err := c.conn(ctx, agent)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	found, err := api.ListContexts(ctx, sessionPath(agent, userID))
	if err != nil {
		return nil, fmt.Errorf("dialogflow list contexts: %w", err)
	}
	contexts := make([]domain.NluContext, 0, len(found))
	for _, fc := range found {
		contexts = append(contexts, domain.NluContext{Name: path.Base(fc.GetName()), LifespanCount: int(fc.GetLifespanCount())})
	}
	return contexts, nil
}

// PostContexts creates every context with the agent's default lifespan.
func (c *DialogflowClient) PostContexts(ctx context.Context, userID string, agent domain.Agent, contexts []string) domain.NluStatus {
	api, err := c.conn(ctx, agent)
	if err != nil {
		return status("post contexts", agent, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session := sessionPath(agent, userID)
	var errs []error
	for _, name := range contexts {
		errs = append(errs, api.CreateContext(ctx, &dialogflowpb.CreateContextRequest{
			Parent: session,
			Context: &dialogflowpb.Context{
				Name:          session + "/contexts/" + name,
				LifespanCount: int32(agent.DefaultLifespanMinutes),
			},
		}))
	}
	return status("post contexts", agent, errors.Join(errs...))
}

func (c *DialogflowClient) DeleteContexts(ctx context.Context, userID string, agent domain.Agent, contexts []string) domain.NluStatus {
	api, err := c.conn(ctx, agent)
	if err != nil {
		return status("delete contexts", agent, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session := sessionPath(agent, userID)
	var errs []error
	for _, name := range contexts {
		errs = append(errs, api.DeleteContext(ctx, session+"/contexts/"+name))
	}
	return status("delete contexts", agent, errors.Join(errs...))
}

func (c *DialogflowClient) DeleteAllContexts(ctx context.Context, userID string, agent domain.Agent) domain.NluStatus {
	api, err := c.conn(ctx, agent)
	if err != nil {
		return status("delete all contexts", agent, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return status("delete all contexts", agent, api.DeleteAllContexts(ctx, sessionPath(agent, userID)))
}

// grpcDialogflow adapts the generated Dialogflow clients to dialogflowAPI.
type grpcDialogflow struct {
	sessions *dialogflow.SessionsClient
	contexts *dialogflow.ContextsClient
}

// dialDialogflow opens the clients of one agent. Without a key file the
// application default credentials are used.
func dialDialogflow(ctx context.Context, agent domain.Agent) (dialogflowAPI, error) {
	var opts []option.ClientOption
	if agent.Token != "" {
		opts = append(opts, option.WithCredentialsFile(agent.Token))
	}

	sessions, err := dialogflow.NewSessionsClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	contexts, err := dialogflow.NewContextsClient(ctx, opts...)
	if err != nil {
		sessions.Close()
		return nil, err
	}
	return &grpcDialogflow{sessions: sessions, contexts: contexts}, nil
}

func (g *grpcDialogflow) DetectIntent(ctx context.Context, req *dialogflowpb.DetectIntentRequest) (*dialogflowpb.DetectIntentResponse, error) {
	return g.sessions.DetectIntent(ctx, req)
}

func (g *grpcDialogflow) ListContexts(ctx context.Context, session string) ([]*dialogflowpb.Context, error) {
	it := g.contexts.ListContexts(ctx, &dialogflowpb.ListContextsRequest{Parent: session})
	var contexts []*dialogflowpb.Context
	for {
		c, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return contexts, nil
		}
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, c)
	}
}

func (g *grpcDialogflow) CreateContext(ctx context.Context, req *dialogflowpb.CreateContextRequest) error {
	_, err := g.contexts.CreateContext(ctx, req)
	return err
}

func (g *grpcDialogflow) DeleteContext(ctx context.Context, name string) error {
	return g.contexts.DeleteContext(ctx, &dialogflowpb.DeleteContextRequest{Name: name})
}

func (g *grpcDialogflow) DeleteAllContexts(ctx context.Context, session string) error {
	return g.contexts.DeleteAllContexts(ctx, &dialogflowpb.DeleteAllContextsRequest{Parent: session})
}

func (g *grpcDialogflow) Close() error {
	return errors.Join(g.sessions.Close(), g.contexts.Close())
}
