package botengine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/emundo/emubot/botengine/domain"
	"github.com/emundo/emubot/botengine/interceptor"
	"github.com/emundo/emubot/pkg/botmonitor"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Config is everything one pipeline needs. Agents may be given in any
// order; the engine sorts them by execution index.
type Config struct {
	Agents       []domain.Agent
	Client       domain.NluClient
	Interceptors domain.Interceptors
	Messages     Messages
}

// snapshot is the immutable state a request runs against.
type snapshot struct {
	agents       []domain.Agent
	interceptors domain.Interceptors
	messages     Messages
	selector     *AgentSelector
}

// Engine drives one incoming message through the pipeline. It is safe for
// concurrent use; Reload swaps the whole configuration at once and requests
// already running keep the one they started with.
type Engine struct {
	current atomic.Pointer[snapshot]
	monitor *botmonitor.Monitor
}

func NewEngine(cfg Config, monitor *botmonitor.Monitor) (*Engine, error) {
	e := &Engine{monitor: monitor}
	if err := e.Reload(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) Reload(cfg Config) error {
	seen := make(map[string]bool, len(cfg.Agents))
	for _, agent := range cfg.Agents {
		if err := agent.Validate(); err != nil {
			return fmt.Errorf("agent %q: %w", agent.Name, err)
		}
		if seen[agent.Name] {
			return fmt.Errorf("agent %q is configured twice", agent.Name)
		}
		seen[agent.Name] = true
	}
	if len(cfg.Agents) > 0 && cfg.Client == nil {
		return errors.New("agents are configured but no nlu client is set")
	}

	snap := &snapshot{
		agents: domain.SortAgents(cfg.Agents),
		interceptors: domain.Interceptors{
			ChatToCore: interceptor.OrMirror(cfg.Interceptors.ChatToCore),
			NluToNlu:   interceptor.OrMirror(cfg.Interceptors.NluToNlu),
			NluToCore:  interceptor.OrMirror(cfg.Interceptors.NluToCore),
		},
		messages: cfg.Messages.WithDefaults(),
	}
	snap.selector = NewAgentSelector(snap.agents, cfg.Client, snap.interceptors.NluToNlu, e.monitor)

	e.current.Store(snap)
	logrus.Infof("[ENGINE] Loaded %d agent(s)", len(snap.agents))
	return nil
}

// Agents returns the agents in execution order.
func (e *Engine) Agents() []domain.Agent {
	agents := e.current.Load().agents
	out := make([]domain.Agent, len(agents))
	copy(out, agents)
	return out
}

// Agent looks an agent up by name.
func (e *Engine) Agent(name string) (domain.Agent, error) {
	for _, agent := range e.current.Load().agents {
		if agent.Name == name {
			return agent, nil
		}
	}
	return domain.Agent{}, fmt.Errorf("%w: %s", domain.ErrUnknownAgent, name)
}

func (e *Engine) Messages() Messages {
	return e.current.Load().messages
}

func (e *Engine) Monitor() *botmonitor.Monitor {
	return e.monitor
}

// HandlerFor returns the message handler a transport registers; platform
// tags the recorded events.
func (e *Engine) HandlerFor(platform string) domain.MessageHandler {
	return func(ctx context.Context, req domain.ChatRequest, userID string) domain.PipelineResult[[]domain.ChatResponse] {
		return e.handle(ctx, platform, req, userID)
	}
}

// HandleMessage processes one request. It never fails: errors are logged and
// answered with the generic error message addressed to userID.
func (e *Engine) HandleMessage(ctx context.Context, req domain.ChatRequest, userID string) domain.PipelineResult[[]domain.ChatResponse] {
	return e.handle(ctx, "", req, userID)
}

func (e *Engine) handle(ctx context.Context, platform string, req domain.ChatRequest, userID string) (result domain.PipelineResult[[]domain.ChatResponse]) {
	snap := e.current.Load()

	traceID := TraceID(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = WithTraceID(ctx, traceID)
	}
	log := logrus.WithFields(logrus.Fields{
		"trace_id": traceID,
		"platform": platform,
		"type":     req.Type,
	})
	event := botmonitor.Event{
		TraceID:  traceID,
		Platform: platform,
		UserID:   userID,
		Kind:     string(req.Type),
		Stage:    botmonitor.StageInbound,
		Status:   botmonitor.StatusOK,
	}
	e.monitor.Record(event)

	fail := func(err error) domain.PipelineResult[[]domain.ChatResponse] {
		log.WithError(err).Error("[ENGINE] Message handling failed")
		event.Stage, event.Status, event.Error = botmonitor.StageOutbound, botmonitor.StatusError, err.Error()
		e.monitor.Record(event)
		return domain.RespondOK([]domain.ChatResponse{
			domain.TextResponse(snap.messages.MessageHandlingInCore, userID),
		}, userID)
	}

	defer func() {
		if r := recover(); r != nil {
			result = fail(fmt.Errorf("panic: %v", r))
		}
	}()

	result, err := e.process(ctx, snap, req, userID)
	if err != nil {
		return fail(err)
	}

	event.Stage, event.UserID, event.Error = botmonitor.StageOutbound, result.UserID, ""
	if result.IsNoResponse() {
		event.Status = botmonitor.StatusSkipped
	}
	event.Metadata = map[string]string{
		"status_code": strconv.Itoa(result.StatusCode),
		"responses":   strconv.Itoa(len(result.Payload)),
	}
	e.monitor.Record(event)
	log.Debugf("[ENGINE] Produced %d response(s) with status %d", len(result.Payload), result.StatusCode)
	return result
}

func (e *Engine) process(ctx context.Context, snap *snapshot, req domain.ChatRequest, userID string) (domain.PipelineResult[[]domain.ChatResponse], error) {
	in, err := snap.interceptors.ChatToCore.HandleMessage(ctx, userID, req)
	if err != nil {
		return domain.PipelineResult[[]domain.ChatResponse]{}, fmt.Errorf("chatToCore: %w", err)
	}
	if in.IsNoResponse() {
		return domain.ForwardNoResponse[[]domain.ChatResponse](in), nil
	}

	if in.InterruptProcessing || in.Payload.Type == domain.RequestTypeInitial {
		return e.toCore(ctx, snap, ToNluResponse(in), in.UserID)
	}

	switch in.Payload.Type {
	case domain.RequestTypeInvalid:
		return domain.Respond([]domain.ChatResponse{
			domain.TextResponse(snap.messages.UnsupportedFormat, in.UserID),
		}, http.StatusBadRequest, in.UserID), nil

	case domain.RequestTypeText:
		if len(snap.agents) == 0 {
			return domain.RespondOK([]domain.ChatResponse{
				domain.TextResponse(snap.messages.NoAgent, in.UserID),
			}, in.UserID), nil
		}

		answer, err := snap.selector.FindBestAnswer(ctx, domain.TextRequest{Text: in.Payload.Text, UserID: in.UserID})
		if err != nil {
			return domain.PipelineResult[[]domain.ChatResponse]{}, err
		}
		return e.toCore(ctx, snap, answer.Response, in.UserID)
	}

	return domain.PipelineResult[[]domain.ChatResponse]{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedMessageType, in.Payload.Type)
}

// toCore runs the nluToCore stage and converts the answer to chat responses.
func (e *Engine) toCore(ctx context.Context, snap *snapshot, nlu domain.NluResponse, userID string) (domain.PipelineResult[[]domain.ChatResponse], error) {
	out, err := snap.interceptors.NluToCore.HandleMessage(ctx, userID, nlu)
	if err != nil {
		return domain.PipelineResult[[]domain.ChatResponse]{}, fmt.Errorf("nluToCore: %w", err)
	}
	if out.IsNoResponse() {
		return domain.ForwardNoResponse[[]domain.ChatResponse](out), nil
	}

	responses, err := ToChatResponses(out.Payload, out.UserID)
	if err != nil {
		return domain.PipelineResult[[]domain.ChatResponse]{}, err
	}
	return domain.Respond(responses, out.StatusCode, out.UserID), nil
}
