package botengine

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/emundo/emubot/botengine/domain"
	"github.com/emundo/emubot/pkg/botmonitor"
	"github.com/sirupsen/logrus"
)

var errNoAgents = errors.New("agent selector needs at least one agent")

// AnswerData is the answer picked for a text request and the agent it is
// attributed to.
type AnswerData struct {
	AgentName string             `json:"agent_name"`
	Response  domain.NluResponse `json:"response"`
}

// AgentSelector asks the configured agents in order and returns the first
// answer that is not a fallback and reaches the agent's minimum score. When
// no agent qualifies, the primary agent's answer is returned.
type AgentSelector struct {
	agents   []domain.Agent
	client   domain.NluClient
	nluToNlu domain.Interceptor[domain.NluResponse]
	monitor  *botmonitor.Monitor
}

// NewAgentSelector expects agents already in execution order.
func NewAgentSelector(agents []domain.Agent, client domain.NluClient, nluToNlu domain.Interceptor[domain.NluResponse], monitor *botmonitor.Monitor) *AgentSelector {
	return &AgentSelector{
		agents:   agents,
		client:   client,
		nluToNlu: nluToNlu,
		monitor:  monitor,
	}
}

func (s *AgentSelector) FindBestAnswer(ctx context.Context, req domain.TextRequest) (AnswerData, error) {
	if len(s.agents) == 0 {
		return AnswerData{}, errNoAgents
	}

	var primary domain.NluResponse
	last := len(s.agents) - 1

	for i, agent := range s.agents {
		response, err := s.query(ctx, req, agent)
		if err != nil {
			return AnswerData{}, err
		}

		passes := response.Result.Score >= agent.MinScore
		if !response.Result.IsFallbackIntent && passes {
			logrus.WithFields(logrus.Fields{
				"trace_id": TraceID(ctx),
				"agent":    agent.Name,
				"intent":   response.Result.IntentName,
				"score":    response.Result.Score,
			}).Debug("[SELECTOR] answer accepted")
			return AnswerData{AgentName: agent.Name, Response: response}, nil
		}

		// Only the primary agent's answer is kept as the last resort.
		if i == 0 {
			primary = response
		}

		if i < last {
			logrus.WithFields(logrus.Fields{
				"trace_id": TraceID(ctx),
				"agent":    agent.Name,
				"fallback": response.Result.IsFallbackIntent,
				"score":    response.Result.Score,
				"min":      agent.MinScore,
			}).Debug("[SELECTOR] answer rejected, asking next agent")
		}
	}

	logrus.WithField("trace_id", TraceID(ctx)).Debugf("[SELECTOR] no agent qualified, using answer of %s", s.agents[0].Name)
	return AnswerData{AgentName: s.agents[0].Name, Response: primary}, nil
}

// query asks one agent and runs the answer through the nluToNlu stage.
func (s *AgentSelector) query(ctx context.Context, req domain.TextRequest, agent domain.Agent) (domain.NluResponse, error) {
	event := botmonitor.Event{
		TraceID: TraceID(ctx),
		UserID:  req.UserID,
		Agent:   agent.Name,
		Kind:    string(domain.RequestTypeText),
	}

	event.Stage, event.Status = botmonitor.StageNluRequest, botmonitor.StatusOK
	s.monitor.Record(event)

	start := time.Now()
	raw, err := s.client.Query(ctx, req, agent)
	event.Stage = botmonitor.StageNluResponse
	event.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		event.Status, event.Error = botmonitor.StatusError, err.Error()
		s.monitor.Record(event)
		return domain.NluResponse{}, err
	}
	event.Metadata = map[string]string{
		"intent":   raw.Result.IntentName,
		"score":    strconv.FormatFloat(raw.Result.Score, 'f', 3, 64),
		"fallback": strconv.FormatBool(raw.Result.IsFallbackIntent),
	}
	s.monitor.Record(event)

	out, err := s.nluToNlu.HandleMessage(ctx, req.UserID, raw)
	if err != nil {
		return domain.NluResponse{}, err
	}
	if out.IsNoResponse() {
		return domain.NluResponse{}, domain.ErrNoResponseNotPossible
	}
	return out.Payload, nil
}
