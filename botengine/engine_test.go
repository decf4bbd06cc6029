package botengine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/emundo/emubot/botengine/domain"
	"github.com/emundo/emubot/botengine/interceptor"
	"github.com/emundo/emubot/botengine/repository"
	"github.com/emundo/emubot/pkg/botmonitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, botmonitor.New(50, 0))
	require.NoError(t, err)
	return e
}

func textOf(r domain.PipelineResult[[]domain.ChatResponse]) []string {
	texts := make([]string, 0, len(r.Payload))
	for _, resp := range r.Payload {
		texts = append(texts, resp.Message.Text)
	}
	return texts
}

func TestEngine_TextRequest(t *testing.T) {
	client := newStubClient().
		on("A", answer(0.3, false, "from A")).
		on("B", answer(0.6, false, "from B", "and more"))
	e := newTestEngine(t, Config{
		Agents: []domain.Agent{agent("B", 1, 0.5), agent("A", 0, 0.8)},
		Client: client,
	})

	got := e.HandleMessage(context.Background(), domain.NewTextRequest("hello", false), "user-1")

	assert.Equal(t, domain.ResultRespond, got.Kind)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, []string{"from B", "and more"}, textOf(got))
	assert.Equal(t, "user-1", got.Payload[1].RecipientID)
	assert.Equal(t, []string{"A", "B"}, client.Calls())
}

func TestEngine_NoAgentConfigured(t *testing.T) {
	e := newTestEngine(t, Config{})

	got := e.HandleMessage(context.Background(), domain.NewTextRequest("hello", false), "u")

	require.Len(t, got.Payload, 1)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, DefaultMessages().NoAgent, got.Payload[0].Message.Text)
}

func TestEngine_InvalidRequestKeepsUserID(t *testing.T) {
	store := repository.NewMemoryPseudonymStore()
	pseudo := interceptor.NewPseudonymizer(store)
	client := newStubClient()
	e := newTestEngine(t, Config{
		Agents: []domain.Agent{agent("a", 0, 0.5)},
		Client: client,
		Interceptors: domain.Interceptors{
			ChatToCore: pseudo.ChatToCore(),
			NluToCore:  pseudo.NluToCore(),
		},
		Messages: Messages{UnsupportedFormat: "nope"},
	})

	got := e.HandleMessage(context.Background(), domain.NewInvalidRequest(json.RawMessage(`{"sticker":1}`), false), "fb-1")

	assert.Equal(t, http.StatusBadRequest, got.StatusCode)
	require.Len(t, got.Payload, 1)
	assert.Equal(t, "nope", got.Payload[0].Message.Text)
	assert.Equal(t, "fb-1", got.Payload[0].RecipientID)
	assert.Empty(t, client.Calls())
}

func TestEngine_NoResponseShortCircuits(t *testing.T) {
	client := newStubClient().on("a", answer(1, false, "x"))
	nluToCoreCalled := false
	e := newTestEngine(t, Config{
		Agents: []domain.Agent{agent("a", 0, 0.5)},
		Client: client,
		Interceptors: domain.Interceptors{
			ChatToCore: interceptor.Func[domain.ChatRequest](func(_ context.Context, userID string, _ domain.ChatRequest) (domain.PipelineResult[domain.ChatRequest], error) {
				return domain.NoResponse[domain.ChatRequest](http.StatusNoContent, "rewritten"), nil
			}),
			NluToCore: interceptor.Func[domain.NluResponse](func(_ context.Context, userID string, r domain.NluResponse) (domain.PipelineResult[domain.NluResponse], error) {
				nluToCoreCalled = true
				return domain.RespondOK(r, userID), nil
			}),
		},
	})

	got := e.HandleMessage(context.Background(), domain.NewTextRequest("hi", false), "u")

	assert.Equal(t, domain.NoResponse[[]domain.ChatResponse](http.StatusNoContent, "rewritten"), got)
	assert.Empty(t, client.Calls())
	assert.False(t, nluToCoreCalled)
}

func TestEngine_NluToCoreNoResponse(t *testing.T) {
	client := newStubClient().on("a", answer(1, false, "x"))
	e := newTestEngine(t, Config{
		Agents: []domain.Agent{agent("a", 0, 0.5)},
		Client: client,
		Interceptors: domain.Interceptors{
			NluToCore: interceptor.Func[domain.NluResponse](func(_ context.Context, userID string, _ domain.NluResponse) (domain.PipelineResult[domain.NluResponse], error) {
				return domain.NoResponse[domain.NluResponse](http.StatusAccepted, userID), nil
			}),
		},
	})

	got := e.HandleMessage(context.Background(), domain.NewTextRequest("hi", false), "u")

	assert.True(t, got.IsNoResponse())
	assert.Equal(t, http.StatusAccepted, got.StatusCode)
	assert.Nil(t, got.Payload)
}

func TestEngine_InterruptedRequestSkipsAgents(t *testing.T) {
	client := newStubClient()
	gate := interceptor.AttachmentGate{Reply: "Nice picture!"}
	e := newTestEngine(t, Config{
		Agents: []domain.Agent{agent("a", 0, 0.5)},
		Client: client,
		Interceptors: domain.Interceptors{
			ChatToCore: gate.ChatToCore(),
			NluToCore:  gate.NluToCore(),
		},
	})

	req := domain.NewAttachmentRequest(domain.Attachment{Type: domain.AttachmentImage, URL: "https://example.org/a.png"}, false)
	got := e.HandleMessage(context.Background(), req, "u")

	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, []string{"Nice picture!"}, textOf(got))
	assert.Empty(t, client.Calls())
}

func TestEngine_InitialRequest(t *testing.T) {
	client := newStubClient()
	e := newTestEngine(t, Config{Agents: []domain.Agent{agent("a", 0, 0.5)}, Client: client})

	got := e.HandleMessage(context.Background(), domain.NewInitialRequest(), "u")

	assert.Equal(t, domain.ResultRespond, got.Kind)
	assert.Empty(t, got.Payload)
	assert.Empty(t, client.Calls())

	welcome := interceptor.Welcome{Text: "Hi there"}
	e = newTestEngine(t, Config{Interceptors: domain.Interceptors{
		ChatToCore: welcome.ChatToCore(),
		NluToCore:  welcome.NluToCore(),
	}})
	got = e.HandleMessage(context.Background(), domain.NewInitialRequest(), "u")
	assert.Equal(t, []string{"Hi there"}, textOf(got))
}

func TestEngine_ErrorsBecomeGenericResponse(t *testing.T) {
	unsupported := answer(1, false)
	unsupported.Result.Messages = []domain.NluMessage{{Type: domain.NluMessageCustom, Payload: json.RawMessage(`{"type":"istruct"}`)}}

	cases := map[string]struct {
		client       *stubClient
		interceptors domain.Interceptors
		req          domain.ChatRequest
	}{
		"nlu transport failure": {
			client: func() *stubClient {
				c := newStubClient()
				c.errs["a"] = errors.New("connection refused")
				return c
			}(),
			req: domain.NewTextRequest("hi", false),
		},
		"unsupported payload": {
			client: newStubClient().on("a", unsupported),
			req:    domain.NewTextRequest("hi", false),
		},
		"attachment without interrupt": {
			client: newStubClient(),
			req:    domain.NewAttachmentRequest(domain.Attachment{Type: domain.AttachmentFile, URL: "https://example.org/f"}, false),
		},
		"nluToNlu returns no response": {
			client: newStubClient().on("a", answer(1, false, "x")),
			interceptors: domain.Interceptors{
				NluToNlu: interceptor.Func[domain.NluResponse](func(_ context.Context, userID string, _ domain.NluResponse) (domain.PipelineResult[domain.NluResponse], error) {
					return domain.NoResponse[domain.NluResponse](204, userID), nil
				}),
			},
			req: domain.NewTextRequest("hi", false),
		},
		"interceptor panics": {
			client: newStubClient(),
			interceptors: domain.Interceptors{
				ChatToCore: interceptor.Func[domain.ChatRequest](func(context.Context, string, domain.ChatRequest) (domain.PipelineResult[domain.ChatRequest], error) {
					panic("boom")
				}),
			},
			req: domain.NewTextRequest("hi", false),
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			interceptors := tc.interceptors
			if interceptors.ChatToCore == nil {
				pseudo := interceptor.NewPseudonymizer(repository.NewMemoryPseudonymStore())
				interceptors.ChatToCore = pseudo.ChatToCore()
				interceptors.NluToCore = pseudo.NluToCore()
			}
			e := newTestEngine(t, Config{
				Agents:       []domain.Agent{agent("a", 0, 0.5)},
				Client:       tc.client,
				Interceptors: interceptors,
			})

			got := e.HandleMessage(context.Background(), tc.req, "platform-user")

			assert.Equal(t, http.StatusOK, got.StatusCode)
			require.Len(t, got.Payload, 1)
			assert.Equal(t, DefaultMessages().MessageHandlingInCore, got.Payload[0].Message.Text)
			assert.Equal(t, "platform-user", got.Payload[0].RecipientID)
			assert.Equal(t, "platform-user", got.UserID)
			assert.GreaterOrEqual(t, e.Monitor().GetStats().TotalErrors, int64(1))
		})
	}
}

func TestEngine_PseudonymizedRoundTrip(t *testing.T) {
	store := repository.NewMemoryPseudonymStore()
	pseudo := interceptor.NewPseudonymizer(store)
	client := newStubClient().on("a", answer(0.9, false, "hi back"))
	e := newTestEngine(t, Config{
		Agents: []domain.Agent{agent("a", 0, 0.5)},
		Client: client,
		Interceptors: domain.Interceptors{
			ChatToCore: pseudo.ChatToCore(),
			NluToCore:  pseudo.NluToCore(),
		},
	})

	got := e.HandleMessage(context.Background(), domain.NewTextRequest("hi", false), "fb-7")

	internalID, err := store.InternalID(context.Background(), "fb-7")
	require.NoError(t, err)
	require.NotEmpty(t, internalID)
	assert.Equal(t, []string{internalID}, client.users, "agents only see the pseudonym")
	assert.Equal(t, "fb-7", got.UserID)
	assert.Equal(t, "fb-7", got.Payload[0].RecipientID)
}

func TestEngine_Reload(t *testing.T) {
	first := newStubClient().on("a", answer(1, false, "old"))
	e := newTestEngine(t, Config{Agents: []domain.Agent{agent("a", 0, 0.5)}, Client: first})

	second := newStubClient().on("b", answer(1, false, "new"))
	require.NoError(t, e.Reload(Config{Agents: []domain.Agent{agent("b", 0, 0.5)}, Client: second}))

	got := e.HandleMessage(context.Background(), domain.NewTextRequest("hi", false), "u")
	assert.Equal(t, []string{"new"}, textOf(got))
	assert.Empty(t, first.Calls())

	_, err := e.Agent("a")
	assert.ErrorIs(t, err, domain.ErrUnknownAgent)
	b, err := e.Agent("b")
	require.NoError(t, err)
	assert.Equal(t, "b", b.Name)
}

func TestEngine_ReloadRejectsBadConfig(t *testing.T) {
	e := newTestEngine(t, Config{})

	assert.Error(t, e.Reload(Config{Agents: []domain.Agent{agent("a", 0, 0.5)}}), "agents without a client")
	assert.Error(t, e.Reload(Config{Agents: []domain.Agent{agent("a", 0, 1.5)}, Client: newStubClient()}))
	assert.Error(t, e.Reload(Config{Agents: []domain.Agent{agent("a", 0, 0.5), agent("a", 1, 0.5)}, Client: newStubClient()}))
	assert.Empty(t, e.Agents(), "a rejected reload keeps the running configuration")
}

func TestEngine_HandlerForTagsPlatform(t *testing.T) {
	monitor := botmonitor.New(10, 0)
	e, err := NewEngine(Config{}, monitor)
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "trace-1")
	e.HandlerFor("slack")(ctx, domain.NewTextRequest("hi", false), "U1")

	events := monitor.GetStats().RecentEvents
	require.Len(t, events, 2)
	assert.Equal(t, "slack", events[0].Platform)
	assert.Equal(t, "trace-1", events[0].TraceID)
	assert.Equal(t, botmonitor.StageOutbound, events[1].Stage)
}
