package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/emundo/emubot/botengine"
	"github.com/emundo/emubot/domains/health"
	"github.com/emundo/emubot/infrastructure/nlu"
	"github.com/emundo/emubot/pkg/botmonitor"
	"github.com/emundo/emubot/pkg/msgworker"
	"github.com/emundo/emubot/pkg/utils"
	"github.com/emundo/emubot/ui/rest/middleware"
	"github.com/emundo/emubot/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T) (*fiber.App, fiber.Router) {
	t.Helper()
	app := fiber.New()
	app.Use(middleware.Recovery())
	return app, app.Group("/api")
}

func decode(t *testing.T, resp *http.Response) utils.ResponseData {
	t.Helper()
	var body utils.ResponseData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestAgentRoutes(t *testing.T) {
	static := nlu.NewStaticClient()
	engine, err := botengine.NewEngine(botengine.Config{Agents: nlu.DemoAgents(), Client: static}, nil)
	require.NoError(t, err)

	app, api := newAPI(t)
	InitRestAgent(api, usecase.NewAgentService(engine, static, nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/agents", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	agents, ok := body.Results.([]any)
	require.True(t, ok)
	assert.Len(t, agents, 2)

	post := httptest.NewRequest(http.MethodPost, "/api/agents/first/contexts",
		strings.NewReader(`{"user_id":"u1","contexts":["greeting"]}`))
	post.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(post)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/agents/first/contexts?user_id=u1", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	active := decode(t, resp).Results.([]any)
	require.Len(t, active, 1)
	assert.Equal(t, "greeting", active[0].(map[string]any)["name"])

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/agents/first/contexts/all?user_id=u1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode(t, resp).Results.(map[string]any)
	assert.Equal(t, true, status["success"])

	post = httptest.NewRequest(http.MethodPost, "/api/agents/nobody/contexts",
		strings.NewReader(`{"user_id":"u1","contexts":["greeting"]}`))
	post.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(post)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	post = httptest.NewRequest(http.MethodPost, "/api/agents/first/contexts", strings.NewReader(`{"user_id":"u1"}`))
	post.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(post)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, resp).Code)
}

func TestHealthRoute(t *testing.T) {
	healthy := true
	svc := usecase.NewHealthService(health.Check{
		EntityType: health.EntityDatabase,
		EntityID:   "sqlite",
		Ping: func(context.Context) error {
			if healthy {
				return nil
			}
			return assert.AnError
		},
	})

	app, api := newAPI(t)
	InitRestHealth(api, svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	healthy = false
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMonitorRoute(t *testing.T) {
	monitor := botmonitor.New(10, 0)
	monitor.Record(botmonitor.Event{Stage: botmonitor.StageInbound, Status: botmonitor.StatusOK, Platform: "cli"})

	app, api := newAPI(t)
	InitRestMonitor(api, monitor, time.Now().Add(-time.Hour))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/monitor", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	results := decode(t, resp).Results.(map[string]any)
	assert.EqualValues(t, 1, results["total_inbound"])
	assert.Equal(t, "1 hour", results["uptime"])
	assert.Equal(t, "1", results["inbound_humanized"])
}

func TestMonitorRoute_Disabled(t *testing.T) {
	app, api := newAPI(t)
	InitRestMonitor(api, nil, time.Now())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/monitor", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWorkerPoolRoute(t *testing.T) {
	app, api := newAPI(t)
	pool := msgworker.NewPool(2, 10)
	InitRestWorkerPool(api, pool)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/workers", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := decode(t, resp).Results.(map[string]any)
	assert.EqualValues(t, 2, results["num_workers"])

	app, api = newAPI(t)
	InitRestWorkerPool(api, nil)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/workers", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
