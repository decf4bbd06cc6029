package botengine

import (
	"context"
	"errors"
	"testing"

	"github.com/emundo/emubot/botengine/domain"
	"github.com/emundo/emubot/botengine/interceptor"
	"github.com/emundo/emubot/pkg/botmonitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSelector(agents []domain.Agent, client domain.NluClient) *AgentSelector {
	return NewAgentSelector(domain.SortAgents(agents), client, interceptor.Mirror[domain.NluResponse]{}, nil)
}

func TestFindBestAnswer_QueriesInExecutionOrder(t *testing.T) {
	client := newStubClient().
		on("two", answer(0.1, true)).
		on("three", answer(0.1, true)).
		on("one", answer(0.1, true, "primary"))

	s := newSelector([]domain.Agent{agent("two", 2, 0.5), agent("three", 3, 0.5), agent("one", 1, 0.5)}, client)
	got, err := s.FindBestAnswer(context.Background(), domain.TextRequest{Text: "hi", UserID: "u"})

	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, client.Calls())
	assert.Equal(t, "one", got.AgentName, "all fallback answers resolve to the primary agent")
	assert.Equal(t, "primary", got.Response.Result.Messages[0].Text)
}

func TestFindBestAnswer_AcceptsFirstQualifyingAnswer(t *testing.T) {
	client := newStubClient().
		on("a", answer(0.8, false, "from a")).
		on("b", answer(1, false, "from b"))

	s := newSelector([]domain.Agent{agent("a", 0, 0.8), agent("b", 1, 0.1)}, client)
	got, err := s.FindBestAnswer(context.Background(), domain.TextRequest{Text: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "a", got.AgentName)
	assert.Equal(t, client.answers["a"], got.Response)
	assert.Equal(t, []string{"a"}, client.Calls(), "a score equal to the minimum is accepted")
}

func TestFindBestAnswer_LowScoreMovesToNextAgent(t *testing.T) {
	client := newStubClient().
		on("A", answer(0.3, false, "from A")).
		on("B", answer(0.6, false, "from B"))

	s := newSelector([]domain.Agent{agent("A", 0, 0.8), agent("B", 1, 0.5)}, client)
	got, err := s.FindBestAnswer(context.Background(), domain.TextRequest{Text: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "B", got.AgentName)
	assert.Equal(t, client.answers["B"], got.Response)
	assert.Equal(t, []string{"A", "B"}, client.Calls())
}

func TestFindBestAnswer_SingleAgentBelowThreshold(t *testing.T) {
	client := newStubClient().on("only", answer(0.5, false, "maybe"))

	s := newSelector([]domain.Agent{agent("only", 0, 0.9)}, client)
	got, err := s.FindBestAnswer(context.Background(), domain.TextRequest{Text: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "only", got.AgentName)
	assert.Equal(t, client.answers["only"], got.Response)
}

func TestFindBestAnswer_PrimaryIsNeverReplaced(t *testing.T) {
	client := newStubClient().
		on("a", answer(0.2, true, "a fallback")).
		on("b", answer(0.4, false, "b low")).
		on("c", answer(0.9, true, "c fallback"))

	s := newSelector([]domain.Agent{agent("a", 0, 0.5), agent("b", 1, 0.5), agent("c", 2, 0.5)}, client)
	got, err := s.FindBestAnswer(context.Background(), domain.TextRequest{Text: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "a", got.AgentName)
	assert.Equal(t, "a fallback", got.Response.Result.Messages[0].Text)
}

func TestFindBestAnswer_NluToNluSeesEveryAnswer(t *testing.T) {
	client := newStubClient().
		on("a", answer(0.1, false)).
		on("b", answer(0.1, false))

	var seen []string
	boost := interceptor.Func[domain.NluResponse](func(_ context.Context, userID string, r domain.NluResponse) (domain.PipelineResult[domain.NluResponse], error) {
		seen = append(seen, r.AgentName)
		if r.AgentName == "b" {
			r.Result.Score = 0.95
		}
		return domain.RespondOK(r, userID), nil
	})

	s := NewAgentSelector([]domain.Agent{agent("a", 0, 0.5), agent("b", 1, 0.5)}, client, boost, nil)
	got, err := s.FindBestAnswer(context.Background(), domain.TextRequest{Text: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "b", got.AgentName)
	assert.Equal(t, 0.95, got.Response.Result.Score)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestFindBestAnswer_NoResponseFromNluToNluFails(t *testing.T) {
	client := newStubClient().on("a", answer(1, false))
	silence := interceptor.Func[domain.NluResponse](func(_ context.Context, userID string, _ domain.NluResponse) (domain.PipelineResult[domain.NluResponse], error) {
		return domain.NoResponse[domain.NluResponse](204, userID), nil
	})

	s := NewAgentSelector([]domain.Agent{agent("a", 0, 0.5)}, client, silence, nil)
	_, err := s.FindBestAnswer(context.Background(), domain.TextRequest{Text: "hi"})

	assert.ErrorIs(t, err, domain.ErrNoResponseNotPossible)
}

func TestFindBestAnswer_ClientErrorPropagates(t *testing.T) {
	errTimeout := errors.New("timeout")
	client := newStubClient().on("a", answer(0.1, true))
	client.errs["b"] = errTimeout

	monitor := botmonitor.New(10, 0)
	s := NewAgentSelector([]domain.Agent{agent("a", 0, 0.5), agent("b", 1, 0.5)}, client, interceptor.Mirror[domain.NluResponse]{}, monitor)
	_, err := s.FindBestAnswer(context.Background(), domain.TextRequest{Text: "hi"})

	assert.ErrorIs(t, err, errTimeout)
	assert.Equal(t, []string{"a", "b"}, client.Calls(), "no retry after a transport failure")

	stats := monitor.GetStats()
	assert.EqualValues(t, 2, stats.TotalNluRequests)
	assert.EqualValues(t, 1, stats.TotalNluReplies)
	assert.EqualValues(t, 1, stats.TotalErrors)
}

func TestFindBestAnswer_NoAgents(t *testing.T) {
	s := newSelector(nil, newStubClient())
	_, err := s.FindBestAnswer(context.Background(), domain.TextRequest{Text: "hi"})
	assert.Error(t, err)
}
