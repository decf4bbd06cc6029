package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(agents []Agent) []string {
	out := make([]string, len(agents))
	for i, a := range agents {
		out[i] = a.Name
	}
	return out
}

func TestSortAgents_AscendingExecutionIndex(t *testing.T) {
	agents := []Agent{
		{Name: "two", ExecutionIndex: 2},
		{Name: "three", ExecutionIndex: 3},
		{Name: "one", ExecutionIndex: 1},
	}

	ordered := SortAgents(agents)

	assert.Equal(t, []string{"one", "two", "three"}, names(ordered))
	// input untouched
	assert.Equal(t, "two", agents[0].Name)
}

func TestSortAgents_StableForEqualIndices(t *testing.T) {
	agents := []Agent{
		{Name: "b", ExecutionIndex: 5},
		{Name: "a", ExecutionIndex: 5},
		{Name: "first", ExecutionIndex: -1},
		{Name: "c", ExecutionIndex: 5},
	}

	assert.Equal(t, []string{"first", "b", "a", "c"}, names(SortAgents(agents)))
}

func TestOrderAgents_FromMapping(t *testing.T) {
	agents := map[string]Agent{
		"zeta":  {ExecutionIndex: 0},
		"alpha": {ExecutionIndex: 0},
		"beta":  {ExecutionIndex: -3, Name: "beta"},
		"gamma": {ExecutionIndex: 10},
	}

	ordered := OrderAgents(agents)

	require.Len(t, ordered, 4)
	assert.Equal(t, []string{"beta", "alpha", "zeta", "gamma"}, names(ordered))
}

func TestAgent_Validate(t *testing.T) {
	assert.NoError(t, Agent{Name: "ok", MinScore: 0.5}.Validate())
	assert.Error(t, Agent{MinScore: 0.5}.Validate())
	assert.Error(t, Agent{Name: "high", MinScore: 1.5}.Validate())
	assert.Error(t, Agent{Name: "neg", MinScore: -0.1}.Validate())
}

func TestAgent_Redacted(t *testing.T) {
	a := Agent{Name: "x", Token: "secret"}
	assert.Equal(t, "***", a.Redacted().Token)
	assert.Equal(t, "secret", a.Token)
	assert.Empty(t, Agent{Name: "y"}.Redacted().Token)
}
