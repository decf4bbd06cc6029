package domain

import (
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Agent is one configured NLU backend. Agents are built once from
// configuration and never mutated afterwards. Dialogflow agents use Token
// as the path of their service account key and need a ProjectID.
type Agent struct {
	Name                   string  `json:"name" mapstructure:"name"`
	ExecutionIndex         int     `json:"execution_index" mapstructure:"execution_index"`
	MinScore               float64 `json:"min_score" mapstructure:"min_score"`
	Token                  string  `json:"token,omitempty" mapstructure:"token"`
	URL                    string  `json:"url,omitempty" mapstructure:"url"`
	LanguageCode           string  `json:"language_code,omitempty" mapstructure:"language_code"`
	ProjectID              string  `json:"project_id,omitempty" mapstructure:"project_id"`
	DefaultLifespanMinutes int     `json:"default_lifespan_minutes,omitempty" mapstructure:"default_lifespan_minutes"`
}

func (a Agent) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Name, validation.Required),
		validation.Field(&a.MinScore, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&a.DefaultLifespanMinutes, validation.Min(0)),
	)
}

// Redacted returns a copy without credentials, safe to expose over the API.
func (a Agent) Redacted() Agent {
	if a.Token != "" {
		a.Token = "***"
	}
	return a
}

// SortAgents returns a copy of agents ordered by ascending ExecutionIndex.
// The sort is stable: agents sharing an index keep their relative order.
func SortAgents(agents []Agent) []Agent {
	ordered := make([]Agent, len(agents))
	copy(ordered, agents)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExecutionIndex < ordered[j].ExecutionIndex
	})
	return ordered
}

// OrderAgents flattens a name -> agent mapping into query order. Map keys
// fill in missing names; names break ties between equal indices so the
// result does not depend on map iteration order.
func OrderAgents(agents map[string]Agent) []Agent {
	names := make([]string, 0, len(agents))
	for name := range agents {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]Agent, 0, len(agents))
	for _, name := range names {
		agent := agents[name]
		if agent.Name == "" {
			agent.Name = name
		}
		list = append(list, agent)
	}
	return SortAgents(list)
}
