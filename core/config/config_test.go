package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emundo/emubot/infrastructure/cli"
	"github.com/emundo/emubot/infrastructure/facebook"
	"github.com/emundo/emubot/infrastructure/nlu"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) *viper.Viper {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emubot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	return v
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, cli.Name, cfg.Platform.Chat.Platform)
	assert.Equal(t, nlu.PlatformStatic, cfg.Platform.Nlu.Platform)
	require.Len(t, cfg.OrderedAgents(), 2)
	assert.Equal(t, "first", cfg.OrderedAgents()[0].Name)
	assert.NotEmpty(t, cfg.Messages.NoAgent)
	assert.False(t, cfg.UsesPseudonyms())
}

func TestLoad_FileReplacesAgents(t *testing.T) {
	v := writeConfig(t, `
app:
  port: "8080"
platform:
  chat:
    platform: facebook
    facebook:
      app_secret: secret
      page_access_token: token
      verify_token: verify
  nlu:
    platform: rasa
    timeout: 3s
agents:
  backup:
    execution_index: 1
    min_score: 0.5
    url: http://backup:5005
  main:
    execution_index: 0
    min_score: 0.7
    url: http://main:5005
    token: s3cr3t
interceptors:
  chat_to_core: [pseudonymize, attachment]
  nlu_to_core: [pseudonymize]
messages:
  no_agent: Nobody home.
`)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, facebook.Name, cfg.Platform.Chat.Platform)
	assert.Equal(t, "secret", cfg.Platform.Chat.Facebook.AppSecret)
	assert.Equal(t, "/webhook/facebook", cfg.Platform.Chat.Facebook.WebhookPath, "defaults survive")
	assert.Equal(t, 3*time.Second, cfg.Platform.Nlu.Timeout)

	agents := cfg.OrderedAgents()
	require.Len(t, agents, 2)
	assert.Equal(t, "main", agents[0].Name)
	assert.Equal(t, "s3cr3t", agents[0].Token)
	assert.Equal(t, "backup", agents[1].Name)

	assert.True(t, cfg.UsesPseudonyms())
	assert.Equal(t, []string{"pseudonymize", "attachment"}, cfg.InterceptorNames().ChatToCore)
	assert.Equal(t, "Nobody home.", cfg.Messages.NoAgent)
	assert.NotEmpty(t, cfg.Messages.UnsupportedFormat, "unset messages keep their default")
}

func TestLoad_WithoutAgents(t *testing.T) {
	v := writeConfig(t, `
platform:
  chat:
    platform: cli
agents: {}
`)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, cli.Name, cfg.Platform.Chat.Platform)
	assert.Empty(t, cfg.Agents)
	assert.Empty(t, cfg.OrderedAgents())
}

func TestLoad_DialogflowAgents(t *testing.T) {
	v := writeConfig(t, `
platform:
  nlu:
    platform: dialogflow
agents:
  main:
    project_id: emubot-demo
    token: /secrets/main.json
    language_code: de
    default_lifespan_minutes: 3
`)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, nlu.PlatformDialogflow, cfg.Platform.Nlu.Platform)
	agents := cfg.OrderedAgents()
	require.Len(t, agents, 1)
	assert.Equal(t, "emubot-demo", agents[0].ProjectID)
	assert.Equal(t, "/secrets/main.json", agents[0].Token)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("EMUBOT_APP_PORT", "9999")
	t.Setenv("EMUBOT_INTERCEPTORS_CHAT_TO_CORE", "attachment,mirror")
	t.Setenv("EMUBOT_MESSAGES_WELCOME", "Hi there")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.App.Port)
	assert.Equal(t, []string{"attachment", "mirror"}, cfg.Interceptors.ChatToCore)
	assert.Equal(t, "Hi there", cfg.Messages.Welcome)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown chat platform", "platform:\n  chat:\n    platform: telegram\n"},
		{"facebook without secrets", "platform:\n  chat:\n    platform: facebook\n"},
		{"unknown nlu platform", "platform:\n  nlu:\n    platform: watson\n"},
		{"bad agent score", "agents:\n  main:\n    min_score: 1.5\n"},
		{"unknown pseudonym store", "interceptors:\n  pseudonym_store: file\n"},
		{"dialogflow agent without project", "platform:\n  nlu:\n    platform: dialogflow\nagents:\n  main:\n    token: key.json\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestValkeyConfig_ClientConfig(t *testing.T) {
	c := ValkeyConfig{Address: "vk:6379", Password: "pw", DB: 2, KeyPrefix: "bot:"}
	got := c.ClientConfig()
	assert.Equal(t, "vk:6379", got.Address)
	assert.Equal(t, 2, got.DB)
	assert.Equal(t, "bot:", got.KeyPrefix)
}
