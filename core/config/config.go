package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/emundo/emubot/botengine"
	"github.com/emundo/emubot/botengine/domain"
	"github.com/emundo/emubot/botengine/interceptor"
	"github.com/emundo/emubot/infrastructure/cli"
	"github.com/emundo/emubot/infrastructure/facebook"
	"github.com/emundo/emubot/infrastructure/nlu"
	"github.com/emundo/emubot/infrastructure/slack"
	"github.com/emundo/emubot/infrastructure/valkey"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// EMUBOT_PLATFORM_CHAT_PLATFORM.
const EnvPrefix = "EMUBOT_"

const (
	PseudonymStoreMemory   = "memory"
	PseudonymStoreValkey   = "valkey"
	PseudonymStoreDatabase = "database"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App          AppConfig               `mapstructure:"app" envPrefix:"APP_"`
	Platform     PlatformConfig          `mapstructure:"platform" envPrefix:"PLATFORM_"`
	Agents       map[string]domain.Agent `mapstructure:"agents"`
	Interceptors InterceptorConfig       `mapstructure:"interceptors" envPrefix:"INTERCEPTORS_"`
	Messages     botengine.Messages      `mapstructure:"messages" envPrefix:"MESSAGES_"`
	Database     DatabaseConfig          `mapstructure:"database" envPrefix:"DB_"`
	Valkey       ValkeyConfig            `mapstructure:"valkey" envPrefix:"VALKEY_"`
	WorkerPool   WorkerPoolConfig        `mapstructure:"worker_pool" envPrefix:"WORKER_POOL_"`
	Monitor      MonitorConfig           `mapstructure:"monitor" envPrefix:"MONITOR_"`
}

type AppConfig struct {
	Port               string   `mapstructure:"port" env:"PORT"`
	Debug              bool     `mapstructure:"debug" env:"DEBUG"`
	BasicAuth          []string `mapstructure:"basic_auth" env:"BASIC_AUTH" envSeparator:","`
	BasePath           string   `mapstructure:"base_path" env:"BASE_PATH"`
	CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	ServerID           string   `mapstructure:"server_id" env:"SERVER_ID"`
	StoragePath        string   `mapstructure:"storage_path" env:"STORAGE_PATH"`
}

type PlatformConfig struct {
	Chat ChatConfig `mapstructure:"chat" envPrefix:"CHAT_"`
	Nlu  NluConfig  `mapstructure:"nlu" envPrefix:"NLU_"`
}

// ChatConfig selects the chat platform; only the section of the selected
// platform has to be filled in.
type ChatConfig struct {
	Platform string          `mapstructure:"platform" env:"PLATFORM"`
	Facebook facebook.Config `mapstructure:"facebook" envPrefix:"FACEBOOK_"`
	Slack    slack.Config    `mapstructure:"slack" envPrefix:"SLACK_"`
	Cli      cli.Config      `mapstructure:"cli" envPrefix:"CLI_"`
}

type NluConfig struct {
	Platform string        `mapstructure:"platform" env:"PLATFORM"`
	Timeout  time.Duration `mapstructure:"timeout" env:"TIMEOUT"`
}

type InterceptorConfig struct {
	ChatToCore     []string `mapstructure:"chat_to_core" env:"CHAT_TO_CORE" envSeparator:","`
	NluToNlu       []string `mapstructure:"nlu_to_nlu" env:"NLU_TO_NLU" envSeparator:","`
	NluToCore      []string `mapstructure:"nlu_to_core" env:"NLU_TO_CORE" envSeparator:","`
	PseudonymStore string   `mapstructure:"pseudonym_store" env:"PSEUDONYM_STORE"`
	AttachmentText string   `mapstructure:"attachment_text" env:"ATTACHMENT_TEXT"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" env:"DRIVER"`
	Host     string `mapstructure:"host" env:"HOST"`
	Port     int    `mapstructure:"port" env:"PORT"`
	User     string `mapstructure:"user" env:"USER"`
	Password string `mapstructure:"password" env:"PASSWORD"`
	Name     string `mapstructure:"name" env:"NAME"` // File path for SQLite, DB Name for Postgres
}

type ValkeyConfig struct {
	Enabled   bool   `mapstructure:"enabled" env:"ENABLED"`
	Address   string `mapstructure:"address" env:"ADDRESS"`
	Password  string `mapstructure:"password" env:"PASSWORD"`
	DB        int    `mapstructure:"db" env:"DB"`
	KeyPrefix string `mapstructure:"key_prefix" env:"KEY_PREFIX"`
}

type WorkerPoolConfig struct {
	Size      int `mapstructure:"size" env:"SIZE"`
	QueueSize int `mapstructure:"queue_size" env:"QUEUE_SIZE"`
}

type MonitorConfig struct {
	Size int           `mapstructure:"size" env:"SIZE"`
	TTL  time.Duration `mapstructure:"ttl" env:"TTL"`
}

// Default is the configuration used without a config file: the CLI
// transport in front of the offline demo agents.
func Default() *Config {
	agents := make(map[string]domain.Agent)
	for _, agent := range nlu.DemoAgents() {
		agents[agent.Name] = agent
	}

	return &Config{
		App: AppConfig{
			Port:               "4000",
			CorsAllowedOrigins: []string{"*"},
			StoragePath:        "storages",
		},
		Platform: PlatformConfig{
			Chat: ChatConfig{
				Platform: cli.Name,
				Facebook: facebook.Config{
					WebhookPath: "/webhook/facebook",
					URL:         "https://graph.facebook.com/",
					Version:     "v2.6",
				},
				Slack: slack.Config{WebhookPath: "/webhook/slack"},
				Cli:   cli.Config{WebhookPath: "/webhook"},
			},
			Nlu: NluConfig{Platform: nlu.PlatformStatic, Timeout: nlu.DefaultTimeout},
		},
		Agents:       agents,
		Interceptors: InterceptorConfig{PseudonymStore: PseudonymStoreMemory},
		Messages:     botengine.DefaultMessages(),
		Database: DatabaseConfig{
			Driver: "sqlite",
			Host:   "localhost",
			Port:   5432,
			User:   "postgres",
			Name:   filepath.Join("storages", "emubot.db"),
		},
		Valkey: ValkeyConfig{
			Address:   "localhost:6379",
			KeyPrefix: "emubot:",
		},
		WorkerPool: WorkerPoolConfig{Size: 20, QueueSize: 1000},
		Monitor:    MonitorConfig{Size: 200, TTL: time.Hour},
	}
}

// Load builds the configuration: defaults, then the config file of v (if
// any), then flags bound to v, then EMUBOT_* environment variables.
// Agents from a config file replace the demo agents.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
		if v.IsSet("agents") {
			cfg.Agents = nil
		}
	} else {
		logrus.Warn("[CONFIG] No config file given, using the CLI transport with the static demo agents")
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.Messages = cfg.Messages.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Agents) == 0 {
		logrus.Warnf("[CONFIG] No agents configured, every message is answered with %q", cfg.Messages.NoAgent)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.App),
		validation.Field(&c.Platform),
		validation.Field(&c.Agents, validation.When(c.Platform.Nlu.Platform == nlu.PlatformDialogflow, validation.By(requireProjectIDs))),
		validation.Field(&c.Interceptors),
		validation.Field(&c.Database, validation.Skip.When(c.Interceptors.PseudonymStore != PseudonymStoreDatabase)),
		validation.Field(&c.Valkey, validation.Skip.When(!c.Valkey.Enabled && c.Interceptors.PseudonymStore != PseudonymStoreValkey)),
		validation.Field(&c.WorkerPool),
	)
}

func requireProjectIDs(value any) error {
	agents, _ := value.(map[string]domain.Agent)
	for name, agent := range agents {
		if agent.ProjectID == "" {
			return fmt.Errorf("agent %s needs a project_id for dialogflow", name)
		}
	}
	return nil
}

func (c AppConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required),
	)
}

func (c PlatformConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Chat),
		validation.Field(&c.Nlu),
	)
}

func (c ChatConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Platform, validation.Required, validation.In(facebook.Name, slack.Name, cli.Name)),
		validation.Field(&c.Facebook, validation.Skip.When(c.Platform != facebook.Name)),
		validation.Field(&c.Slack, validation.Skip.When(c.Platform != slack.Name)),
		validation.Field(&c.Cli, validation.Skip.When(c.Platform != cli.Name)),
	)
}

func (c NluConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Platform, validation.In(nlu.PlatformRasa, nlu.PlatformSnips, nlu.PlatformStatic, nlu.PlatformDialogflow)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

func (c InterceptorConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PseudonymStore, validation.In(PseudonymStoreMemory, PseudonymStoreValkey, PseudonymStoreDatabase)),
	)
}

func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In("sqlite", "postgres")),
		validation.Field(&c.Name, validation.Required),
	)
}

func (c ValkeyConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Address, validation.Required),
	)
}

func (c WorkerPoolConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Size, validation.Min(1)),
		validation.Field(&c.QueueSize, validation.Min(1)),
	)
}

// OrderedAgents returns the configured agents in query order.
func (c *Config) OrderedAgents() []domain.Agent {
	return domain.OrderAgents(c.Agents)
}

func (c *Config) InterceptorNames() interceptor.Names {
	return interceptor.Names{
		ChatToCore: c.Interceptors.ChatToCore,
		NluToNlu:   c.Interceptors.NluToNlu,
		NluToCore:  c.Interceptors.NluToCore,
	}
}

// UsesPseudonyms reports whether any stage needs a pseudonym store.
func (c *Config) UsesPseudonyms() bool {
	for _, names := range [][]string{c.Interceptors.ChatToCore, c.Interceptors.NluToCore} {
		for _, name := range names {
			if name == interceptor.NamePseudonymize {
				return true
			}
		}
	}
	return false
}

func (c ValkeyConfig) ClientConfig() valkey.Config {
	return valkey.Config{
		Address:   c.Address,
		Password:  c.Password,
		DB:        c.DB,
		KeyPrefix: c.KeyPrefix,
	}
}
