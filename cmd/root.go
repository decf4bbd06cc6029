package cmd

import (
	"os"
	"time"

	"github.com/emundo/emubot/core/config"
	"github.com/emundo/emubot/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	v       = viper.New()

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "emubot",
	Short: "Connect chat platforms to NLU agents",
	Long: `emubot receives messages from a chat platform (Facebook Messenger, Slack or the
bundled CLI client), asks the configured NLU agents in order and sends the best answer back.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
}

func init() {
	// Load .env first so EMUBOT_* variables are visible to the config loader.
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()
}

func initFlags() {
	defaults := config.Default()

	rootCmd.PersistentFlags().StringVarP(
		&cfgFile,
		"config", "c",
		"",
		`path to a YAML or JSON config file --config <path> | example: --config="emubot.yaml"`,
	)
	rootCmd.PersistentFlags().StringP(
		"port", "p",
		defaults.App.Port,
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolP(
		"debug", "d",
		defaults.App.Debug,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringSliceP(
		"basic-auth", "b",
		defaults.App.BasicAuth,
		"basic auth credential for the admin API | -b=yourUsername:yourPassword",
	)

	_ = v.BindPFlag("app.port", rootCmd.PersistentFlags().Lookup("port"))
	_ = v.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = v.BindPFlag("app.basic_auth", rootCmd.PersistentFlags().Lookup("basic-auth"))
}

func loadConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
