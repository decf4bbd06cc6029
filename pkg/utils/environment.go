package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig loads a .env file from path (if present) into the process
// environment and lets viper resolve every key from the environment.
func LoadConfig(path string, name ...string) {
	envFile := filepath.Join(path, ".env")
	if len(name) > 0 && name[0] != "" {
		envFile = filepath.Join(path, name[0])
	}

	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logrus.Warnf("[CONFIG] could not load %s: %v", envFile, err)
		}
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}
