// Package app loads the configuration and logger shared by the vestingctl
// commands.
package app

import (
	"crypto/ed25519"
	"io"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig loads the base config from the environment and, if it exists, the
// config file at configPath.
func LoadConfig(configPath string) (BaseConfig, error) {
	// viper.ReadInConfig only returns ConfigFileNotFoundError if it has to search
	// for a default config file because one hasn't been explicitly set. That is,
	// if we explicitly set a config file, and it does not exist, viper will not
	// return a ConfigFileNotFoundError, so we do it ourselves.
	if len(configPath) > 0 {
		if _, err := os.Stat(configPath); err == nil {
			viper.SetConfigFile(configPath)
		} else if !os.IsNotExist(err) {
			return BaseConfig{}, errors.Wrap(err, "failed to check if config exists")
		}
	}

	err := viper.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		return BaseConfig{}, errors.Wrap(err, "failed to load config")
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "failed to unmarshal config")
	}

	return config, nil
}

// Program returns the decoded program id.
func (c BaseConfig) Program() (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(c.ProgramID)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid program id %q", c.ProgramID)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid program id %q: expected %d bytes, got %d", c.ProgramID, ed25519.PublicKeySize, len(decoded))
	}
	return decoded, nil
}

// ConfigureLogger applies the logging config to the standard logger, writing
// to out.
func ConfigureLogger(config BaseConfig, out io.Writer) {
	if strings.ToLower(config.LogFormat) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(out)
}
