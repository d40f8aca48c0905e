package app

import (
	"github.com/spf13/viper"
)

// DefaultProgramID is the address the vesting program was deployed at on
// devnet.
const DefaultProgramID = "3jwszvTDRQp8UakHTAd5EJ1gURqNbuWcRsGbtU31gNYL"

// BaseConfig contains the configuration shared by every vestingctl command.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is either "text" or "json".
	LogFormat string `mapstructure:"log_format"`

	// ProgramID is the base58 address of the vesting program.
	ProgramID string `mapstructure:"program_id"`
}

var defaultConfig = BaseConfig{
	LogLevel:  "info",
	LogFormat: "text",
	ProgramID: DefaultProgramID,
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("log_format", "LOG_FORMAT")

	_ = viper.BindEnv("program_id", "VESTING_PROGRAM_ID")
}
