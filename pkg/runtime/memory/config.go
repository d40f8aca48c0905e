package memory

import (
	"time"

	"github.com/code-payments/token-vesting/pkg/config"
	"github.com/code-payments/token-vesting/pkg/config/env"
	memoryconfig "github.com/code-payments/token-vesting/pkg/config/memory"
	"github.com/code-payments/token-vesting/pkg/config/wrapper"
	"github.com/code-payments/token-vesting/pkg/solana/system"
)

const (
	envConfigPrefix = "VESTING_LEDGER_"

	RentLamportsPerByteYearConfigEnvName = envConfigPrefix + "RENT_LAMPORTS_PER_BYTE_YEAR"
	defaultRentLamportsPerByteYear       = system.DefaultLamportsPerByteYear

	RentExemptionThresholdConfigEnvName = envConfigPrefix + "RENT_EXEMPTION_THRESHOLD"
	defaultRentExemptionThreshold       = system.DefaultExemptionThreshold

	RentBurnPercentConfigEnvName = envConfigPrefix + "RENT_BURN_PERCENT"
	defaultRentBurnPercent       = system.DefaultBurnPercent

	SlotDurationConfigEnvName = envConfigPrefix + "SLOT_DURATION"
	defaultSlotDuration       = 400 * time.Millisecond

	VerifySignaturesConfigEnvName = envConfigPrefix + "VERIFY_SIGNATURES"
	defaultVerifySignatures       = true
)

type conf struct {
	rentLamportsPerByteYear config.Uint64
	rentExemptionThreshold  config.Float64
	rentBurnPercent         config.Uint64
	slotDuration            config.Duration
	verifySignatures        config.Bool
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			rentLamportsPerByteYear: env.NewUint64Config(RentLamportsPerByteYearConfigEnvName, defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  env.NewFloat64Config(RentExemptionThresholdConfigEnvName, defaultRentExemptionThreshold),
			rentBurnPercent:         env.NewUint64Config(RentBurnPercentConfigEnvName, defaultRentBurnPercent),
			slotDuration:            env.NewDurationConfig(SlotDurationConfigEnvName, defaultSlotDuration),
			verifySignatures:        env.NewBoolConfig(VerifySignaturesConfigEnvName, defaultVerifySignatures),
		}
	}
}

type testOverrides struct {
	rent             system.Rent
	verifySignatures bool
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			rentLamportsPerByteYear: wrapper.NewUint64Config(memoryconfig.NewConfig(overrides.rent.LamportsPerByteYear), defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  wrapper.NewFloat64Config(memoryconfig.NewConfig(overrides.rent.ExemptionThreshold), defaultRentExemptionThreshold),
			rentBurnPercent:         wrapper.NewUint64Config(memoryconfig.NewConfig(uint64(overrides.rent.BurnPercent)), defaultRentBurnPercent),
			slotDuration:            wrapper.NewDurationConfig(memoryconfig.NewConfig(defaultSlotDuration), defaultSlotDuration),
			verifySignatures:        wrapper.NewBoolConfig(memoryconfig.NewConfig(overrides.verifySignatures), defaultVerifySignatures),
		}
	}
}
