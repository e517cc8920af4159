package vigil

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config defines a public type used by vigil APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Handshake HandshakeConfig
	Telemetry TelemetryConfig
	Keyring   KeyringConfig
	Bans      BanConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
HANDSHAKE CONFIG
====================================
*/

// HandshakeConfig tunes the challenge-response phase.
type HandshakeConfig struct {
	// Timeout is the deadline for a client to present a valid envelope after
	// the challenge is sent.
	Timeout time.Duration
}

/*
====================================
TELEMETRY CONFIG
====================================
*/

// TelemetryConfig tunes the plausibility validator. All bounds are inclusive:
// a value exactly at a limit is accepted, one past it kills the connection.
type TelemetryConfig struct {
	MaxMessageBytes   int
	MaxFramesPerBatch int
	MaxPctPerSecond   float64
	PctBurstAllowance float64
	MaxCoordMagnitude float64
	MaxCoordDelta     float64
}

/*
====================================
KEYRING CONFIG
====================================
*/

// KeyringConfig carries the optional JSON object of additional version→key
// entries merged over the static keys handed to the builder. Present but not
// a JSON object is a configuration error; individual bad entries are dropped
// with a warning.
type KeyringConfig struct {
	ExtraJSON string
}

/*
====================================
BAN CONFIG
====================================
*/

// BanConfig tunes the Redis-backed strike ledger. Enabled requires a Redis
// client on the builder.
type BanConfig struct {
	Enabled     bool
	StrikeLimit int
	Window      time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig tunes the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the engine's lock-free counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Handshake: HandshakeConfig{
			Timeout: 5000 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			MaxMessageBytes:   262144,
			MaxFramesPerBatch: 600,
			MaxPctPerSecond:   20,
			PctBurstAllowance: 5,
			MaxCoordMagnitude: 10_000_000,
			MaxCoordDelta:     20_000,
		},
		Bans: BanConfig{
			Enabled:     false,
			StrikeLimit: 3,
			Window:      time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the engine defaults: 5 s handshake deadline, 256 KiB
// message cap, 600 frames per batch, 20 %/s with a 5 % burst, and coordinate
// bounds of 1e7 magnitude and 2e4 per-frame delta.
func DefaultConfig() Config {
	return defaultConfig()
}

// Environment variable names for the configuration surface. All optional;
// unset means the default.
const (
	EnvHandshakeTimeoutMS = "VIGIL_HANDSHAKE_TIMEOUT_MS"
	EnvMaxMessageBytes    = "VIGIL_MAX_MESSAGE_BYTES"
	EnvMaxFrames          = "VIGIL_MAX_FRAMES"
	EnvMaxPctRate         = "VIGIL_MAX_PCT_RATE"
	EnvPctBurst           = "VIGIL_PCT_BURST"
	EnvMaxCoord           = "VIGIL_MAX_COORD"
	EnvMaxCoordDelta      = "VIGIL_MAX_COORD_DELTA"
	EnvExtraKeys          = "VIGIL_EXTRA_KEYS"
	EnvBanStrikes         = "VIGIL_BAN_STRIKES"
	EnvBanWindowMS        = "VIGIL_BAN_WINDOW_MS"
)

// ConfigFromEnv builds a Config from the environment on top of the defaults.
// A set but unparsable numeric variable is a configuration error: a
// deployment that asks for an override and does not get it must fail at
// bootstrap, not run with a silently wrong limit.
func ConfigFromEnv() (Config, error) {
	cfg := defaultConfig()

	if err := envInt(EnvHandshakeTimeoutMS, func(v int) {
		cfg.Handshake.Timeout = time.Duration(v) * time.Millisecond
	}); err != nil {
		return cfg, err
	}
	if err := envInt(EnvMaxMessageBytes, func(v int) { cfg.Telemetry.MaxMessageBytes = v }); err != nil {
		return cfg, err
	}
	if err := envInt(EnvMaxFrames, func(v int) { cfg.Telemetry.MaxFramesPerBatch = v }); err != nil {
		return cfg, err
	}
	if err := envFloat(EnvMaxPctRate, func(v float64) { cfg.Telemetry.MaxPctPerSecond = v }); err != nil {
		return cfg, err
	}
	if err := envFloat(EnvPctBurst, func(v float64) { cfg.Telemetry.PctBurstAllowance = v }); err != nil {
		return cfg, err
	}
	if err := envFloat(EnvMaxCoord, func(v float64) { cfg.Telemetry.MaxCoordMagnitude = v }); err != nil {
		return cfg, err
	}
	if err := envFloat(EnvMaxCoordDelta, func(v float64) { cfg.Telemetry.MaxCoordDelta = v }); err != nil {
		return cfg, err
	}
	if err := envInt(EnvBanStrikes, func(v int) { cfg.Bans.StrikeLimit = v }); err != nil {
		return cfg, err
	}
	if err := envInt(EnvBanWindowMS, func(v int) {
		cfg.Bans.Window = time.Duration(v) * time.Millisecond
	}); err != nil {
		return cfg, err
	}

	cfg.Keyring.ExtraJSON = os.Getenv(EnvExtraKeys)
	return cfg, nil
}

func envInt(name string, apply func(int)) error {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer", ErrConfiguration, name, raw)
	}
	apply(v)
	return nil
}

func envFloat(name string, apply func(float64)) error {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a number", ErrConfiguration, name, raw)
	}
	apply(v)
	return nil
}

func validateConfig(cfg Config) error {
	if cfg.Handshake.Timeout <= 0 {
		return fmt.Errorf("%w: handshake timeout must be positive", ErrConfiguration)
	}
	if cfg.Telemetry.MaxMessageBytes <= 0 {
		return fmt.Errorf("%w: max message bytes must be positive", ErrConfiguration)
	}
	if cfg.Telemetry.MaxFramesPerBatch <= 0 {
		return fmt.Errorf("%w: max frames per batch must be positive", ErrConfiguration)
	}
	if cfg.Telemetry.MaxPctPerSecond < 0 || cfg.Telemetry.PctBurstAllowance < 0 {
		return fmt.Errorf("%w: progress rate limits must not be negative", ErrConfiguration)
	}
	if cfg.Telemetry.MaxCoordMagnitude <= 0 || cfg.Telemetry.MaxCoordDelta <= 0 {
		return fmt.Errorf("%w: coordinate bounds must be positive", ErrConfiguration)
	}
	if cfg.Bans.Enabled && cfg.Bans.StrikeLimit <= 0 {
		return fmt.Errorf("%w: ban strike limit must be positive", ErrConfiguration)
	}
	return nil
}
