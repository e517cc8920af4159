package vigil

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vigil-ac/vigil/internal/bans"
	"github.com/vigil-ac/vigil/internal/keyring"
	"github.com/vigil-ac/vigil/internal/session"
)

// Builder defines a public type used by vigil APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config     Config
	staticKeys []KeySpec
	redis      *redis.Client
	auditSink  AuditSink
	logger     *zap.Logger

	built bool
}

// New creates a Builder carrying the default configuration. Construction is
// allocation-only; no I/O happens before Build.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStaticKeys sets the static version→key specs the keyring starts from.
// Entries from the configured extra-keys JSON override these on version
// collision.
func (b *Builder) WithStaticKeys(keys []KeySpec) *Builder {
	b.staticKeys = keys
	return b
}

// WithRedis attaches the Redis client backing the ban ledger. Required when
// Bans.Enabled, ignored otherwise.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the sink the audit dispatcher delivers to.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine's structured logger. Nil means no logging.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration, assembles the keyring, and returns a
// ready Engine. A builder builds at most once.
//
// An empty keyring is not a build error: the engine starts but refuses every
// connection, so a misconfigured deployment is visible without crash-looping
// the process.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderReused
	}

	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	specs := make([]keyring.KeySpec, 0, len(b.staticKeys))
	for _, k := range b.staticKeys {
		specs = append(specs, keyring.KeySpec{Version: k.Version, Key: k.Key})
	}
	kr, err := keyring.Build(specs, b.config.Keyring.ExtraJSON, logger)
	if err != nil {
		return nil, err
	}
	if kr.Empty() {
		logger.Warn("keyring is empty, every connection will be refused")
	}

	if b.config.Bans.Enabled && b.redis == nil {
		return nil, ErrRedisRequired
	}
	var ledger *bans.Ledger
	if b.config.Bans.Enabled {
		ledger = bans.NewLedger(b.redis, b.config.Bans.StrikeLimit, b.config.Bans.Window)
	}

	b.built = true

	return &Engine{
		config:  b.config,
		log:     logger,
		keyring: kr,
		store:   session.NewStore(),
		metrics: NewMetrics(b.config.Metrics),
		audit:   newAuditDispatcher(b.config.Audit, b.auditSink),
		bans:    ledger,
		now:     time.Now,
	}, nil
}
