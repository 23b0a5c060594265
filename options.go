package triage

import (
	"go.uber.org/zap"

	"github.com/os-threat/triage/config"
	"github.com/os-threat/triage/constraint"
	"github.com/os-threat/triage/store"
)

// Option configures a Session.
type Option func(*sessionConfig)

// sessionConfig holds configuration for a Session instance.
type sessionConfig struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
	backend    store.Backend
	rules      *constraint.RuleSet
}

// WithConfigPath sets the triage.yaml path for the session. Missing files
// fall back to defaults.
func WithConfigPath(path string) Option {
	return func(c *sessionConfig) { c.configPath = path }
}

// WithConfig sets a pre-loaded configuration, bypassing file loading.
func WithConfig(cfg *config.Config) Option {
	return func(c *sessionConfig) { c.cfg = cfg }
}

// WithLogger sets a custom logger. If not provided, one is built from the
// logging configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(c *sessionConfig) { c.logger = logger }
}

// WithBackend sets a pre-built partition backend, overriding the configured
// one. Mainly for tests and embedding.
func WithBackend(backend store.Backend) Option {
	return func(c *sessionConfig) { c.backend = backend }
}

// WithRules sets a pre-loaded constraint rule set, overriding the configured
// rule files.
func WithRules(rules constraint.RuleSet) Option {
	return func(c *sessionConfig) { c.rules = &rules }
}
