package triage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/os-threat/triage/config"
	"github.com/os-threat/triage/constraint"
	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/promote"
	"github.com/os-threat/triage/query"
	"github.com/os-threat/triage/stix"
	"github.com/os-threat/triage/store"
	"github.com/os-threat/triage/store/redisstore"
	"github.com/os-threat/triage/view"
)

// Session is the top-level handle on a triage context memory. It wires the
// configured backend into the partitioned store, the promotion engine, the
// view builder and the constraint resolver, and exposes the operations the
// triage blocks are built from.
type Session struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *store.Store
	engine   *promote.Engine
	views    *view.Builder
	resolver *constraint.Resolver
	closer   func() error
}

// NewSession creates a Session from the given options.
//
// Example:
//
//	session, err := triage.NewSession(
//	    triage.WithConfigPath("triage.yaml"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
func NewSession(opts ...Option) (*Session, error) {
	sc := &sessionConfig{}
	for _, opt := range opts {
		opt(sc)
	}

	cfg := sc.cfg
	if cfg == nil {
		loaded, err := config.LoadOrDefault(sc.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := sc.logger
	if logger == nil {
		built, err := buildLogger(cfg.Logging)
		if err != nil {
			return nil, err
		}
		logger = built
	}

	backend := sc.backend
	closer := func() error { return nil }
	if backend == nil {
		switch cfg.Memory.GetBackend() {
		case config.BackendRedis:
			redisOpts := redisstore.Options{}
			if cfg.Redis != nil {
				redisOpts.URL = cfg.Redis.URL
				redisOpts.KeyPrefix = cfg.Redis.KeyPrefix
			}
			rb, err := redisstore.New(redisOpts)
			if err != nil {
				return nil, err
			}
			backend = rb
			closer = rb.Close
		default:
			backend = store.NewFileBackend(cfg.Memory.GetRoot(), store.DefaultLayout())
		}
	}

	var rules constraint.RuleSet
	if sc.rules != nil {
		rules = *sc.rules
	} else {
		loaded, err := constraint.LoadRuleSet(cfg.Rules.Relationships, cfg.Rules.Connections)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}

	s := store.New(backend, store.WithLogger(logger))
	return &Session{
		cfg:      cfg,
		logger:   logger,
		store:    s,
		engine:   promote.NewEngine(s, promote.WithLogger(logger)),
		views:    view.NewBuilder(s, view.WithLogger(logger)),
		resolver: constraint.NewResolver(rules),
		closer:   closer,
	}, nil
}

func buildLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.GetLevel())
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// Close releases the session's backend resources.
func (s *Session) Close() error {
	_ = s.logger.Sync()
	return s.closer()
}

// Store returns the underlying partitioned store.
func (s *Session) Store() *store.Store { return s.store }

// Logger returns the session logger.
func (s *Session) Logger() *zap.Logger { return s.logger }

// CreateIncident opens a new incident context and selects it as current.
func (s *Session) CreateIncident(ctx context.Context, obj stix.Object) error {
	return s.engine.CreateIncident(ctx, obj)
}

// SetCurrentIncident switches the current incident.
func (s *Session) SetCurrentIncident(ctx context.Context, id string) error {
	return s.store.SetCurrentIncident(ctx, id)
}

// ListIncidents returns every registered incident root, repairing drifted
// reference lists along the way.
func (s *Session) ListIncidents(ctx context.Context) ([]graph.Node, error) {
	return s.engine.ListIncidents(ctx)
}

// Promote files objects out of the unattached pool of the current incident.
func (s *Session) Promote(ctx context.Context, objects []stix.Object) ([]promote.Promoted, error) {
	return s.engine.Promote(ctx, objects)
}

// Save files an object into the current incident without touching the
// unattached pool.
func (s *Session) Save(ctx context.Context, obj stix.Object) error {
	return s.engine.Save(ctx, obj)
}

// SaveUnattached stages objects into the unattached pool of the current
// incident.
func (s *Session) SaveUnattached(ctx context.Context, objects []stix.Object) error {
	return s.engine.SaveUnattached(ctx, objects)
}

// SaveCompanyObject files an object into a company category partition.
func (s *Session) SaveCompanyObject(ctx context.Context, category store.Category, obj stix.Object) error {
	return s.engine.SaveCompanyObject(ctx, category, obj)
}

// SaveUserObject files an identity into the me or team user cache.
func (s *Session) SaveUserObject(ctx context.Context, category store.Category, obj stix.Object) error {
	return s.engine.SaveUserObject(ctx, category, obj)
}

// GetFromIncident evaluates a query filter over one category partition of
// the current incident. A nil result means no match.
func (s *Session) GetFromIncident(ctx context.Context, category store.Category, filter query.Filter, sourceValue any, sourceObject stix.Object) (*graph.Node, error) {
	scope, err := s.store.CurrentIncident(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := s.store.LoadNodes(ctx, scope, category)
	if err != nil {
		return nil, err
	}
	return query.FindOne(filter, candidates, sourceValue, sourceObject)
}

// RelationshipTypes resolves the valid relationship types between two
// objects plus the relationship form reference values.
func (s *Session) RelationshipTypes(source, target stix.Object) constraint.RelationshipOptions {
	return s.resolver.RelationshipTypes(source, target)
}

// Connections returns the unattached objects of the current incident that
// may fill the given embedded reference field of an object type.
func (s *Session) Connections(ctx context.Context, objectType, field string) ([]graph.Node, error) {
	scope, err := s.store.CurrentIncident(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := s.store.LoadNodes(ctx, scope, store.CategoryUnattached)
	if err != nil {
		return nil, err
	}
	return s.resolver.Connections(objectType, field, candidates), nil
}

// SightingIndex materializes the evidence tree of the current incident.
func (s *Session) SightingIndex(ctx context.Context) (*view.TreeNode, error) {
	return s.views.SightingIndex(ctx)
}

// TaskIndex materializes the task tree of the current incident.
func (s *Session) TaskIndex(ctx context.Context) (*view.TreeNode, error) {
	return s.views.TaskIndex(ctx)
}

// EventIndex materializes the event tree of the current incident.
func (s *Session) EventIndex(ctx context.Context) (*view.TreeNode, error) {
	return s.views.EventIndex(ctx)
}

// ImpactIndex materializes the impact tree of the current incident.
func (s *Session) ImpactIndex(ctx context.Context) (*view.TreeNode, error) {
	return s.views.ImpactIndex(ctx)
}

// CompanyIndex materializes the org chart of the current company.
func (s *Session) CompanyIndex(ctx context.Context) (*view.TreeNode, error) {
	return s.views.CompanyIndex(ctx)
}

// UserIndex materializes the local user view.
func (s *Session) UserIndex(ctx context.Context) (*view.TreeNode, error) {
	return s.views.UserIndex(ctx)
}

// Unattached materializes the staging pool of the current incident as a flat
// graph.
func (s *Session) Unattached(ctx context.Context, showRelationNodes bool) (*view.Graph, error) {
	return s.views.Unattached(ctx, showRelationNodes)
}
