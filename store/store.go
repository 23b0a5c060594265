package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/os-threat/triage/graph"
)

// Store provides typed access to the partitioned context memory. Every
// mutating operation performs a full read-modify-write of the target
// partition; there are no partial or append writes.
type Store struct {
	backend Backend
	layout  Layout
	logger  *zap.Logger
	tracer  trace.Tracer
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithLayout overrides the default partition layout.
func WithLayout(layout Layout) Option {
	return func(s *Store) { s.layout = layout }
}

// New creates a Store over the given backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		layout:  DefaultLayout(),
		logger:  zap.NewNop(),
		tracer:  otel.Tracer("triage/store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Layout returns the partition layout in use.
func (s *Store) Layout() Layout { return s.layout }

// LoadNodes returns the node partition for (scope, category). An absent
// partition yields an empty list.
func (s *Store) LoadNodes(ctx context.Context, scope Scope, category Category) ([]graph.Node, error) {
	var nodes []graph.Node
	if err := s.load(ctx, scope, category, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// SaveNodes replaces the full node partition for (scope, category).
func (s *Store) SaveNodes(ctx context.Context, scope Scope, category Category, nodes []graph.Node) error {
	if nodes == nil {
		nodes = []graph.Node{}
	}
	return s.save(ctx, scope, category, nodes)
}

// UpsertNode inserts or replaces a node, keyed on id. The partition holds
// exactly one entry per id afterwards.
func (s *Store) UpsertNode(ctx context.Context, scope Scope, category Category, node graph.Node) error {
	ctx, span := s.tracer.Start(ctx, "store.UpsertNode", trace.WithAttributes(
		attribute.String("scope", scope.String()),
		attribute.String("category", string(category)),
		attribute.String("node.id", node.ID),
	))
	defer span.End()

	nodes, err := s.LoadNodes(ctx, scope, category)
	if err != nil {
		return err
	}
	replaced := false
	for i := range nodes {
		if nodes[i].ID == node.ID {
			nodes[i] = node
			replaced = true
		}
	}
	if !replaced {
		nodes = append(nodes, node)
	}
	s.logger.Debug("upsert node",
		zap.String("scope", scope.String()),
		zap.String("category", string(category)),
		zap.String("id", node.ID),
		zap.Bool("replaced", replaced))
	return s.SaveNodes(ctx, scope, category, nodes)
}

// DeleteNode removes the node with the given id. Absence is a no-op, not an
// error.
func (s *Store) DeleteNode(ctx context.Context, scope Scope, category Category, id string) error {
	ctx, span := s.tracer.Start(ctx, "store.DeleteNode", trace.WithAttributes(
		attribute.String("scope", scope.String()),
		attribute.String("category", string(category)),
		attribute.String("node.id", id),
	))
	defer span.End()

	nodes, err := s.LoadNodes(ctx, scope, category)
	if err != nil {
		return err
	}
	for i := range nodes {
		if nodes[i].ID == id {
			nodes = append(nodes[:i], nodes[i+1:]...)
			break
		}
	}
	return s.SaveNodes(ctx, scope, category, nodes)
}

// LoadEdges returns the edge partition for (scope, category). An absent
// partition yields an empty list.
func (s *Store) LoadEdges(ctx context.Context, scope Scope, category Category) ([]graph.Edge, error) {
	var edges []graph.Edge
	if err := s.load(ctx, scope, category, &edges); err != nil {
		return nil, err
	}
	return edges, nil
}

// SaveEdges replaces the full edge partition for (scope, category).
func (s *Store) SaveEdges(ctx context.Context, scope Scope, category Category, edges []graph.Edge) error {
	if edges == nil {
		edges = []graph.Edge{}
	}
	return s.save(ctx, scope, category, edges)
}

// UpsertEdge inserts or replaces an edge, keyed on (source, target). A later
// upsert for the same pair overwrites rather than appends.
func (s *Store) UpsertEdge(ctx context.Context, scope Scope, category Category, edge graph.Edge) error {
	ctx, span := s.tracer.Start(ctx, "store.UpsertEdge", trace.WithAttributes(
		attribute.String("scope", scope.String()),
		attribute.String("category", string(category)),
	))
	defer span.End()

	edges, err := s.LoadEdges(ctx, scope, category)
	if err != nil {
		return err
	}
	replaced := false
	for i := range edges {
		if edges[i].Source == edge.Source && edges[i].Target == edge.Target {
			edges[i] = edge
			replaced = true
		}
	}
	if !replaced {
		edges = append(edges, edge)
	}
	return s.SaveEdges(ctx, scope, category, edges)
}

// UpsertEdges upserts each edge in turn.
func (s *Store) UpsertEdges(ctx context.Context, scope Scope, category Category, edges []graph.Edge) error {
	for _, edge := range edges {
		if err := s.UpsertEdge(ctx, scope, category, edge); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) load(ctx context.Context, scope Scope, category Category, out any) error {
	file, err := s.layout.FileName(scope, category)
	if err != nil {
		return err
	}
	data, err := s.backend.ReadPartition(ctx, scope, file)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: partition %s/%s is malformed: %v", ErrStorageFailed, scope, category, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, scope Scope, category Category, value any) error {
	file, err := s.layout.FileName(scope, category)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encoding partition %s/%s: %v", ErrStorageFailed, scope, category, err)
	}
	return s.backend.WritePartition(ctx, scope, file, data)
}
