package view

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/store"
)

// ErrUnknownType is returned when a partition holds an object whose type does
// not fit the view being built.
var ErrUnknownType = errors.New("view: unknown object type in partition")

// Builder materializes view trees from a store.
type Builder struct {
	store  *store.Store
	logger *zap.Logger
	tracer trace.Tracer
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the builder logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates a Builder over the given store.
func NewBuilder(s *store.Store, opts ...Option) *Builder {
	b := &Builder{
		store:  s,
		logger: zap.NewNop(),
		tracer: otel.Tracer("triage/view"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// sortByCreated orders nodes by their original created timestamp, ascending.
// Equal timestamps keep their partition order.
func sortByCreated(nodes []graph.Node) []graph.Node {
	sorted := make([]graph.Node, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Original.Created().Before(sorted[j].Original.Created())
	})
	return sorted
}

// incidentPool loads the union of the six incident-level category partitions
// as child candidates, the relations partition, and the incident root id.
func (b *Builder) incidentPool(ctx context.Context, scope store.Scope) (possible, relations []graph.Node, incidentID string, err error) {
	roots, err := b.store.LoadNodes(ctx, scope, store.CategoryIncident)
	if err != nil {
		return nil, nil, "", err
	}
	if len(roots) > 0 {
		incidentID = roots[0].ID
	}
	for _, category := range store.IncidentRefCategories() {
		nodes, err := b.store.LoadNodes(ctx, scope, category)
		if err != nil {
			return nil, nil, "", err
		}
		possible = append(possible, nodes...)
	}
	relations, err = b.store.LoadNodes(ctx, scope, store.CategoryRelations)
	if err != nil {
		return nil, nil, "", err
	}
	return possible, relations, incidentID, nil
}

// attachRelations adds relationship children to a root entry: any relation
// touching the root whose opposite endpoint is not the incident itself is
// attached under its relationship type, with the opposite endpoint nested one
// level below the relation node.
func attachRelations(entry *TreeNode, rootID, incidentID string, relations, possible []graph.Node) {
	for _, reln := range relations {
		sourceRef := reln.Original.GetString("source_ref")
		targetRef := reln.Original.GetString("target_ref")
		relType := reln.Original.GetString("relationship_type")

		var counterpart string
		switch {
		case rootID == sourceRef && targetRef != incidentID:
			counterpart = targetRef
		case rootID == targetRef && sourceRef != incidentID:
			counterpart = sourceRef
		default:
			continue
		}

		relChild := treeNode(reln, relType)
		for _, cand := range possible {
			if cand.ID == counterpart {
				relChild.Children = append(relChild.Children, treeNode(cand, relType))
			}
		}
		entry.Children = append(entry.Children, relChild)
	}
}

func (b *Builder) startSpan(ctx context.Context, name string, scope store.Scope) (context.Context, trace.Span) {
	return b.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("scope", scope.String()),
	))
}
