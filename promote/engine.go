package promote

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/stix"
	"github.com/os-threat/triage/store"
)

// ErrIncidentSelfPromotion is returned when an incident-typed object is
// promoted; the incident root is not a filable object.
var ErrIncidentSelfPromotion = errors.New("an incident object cannot be promoted")

// Engine files STIX objects into the partitions of the current incident.
type Engine struct {
	store     *store.Store
	converter graph.Converter
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithConverter overrides the node and edge converter.
func WithConverter(c graph.Converter) Option {
	return func(e *Engine) { e.converter = c }
}

// NewEngine creates an Engine over the given store.
func NewEngine(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		converter: graph.NewConverter(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Promoted reports one object moved out of the unattached pool.
type Promoted struct {
	ID       string         `json:"id"`
	Category store.Category `json:"category"`
}

// Classify returns the destination category for an object's type. Incident
// objects are rejected with ErrIncidentSelfPromotion.
func Classify(obj stix.Object) (store.Category, error) {
	switch obj.Type() {
	case "relationship":
		return store.CategoryRelations, nil
	case "sighting":
		return store.CategoryOther, nil
	case "sequence":
		if obj.GetString("step_type") == "start_step" {
			return store.CategorySequenceStart, nil
		}
		return store.CategorySequence, nil
	case "task":
		return store.CategoryTask, nil
	case "event":
		return store.CategoryEvent, nil
	case "impact":
		return store.CategoryImpact, nil
	case "incident":
		return "", ErrIncidentSelfPromotion
	default:
		return store.CategoryOther, nil
	}
}

// Promote files each object into its destination category of the current
// incident and removes it from the unattached pool. The object is converted
// and filed before the unattached entry is deleted, so a failed conversion
// never loses the object. Promoting an incident-typed object fails the whole
// call before any state changes.
func (e *Engine) Promote(ctx context.Context, objects []stix.Object) ([]Promoted, error) {
	scope, err := e.store.CurrentIncident(ctx)
	if err != nil {
		return nil, err
	}
	for _, obj := range objects {
		if obj.Type() == "incident" {
			return nil, fmt.Errorf("%w: %s", ErrIncidentSelfPromotion, obj.ID())
		}
	}

	report := make([]Promoted, 0, len(objects))
	for _, obj := range objects {
		category, err := Classify(obj)
		if err != nil {
			return report, err
		}
		if err := e.file(ctx, scope, category, obj); err != nil {
			return report, err
		}
		if err := e.store.DeleteNode(ctx, scope, store.CategoryUnattached, obj.ID()); err != nil {
			return report, err
		}
		if field, ok := store.RefField(category); ok {
			if err := e.appendIncidentRef(ctx, scope, field, obj.ID()); err != nil {
				return report, err
			}
		}
		e.logger.Info("promoted object",
			zap.String("id", obj.ID()),
			zap.String("category", string(category)))
		report = append(report, Promoted{ID: obj.ID(), Category: category})
	}
	return report, nil
}

// Save files an object into its destination category of the current incident
// without touching the unattached pool. Incident objects are routed to
// SaveIncident, which also rebuilds the reference lists.
func (e *Engine) Save(ctx context.Context, obj stix.Object) error {
	if obj.Type() == "incident" {
		return e.SaveIncident(ctx, obj)
	}
	scope, err := e.store.CurrentIncident(ctx)
	if err != nil {
		return err
	}
	category, err := Classify(obj)
	if err != nil {
		return err
	}
	return e.file(ctx, scope, category, obj)
}

// SaveUnattached stages objects into the unattached pool of the current
// incident. No classification, deletion or reference bookkeeping happens;
// promotion later moves the objects into their partitions.
func (e *Engine) SaveUnattached(ctx context.Context, objects []stix.Object) error {
	scope, err := e.store.CurrentIncident(ctx)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		nodes, edges, err := e.converter.ConvertNode(obj)
		if err != nil {
			return err
		}
		for _, node := range nodes {
			if err := e.store.UpsertNode(ctx, scope, store.CategoryUnattached, node); err != nil {
				return err
			}
		}
		if err := e.store.UpsertEdges(ctx, scope, store.CategoryEdges, edges); err != nil {
			return err
		}
	}
	return nil
}

// file converts an object and upserts its nodes and edges into the right
// partitions.
func (e *Engine) file(ctx context.Context, scope store.Scope, category store.Category, obj stix.Object) error {
	switch obj.Type() {
	case "relationship":
		nodes, edges, relationEdges, replacementEdges, err := e.converter.ConvertRelationship(obj)
		if err != nil {
			return err
		}
		for _, node := range nodes {
			if err := e.store.UpsertNode(ctx, scope, store.CategoryRelations, node); err != nil {
				return err
			}
		}
		if err := e.store.UpsertEdges(ctx, scope, store.CategoryEdges, edges); err != nil {
			return err
		}
		if err := e.store.UpsertEdges(ctx, scope, store.CategoryRelationEdges, relationEdges); err != nil {
			return err
		}
		return e.store.UpsertEdges(ctx, scope, store.CategoryRelationReplacementEdges, replacementEdges)
	case "sighting":
		nodes, edges, err := e.converter.ConvertSighting(obj)
		if err != nil {
			return err
		}
		for _, node := range nodes {
			if err := e.store.UpsertNode(ctx, scope, category, node); err != nil {
				return err
			}
		}
		return e.store.UpsertEdges(ctx, scope, store.CategoryEdges, edges)
	default:
		nodes, edges, err := e.converter.ConvertNode(obj)
		if err != nil {
			return err
		}
		for _, node := range nodes {
			if err := e.store.UpsertNode(ctx, scope, category, node); err != nil {
				return err
			}
		}
		return e.store.UpsertEdges(ctx, scope, store.CategoryEdges, edges)
	}
}

// appendIncidentRef appends an id to the named reference list of the incident
// root object, skipping ids already present.
func (e *Engine) appendIncidentRef(ctx context.Context, scope store.Scope, field, id string) error {
	nodes, err := e.store.LoadNodes(ctx, scope, store.CategoryIncident)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return nil
	}
	root := nodes[0]
	refs := root.Original.StringList(field)
	for _, ref := range refs {
		if ref == id {
			return nil
		}
	}
	root.Original[field] = append(refs, id)
	return e.store.UpsertNode(ctx, scope, store.CategoryIncident, root)
}
