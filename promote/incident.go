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

// ErrNotIncident is returned when an incident lifecycle operation receives an
// object of another type.
var ErrNotIncident = errors.New("object is not an incident")

// CreateIncident opens a new incident context: the incident id is registered
// in the scope directory and selected as current, and the incident object is
// filed as the root of its own scope.
func (e *Engine) CreateIncident(ctx context.Context, obj stix.Object) error {
	if obj.Type() != "incident" {
		return fmt.Errorf("%w: got %q", ErrNotIncident, obj.Type())
	}
	if err := e.store.RegisterIncident(ctx, obj.ID()); err != nil {
		return err
	}
	scope := store.IncidentScope(obj.ID())
	nodes, edges, err := e.converter.ConvertNode(obj)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		if err := e.store.UpsertNode(ctx, scope, store.CategoryIncident, node); err != nil {
			return err
		}
	}
	if err := e.store.UpsertEdges(ctx, scope, store.CategoryEdges, edges); err != nil {
		return err
	}
	e.logger.Info("created incident context", zap.String("id", obj.ID()))
	return nil
}

// SaveIncident refreshes the incident root object of the current incident.
// Before filing, every reference-list field is rebuilt from the ids actually
// present in the matching category partition, with the relations partition
// folded into other_object_refs.
func (e *Engine) SaveIncident(ctx context.Context, obj stix.Object) error {
	if obj.Type() != "incident" {
		return fmt.Errorf("%w: got %q", ErrNotIncident, obj.Type())
	}
	scope, err := e.store.CurrentIncident(ctx)
	if err != nil {
		return err
	}
	for _, category := range store.IncidentRefCategories() {
		ids, err := e.partitionIDs(ctx, scope, category)
		if err != nil {
			return err
		}
		if category == store.CategoryOther {
			relationIDs, err := e.partitionIDs(ctx, scope, store.CategoryRelations)
			if err != nil {
				return err
			}
			ids = append(ids, relationIDs...)
		}
		field, _ := store.RefField(category)
		obj[field] = ids
	}

	nodes, edges, err := e.converter.ConvertNode(obj)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		if err := e.store.UpsertNode(ctx, scope, store.CategoryIncident, node); err != nil {
			return err
		}
	}
	return e.store.UpsertEdges(ctx, scope, store.CategoryEdges, edges)
}

// ListIncidents returns the incident root node of every registered incident.
// Reference lists that have drifted behind partition contents are repaired
// and persisted as a side effect.
func (e *Engine) ListIncidents(ctx context.Context) ([]graph.Node, error) {
	rec, err := e.store.Directory(ctx)
	if err != nil {
		return nil, err
	}
	roots := []graph.Node{}
	for _, id := range rec.IncidentList {
		scope := store.IncidentScope(id)
		nodes, err := e.store.LoadNodes(ctx, scope, store.CategoryIncident)
		if err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			continue
		}
		root := nodes[0]
		changed := false
		for _, category := range store.IncidentRefCategories() {
			ids, err := e.partitionIDs(ctx, scope, category)
			if err != nil {
				return nil, err
			}
			field, _ := store.RefField(category)
			refs := root.Original.StringList(field)
			if refs == nil {
				refs = []string{}
				changed = true
			}
			for _, partID := range ids {
				if !containsString(refs, partID) {
					refs = append(refs, partID)
					changed = true
				}
			}
			root.Original[field] = refs
		}
		if changed {
			if err := e.store.UpsertNode(ctx, scope, store.CategoryIncident, root); err != nil {
				return nil, err
			}
		}
		roots = append(roots, root)
	}
	return roots, nil
}

func (e *Engine) partitionIDs(ctx context.Context, scope store.Scope, category store.Category) ([]string, error) {
	nodes, err := e.store.LoadNodes(ctx, scope, category)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.ID)
	}
	return ids, nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
