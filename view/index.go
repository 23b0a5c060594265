package view

import (
	"context"

	"go.uber.org/zap"

	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/stix"
	"github.com/os-threat/triage/store"
)

// indexSpec parameterizes the shared index algorithm: which category supplies
// the roots, the synthetic root record, the edge label tying each root to the
// incident, and the reference roles that attach children.
type indexSpec struct {
	category    store.Category
	name        string
	icon        string
	heading     string
	description string
	rootEdge    string
	roles       func(original stix.Object) []refRole
}

// refRole is one named reference field of a root object: candidates whose id
// appears in ids attach under the edge label.
type refRole struct {
	edge string
	ids  map[string]bool
}

func singleRef(edge, id string) refRole {
	ids := map[string]bool{}
	if id != "" {
		ids[id] = true
	}
	return refRole{edge: edge, ids: ids}
}

func listRef(edge string, refs []string) refRole {
	ids := make(map[string]bool, len(refs))
	for _, ref := range refs {
		ids[ref] = true
	}
	return refRole{edge: edge, ids: ids}
}

// changedObjectIDs collects the object ids referenced by a task or event
// changed_objects list. Each state change contributes its initial_ref, or its
// result_ref when no initial_ref is present.
func changedObjectIDs(original stix.Object) []string {
	var ids []string
	for _, entry := range original.GetList("changed_objects") {
		change, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if initial, ok := change["initial_ref"].(string); ok && initial != "" {
			ids = append(ids, initial)
			continue
		}
		if result, ok := change["result_ref"].(string); ok && result != "" {
			ids = append(ids, result)
		}
	}
	return ids
}

// TaskIndex materializes the task tree of the current incident.
func (b *Builder) TaskIndex(ctx context.Context) (*TreeNode, error) {
	return b.index(ctx, indexSpec{
		category:    store.CategoryTask,
		name:        "Task List",
		icon:        "task-group",
		heading:     "Task List",
		description: "List of all tasks",
		rootEdge:    "task_refs",
		roles: func(original stix.Object) []refRole {
			return []refRole{
				listRef("changed_object", changedObjectIDs(original)),
				singleRef("owner", original.GetString("owner")),
				singleRef("created_by_ref", original.GetString("created_by_ref")),
			}
		},
	})
}

// EventIndex materializes the event tree of the current incident.
func (b *Builder) EventIndex(ctx context.Context) (*TreeNode, error) {
	return b.index(ctx, indexSpec{
		category:    store.CategoryEvent,
		name:        "Event List",
		icon:        "event",
		heading:     "Event List",
		description: "The list of events that have been observed in the incident",
		rootEdge:    "event_refs",
		roles: func(original stix.Object) []refRole {
			return []refRole{
				listRef("changed_object", changedObjectIDs(original)),
				listRef("sighting_refs", original.StringList("sighting_refs")),
				singleRef("created_by_ref", original.GetString("created_by_ref")),
			}
		},
	})
}

// ImpactIndex materializes the impact tree of the current incident.
func (b *Builder) ImpactIndex(ctx context.Context) (*TreeNode, error) {
	return b.index(ctx, indexSpec{
		category:    store.CategoryImpact,
		name:        "Impact List",
		icon:        "impact",
		heading:     "Impact List",
		description: "The list of impacts recorded for this incident",
		rootEdge:    "impact_refs",
		roles: func(original stix.Object) []refRole {
			return []refRole{
				singleRef("created_by_ref", original.GetString("created_by_ref")),
				listRef("impacted_refs", original.StringList("impacted_refs")),
				singleRef("superseded_by_ref", original.GetString("superseded_by_ref")),
			}
		},
	})
}

// index runs the shared join-and-attach algorithm: load and sort the roots,
// attach reference children from the candidate pool, then attach relationship
// children from the relations partition.
func (b *Builder) index(ctx context.Context, spec indexSpec) (*TreeNode, error) {
	scope, err := b.store.CurrentIncident(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := b.startSpan(ctx, "view."+string(spec.category)+"Index", scope)
	defer span.End()

	root := rootStub(spec.name, spec.icon, spec.heading, spec.description)
	roots, err := b.store.LoadNodes(ctx, scope, spec.category)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return root, nil
	}
	possible, relations, incidentID, err := b.incidentPool(ctx, scope)
	if err != nil {
		return nil, err
	}

	for _, node := range sortByCreated(roots) {
		entry := treeNode(node, spec.rootEdge)
		attachRefs(entry, possible, spec.roles(node.Original))
		attachRelations(entry, node.ID, incidentID, relations, possible)
		root.Children = append(root.Children, entry)
	}
	b.logger.Debug("materialized index",
		zap.String("category", string(spec.category)),
		zap.Int("roots", len(root.Children)))
	return root, nil
}

// attachRefs attaches each candidate under the first role naming its id.
func attachRefs(entry *TreeNode, possible []graph.Node, roles []refRole) {
	for _, cand := range possible {
		for _, role := range roles {
			if role.ids[cand.ID] {
				entry.Children = append(entry.Children, treeNode(cand, role.edge))
				break
			}
		}
	}
}
