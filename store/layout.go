package store

import "fmt"

// Layout maps category names to partition file names per scope kind. The
// tables are fixed at construction; inject a custom Layout to relocate
// partitions rather than mutating package state.
type Layout struct {
	Incident map[Category]string
	Company  map[Category]string
	User     map[Category]string

	// DirectoryFile is the scope directory record file name under the
	// memory root.
	DirectoryFile string
}

// DefaultLayout returns the standard partition layout.
func DefaultLayout() Layout {
	return Layout{
		Incident: map[Category]string{
			CategoryIncident:                 "incident.json",
			CategorySequenceStart:            "sequence_start_refs.json",
			CategorySequence:                 "sequence_refs.json",
			CategoryImpact:                   "impact_refs.json",
			CategoryEvent:                    "event_refs.json",
			CategoryTask:                     "task_refs.json",
			CategoryOther:                    "other_object_refs.json",
			CategoryUnattached:               "unattached_objs.json",
			CategoryRelations:                "incident_relations.json",
			CategoryEdges:                    "incident_edges.json",
			CategoryRelationEdges:            "relation_edges.json",
			CategoryRelationReplacementEdges: "relation_replacement_edges.json",
		},
		Company: map[Category]string{
			CategoryUsers:                    "users.json",
			CategoryCompany:                  "company.json",
			CategoryAssets:                   "assets.json",
			CategorySystems:                  "systems.json",
			CategoryRelations:                "relations.json",
			CategoryEdges:                    "edges.json",
			CategoryRelationEdges:            "relation_edges.json",
			CategoryRelationReplacementEdges: "relation_replacement_edges.json",
		},
		User: map[Category]string{
			CategoryMe:                       "cache_me.json",
			CategoryTeam:                     "cache_team.json",
			CategoryRelations:                "relations.json",
			CategoryEdges:                    "edges.json",
			CategoryRelationEdges:            "relation_edges.json",
			CategoryRelationReplacementEdges: "relation_replacement_edges.json",
		},
		DirectoryFile: "context_map.json",
	}
}

// FileName resolves a (scope, category) pair to its partition file name.
// Returns ErrUnknownCategory when the category is not valid for the scope
// kind.
func (l Layout) FileName(scope Scope, category Category) (string, error) {
	var table map[Category]string
	switch scope.Kind {
	case KindIncident:
		table = l.Incident
	case KindCompany:
		table = l.Company
	case KindUser:
		table = l.User
	default:
		return "", fmt.Errorf("%w: scope kind %q", ErrUnknownCategory, scope.Kind)
	}
	name, ok := table[category]
	if !ok {
		return "", fmt.Errorf("%w: %q for %s scope", ErrUnknownCategory, category, scope.Kind)
	}
	return name, nil
}
