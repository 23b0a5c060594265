package view

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/stix"
	"github.com/os-threat/triage/store"
)

// SightingIndex materializes the evidence tree of the current incident. The
// other partition is split into sightings, domain objects, observables and
// relationships; each sighting becomes a root child with its sighted object,
// observed data (and the observables behind it), sighting locations and
// creator attached.
func (b *Builder) SightingIndex(ctx context.Context) (*TreeNode, error) {
	scope, err := b.store.CurrentIncident(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := b.startSpan(ctx, "view.SightingIndex", scope)
	defer span.End()

	root := rootStub("Evidence List", "sighting-generic", "Evidence List",
		"The list of sightings for this Incident")

	others, err := b.store.LoadNodes(ctx, scope, store.CategoryOther)
	if err != nil {
		return nil, err
	}
	var sightings, domainObjects, observables, relationships []graph.Node
	for _, node := range others {
		switch {
		case node.Type == "sighting":
			sightings = append(sightings, node)
		case stix.IsSDO(node.Type):
			domainObjects = append(domainObjects, node)
		case stix.IsSCO(node.Type):
			observables = append(observables, node)
		case node.Type == "relationship":
			relationships = append(relationships, node)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, node.Type)
		}
	}
	if len(sightings) == 0 {
		return root, nil
	}
	// observed-data children are resolved among observables and relationships
	observationPool := append(append([]graph.Node{}, observables...), relationships...)

	for _, sighting := range sortByCreated(sightings) {
		entry := treeNode(sighting, "other_object_refs")
		original := sighting.Original
		sightingOf := original.GetString("sighting_of_ref")
		observed := original.StringList("observed_data_refs")
		whereSighted := original.StringList("where_sighted_refs")
		createdBy := original.GetString("created_by_ref")

		for _, cand := range domainObjects {
			switch {
			case sightingOf != "" && cand.ID == sightingOf:
				entry.Children = append(entry.Children, treeNode(cand, "sighting_of_ref"))
			case containsID(whereSighted, cand.ID):
				entry.Children = append(entry.Children, treeNode(cand, "where_sighted_refs"))
			case containsID(observed, cand.ID):
				observedChild := treeNode(cand, "observed_data_refs")
				for _, comp := range observationPool {
					if containsID(cand.Original.StringList("object_refs"), comp.ID) {
						observedChild.Children = append(observedChild.Children, treeNode(comp, "object_refs"))
					}
				}
				entry.Children = append(entry.Children, observedChild)
			case createdBy != "" && cand.ID == createdBy:
				entry.Children = append(entry.Children, treeNode(cand, "created_by_ref"))
			}
		}
		root.Children = append(root.Children, entry)
	}
	b.logger.Debug("materialized sighting index", zap.Int("sightings", len(root.Children)))
	return root, nil
}

func containsID(ids []string, id string) bool {
	for _, item := range ids {
		if item == id {
			return true
		}
	}
	return false
}
