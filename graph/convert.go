package graph

import (
	"errors"
	"fmt"

	"github.com/os-threat/triage/stix"
)

// ErrConversion indicates that a STIX object could not be projected into
// node/edge form, typically because a structurally required field is missing.
var ErrConversion = errors.New("graph: conversion failed")

// Converter projects raw STIX objects into graph nodes and edges. The
// promotion engine and context savers depend on this interface rather than a
// concrete implementation.
type Converter interface {
	// ConvertNode projects a non-SRO object into one wrapped node plus the
	// edges derived from its embedded references.
	ConvertNode(obj stix.Object) ([]Node, []Edge, error)

	// ConvertRelationship projects a relationship object into one relation
	// node, its embedded-reference edges, the source->SRO->target relation
	// edges, and the single source->target replacement edge used when the
	// SRO node itself is hidden.
	ConvertRelationship(obj stix.Object) (nodes []Node, edges, relationEdges, replacementEdges []Edge, err error)

	// ConvertSighting projects a sighting object into one wrapped node plus
	// edges for sighting_of_ref, observed_data_refs and where_sighted_refs.
	ConvertSighting(obj stix.Object) ([]Node, []Edge, error)
}

// StandardConverter is the statically linked Converter implementation.
type StandardConverter struct{}

// NewConverter returns the standard converter.
func NewConverter() *StandardConverter { return &StandardConverter{} }

// relationshipRoles maps common relationship types to the roles used in edge
// labels. Unlisted types fall back to generic roles.
var relationshipRoles = map[string][2]string{
	"uses":            {"user", "used"},
	"targets":         {"attacker", "target"},
	"indicates":       {"indicator", "indicated"},
	"mitigates":       {"mitigation", "mitigated"},
	"attributed-to":   {"attributed", "attribution"},
	"located-at":      {"subject", "location"},
	"related-to":      {"source", "target"},
	"derived-from":    {"derivation", "origin"},
	"duplicate-of":    {"duplicate", "original"},
	"based-on":        {"product", "basis"},
	"communicates-with": {"initiator", "responder"},
	"delivers":        {"deliverer", "delivered"},
	"compromises":     {"compromiser", "compromised"},
	"impacts":         {"source", "impacted"},
	"consists-of":     {"whole", "part"},
}

func rolesFor(relType string) (string, string) {
	if roles, ok := relationshipRoles[relType]; ok {
		return roles[0], roles[1]
	}
	return "source", "target"
}

// ConvertNode implements Converter.
func (c *StandardConverter) ConvertNode(obj stix.Object) ([]Node, []Edge, error) {
	if obj.ID() == "" || obj.Type() == "" {
		return nil, nil, fmt.Errorf("%w: object missing id or type", ErrConversion)
	}
	node := wrapNode(obj)
	edges := findEmbedded(obj, obj.ID(), map[string]bool{
		"id": true, "observed_data_refs": true, "where_sighted_refs": true, "sighting_of_ref": true,
	})
	return []Node{node}, edges, nil
}

// ConvertRelationship implements Converter.
func (c *StandardConverter) ConvertRelationship(obj stix.Object) ([]Node, []Edge, []Edge, []Edge, error) {
	relType := obj.GetString("relationship_type")
	sourceRef := obj.GetString("source_ref")
	targetRef := obj.GetString("target_ref")
	if obj.ID() == "" || relType == "" || sourceRef == "" || targetRef == "" {
		return nil, nil, nil, nil, fmt.Errorf("%w: relationship %q missing relationship_type, source_ref or target_ref", ErrConversion, obj.ID())
	}
	sourceRole, targetRole := rolesFor(relType)

	replacement := Edge{
		ID:     obj.ID(),
		Type:   "relationship",
		Label:  fmt.Sprintf("Relation Type - %s, from %s to %s", relType, sourceRole, targetRole),
		Source: sourceRef,
		Target: targetRef,
	}
	relationEdges := []Edge{
		{
			ID:     obj.ID(),
			Type:   "relationship",
			Label:  fmt.Sprintf("Relation Type - %s, from %s", relType, sourceRole),
			Source: sourceRef,
			Target: obj.ID(),
		},
		{
			ID:     obj.ID(),
			Type:   "relationship",
			Label:  fmt.Sprintf("Relation Type - %s to %s", relType, targetRole),
			Source: obj.ID(),
			Target: targetRef,
		},
	}

	node := Node{
		ID:       obj.ID(),
		Type:     "relationship",
		Label:    replacement.Label,
		Icon:     "relationship",
		Original: deepCopy(obj),
	}
	edges := findEmbedded(obj, obj.ID(), map[string]bool{
		"id": true, "source_ref": true, "target_ref": true,
	})
	return []Node{node}, edges, relationEdges, []Edge{replacement}, nil
}

// ConvertSighting implements Converter.
func (c *StandardConverter) ConvertSighting(obj stix.Object) ([]Node, []Edge, error) {
	sightingOf := obj.GetString("sighting_of_ref")
	if obj.ID() == "" || sightingOf == "" {
		return nil, nil, fmt.Errorf("%w: sighting %q missing sighting_of_ref", ErrConversion, obj.ID())
	}
	edges := []Edge{{
		ID:     obj.ID(),
		Type:   "sighting",
		Label:  "Sighting of " + stix.TypeOfID(sightingOf),
		Source: obj.ID(),
		Target: sightingOf,
	}}
	for _, obs := range obj.StringList("observed_data_refs") {
		edges = append(edges, Edge{
			ID:     obj.ID(),
			Type:   "sighting",
			Label:  "Observed Data",
			Source: obj.ID(),
			Target: obs,
		})
	}
	for _, where := range obj.StringList("where_sighted_refs") {
		edges = append(edges, Edge{
			ID:     obj.ID(),
			Type:   "sighting",
			Label:  "Where Sighted " + stix.TypeOfID(where),
			Source: obj.ID(),
			Target: where,
		})
	}

	icon, subtype := sightingIcon(obj)
	node := Node{
		ID:       obj.ID(),
		Type:     "sighting",
		Label:    "Sighting - " + subtype,
		Icon:     icon,
		Original: deepCopy(obj),
	}
	embedded := findEmbedded(obj, obj.ID(), map[string]bool{
		"id": true, "observed_data_refs": true, "where_sighted_refs": true, "sighting_of_ref": true,
	})
	return []Node{node}, append(edges, embedded...), nil
}

func wrapNode(obj stix.Object) Node {
	icon, label := iconFor(obj)
	return Node{
		ID:       obj.ID(),
		Type:     obj.Type(),
		Label:    label,
		Icon:     icon,
		Original: deepCopy(obj),
	}
}

func deepCopy(obj stix.Object) stix.Object {
	out := make(stix.Object, len(obj))
	for k, v := range obj {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
