package graph

import (
	"strings"

	"github.com/os-threat/triage/stix"
)

// embeddedRelation describes how a well-known embedded reference field maps
// to an edge. ownerIsSource controls edge direction: when true the owning
// object is the edge source; when false the referenced object is.
type embeddedRelation struct {
	label         string
	ownerIsSource bool
}

// embeddedRelations covers the embedded relations the original dialect data
// declares. Unlisted "*_ref"/"*_refs" fields fall back to a label derived
// from the field name with the owner as source.
var embeddedRelations = map[string]embeddedRelation{
	"created_by_ref":       {"created by", true},
	"object_marking_refs":  {"object marking", true},
	"object_refs":          {"object", true},
	"sample_refs":          {"sample", true},
	"host_vm_ref":          {"host vm", true},
	"operating_system_ref": {"operating system", true},
	"installed_software_refs": {"installed software", true},
	"analysis_sco_refs":    {"analysis", true},
	"contains_refs":        {"contains", true},
	"resolves_to_refs":     {"resolves to", true},
	"belongs_to_ref":       {"belongs to", true},
	"belongs_to_refs":      {"belongs to", true},
	"raw_email_ref":        {"raw email", true},
	"from_ref":             {"from", true},
	"sender_ref":           {"sender", true},
	"to_refs":              {"to", true},
	"cc_refs":              {"cc", true},
	"bcc_refs":             {"bcc", true},
	"body_raw_ref":         {"body raw", true},
	"parent_directory_ref": {"parent directory", false},
	"content_ref":          {"content", true},
	"src_ref":              {"src", true},
	"dst_ref":              {"dst", true},
	"src_payload_ref":      {"src payload", true},
	"dst_payload_ref":      {"dst payload", true},
	"encapsulated_by_ref":  {"encapsulated by", false},
	"encapsulates_refs":    {"encapsulates", true},
	"image_ref":            {"image", true},
	"parent_ref":           {"parent", false},
	"child_refs":           {"child", true},
	"creator_user_ref":     {"creator user", false},
	"opened_connection_refs": {"opened connection", true},
	"service_dll_refs":     {"service dll", true},
	"message_body_data_ref": {"message body", true},
	"email_address_ref":    {"email address", true},
	"user_account_ref":     {"user account", true},
	"sequence_start_refs":  {"sequence start", true},
	"sequence_refs":        {"sequence", true},
	"impact_refs":          {"impact", true},
	"event_refs":           {"event", true},
	"task_refs":            {"task", true},
	"other_object_refs":    {"other object", true},
	"impacted_refs":        {"impacted", true},
	"superseded_by_ref":    {"superseded by", false},
	"initial_ref":          {"initial", true},
	"result_ref":           {"result", true},
	"on_completion":        {"on completion", true},
	"on_success":           {"on success", true},
	"on_failure":           {"on failure", true},
	"next_steps":           {"next step", true},
}

// findEmbedded walks an object (including nested maps and lists) and
// projects every embedded object reference into an edge anchored on ownerID.
// Keys in exclude are skipped at the top level only, matching the converter
// entry points that have already consumed them structurally.
func findEmbedded(obj map[string]any, ownerID string, exclude map[string]bool) []Edge {
	var edges []Edge
	for key, prop := range obj {
		if exclude[key] {
			continue
		}
		edges = append(edges, embeddedEdges(key, prop, ownerID)...)
	}
	return edges
}

func embeddedEdges(key string, prop any, ownerID string) []Edge {
	if rel, ok := relationForKey(key); ok {
		return extractIDs(rel, prop, ownerID)
	}
	switch val := prop.(type) {
	case []any:
		var edges []Edge
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				edges = append(edges, findEmbedded(m, ownerID, nil)...)
			}
		}
		return edges
	case map[string]any:
		return findEmbedded(val, ownerID, nil)
	default:
		return nil
	}
}

func relationForKey(key string) (embeddedRelation, bool) {
	if rel, ok := embeddedRelations[key]; ok {
		return rel, true
	}
	if strings.HasSuffix(key, "_ref") {
		return embeddedRelation{strings.ReplaceAll(strings.TrimSuffix(key, "_ref"), "_", " "), true}, true
	}
	if strings.HasSuffix(key, "_refs") {
		return embeddedRelation{strings.ReplaceAll(strings.TrimSuffix(key, "_refs"), "_", " "), true}, true
	}
	return embeddedRelation{}, false
}

func extractIDs(rel embeddedRelation, prop any, ownerID string) []Edge {
	var edges []Edge
	appendEdge := func(ref string) {
		// References to relationship objects are rendered by the relation
		// edge partitions, not as embedded edges.
		if stix.TypeOfID(ref) == "relationship" {
			return
		}
		edge := Edge{Type: EdgeTypeEmbedded, Label: rel.label}
		if rel.ownerIsSource {
			edge.Source, edge.Target = ownerID, ref
		} else {
			edge.Source, edge.Target = ref, ownerID
		}
		edges = append(edges, edge)
	}
	switch val := prop.(type) {
	case string:
		appendEdge(val)
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				appendEdge(s)
			}
		}
	}
	return edges
}
