package graph

import (
	"github.com/os-threat/triage/stix"
)

// Node is a STIX object wrapped for graph storage and display. The raw
// object is retained untouched under Original; Label and Icon are display
// decoration. A Node's identity is its ID alone.
type Node struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Label    string      `json:"label,omitempty"`
	Icon     string      `json:"icon,omitempty"`
	Original stix.Object `json:"original,omitempty"`
}

// Edge is a directed connection between two nodes. Structural edges carry
// the id and type of the relationship or sighting that produced them;
// embedded-reference edges carry type "embedded".
type Edge struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type,omitempty"`
	Label  string `json:"label"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// EdgeTypeEmbedded marks edges projected from embedded object references.
const EdgeTypeEmbedded = "embedded"
