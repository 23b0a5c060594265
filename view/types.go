package view

import (
	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/stix"
)

// TreeNode is one entry of a materialized view tree. Roots are synthetic
// (name, heading and description set, empty id); every other entry carries a
// stored node decorated with an edge label naming the reference that attached
// it to its parent. Edge and Children are view decoration only and are never
// written back to a partition.
type TreeNode struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Name        string      `json:"name,omitempty"`
	Label       string      `json:"label,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	Heading     string      `json:"heading,omitempty"`
	Description string      `json:"description,omitempty"`
	Edge        string      `json:"edge"`
	Original    stix.Object `json:"original,omitempty"`
	Children    []*TreeNode `json:"children"`
}

// Graph is the flat node/edge form of the unattached view.
type Graph struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// treeNode wraps a stored node for inclusion in a tree under the given edge
// label.
func treeNode(n graph.Node, edge string) *TreeNode {
	return &TreeNode{
		ID:       n.ID,
		Type:     n.Type,
		Label:    n.Label,
		Icon:     n.Icon,
		Edge:     edge,
		Original: n.Original,
		Children: []*TreeNode{},
	}
}

// rootStub builds the synthetic root record of an index view.
func rootStub(name, icon, heading, description string) *TreeNode {
	return &TreeNode{
		Name:        name,
		Icon:        icon,
		Heading:     heading,
		Description: description,
		Children:    []*TreeNode{},
	}
}
