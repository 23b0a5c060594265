package view

import (
	"context"

	"go.uber.org/zap"

	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/store"
)

// Unattached materializes the staging pool of the current incident as a flat
// graph. Relations whose endpoints are both unattached are included, either
// as relation nodes with their two relation edges (showRelationNodes true) or
// as a single replacement edge joining the endpoints directly. Plain edges
// are restricted to pairs with both endpoints in the pool.
func (b *Builder) Unattached(ctx context.Context, showRelationNodes bool) (*Graph, error) {
	scope, err := b.store.CurrentIncident(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := b.startSpan(ctx, "view.Unattached", scope)
	defer span.End()

	nodes, err := b.store.LoadNodes(ctx, scope, store.CategoryUnattached)
	if err != nil {
		return nil, err
	}
	plainEdges, err := b.store.LoadEdges(ctx, scope, store.CategoryEdges)
	if err != nil {
		return nil, err
	}
	relations, err := b.store.LoadNodes(ctx, scope, store.CategoryRelations)
	if err != nil {
		return nil, err
	}
	relationEdges, err := b.store.LoadEdges(ctx, scope, store.CategoryRelationEdges)
	if err != nil {
		return nil, err
	}
	replacementEdges, err := b.store.LoadEdges(ctx, scope, store.CategoryRelationReplacementEdges)
	if err != nil {
		return nil, err
	}

	result := &Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	inPool := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		inPool[node.ID] = true
		result.Nodes = append(result.Nodes, node)
	}

	for _, reln := range relations {
		sourceRef := reln.Original.GetString("source_ref")
		targetRef := reln.Original.GetString("target_ref")
		if !inPool[sourceRef] || !inPool[targetRef] {
			continue
		}
		if showRelationNodes {
			result.Nodes = append(result.Nodes, reln)
			for _, edge := range relationEdges {
				if edge.Source == reln.ID || edge.Target == reln.ID {
					result.Edges = append(result.Edges, edge)
				}
			}
		} else {
			for _, edge := range replacementEdges {
				if edge.Source == sourceRef && edge.Target == targetRef {
					result.Edges = append(result.Edges, edge)
				}
			}
		}
	}

	for _, edge := range plainEdges {
		if inPool[edge.Source] && inPool[edge.Target] {
			result.Edges = append(result.Edges, edge)
		}
	}
	b.logger.Debug("materialized unattached graph",
		zap.Int("nodes", len(result.Nodes)),
		zap.Int("edges", len(result.Edges)))
	return result, nil
}
