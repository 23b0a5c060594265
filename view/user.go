package view

import (
	"context"

	"go.uber.org/zap"

	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/store"
)

// UserIndex materializes the local user view: the cached me identity plus the
// cached team identities, each with its contact observables attached from the
// combined user cache.
func (b *Builder) UserIndex(ctx context.Context) (*TreeNode, error) {
	scope := store.UserScope()
	ctx, span := b.startSpan(ctx, "view.UserIndex", scope)
	defer span.End()

	root := rootStub("Type Refinery User", "identity-person", "Type Refinery User",
		"The local user and their team")

	me, err := b.store.LoadNodes(ctx, scope, store.CategoryMe)
	if err != nil {
		return nil, err
	}
	if len(me) == 0 {
		return root, nil
	}
	team, err := b.store.LoadNodes(ctx, scope, store.CategoryTeam)
	if err != nil {
		return nil, err
	}
	// contact observables live alongside the identities in both caches
	pool := append(append([]graph.Node{}, me...), team...)

	for _, node := range me {
		if node.Type != "identity" {
			continue
		}
		root.Children = append(root.Children, identityWithContacts(node, "owner", pool))
	}
	for _, node := range team {
		if node.Type != "identity" {
			continue
		}
		root.Children = append(root.Children, identityWithContacts(node, "team-member", pool))
	}
	b.logger.Debug("materialized user index", zap.Int("identities", len(root.Children)))
	return root, nil
}
