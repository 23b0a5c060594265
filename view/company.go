package view

import (
	"context"

	"go.uber.org/zap"

	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/stix"
	"github.com/os-threat/triage/store"
)

// identityContactExtID is the extension definition id carrying an identity's
// contact details, including references to its email address and user account
// observables.
const identityContactExtID = "extension-definition--66e2492a-bbd3-4be6-88f5-cc91a017a498"

// CompanyIndex materializes the org chart of the current company: the company
// identity at the root, with grouped assets, systems and users below it. Each
// user identity attaches the contact observables referenced from its contact
// extension.
func (b *Builder) CompanyIndex(ctx context.Context) (*TreeNode, error) {
	scope, err := b.store.CurrentCompany(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := b.startSpan(ctx, "view.CompanyIndex", scope)
	defer span.End()

	companies, err := b.store.LoadNodes(ctx, scope, store.CategoryCompany)
	if err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return &TreeNode{Icon: "identity-organization", Children: []*TreeNode{}}, nil
	}
	root := treeNode(companies[0], "")
	root.Name = companies[0].Original.GetString("name")
	root.Icon = "identity-organization"

	assets, err := b.store.LoadNodes(ctx, scope, store.CategoryAssets)
	if err != nil {
		return nil, err
	}
	if group := companyGroup("Company Assets", "identity-asset", "company",
		"Assets owned by the company", "assets", "asset-of", assets); group != nil {
		root.Children = append(root.Children, group)
	}

	systems, err := b.store.LoadNodes(ctx, scope, store.CategorySystems)
	if err != nil {
		return nil, err
	}
	if group := companyGroup("Company Systems", "identity-system", "company",
		"Systems owned by the company", "systems", "system-of", systems); group != nil {
		root.Children = append(root.Children, group)
	}

	users, err := b.store.LoadNodes(ctx, scope, store.CategoryUsers)
	if err != nil {
		return nil, err
	}
	if len(users) > 0 {
		group := &TreeNode{
			Name:        "Company Users",
			Icon:        "identity-individual",
			Type:        "company users",
			Heading:     "Company Users",
			Description: "Users of company assets and systems",
			Edge:        "users-of",
			Children:    []*TreeNode{},
		}
		for _, user := range users {
			if user.Type != "identity" {
				continue
			}
			group.Children = append(group.Children, identityWithContacts(user, "user-of", users))
		}
		root.Children = append(root.Children, group)
	}

	b.logger.Debug("materialized company index",
		zap.String("company", root.ID),
		zap.Int("groups", len(root.Children)))
	return root, nil
}

func companyGroup(name, icon, typ, description, edge, childEdge string, members []graph.Node) *TreeNode {
	if len(members) == 0 {
		return nil
	}
	group := &TreeNode{
		Name:        name,
		Icon:        icon,
		Type:        typ,
		Heading:     name,
		Description: description,
		Edge:        edge,
		Children:    []*TreeNode{},
	}
	for _, member := range members {
		group.Children = append(group.Children, treeNode(member, childEdge))
	}
	return group
}

// identityWithContacts wraps an identity node and attaches the contact
// observables its contact extension references, resolved from the given pool.
func identityWithContacts(identity graph.Node, edge string, pool []graph.Node) *TreeNode {
	entry := treeNode(identity, edge)
	contactIDs := contactRefIDs(identity.Original)
	for _, cand := range pool {
		if contactIDs[cand.ID] {
			entry.Children = append(entry.Children, treeNode(cand, "owner-of"))
		}
	}
	return entry
}

// contactRefIDs collects the email address and user account ids referenced by
// an identity's contact extension.
func contactRefIDs(original stix.Object) map[string]bool {
	ids := map[string]bool{}
	exts, ok := original["extensions"].(map[string]any)
	if !ok {
		return ids
	}
	contact, ok := exts[identityContactExtID].(map[string]any)
	if !ok {
		return ids
	}
	if emails, ok := contact["email_addresses"].([]any); ok {
		for _, entry := range emails {
			if email, ok := entry.(map[string]any); ok {
				if ref, ok := email["email_address_ref"].(string); ok {
					ids[ref] = true
				}
			}
		}
	}
	if accounts, ok := contact["social_media_accounts"].([]any); ok {
		for _, entry := range accounts {
			if account, ok := entry.(map[string]any); ok {
				if ref, ok := account["user_account_ref"].(string); ok {
					ids[ref] = true
				}
			}
		}
	}
	return ids
}
