package promote

import (
	"context"
	"fmt"

	"github.com/os-threat/triage/stix"
	"github.com/os-threat/triage/store"
)

var companyCategories = map[store.Category]bool{
	store.CategoryUsers:   true,
	store.CategoryCompany: true,
	store.CategoryAssets:  true,
	store.CategorySystems: true,
}

var userCategories = map[store.Category]bool{
	store.CategoryMe:   true,
	store.CategoryTeam: true,
}

// SaveCompanyObject files an object into a category partition of the current
// company scope. Filing into the company category also registers the object's
// id as the current company.
func (e *Engine) SaveCompanyObject(ctx context.Context, category store.Category, obj stix.Object) error {
	if !companyCategories[category] {
		return fmt.Errorf("%w: %s is not a company category", store.ErrUnknownCategory, category)
	}
	if category == store.CategoryCompany {
		if err := e.store.RegisterCompany(ctx, obj.ID()); err != nil {
			return err
		}
	}
	scope, err := e.store.CurrentCompany(ctx)
	if err != nil {
		return err
	}
	return e.fileInto(ctx, scope, category, obj)
}

// SaveUserObject files an identity into the me or team partition of the user
// scope.
func (e *Engine) SaveUserObject(ctx context.Context, category store.Category, obj stix.Object) error {
	if !userCategories[category] {
		return fmt.Errorf("%w: %s is not a user category", store.ErrUnknownCategory, category)
	}
	return e.fileInto(ctx, store.UserScope(), category, obj)
}

func (e *Engine) fileInto(ctx context.Context, scope store.Scope, category store.Category, obj stix.Object) error {
	nodes, edges, err := e.converter.ConvertNode(obj)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		if err := e.store.UpsertNode(ctx, scope, category, node); err != nil {
			return err
		}
	}
	return e.store.UpsertEdges(ctx, scope, store.CategoryEdges, edges)
}
