package store

import "fmt"

// ScopeKind distinguishes the three partition roots.
type ScopeKind string

const (
	// KindIncident scopes partitions to one incident id.
	KindIncident ScopeKind = "incident"

	// KindCompany scopes partitions to one company id.
	KindCompany ScopeKind = "company"

	// KindUser scopes partitions to the local user cache, shared by all
	// incidents.
	KindUser ScopeKind = "user"
)

// Scope identifies a partition root: an incident, a company, or the local
// user cache. The user scope has no id.
type Scope struct {
	Kind ScopeKind
	ID   string
}

// IncidentScope returns the scope for an incident id.
func IncidentScope(id string) Scope { return Scope{Kind: KindIncident, ID: id} }

// CompanyScope returns the scope for a company id.
func CompanyScope(id string) Scope { return Scope{Kind: KindCompany, ID: id} }

// UserScope returns the shared local user scope.
func UserScope() Scope { return Scope{Kind: KindUser} }

// Dir returns the directory name holding this scope's partitions under the
// memory root.
func (s Scope) Dir() string {
	if s.Kind == KindUser {
		return "usr"
	}
	return s.ID
}

// String implements fmt.Stringer.
func (s Scope) String() string {
	if s.Kind == KindUser {
		return "user"
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.ID)
}
