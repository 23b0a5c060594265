package constraint

import (
	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/stix"
)

// RelationshipForm carries the reference values a relationship creation form
// needs once the valid types are known.
type RelationshipForm struct {
	SourceRef string `json:"source_ref"`
	TargetRef string `json:"target_ref"`
}

// RelationshipOptions is the result of resolving the valid relationship types
// between a source and target object.
type RelationshipOptions struct {
	RelationshipTypes []string         `json:"relationship_type_list"`
	Form              RelationshipForm `json:"reln_form_values"`
}

// Resolver evaluates rules against STIX objects.
type Resolver struct {
	rules RuleSet
}

// NewResolver creates a resolver over the given rule set.
func NewResolver(rules RuleSet) *Resolver {
	return &Resolver{rules: rules}
}

// RelationshipTypes returns every relationship type allowed between source
// and target, accumulated across all rules whose source and target lists both
// pass, plus the form reference values. No passing rule yields an empty type
// list, not an error.
func (r *Resolver) RelationshipTypes(source, target stix.Object) RelationshipOptions {
	opts := RelationshipOptions{
		RelationshipTypes: []string{},
		Form: RelationshipForm{
			SourceRef: source.ID(),
			TargetRef: target.ID(),
		},
	}
	for _, rule := range r.rules.Relationships {
		if rulePasses(rule, source, target) {
			opts.RelationshipTypes = append(opts.RelationshipTypes, rule.RelationshipTypes...)
		}
	}
	return opts
}

// Connections returns the subset of candidates that may fill the given
// embedded reference field of an object type. Rules are selected by exact
// (source_type, field) match; a candidate passes when its type satisfies any
// target entry of any selected rule.
func (r *Resolver) Connections(objectType, field string, candidates []graph.Node) []graph.Node {
	var selected []ConnectionRule
	for _, rule := range r.rules.Connections {
		if rule.SourceType == objectType && rule.Field == field {
			selected = append(selected, rule)
		}
	}
	valid := []graph.Node{}
	for _, cand := range candidates {
		if candidatePasses(cand, selected) {
			valid = append(valid, cand)
		}
	}
	return valid
}

func rulePasses(rule RelationshipRule, source, target stix.Object) bool {
	sourceType := source.Type()
	targetType := target.Type()

	sourcePasses := false
	targetPasses := false
	for _, entry := range rule.Source {
		if entry == WildcardSame {
			if sourceType == targetType {
				return true
			}
			continue
		}
		if matchEntry(entry, source) {
			sourcePasses = true
			break
		}
	}
	if !sourcePasses {
		return false
	}
	for _, entry := range rule.Target {
		if entry == WildcardSame {
			if sourceType == targetType {
				return true
			}
			continue
		}
		if matchEntry(entry, target) {
			targetPasses = true
			break
		}
	}
	return targetPasses
}

func candidatePasses(cand graph.Node, rules []ConnectionRule) bool {
	for _, rule := range rules {
		for _, entry := range rule.TargetTypes() {
			switch entry {
			case WildcardAny:
				return true
			case WildcardAttack:
				if cand.Original.HasAttackMarker() {
					return true
				}
			case WildcardSDO:
				if stix.IsSDO(cand.Type) {
					return true
				}
			case WildcardSCO:
				if stix.IsSCO(cand.Type) {
					return true
				}
			default:
				if entry == cand.Type {
					return true
				}
			}
		}
	}
	return false
}

// matchEntry evaluates a single non-_same rule entry against an object.
func matchEntry(entry string, obj stix.Object) bool {
	switch entry {
	case WildcardAny:
		return true
	case WildcardAttack:
		return obj.HasAttackMarker()
	case WildcardSDO:
		return stix.IsSDO(obj.Type())
	case WildcardSCO:
		return stix.IsSCO(obj.Type())
	default:
		return entry == obj.Type()
	}
}
