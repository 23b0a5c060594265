package query

import (
	"errors"
	"fmt"

	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/stix"
)

// ErrInvalidFilter indicates a filter that cannot be evaluated, such as an
// unsupported comparator.
var ErrInvalidFilter = errors.New("invalid query filter")

// ComparatorEQ is the only supported comparator: exact equality between the
// resolved source value and the resolved object value.
const ComparatorEQ = "EQ"

// Predicate compares a value navigated out of a candidate object against a
// value navigated out of caller-supplied input. Path elements are object keys;
// an integer element indexes into a list.
type Predicate struct {
	// Path navigates into the candidate node. A leading "original" element
	// steps into the wrapped STIX object; paths without it navigate the
	// original directly.
	Path []any `json:"path"`

	// SourcePath navigates into the caller-supplied source input. For a
	// property predicate it is optional; when absent SourceValue is used
	// directly.
	SourcePath []any `json:"source_path,omitempty"`

	// SourceValue is the literal comparison value when SourcePath is unset.
	SourceValue any `json:"source_value,omitempty"`

	// Comparator names the comparison. Only "EQ" is supported.
	Comparator string `json:"comparator"`
}

// Filter selects a single node from a partition. Type is mandatory; Property
// and Embedded are optional refinements.
type Filter struct {
	// Type is the STIX type candidates must carry.
	Type string `json:"type"`

	// Property compares a candidate property against a source value.
	Property *Predicate `json:"property,omitempty"`

	// Embedded compares a candidate reference against a source object.
	Embedded *Predicate `json:"embedded,omitempty"`
}

// Validate checks that the filter is evaluable.
func (f Filter) Validate() error {
	if f.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidFilter)
	}
	for _, p := range []*Predicate{f.Property, f.Embedded} {
		if p == nil {
			continue
		}
		if p.Comparator != ComparatorEQ {
			return fmt.Errorf("%w: unsupported comparator %q", ErrInvalidFilter, p.Comparator)
		}
		if len(p.Path) == 0 {
			return fmt.Errorf("%w: predicate path is required", ErrInvalidFilter)
		}
	}
	return nil
}

// FindOne evaluates the filter over the candidate nodes and returns the
// selected node, or (nil, nil) when nothing matches.
//
// Matching follows these rules:
//   - only nodes whose type equals the filter type are considered,
//   - with both property and embedded predicates, the first node satisfying
//     both is returned,
//   - with a single predicate, the scan runs to completion and the last
//     satisfying node wins,
//   - with no predicates, the first node of the matching type is returned.
//
// sourceValue feeds the property predicate and sourceObject feeds the
// embedded predicate; either may be nil when the corresponding predicate is
// absent. A predicate path that cannot be fully navigated is a non-match,
// never an error.
func FindOne(filter Filter, candidates []graph.Node, sourceValue any, sourceObject stix.Object) (*graph.Node, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var found *graph.Node
	for i := range candidates {
		cand := &candidates[i]
		if cand.Type != filter.Type {
			continue
		}
		switch {
		case filter.Property != nil && filter.Embedded != nil:
			if matchProperty(cand.Original, filter.Property, sourceValue) &&
				matchEmbedded(cand.Original, filter.Embedded, sourceObject) {
				return cand, nil
			}
		case filter.Property != nil:
			if matchProperty(cand.Original, filter.Property, sourceValue) {
				found = cand
			}
		case filter.Embedded != nil:
			if matchEmbedded(cand.Original, filter.Embedded, sourceObject) {
				found = cand
			}
		default:
			return cand, nil
		}
	}
	return found, nil
}

func matchProperty(obj stix.Object, p *Predicate, sourceValue any) bool {
	var sourceVal any
	if len(p.SourcePath) > 0 {
		v, ok := navigate(sourceValue, p.SourcePath)
		if !ok {
			return false
		}
		sourceVal = v
	} else {
		sourceVal = p.SourceValue
	}
	objectVal, ok := candidateValue(obj, p.Path)
	if !ok {
		return false
	}
	return equal(sourceVal, objectVal)
}

func matchEmbedded(obj stix.Object, p *Predicate, sourceObject stix.Object) bool {
	sourceVal, ok := navigate(map[string]any(sourceObject), p.SourcePath)
	if !ok {
		return false
	}
	objectVal, ok := candidateValue(obj, p.Path)
	if !ok {
		return false
	}
	return equal(sourceVal, objectVal)
}

// candidateValue resolves a predicate path against the candidate's original
// object. A leading "original" element addresses the wrapped node form and is
// consumed as the unwrap step.
func candidateValue(obj stix.Object, path []any) (any, bool) {
	if len(path) > 0 {
		if head, ok := path[0].(string); ok && head == "original" {
			path = path[1:]
		}
	}
	return navigate(map[string]any(obj), path)
}

// navigate walks a path of keys and indexes into nested maps and lists.
// It reports false as soon as an element cannot be resolved.
func navigate(root any, path []any) (any, bool) {
	current := root
	for _, elem := range path {
		switch step := elem.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			v, ok := m[step]
			if !ok {
				return nil, false
			}
			current = v
		case int:
			v, ok := index(current, step)
			if !ok {
				return nil, false
			}
			current = v
		case float64:
			// JSON-decoded paths carry indexes as float64.
			v, ok := index(current, int(step))
			if !ok {
				return nil, false
			}
			current = v
		default:
			return nil, false
		}
	}
	return current, true
}

func index(current any, i int) (any, bool) {
	list, ok := current.([]any)
	if !ok || i < 0 || i >= len(list) {
		return nil, false
	}
	return list[i], true
}

func equal(a, b any) bool {
	if a == b {
		return true
	}
	// Numeric values may arrive as int from literals and float64 from JSON.
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
