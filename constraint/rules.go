package constraint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInvalidRules indicates a rule file that could not be parsed.
var ErrInvalidRules = errors.New("invalid constraint rules")

// Wildcard entries usable in rule source and target lists alongside concrete
// STIX types.
const (
	// WildcardAny matches every object.
	WildcardAny = "_any"

	// WildcardSame matches when source and target share a type.
	WildcardSame = "_same"

	// WildcardSDO matches any STIX domain object.
	WildcardSDO = "_sdo"

	// WildcardSCO matches any STIX cyber-observable object.
	WildcardSCO = "_sco"

	// WildcardAttack matches objects carrying the ATT&CK version marker.
	WildcardAttack = "_attack"
)

// RelationshipRule allows a set of relationship types between objects whose
// types satisfy the source and target lists.
type RelationshipRule struct {
	Source            []string `json:"source"`
	Target            []string `json:"target"`
	RelationshipTypes []string `json:"relationship_types"`
}

// ConnectionRule names which target types may fill an embedded reference
// field of a source type. TargetType may be a single type, a wildcard, or a
// comma-separated list of either.
type ConnectionRule struct {
	SourceType string `json:"source_type"`
	Field      string `json:"field"`
	TargetType any    `json:"target_type"`
}

// TargetTypes normalizes TargetType into a flat list of trimmed entries.
// A comma-separated string becomes multiple entries; a list of strings is
// flattened the same way; anything else yields an empty list.
func (r ConnectionRule) TargetTypes() []string {
	switch v := r.TargetType.(type) {
	case string:
		return splitTrim(v)
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, splitTrim(s)...)
			}
		}
		return out
	case []string:
		var out []string
		for _, s := range v {
			out = append(out, splitTrim(s)...)
		}
		return out
	default:
		return nil
	}
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// RuleSet holds the loaded relationship and connection rules.
type RuleSet struct {
	Relationships []RelationshipRule
	Connections   []ConnectionRule
}

// ParseRelationshipRules decodes a relationship rule file.
func ParseRelationshipRules(data []byte) ([]RelationshipRule, error) {
	var rules []RelationshipRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("%w: relationship rules: %v", ErrInvalidRules, err)
	}
	return rules, nil
}

// ParseConnectionRules decodes a connection rule file.
func ParseConnectionRules(data []byte) ([]ConnectionRule, error) {
	var rules []ConnectionRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("%w: connection rules: %v", ErrInvalidRules, err)
	}
	return rules, nil
}

// LoadRuleSet reads relationship and connection rule files from disk. Either
// path may be empty, leaving that rule list empty; a path that does not exist
// is treated the same way.
func LoadRuleSet(relationshipPath, connectionPath string) (RuleSet, error) {
	var set RuleSet
	if relationshipPath != "" {
		data, err := os.ReadFile(relationshipPath)
		if err != nil && !os.IsNotExist(err) {
			return set, fmt.Errorf("%w: reading %s: %v", ErrInvalidRules, relationshipPath, err)
		}
		if data != nil {
			set.Relationships, err = ParseRelationshipRules(data)
			if err != nil {
				return set, err
			}
		}
	}
	if connectionPath != "" {
		data, err := os.ReadFile(connectionPath)
		if err != nil && !os.IsNotExist(err) {
			return set, fmt.Errorf("%w: reading %s: %v", ErrInvalidRules, connectionPath, err)
		}
		if data != nil {
			set.Connections, err = ParseConnectionRules(data)
			if err != nil {
				return set, err
			}
		}
	}
	return set, nil
}
