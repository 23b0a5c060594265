package stix

import "sort"

// Category is one of the three broad STIX object categories used by
// constraint wildcards and view classification.
type Category string

const (
	// CategorySDO covers STIX Domain Objects (indicator, identity, ...).
	CategorySDO Category = "sdo"

	// CategorySCO covers STIX Cyber-observable Objects (file, ipv4-addr, ...).
	CategorySCO Category = "sco"

	// CategorySRO covers STIX Relationship Objects (relationship, sighting).
	CategorySRO Category = "sro"
)

// sdoTypes is the authoritative STIX 2.1 domain object type set, extended
// with the incident-management types (event, impact, task, sequence) defined
// by the incident extension.
var sdoTypes = map[string]bool{
	"attack-pattern":   true,
	"campaign":         true,
	"course-of-action": true,
	"grouping":         true,
	"identity":         true,
	"incident":         true,
	"indicator":        true,
	"infrastructure":   true,
	"intrusion-set":    true,
	"location":         true,
	"malware":          true,
	"malware-analysis": true,
	"note":             true,
	"observed-data":    true,
	"opinion":          true,
	"report":           true,
	"threat-actor":     true,
	"tool":             true,
	"vulnerability":    true,
	"event":            true,
	"impact":           true,
	"task":             true,
	"sequence":         true,
}

// scoTypes is the authoritative STIX 2.1 cyber-observable type set, extended
// with the anecdote observable from the incident extension.
var scoTypes = map[string]bool{
	"artifact":             true,
	"autonomous-system":    true,
	"directory":            true,
	"domain-name":          true,
	"email-addr":           true,
	"email-message":        true,
	"file":                 true,
	"ipv4-addr":            true,
	"ipv6-addr":            true,
	"mac-addr":             true,
	"mutex":                true,
	"network-traffic":      true,
	"process":              true,
	"software":             true,
	"url":                  true,
	"user-account":         true,
	"windows-registry-key": true,
	"x509-certificate":     true,
	"anecdote":             true,
}

var sroTypes = map[string]bool{
	"relationship": true,
	"sighting":     true,
}

// IsSDO reports whether the type name is a STIX Domain Object type.
func IsSDO(objType string) bool { return sdoTypes[objType] }

// IsSCO reports whether the type name is a STIX Cyber-observable type.
func IsSCO(objType string) bool { return scoTypes[objType] }

// IsSRO reports whether the type name is a STIX Relationship Object type.
func IsSRO(objType string) bool { return sroTypes[objType] }

// CategoryOf classifies a type name into one of the three broad categories.
// The boolean is false for unknown types.
func CategoryOf(objType string) (Category, bool) {
	switch {
	case sdoTypes[objType]:
		return CategorySDO, true
	case scoTypes[objType]:
		return CategorySCO, true
	case sroTypes[objType]:
		return CategorySRO, true
	default:
		return "", false
	}
}

// SDOTypes returns a copy of the domain object type set.
func SDOTypes() []string { return typeNames(sdoTypes) }

// SCOTypes returns a copy of the cyber-observable type set.
func SCOTypes() []string { return typeNames(scoTypes) }

func typeNames(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
