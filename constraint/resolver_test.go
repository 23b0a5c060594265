package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/stix"
)

func obj(id, typ string, extra map[string]any) stix.Object {
	o := stix.Object{"id": id, "type": typ}
	for k, v := range extra {
		o[k] = v
	}
	return o
}

func TestRelationshipTypesDirectMatch(t *testing.T) {
	rules := RuleSet{Relationships: []RelationshipRule{
		{
			Source:            []string{"threat-actor"},
			Target:            []string{"malware"},
			RelationshipTypes: []string{"uses", "authored"},
		},
		{
			Source:            []string{"indicator"},
			Target:            []string{"malware"},
			RelationshipTypes: []string{"indicates"},
		},
	}}
	r := NewResolver(rules)

	source := obj("threat-actor--1", "threat-actor", nil)
	target := obj("malware--2", "malware", nil)
	got := r.RelationshipTypes(source, target)

	assert.Equal(t, []string{"uses", "authored"}, got.RelationshipTypes)
	assert.Equal(t, "threat-actor--1", got.Form.SourceRef)
	assert.Equal(t, "malware--2", got.Form.TargetRef)
}

func TestRelationshipTypesAccumulateAcrossRules(t *testing.T) {
	rules := RuleSet{Relationships: []RelationshipRule{
		{Source: []string{"_sdo"}, Target: []string{"_sdo"}, RelationshipTypes: []string{"related-to"}},
		{Source: []string{"campaign"}, Target: []string{"identity"}, RelationshipTypes: []string{"targets"}},
	}}
	r := NewResolver(rules)

	got := r.RelationshipTypes(obj("campaign--1", "campaign", nil), obj("identity--2", "identity", nil))
	assert.Equal(t, []string{"related-to", "targets"}, got.RelationshipTypes)
}

func TestRelationshipTypesWildcards(t *testing.T) {
	tests := []struct {
		name   string
		rule   RelationshipRule
		source stix.Object
		target stix.Object
		want   bool
	}{
		{
			name:   "_any matches everything",
			rule:   RelationshipRule{Source: []string{"_any"}, Target: []string{"_any"}},
			source: obj("x--1", "x-custom", nil),
			target: obj("file--1", "file", nil),
			want:   true,
		},
		{
			name:   "_same passes when types are equal",
			rule:   RelationshipRule{Source: []string{"_same"}, Target: []string{"nothing"}},
			source: obj("malware--1", "malware", nil),
			target: obj("malware--2", "malware", nil),
			want:   true,
		},
		{
			name:   "_same fails when types differ",
			rule:   RelationshipRule{Source: []string{"_same"}, Target: []string{"_any"}},
			source: obj("malware--1", "malware", nil),
			target: obj("tool--2", "tool", nil),
			want:   false,
		},
		{
			name:   "_sco matches observables only",
			rule:   RelationshipRule{Source: []string{"_sco"}, Target: []string{"_sco"}},
			source: obj("ipv4-addr--1", "ipv4-addr", nil),
			target: obj("malware--2", "malware", nil),
			want:   false,
		},
		{
			name:   "_attack requires the version marker",
			rule:   RelationshipRule{Source: []string{"_attack"}, Target: []string{"_any"}},
			source: obj("attack-pattern--1", "attack-pattern", map[string]any{"x_mitre_version": "1.0"}),
			target: obj("identity--2", "identity", nil),
			want:   true,
		},
		{
			name:   "_attack fails without the marker",
			rule:   RelationshipRule{Source: []string{"_attack"}, Target: []string{"_any"}},
			source: obj("attack-pattern--1", "attack-pattern", nil),
			target: obj("identity--2", "identity", nil),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.rule.RelationshipTypes = []string{"r"}
			r := NewResolver(RuleSet{Relationships: []RelationshipRule{tt.rule}})
			got := r.RelationshipTypes(tt.source, tt.target)
			if tt.want {
				assert.NotEmpty(t, got.RelationshipTypes)
			} else {
				assert.Empty(t, got.RelationshipTypes)
			}
		})
	}
}

func TestConnectionsFiltersByRuleAndType(t *testing.T) {
	rules := RuleSet{Connections: []ConnectionRule{
		{SourceType: "email-message", Field: "from_ref", TargetType: "email-addr"},
		{SourceType: "email-message", Field: "raw_email_ref", TargetType: "artifact"},
	}}
	r := NewResolver(rules)

	candidates := []graph.Node{
		{ID: "email-addr--1", Type: "email-addr", Original: obj("email-addr--1", "email-addr", nil)},
		{ID: "artifact--1", Type: "artifact", Original: obj("artifact--1", "artifact", nil)},
		{ID: "url--1", Type: "url", Original: obj("url--1", "url", nil)},
	}

	got := r.Connections("email-message", "from_ref", candidates)
	require.Len(t, got, 1)
	assert.Equal(t, "email-addr--1", got[0].ID)
}

func TestConnectionsCommaSeparatedTargets(t *testing.T) {
	rules := RuleSet{Connections: []ConnectionRule{
		{SourceType: "directory", Field: "contains_refs", TargetType: "file, directory"},
	}}
	r := NewResolver(rules)

	candidates := []graph.Node{
		{ID: "file--1", Type: "file", Original: obj("file--1", "file", nil)},
		{ID: "directory--1", Type: "directory", Original: obj("directory--1", "directory", nil)},
		{ID: "url--1", Type: "url", Original: obj("url--1", "url", nil)},
	}

	got := r.Connections("directory", "contains_refs", candidates)
	require.Len(t, got, 2)
	assert.Equal(t, "file--1", got[0].ID)
	assert.Equal(t, "directory--1", got[1].ID)
}

func TestConnectionsWildcardTargets(t *testing.T) {
	rules := RuleSet{Connections: []ConnectionRule{
		{SourceType: "grouping", Field: "object_refs", TargetType: []any{"_sdo", "_sco"}},
	}}
	r := NewResolver(rules)

	candidates := []graph.Node{
		{ID: "malware--1", Type: "malware", Original: obj("malware--1", "malware", nil)},
		{ID: "file--1", Type: "file", Original: obj("file--1", "file", nil)},
		{ID: "relationship--1", Type: "relationship", Original: obj("relationship--1", "relationship", nil)},
	}

	got := r.Connections("grouping", "object_refs", candidates)
	require.Len(t, got, 2)
}

func TestConnectionsNoRuleMatches(t *testing.T) {
	r := NewResolver(RuleSet{})
	got := r.Connections("email-message", "from_ref", []graph.Node{
		{ID: "email-addr--1", Type: "email-addr"},
	})
	assert.Empty(t, got)
}

func TestParseRelationshipRules(t *testing.T) {
	data := []byte(`[
		{"source": ["_sdo"], "target": ["_sdo"], "relationship_types": ["related-to"]}
	]`)
	rules, err := ParseRelationshipRules(data)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, []string{"related-to"}, rules[0].RelationshipTypes)

	_, err = ParseRelationshipRules([]byte("not json"))
	assert.ErrorIs(t, err, ErrInvalidRules)
}

func TestConnectionRuleTargetTypes(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"single string", "file", []string{"file"}},
		{"comma string", "file,directory , url", []string{"file", "directory", "url"}},
		{"list of strings", []any{"file", "directory,url"}, []string{"file", "directory", "url"}},
		{"non-string", 7, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := ConnectionRule{TargetType: tt.in}
			assert.Equal(t, tt.want, rule.TargetTypes())
		})
	}
}
