package stix

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Object is a raw STIX object as decoded from JSON. All engine components
// operate on this representation; typed accessors below cover the handful of
// fields the engine needs.
type Object map[string]any

// Type returns the object's STIX type, or "" if absent.
func (o Object) Type() string {
	t, _ := o["type"].(string)
	return t
}

// ID returns the object's STIX id, or "" if absent.
func (o Object) ID() string {
	id, _ := o["id"].(string)
	return id
}

// GetString returns the named field as a string, or "" if absent or not a
// string.
func (o Object) GetString(key string) string {
	s, _ := o[key].(string)
	return s
}

// GetList returns the named field as a slice, or nil if absent or not a list.
func (o Object) GetList(key string) []any {
	l, _ := o[key].([]any)
	return l
}

// StringList returns the named field coerced to a list of strings.
// Scalar string values yield a single-element list.
func (o Object) StringList(key string) []string {
	switch v := o[key].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Created returns the object's created timestamp. Timestamps at other
// precisions than the canonical millisecond layout are accepted via RFC 3339.
// The zero time is returned when the field is absent or unparsable, so
// callers can sort without a separate error path.
func (o Object) Created() time.Time {
	raw := o.GetString("created")
	if ts, err := time.Parse(TimestampFormat, raw); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts
	}
	return time.Time{}
}

// HasAttackMarker reports whether the object carries an ATT&CK-style version
// marker, used by the "_attack" constraint wildcard.
func (o Object) HasAttackMarker() bool {
	_, ok := o["x_mitre_version"]
	return ok
}

// TimestampFormat is the STIX 2.1 timestamp layout with millisecond
// precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// NewID generates a STIX id of the form "<type>--<uuid4>" for the given
// object type.
func NewID(objType string) string {
	return fmt.Sprintf("%s--%s", objType, uuid.NewString())
}

// TypeOfID extracts the type prefix from a STIX id ("ipv4-addr--..." yields
// "ipv4-addr"). Returns "" for ids without the "--" separator.
func TypeOfID(id string) string {
	idx := strings.Index(id, "--")
	if idx < 0 {
		return ""
	}
	return id[:idx]
}
