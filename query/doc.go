// Package query implements the filter used to look up a single node inside a
// context partition. A filter always matches on STIX type and can further
// narrow by a property comparison against a caller-supplied value, by an
// embedded reference comparison against a caller-supplied object, or both.
package query
