// Package constraint resolves which relationship types and connection
// candidates are valid between STIX objects. Rules are loaded from JSON and
// matched by object type, with wildcard entries for whole categories.
package constraint
