// Package stix provides the minimal STIX 2.1 object surface used by the
// triage context engine: a map-backed Object type, the canonical SDO/SCO/SRO
// type category sets used by constraint evaluation, and id helpers.
//
// The engine never validates full STIX semantics; objects are treated as
// opaque JSON documents with a small set of well-known fields (id, type,
// created, and the incident reference lists).
package stix
