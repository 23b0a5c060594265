// Package graph defines the node and edge wire types persisted in context
// partitions, and the converter that projects raw STIX objects into them.
//
// A Node wraps the raw object under its "original" field together with the
// display label and icon the UI force-graph needs. Edges are produced from
// two sources: the structural references of relationship and sighting
// objects, and the embedded "*_ref"/"*_refs" properties of any object.
package graph
