// Package triage provides the Context Graph Store & View Engine for
// threat-incident triage: a file-partitioned node/edge store representing an
// incident's evolving object graph, the promotion workflow that moves objects
// from the unattached pool into categorized partitions, on-demand view
// materialization for UI tabs, and the declarative constraint resolver that
// determines which relationship and connection types are legal between STIX
// objects.
//
// # Core Concepts
//
//   - Scope: the incident, company or user context that roots a set of
//     partitions under the memory root.
//   - Partition: a named, file-backed collection of nodes or edges belonging
//     to one scope and one category.
//   - Promotion: moving an object from the unattached pool into a categorized
//     partition, with incident reference-list bookkeeping.
//   - View: a read-only hierarchical tree joined across partitions for one
//     UI tab (sightings, tasks, events, impacts, company, user).
//
// # Getting Started
//
// Create a session and work through it:
//
//	session, err := triage.NewSession(
//		triage.WithConfigPath("triage.yaml"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer session.Close()
//
//	err = session.CreateIncident(ctx, incidentObject)
//	report, err := session.Promote(ctx, objects)
//	tree, err := session.SightingIndex(ctx)
//
// The session resolves the current incident and company from the scope
// directory on every call; switch scopes with SetCurrentIncident.
package triage
