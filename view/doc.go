// Package view materializes read-only hierarchical trees over the context
// partitions: the per-incident sighting, task, event and impact indices, the
// company org chart, the user identity view, and the unattached graph. Views
// never mutate partitions; they join across them and decorate nodes with edge
// labels and children.
package view
