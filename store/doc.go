// Package store implements the partitioned context memory: one JSON array
// per (scope, category) pair, a scope directory record tracking the current
// and known incidents and companies, and the upsert/delete operations with
// whole-collection read-modify-write semantics.
//
// The default backend persists partitions as files under a memory root
// directory; see the redisstore subpackage for a Redis-backed alternative.
// The store assumes a single writer per scope at a time; there is no
// cross-process locking.
package store
