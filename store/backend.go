package store

import "context"

// Backend abstracts the byte-level persistence of partitions and the scope
// directory record. Implementations must treat an absent partition as
// (nil, nil), not an error; absence is a normal state.
type Backend interface {
	// ReadPartition returns the raw JSON array for a partition file within
	// a scope, or nil if the partition has never been written.
	ReadPartition(ctx context.Context, scope Scope, file string) ([]byte, error)

	// WritePartition replaces the full contents of a partition file,
	// creating the scope root as needed.
	WritePartition(ctx context.Context, scope Scope, file string, data []byte) error

	// ReadDirectory returns the raw scope directory record, or nil if it
	// has never been written.
	ReadDirectory(ctx context.Context) ([]byte, error)

	// WriteDirectory replaces the scope directory record.
	WriteDirectory(ctx context.Context, data []byte) error
}
