package store

import "errors"

// Sentinel errors for store operations. Check with errors.Is.
var (
	// ErrUnknownCategory is returned when a category name has no partition
	// file mapping for the scope kind it was used with.
	ErrUnknownCategory = errors.New("store: unknown category")

	// ErrMissingScope is returned when an operation requires a current
	// incident or company and the scope directory has none selected.
	ErrMissingScope = errors.New("store: no current scope selected")

	// ErrStorageFailed is returned when the underlying backend fails or a
	// persisted partition cannot be decoded. Malformed persisted JSON is
	// fatal for the call, never silently repaired.
	ErrStorageFailed = errors.New("store: storage operation failed")

	// ErrUnknownIncident is returned when selecting a current incident that
	// has no incident partition.
	ErrUnknownIncident = errors.New("store: incident not registered")
)
