package storage

import "errors"

var (
	// ErrNotFound is returned by Store.Get for an absent key and by Service
	// lookups with nothing stored.
	ErrNotFound = errors.New("storage: not found")

	// ErrInvalidSettings is returned when settings fail validation.
	ErrInvalidSettings = errors.New("storage: invalid settings")

	// ErrInvalidSnapshot is returned by Import for unreadable or
	// unsupported snapshots.
	ErrInvalidSnapshot = errors.New("storage: invalid snapshot")
)
