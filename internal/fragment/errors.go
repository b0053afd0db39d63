package fragment

import "errors"

var (
	// ErrExists is returned by Create when the table already has a manifest.
	ErrExists = errors.New("fragment: table already exists")
	// ErrNotFound is returned by Open when the table has no manifest.
	ErrNotFound = errors.New("fragment: table not found")
	// ErrDropped is returned by every operation after Drop.
	ErrDropped = errors.New("fragment: store dropped")
	// ErrCorrupt is returned when a deletion file fails verification.
	ErrCorrupt = errors.New("fragment: corrupt deletion file")
)
