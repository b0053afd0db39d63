package table

import "errors"

var (
	// ErrTableDropped is returned by every operation on a dropped table.
	ErrTableDropped = errors.New("table dropped")
	// ErrAlreadyExists is returned by Create when the location already holds
	// a table.
	ErrAlreadyExists = errors.New("table already exists")
	// ErrNotFound is returned by Open when the location holds no table.
	ErrNotFound = errors.New("table not found")
	// ErrInvalidK is returned by vector queries with a non-positive limit.
	ErrInvalidK = errors.New("k must be positive")
	// ErrNoSchema is returned by Create when neither a schema nor a source
	// is given.
	ErrNoSchema = errors.New("table schema required")
)
