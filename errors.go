package vectable

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vectable/internal/catalog"
	"github.com/hupe1980/vectable/internal/codec"
	"github.com/hupe1980/vectable/internal/fragment"
	"github.com/hupe1980/vectable/internal/index"
	"github.com/hupe1980/vectable/internal/manifest"
	"github.com/hupe1980/vectable/internal/predicate"
	"github.com/hupe1980/vectable/internal/table"
	"github.com/hupe1980/vectable/schema"
)

var (
	// ErrNotFound is returned when a table does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a table whose name is taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrTableDropped is returned by operations on a dropped table handle.
	ErrTableDropped = errors.New("table dropped")
	// ErrInvalidK is returned when a vector query has a non-positive limit.
	ErrInvalidK = errors.New("k must be positive")
	// ErrInvalidName is returned for unusable table names.
	ErrInvalidName = errors.New("invalid name")
	// ErrCorrupt is returned when stored data fails verification.
	ErrCorrupt = errors.New("corrupt data")
	// ErrNoVectorColumn is returned by vector operations on tables without
	// a vector column.
	ErrNoVectorColumn = errors.New("table has no vector column")
)

type (
	// SchemaError reports an invalid schema or a batch that does not match
	// the table schema.
	SchemaError = schema.Error
	// EncodingError reports batch data that cannot be stored, such as a
	// vector of the wrong length.
	EncodingError = codec.Error
	// PredicateError reports a filter that cannot be parsed or type-checked.
	// Pos is the byte offset of the problem.
	PredicateError = predicate.Error
	// IndexError reports a vector query that does not fit the table, such
	// as a dimension mismatch.
	IndexError = index.Error
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, table.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, table.ErrAlreadyExists):
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	case errors.Is(err, table.ErrTableDropped):
		return fmt.Errorf("%w: %w", ErrTableDropped, err)
	case errors.Is(err, table.ErrNoSchema):
		return fmt.Errorf("%w: %w", &SchemaError{Kind: schema.EmptySchema}, err)
	case errors.Is(err, table.ErrInvalidK):
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	case errors.Is(err, catalog.ErrInvalidName):
		return fmt.Errorf("%w: %w", ErrInvalidName, err)
	case errors.Is(err, index.ErrNoVectorColumn):
		return fmt.Errorf("%w: %w", ErrNoVectorColumn, err)
	case errors.Is(err, codec.ErrCorrupt),
		errors.Is(err, manifest.ErrCorrupt),
		errors.Is(err, fragment.ErrCorrupt),
		errors.Is(err, index.ErrCorrupt):
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	return err
}
