// Package model defines core types used throughout vectable.
//
// # Identity Types
//
//   - RowID: Table-wide row identifier, assigned in insertion order (uint64)
//   - FragmentID: Identifier of an immutable data fragment (uint64)
//   - Location: Physical address of a row (FragmentID, offset)
//
// # Data Types
//
//   - Value: Small typed cell value (Null, Int32, Utf8, Vector)
//   - Row: Decoded row with its RowID, column names and values
package model
