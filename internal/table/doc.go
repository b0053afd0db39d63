// Package table implements the table manager: it coordinates schema
// validation, fragment storage, the vector index and predicates for a single
// table.
//
// A table moves through Creating, Ready, Dropping and Dropped. Only a Ready
// table accepts operations. Mutations (Add, Delete, BuildIndex, Drop) are
// serialized per table; reads run against the latest committed snapshot and
// never wait for writers.
package table
