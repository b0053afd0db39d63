// Package predicate parses and evaluates filter expressions such as
//
//	id > 24 AND (name = 'alice' OR name IS NULL)
//
// Predicates are checked against a table schema when parsed: unknown
// columns and literals of the wrong type are rejected with a positioned
// *Error. Evaluation is pure and follows SQL null semantics for
// comparisons: any comparison involving null is false.
package predicate
