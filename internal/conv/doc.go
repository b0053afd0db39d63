// Package conv converts between integer widths with bounds checks.
//
// The binary formats store counts and lengths as fixed-width integers. Values
// read back from a blob are untrusted, so decoders convert them with these
// helpers and report overflow as corruption instead of wrapping silently.
// Encoders use the Must variants where the value is bounded by construction.
package conv
