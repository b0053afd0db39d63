// Package distance provides vector distance calculations.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (default)
//   - MetricCosine: Cosine distance (1 - cosine similarity)
//   - MetricDot: Negated dot product, so that smaller is closer
//
// Every Func returned by Provider is a distance: lower values mean closer
// vectors, which lets callers rank results uniformly across metrics.
//
// # Usage
//
//	fn, _ := distance.Provider(distance.MetricCosine)
//	d := fn(a, b)
//	sq := distance.SquaredL2(a, b)
package distance
