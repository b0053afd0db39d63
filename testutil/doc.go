// Package testutil provides testing utilities for vectable.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random vectors, computing exact
// nearest neighbors, and verifying search recall.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.ClusteredVectors(1000, 64, 16, 0.05)
//	src := testutil.VectorSource(0, vecs)
//
// # Exact Search (Ground Truth)
//
//	truth := testutil.BruteForceSearch(vecs, query, k, distance.MetricL2)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(truth, approx)
package testutil
