// Package kmeans implements k-means clustering over flattened float32
// vectors. The vector index uses it to learn IVF partition centroids.
package kmeans
