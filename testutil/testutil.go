package testutil

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/distance"
	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
)

// SearchResult represents a search result.
type SearchResult struct {
	ID       model.RowID
	Distance float32
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed^0x9e3779b97f4a7c15))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)
	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
		vectors[i] = vec
	}
	return vectors
}

// UnitVectors generates L2-normalized random vectors (on the hypersphere).
// Uses Gaussian distribution for uniform distribution on the sphere.
func (r *RNG) UnitVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)
	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = float32(r.rand.NormFloat64())
		}
		if !distance.NormalizeL2InPlace(vec) {
			vec[0] = 1
		}
		vectors[i] = vec
	}
	return vectors
}

// ClusteredVectors generates vectors clustered around random centroids.
// Useful for testing ANN index recall on non-uniform data.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UnitVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)
	for i := range num {
		centroid := centroids[i%clusters]
		vec := data[i*dim : (i+1)*dim]
		for j := range dim {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
		vectors[i] = vec
	}
	return vectors
}

// VectorSchema returns the schema {id: int32, vector: vector(dim)} used by
// VectorSource.
func VectorSchema(dim int) *schema.Schema {
	return schema.MustDefine(
		schema.Column{Name: "id", Type: schema.Int32()},
		schema.Column{Name: "vector", Type: schema.Vector(dim)},
	)
}

// VectorSource returns the vectors as one batch of VectorSchema rows with
// ids counting up from firstID. It panics on empty input.
func VectorSource(firstID int, vectors [][]float32) batch.Source {
	b := batch.NewBuilder(VectorSchema(len(vectors[0])))
	for i, v := range vectors {
		if err := b.Append(firstID+i, v); err != nil {
			panic(err)
		}
	}
	out, err := b.Build()
	if err != nil {
		panic(err)
	}
	return batch.Of(out)
}

// ComputeRecall computes recall@k by comparing approximate results against ground truth.
func ComputeRecall(groundTruth, approximate []SearchResult) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))

	truthSet := make(map[model.RowID]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i].ID] = struct{}{}
	}

	hits := 0
	for _, r := range approximate[:k] {
		if _, ok := truthSet[r.ID]; ok {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// BruteForceSearch performs exact search for ground truth. The i-th vector
// has row id i; ties are broken by the lower id.
func BruteForceSearch(vectors [][]float32, query []float32, k int, m distance.Metric) []SearchResult {
	fn, err := distance.Provider(m)
	if err != nil {
		panic(err)
	}

	results := make([]SearchResult, len(vectors))
	for i, v := range vectors {
		results[i] = SearchResult{ID: model.RowID(i), Distance: fn(query, v)}
	}

	slices.SortFunc(results, func(a, b SearchResult) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}
