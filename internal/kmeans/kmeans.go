package kmeans

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/vectable/distance"
)

type options struct {
	seed uint64
}

// Option configures training.
type Option func(*options)

// WithSeed fixes the random source so that training is reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// TrainKMeans trains up to k centroids from the flattened vectors using
// k-means++ seeding followed by Lloyd iterations. It returns the flattened
// centroids (min(k, n) * dim), or nil when there are no vectors.
func TrainKMeans(ctx context.Context, vectors []float32, dim int, k int, metric distance.Metric, maxIter int, optFns ...Option) ([]float32, error) {
	distFunc, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}

	opts := options{seed: 1}
	for _, fn := range optFns {
		fn(&opts)
	}

	n := len(vectors) / dim
	if n == 0 || k <= 0 {
		return nil, nil
	}
	k = min(k, n)

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	centroids := seedPlusPlus(vectors, dim, k, rng)

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, k)
	sums := make([]float32, k*dim)

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false
		for i := 0; i < n; i++ {
			best := nearest(vectors[i*dim:(i+1)*dim], centroids, dim, distFunc)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if !changed {
			break
		}

		clear(sums)
		clear(counts)

		for i := 0; i < n; i++ {
			c := assignments[i]
			vec := vectors[i*dim : (i+1)*dim]
			for d := 0; d < dim; d++ {
				sums[c*dim+d] += vec[d]
			}
			counts[c]++
		}

		for j := 0; j < k; j++ {
			if counts[j] == 0 {
				// Empty cluster: restart from a random point.
				idx := rng.IntN(n)
				copy(centroids[j*dim:(j+1)*dim], vectors[idx*dim:(idx+1)*dim])
				continue
			}
			scale := 1.0 / float32(counts[j])
			for d := 0; d < dim; d++ {
				centroids[j*dim+d] = sums[j*dim+d] * scale
			}
		}
	}

	return centroids, nil
}

// seedPlusPlus picks k initial centroids with probability proportional to
// the squared distance from the centroids chosen so far.
func seedPlusPlus(vectors []float32, dim, k int, rng *rand.Rand) []float32 {
	n := len(vectors) / dim
	centroids := make([]float32, 0, k*dim)

	first := rng.IntN(n)
	centroids = append(centroids, vectors[first*dim:(first+1)*dim]...)

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = math.Inf(1)
	}

	for c := 1; c < k; c++ {
		last := centroids[(c-1)*dim : c*dim]

		var total float64
		for i := 0; i < n; i++ {
			d := float64(distance.SquaredL2(vectors[i*dim:(i+1)*dim], last))
			if d < weights[i] {
				weights[i] = d
			}
			total += weights[i]
		}

		pick := rng.IntN(n)
		if total > 0 {
			target := rng.Float64() * total
			for i, w := range weights {
				target -= w
				if target <= 0 {
					pick = i
					break
				}
			}
		}
		centroids = append(centroids, vectors[pick*dim:(pick+1)*dim]...)
	}

	return centroids
}

func nearest(vec, centroids []float32, dim int, distFunc distance.Func) int {
	best := -1
	minDist := float32(math.MaxFloat32)

	for j := 0; j < len(centroids)/dim; j++ {
		d := distFunc(vec, centroids[j*dim:(j+1)*dim])
		if best < 0 || d < minDist {
			minDist = d
			best = j
		}
	}

	return best
}

// AssignPartition finds the closest centroid for a vector.
func AssignPartition(vec []float32, centroids []float32, dim int, metric distance.Metric) (int, error) {
	distFunc, err := distance.Provider(metric)
	if err != nil {
		return -1, err
	}
	return nearest(vec, centroids, dim, distFunc), nil
}

type centroidDist struct {
	id   int
	dist float32
}

// FindClosestCentroids returns the indices of all centroids ordered by
// distance to the query, truncated to n.
func FindClosestCentroids(query []float32, centroids []float32, dim int, n int, metric distance.Metric) ([]int, error) {
	k := len(centroids) / dim
	n = min(n, k)

	distFunc, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}

	dists := make([]centroidDist, k)
	for i := 0; i < k; i++ {
		dists[i] = centroidDist{id: i, dist: distFunc(query, centroids[i*dim:(i+1)*dim])}
	}

	slices.SortFunc(dists, func(a, b centroidDist) int {
		if a.dist != b.dist {
			if a.dist < b.dist {
				return -1
			}
			return 1
		}
		return a.id - b.id
	})

	result := make([]int, n)
	for i := 0; i < n; i++ {
		result[i] = dists[i].id
	}

	return result, nil
}
