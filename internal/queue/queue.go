package queue

import (
	"math"
	"slices"
)

// Item is a scored candidate.
type Item struct {
	ID       uint64  // row id
	Distance float32 // smaller is better
}

// Less orders items by ascending distance, breaking ties by the lower id.
// NaN distances sort after every number.
func Less(a, b Item) bool {
	an, bn := math.IsNaN(float64(a.Distance)), math.IsNaN(float64(b.Distance))
	switch {
	case an != bn:
		return bn
	case !an && a.Distance != b.Distance:
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

// Compare is the three-way form of Less, for slices.SortFunc.
func Compare(a, b Item) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	}
	return 0
}

// TopK keeps the k best items seen so far.
//
// Internally it is a max-heap on (Distance, ID): the root is the worst
// retained item and is evicted when a better one arrives. Value-based
// storage, no allocations after the first k pushes.
type TopK struct {
	k     int
	items []Item
}

// NewTopK creates a collector for the k best items.
func NewTopK(k int) *TopK {
	return &TopK{k: k, items: make([]Item, 0, min(k, 1024))}
}

// Len returns the number of retained items.
func (q *TopK) Len() int { return len(q.items) }

// Full reports whether k items are retained.
func (q *TopK) Full() bool { return len(q.items) >= q.k }

// Worst returns the worst retained item.
func (q *TopK) Worst() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// Push offers an item and reports whether it was retained.
func (q *TopK) Push(it Item) bool {
	if q.k <= 0 {
		return false
	}
	if len(q.items) < q.k {
		q.items = append(q.items, it)
		q.siftUp(len(q.items) - 1)
		return true
	}
	if !Less(it, q.items[0]) {
		return false
	}
	q.items[0] = it
	q.siftDown(0)
	return true
}

// Merge pushes every item of other into q.
func (q *TopK) Merge(other *TopK) {
	for _, it := range other.items {
		q.Push(it)
	}
}

// Sorted returns the retained items best first. The queue is unchanged.
func (q *TopK) Sorted() []Item {
	out := slices.Clone(q.items)
	slices.SortFunc(out, Compare)
	return out
}

// Reset clears the queue for reuse.
func (q *TopK) Reset() {
	q.items = q.items[:0]
}

// worse is the heap order: the root is the item that sorts last.
func (q *TopK) worse(i, j int) bool {
	return Less(q.items[j], q.items[i])
}

func (q *TopK) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.worse(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *TopK) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && q.worse(r, l) {
			best = r
		}
		if !q.worse(best, i) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
