package recognition

import (
	"sort"

	"github.com/kamstrup/intmap"
)

// Accumulator counts, per catalog index, the frames whose best match cleared the
// similarity threshold during one recognition window.
type Accumulator struct {
	size   int
	counts *intmap.Map[int, int]
	total  int
}

// NewAccumulator creates an accumulator for a catalog of the given size.
func NewAccumulator(size int) *Accumulator {
	return &Accumulator{
		size:   size,
		counts: intmap.New[int, int](size),
	}
}

// Add records one frame for the template at catalog index i. Out of range indices are
// ignored.
func (a *Accumulator) Add(i int) {
	if i < 0 || i >= a.size {
		return
	}
	n, _ := a.counts.Get(i)
	a.counts.Put(i, n+1)
	a.total++
}

// Count returns the frames recorded for catalog index i.
func (a *Accumulator) Count(i int) int {
	n, _ := a.counts.Get(i)
	return n
}

// Total returns the frames recorded across all templates.
func (a *Accumulator) Total() int {
	return a.total
}

// Reset forgets every count.
func (a *Accumulator) Reset() {
	a.counts.Clear()
	a.total = 0
}

// Top returns at most n catalog indices with a non-zero count, by count descending.
// Equal counts keep catalog order.
func (a *Accumulator) Top(n int) []int {
	var indices []int
	for i := 0; i < a.size; i++ {
		if a.Count(i) > 0 {
			indices = append(indices, i)
		}
	}

	sort.SliceStable(indices, func(x, y int) bool {
		return a.Count(indices[x]) > a.Count(indices[y])
	})

	if n >= 0 && len(indices) > n {
		indices = indices[:n]
	}
	return indices
}
