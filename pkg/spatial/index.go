// Package spatial answers "who is near whom" for one flock per tick.
//
// Slots are the positions of the points slice handed to Refresh; callers map
// them back to their own agents. Every implementation must report the same
// distances and the same neighbour sets for the same input.
package spatial

import (
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"
)

// Index is a per-tick distance and neighbour cache.
type Index interface {
	// Refresh discards any previous data and indexes points. radius is the
	// largest distance any later Neighbours call will ask for.
	Refresh(points []geometry.Vector2D, radius float64)
	// Len is the number of indexed slots.
	Len() int
	// Distance between slots i and j; symmetric and zero on the diagonal.
	Distance(i, j int) float64
	// Neighbours returns, in ascending slot order, every other slot whose
	// distance to i is below the refresh radius and at most maxDistance.
	Neighbours(i int, maxDistance float64) []int
}

// Kind selects an Index implementation.
type Kind string

const (
	KindPairs Kind = "pairs"
	KindGrid  Kind = "grid"
)

// New returns an empty index of the requested kind.
func New(kind Kind) (Index, error) {
	switch kind {
	case KindPairs, "":
		return NewPairIndex(), nil
	case KindGrid:
		return NewGridIndex(), nil
	default:
		return nil, fmt.Errorf("unknown spatial index %q", kind)
	}
}

// distance is shared by all implementations so that they agree bit for bit.
// Ordering the operands by slot makes d(i, j) and d(j, i) identical.
func distance(points []geometry.Vector2D, i, j int) float64 {
	if i == j {
		return 0
	}
	if i > j {
		i, j = j, i
	}
	return points[i].DistanceTo(points[j])
}

func checkSlot(i, n int) {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("spatial: slot %d out of range [0, %d)", i, n))
	}
}

func sanitizeRadius(radius float64) float64 {
	if math.IsNaN(radius) || radius < 0 {
		return 0
	}
	return radius
}
