package spatial

import "github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"

// PairIndex keeps the full n×n distance table. Flocks hold tens of boids so
// the quadratic cost is fine.
type PairIndex struct {
	n          int
	distances  []float64 // row-major n*n
	neighbours [][]int
}

// NewPairIndex returns an empty PairIndex.
func NewPairIndex() *PairIndex {
	return &PairIndex{}
}

func (p *PairIndex) Refresh(points []geometry.Vector2D, radius float64) {
	radius = sanitizeRadius(radius)
	n := len(points)
	p.n = n

	// reuse the backing arrays, every cell is overwritten below
	if cap(p.distances) >= n*n {
		p.distances = p.distances[:n*n]
	} else {
		p.distances = make([]float64, n*n)
	}
	if cap(p.neighbours) >= n {
		p.neighbours = p.neighbours[:n]
	} else {
		p.neighbours = make([][]int, n)
	}

	for i := 0; i < n; i++ {
		p.distances[i*n+i] = 0
		for j := i + 1; j < n; j++ {
			d := distance(points, i, j)
			p.distances[i*n+j] = d
			p.distances[j*n+i] = d
		}
	}

	for i := 0; i < n; i++ {
		list := p.neighbours[i][:0]
		for j := 0; j < n; j++ {
			if j != i && p.distances[i*n+j] < radius {
				list = append(list, j)
			}
		}
		p.neighbours[i] = list
	}
}

func (p *PairIndex) Len() int { return p.n }

func (p *PairIndex) Distance(i, j int) float64 {
	checkSlot(i, p.n)
	checkSlot(j, p.n)
	return p.distances[i*p.n+j]
}

func (p *PairIndex) Neighbours(i int, maxDistance float64) []int {
	checkSlot(i, p.n)
	var result []int
	for _, j := range p.neighbours[i] {
		if p.distances[i*p.n+j] <= maxDistance {
			result = append(result, j)
		}
	}
	return result
}
