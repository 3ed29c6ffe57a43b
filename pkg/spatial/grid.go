package spatial

import (
	"math"
	"slices"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"
)

// minCellSize avoids tiny grids (and a division by zero) when no force has a range.
const minCellSize = 10.0

type gridKey struct {
	x, y int
}

// GridIndex buckets slots into square cells of one radius so a neighbour
// query only looks at the 3x3 block around a slot. Distances are computed on
// demand and are identical to PairIndex.
type GridIndex struct {
	points     []geometry.Vector2D
	radius     float64
	cellSize   float64
	grid       map[gridKey][]int
	neighbours [][]int
}

// NewGridIndex returns an empty GridIndex.
func NewGridIndex() *GridIndex {
	return &GridIndex{grid: make(map[gridKey][]int)}
}

func (g *GridIndex) Refresh(points []geometry.Vector2D, radius float64) {
	g.radius = sanitizeRadius(radius)
	g.cellSize = math.Max(g.radius, minCellSize)
	g.points = append(g.points[:0], points...)

	// keep slice capacity per cell, most cells are reused tick after tick
	for k := range g.grid {
		g.grid[k] = g.grid[k][:0]
	}
	for i, p := range g.points {
		key := g.cellOf(p)
		g.grid[key] = append(g.grid[key], i)
	}

	n := len(g.points)
	if cap(g.neighbours) >= n {
		g.neighbours = g.neighbours[:n]
	} else {
		g.neighbours = make([][]int, n)
	}
	for i := range g.points {
		g.neighbours[i] = g.scan(i, g.neighbours[i][:0])
	}
}

func (g *GridIndex) cellOf(p geometry.Vector2D) gridKey {
	return gridKey{
		x: int(math.Floor(p.X / g.cellSize)),
		y: int(math.Floor(p.Y / g.cellSize)),
	}
}

// scan collects every slot of the 3x3 block around i closer than the radius.
func (g *GridIndex) scan(i int, list []int) []int {
	center := g.cellOf(g.points[i])
	for x := center.x - 1; x <= center.x+1; x++ {
		for y := center.y - 1; y <= center.y+1; y++ {
			for _, j := range g.grid[gridKey{x: x, y: y}] {
				if j != i && distance(g.points, i, j) < g.radius {
					list = append(list, j)
				}
			}
		}
	}
	slices.Sort(list)
	return list
}

func (g *GridIndex) Len() int { return len(g.points) }

func (g *GridIndex) Distance(i, j int) float64 {
	checkSlot(i, len(g.points))
	checkSlot(j, len(g.points))
	return distance(g.points, i, j)
}

func (g *GridIndex) Neighbours(i int, maxDistance float64) []int {
	checkSlot(i, len(g.points))
	var result []int
	for _, j := range g.neighbours[i] {
		if distance(g.points, i, j) <= maxDistance {
			result = append(result, j)
		}
	}
	return result
}
