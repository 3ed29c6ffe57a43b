package spatial

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"
)

func randomPoints(n int, seed uint64) []geometry.Vector2D {
	r := rand.New(rand.NewPCG(seed, seed))
	points := make([]geometry.Vector2D, n)
	for i := range points {
		points[i] = geometry.NewVector(r.Float64()*1800, r.Float64()*1000)
	}
	return points
}

func implementations() map[string]func() Index {
	return map[string]func() Index{
		"pairs": func() Index { return NewPairIndex() },
		"grid":  func() Index { return NewGridIndex() },
	}
}

func TestIndex_Symmetry(t *testing.T) {
	points := randomPoints(60, 7)
	for name, mk := range implementations() {
		t.Run(name, func(t *testing.T) {
			idx := mk()
			idx.Refresh(points, 200)
			for _, d := range []float64{0, 30, 50, 120, 200, 500} {
				for a := 0; a < idx.Len(); a++ {
					for b := 0; b < idx.Len(); b++ {
						if idx.Distance(a, b) != idx.Distance(b, a) {
							t.Fatalf("Distance(%d,%d) = %v; Distance(%d,%d) = %v", a, b, idx.Distance(a, b), b, a, idx.Distance(b, a))
						}
						ab := slices.Contains(idx.Neighbours(a, d), b)
						ba := slices.Contains(idx.Neighbours(b, d), a)
						if ab != ba {
							t.Fatalf("d=%v: %d in Neighbours(%d) = %v but %d in Neighbours(%d) = %v", d, b, a, ab, a, b, ba)
						}
					}
				}
			}
		})
	}
}

func TestIndex_Neighbours(t *testing.T) {
	points := []geometry.Vector2D{
		geometry.NewVector(0, 0),
		geometry.NewVector(30, 40),   // 50 from slot 0
		geometry.NewVector(100, 0),   // 100 from slot 0
		geometry.NewVector(0, 300),   // beyond the refresh radius
		geometry.NewVector(-60, -80), // 100 from slot 0, other side
	}
	tests := []struct {
		name string
		slot int
		max  float64
		want []int
	}{
		{"Within 50 inclusive", 0, 50, []int{1}},
		{"Within 100 inclusive", 0, 100, []int{1, 2, 4}},
		{"Bounded by refresh radius", 0, 1000, []int{1, 2, 4}},
		{"Zero distance", 0, 0, nil},
		{"Far slot sees nobody", 3, 1000, nil},
	}
	for name, mk := range implementations() {
		idx := mk()
		idx.Refresh(points, 150)
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				got := idx.Neighbours(tt.slot, tt.max)
				if !slices.Equal(got, tt.want) {
					t.Errorf("Neighbours(%d, %v) = %v; want %v", tt.slot, tt.max, got, tt.want)
				}
			})
		}
	}
}

func TestIndex_SelfDistanceIsZero(t *testing.T) {
	points := randomPoints(10, 1)
	for name, mk := range implementations() {
		idx := mk()
		idx.Refresh(points, 100)
		for i := 0; i < idx.Len(); i++ {
			if got := idx.Distance(i, i); got != 0 {
				t.Errorf("%s: Distance(%d,%d) = %v; want 0", name, i, i, got)
			}
			if slices.Contains(idx.Neighbours(i, 1e9), i) {
				t.Errorf("%s: slot %d listed as its own neighbour", name, i)
			}
		}
	}
}

func TestGridIndex_AgreesWithPairIndex(t *testing.T) {
	for _, radius := range []float64{0, 5, 50, 200, 400} {
		points := randomPoints(80, uint64(radius)+3)
		pairs := NewPairIndex()
		grid := NewGridIndex()
		pairs.Refresh(points, radius)
		grid.Refresh(points, radius)

		for i := range points {
			for j := range points {
				if pairs.Distance(i, j) != grid.Distance(i, j) {
					t.Fatalf("radius %v: Distance(%d,%d) pairs = %v; grid = %v", radius, i, j, pairs.Distance(i, j), grid.Distance(i, j))
				}
			}
			for _, d := range []float64{10, 50, radius} {
				if p, g := pairs.Neighbours(i, d), grid.Neighbours(i, d); !slices.Equal(p, g) {
					t.Errorf("radius %v: Neighbours(%d, %v) pairs = %v; grid = %v", radius, i, d, p, g)
				}
			}
		}
	}
}

func TestIndex_RefreshReplacesPreviousData(t *testing.T) {
	for name, mk := range implementations() {
		idx := mk()
		idx.Refresh(randomPoints(40, 2), 300)
		small := []geometry.Vector2D{geometry.NewVector(0, 0), geometry.NewVector(10, 0)}
		idx.Refresh(small, 300)
		if idx.Len() != 2 {
			t.Errorf("%s: Len() = %d; want 2", name, idx.Len())
		}
		if got := idx.Neighbours(0, 300); !slices.Equal(got, []int{1}) {
			t.Errorf("%s: Neighbours(0) = %v; want [1]", name, got)
		}
	}
}

func TestNew(t *testing.T) {
	if _, err := New(KindPairs); err != nil {
		t.Errorf("New(pairs) error = %v", err)
	}
	if _, ok := mustNew(t, KindGrid).(*GridIndex); !ok {
		t.Error("New(grid) did not return a *GridIndex")
	}
	if _, err := New("octree"); err == nil {
		t.Error("New(octree) expected an error")
	}
}

func mustNew(t *testing.T, kind Kind) Index {
	t.Helper()
	idx, err := New(kind)
	if err != nil {
		t.Fatalf("New(%q) error = %v", kind, err)
	}
	return idx
}

func BenchmarkPairIndex_Refresh(b *testing.B) {
	points := randomPoints(100, 42)
	idx := NewPairIndex()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Refresh(points, 200)
	}
}

func BenchmarkGridIndex_Refresh(b *testing.B) {
	points := randomPoints(100, 42)
	idx := NewGridIndex()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Refresh(points, 200)
	}
}
