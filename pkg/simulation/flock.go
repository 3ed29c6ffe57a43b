package simulation

import (
	"fmt"
	"slices"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/spatial"
)

// Flock owns the boids of one level and the leader handle.
// The leader, when set, is always a member of boids.
type Flock struct {
	level  *Level
	boids  []*Boid
	leader AgentID

	index   spatial.Index
	indexed []*Boid // boids in index slot order, as of the last refresh
	slots   map[AgentID]int
}

func newFlock(level *Level, index spatial.Index) *Flock {
	return &Flock{
		level: level,
		index: index,
		slots: make(map[AgentID]int),
	}
}

func (f *Flock) Level() *Level { return f.level }

// Boids returns a copy of the members in iteration order.
func (f *Flock) Boids() []*Boid {
	return slices.Clone(f.boids)
}

func (f *Flock) Len() int { return len(f.boids) }

// Get returns the member with id, or nil.
func (f *Flock) Get(id AgentID) *Boid {
	if id == 0 {
		return nil
	}
	for _, b := range f.boids {
		if b.id == id {
			return b
		}
	}
	return nil
}

// Leader returns the leading boid, or nil when the flock has none.
func (f *Flock) Leader() *Boid {
	if f.leader == 0 {
		return nil
	}
	b := f.Get(f.leader)
	if b == nil {
		panic(fmt.Sprintf("flock of %s: leader %d is not a member", f.level.Name, f.leader))
	}
	return b
}

// SetLeader hands leadership to b, which must be a member.
func (f *Flock) SetLeader(b *Boid) {
	if b == nil {
		f.leader = 0
		return
	}
	if b.flock != f || f.Get(b.id) == nil {
		panic(fmt.Sprintf("flock of %s: cannot lead with non-member %s", f.level.Name, b))
	}
	f.leader = b.id
}

// Add appends b and makes this flock its owner. b must not belong to another flock.
func (f *Flock) Add(b *Boid) {
	if b.flock != nil && b.flock != f {
		panic(fmt.Sprintf("%s already belongs to the flock of %s", b, b.flock.level.Name))
	}
	if f.Get(b.id) != nil {
		panic(fmt.Sprintf("%s added twice to the flock of %s", b, f.level.Name))
	}
	b.flock = f
	f.boids = append(f.boids, b)
}

// Remove detaches b. The caller is responsible for the leader handle.
func (f *Flock) Remove(b *Boid) {
	i := slices.Index(f.boids, b)
	if i < 0 || b.flock != f {
		panic(fmt.Sprintf("%s is not a member of the flock of %s", b, f.level.Name))
	}
	f.boids = slices.Delete(f.boids, i, i+1)
	b.flock = nil
}

// refresh rebuilds the spatial index for the current members.
func (f *Flock) refresh(radius float64) {
	f.indexed = append(f.indexed[:0], f.boids...)
	clear(f.slots)
	points := make([]geometry.Vector2D, len(f.indexed))
	for i, b := range f.indexed {
		points[i] = b.Pos
		f.slots[b.id] = i
	}
	f.index.Refresh(points, radius)
}

// Distance between two members as of the last refresh.
func (f *Flock) Distance(a, b *Boid) float64 {
	i, okA := f.slots[a.id]
	j, okB := f.slots[b.id]
	if !okA || !okB {
		return a.Pos.DistanceTo(b.Pos)
	}
	return f.index.Distance(i, j)
}

// Neighbours returns the other members within maxDistance of b as of the
// last refresh. With weighted set, a leader in range counts leader.weighting
// times. Boids that joined after the refresh have no neighbours yet.
func (f *Flock) Neighbours(b *Boid, maxDistance float64, weighted bool) []*Boid {
	slot, ok := f.slots[b.id]
	if !ok {
		return nil
	}
	ids := f.index.Neighbours(slot, maxDistance)
	out := make([]*Boid, 0, len(ids))
	for _, j := range ids {
		n := f.indexed[j]
		out = append(out, n)
		if weighted && n.id == f.leader {
			for k := 1; k < f.level.world.cfg.Leader.Weighting; k++ {
				out = append(out, n)
			}
		}
	}
	return out
}

// purge drops members that are no longer alive and reports whether the
// leader was among them.
func (f *Flock) purge() (leaderLost bool) {
	kept := f.boids[:0]
	for _, b := range f.boids {
		if b.alive {
			kept = append(kept, b)
			continue
		}
		if b.id == f.leader {
			f.leader = 0
			leaderLost = true
		}
		f.level.world.log.Debugf("%s died in %s", b, f.level.Name)
		b.flock = nil
	}
	clear(f.boids[len(kept):])
	f.boids = kept
	return leaderLost
}

// chooseLeader picks a leader uniformly at random, or none for an empty flock.
func (f *Flock) chooseLeader() *Boid {
	if len(f.boids) == 0 {
		f.leader = 0
		return nil
	}
	b := f.boids[f.level.world.rng.IntN(len(f.boids))]
	f.leader = b.id
	return b
}

// full reports whether the flock reached reproduction.max_flock.
func (f *Flock) full() bool {
	limit := f.level.world.cfg.Reproduction.MaxFlock
	return limit > 0 && len(f.boids) >= limit
}

// MakeBabies adds a random brood around location, cut short so the flock
// never grows past reproduction.max_flock.
func (f *Flock) MakeBabies(location geometry.Vector2D) []*Boid {
	w := f.level.world
	rc := w.cfg.Reproduction
	count := rc.MinBabies
	if rc.MaxBabies > rc.MinBabies {
		count += w.rng.IntN(rc.MaxBabies - rc.MinBabies + 1)
	}
	if rc.MaxFlock > 0 {
		count = max(0, min(count, rc.MaxFlock-len(f.boids)))
	}

	babies := make([]*Boid, 0, count)
	for range count {
		offset := geometry.NewVector(
			(w.rng.Float64()*2-1)*rc.MaxBabyDistance,
			(w.rng.Float64()*2-1)*rc.MaxBabyDistance,
		)
		baby := w.newBoid(location.Add(offset), rc.BabyVelocity, w.randomSex(), 0)
		f.Add(baby)
		babies = append(babies, baby)
	}
	w.log.Debugf("%d babies born in %s", len(babies), f.level.Name)
	return babies
}
