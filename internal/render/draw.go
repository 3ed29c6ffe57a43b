package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/simulation"
)

// whiteImage is the texture for DrawTriangles; vertex colours tint it.
var whiteImage = ebiten.NewImage(3, 3)

func init() {
	whiteImage.Fill(color.White)
}

var (
	stateColors = map[simulation.State]color.RGBA{
		simulation.Flying:   {R: 250, G: 250, B: 250, A: 255},
		simulation.Landing:  {R: 150, G: 220, B: 255, A: 255},
		simulation.Landed:   {R: 60, G: 140, B: 255, A: 255},
		simulation.Sleeping: {R: 120, G: 90, B: 200, A: 255},
		simulation.Dying:    {R: 90, G: 90, B: 90, A: 255},
		simulation.Hungry:   {R: 255, G: 140, B: 40, A: 255},
		simulation.Feeding:  {R: 90, G: 220, B: 90, A: 255},
	}
	leaderColor    = color.RGBA{R: 255, G: 220, B: 0, A: 255}
	groundColor    = color.RGBA{R: 70, G: 120, B: 50, A: 255}
	obstacleColor  = color.RGBA{R: 110, G: 100, B: 90, A: 255}
	flowerColor    = color.RGBA{R: 240, G: 80, B: 160, A: 255}
	seedlingColor  = color.RGBA{R: 130, G: 200, B: 110, A: 255}
	nectarColor    = color.RGBA{R: 255, G: 200, B: 60, A: 160}
	entranceColor  = color.RGBA{R: 80, G: 160, B: 255, A: 255}
	exitOpenColor  = color.RGBA{R: 80, G: 255, B: 120, A: 255}
	exitShutColor  = color.RGBA{R: 255, G: 70, B: 70, A: 255}
	attractorColor = color.RGBA{R: 255, G: 255, B: 255, A: 60}
)

func skyColor(p simulation.Phase, running bool) color.RGBA {
	if !running {
		return color.RGBA{R: 40, G: 70, B: 110, A: 255}
	}
	switch p {
	case simulation.Sunset:
		return color.RGBA{R: 120, G: 60, B: 60, A: 255}
	case simulation.Nighttime:
		return color.RGBA{R: 10, G: 10, B: 30, A: 255}
	case simulation.Sunrise:
		return color.RGBA{R: 110, G: 80, B: 90, A: 255}
	default:
		return color.RGBA{R: 40, G: 70, B: 110, A: 255}
	}
}

func (g *Game) drawScenery(screen *ebiten.Image, s *simulation.Snapshot) {
	lv := s.Level
	width := float32(g.cfg.World.Width)

	// landing zone
	top := float32(lv.LandingZoneTop)
	vector.FillRect(screen, 0, top, width, float32(g.cfg.World.Height)-top, groundColor, false)

	for _, o := range lv.Obstacles {
		vector.FillCircle(screen, float32(o.Location.X), float32(o.Location.Y), float32(o.Radius), obstacleColor, true)
	}
	if g.showMarkers.Value {
		for _, a := range lv.Attractors {
			vector.StrokeCircle(screen, float32(a.Location.X), float32(a.Location.Y), float32(a.Distance), 1, attractorColor, true)
		}
	}

	for _, f := range lv.Flowers {
		clr, r := seedlingColor, float32(3)
		if f.Adult {
			clr, r = flowerColor, 6
		}
		vector.FillCircle(screen, float32(f.Location.X), float32(f.Location.Y), r, clr, true)
	}
	for _, fs := range lv.FoodSources {
		x, y := float32(fs.Location.X), float32(fs.Location.Y)
		if g.showRanges.Value {
			vector.StrokeCircle(screen, x, y, float32(fs.Radius), 1, nectarColor, true)
		}
		vector.FillCircle(screen, x, y, float32(fs.Radius*fs.Fraction*0.5), nectarColor, true)
	}

	gateRadius := float32(g.cfg.World.GateRadius)
	if lv.EntranceGate != nil {
		vector.StrokeCircle(screen, float32(lv.EntranceGate.X), float32(lv.EntranceGate.Y), gateRadius, 2, entranceColor, true)
	}
	if lv.ExitGate != nil {
		clr := exitShutColor
		if lv.ExitOpen {
			clr = exitOpenColor
		}
		vector.StrokeCircle(screen, float32(lv.ExitGate.X), float32(lv.ExitGate.Y), gateRadius, 2, clr, true)
	}
}

// boidTriangle returns the three corners of a boid pointing along vel.
func boidTriangle(pos, vel geometry.Vector2D, size float64) [3]geometry.Vector2D {
	angle := math.Atan2(vel.Y, vel.X)
	return [3]geometry.Vector2D{
		{X: pos.X + math.Cos(angle)*size, Y: pos.Y + math.Sin(angle)*size},
		{X: pos.X + math.Cos(angle+2.5)*size*0.8, Y: pos.Y + math.Sin(angle+2.5)*size*0.8},
		{X: pos.X + math.Cos(angle-2.5)*size*0.8, Y: pos.Y + math.Sin(angle-2.5)*size*0.8},
	}
}

// drawBoids batches every boid into a single DrawTriangles call.
func drawBoids(screen *ebiten.Image, boids []simulation.BoidView) {
	if len(boids) == 0 {
		return
	}
	vertices := make([]ebiten.Vertex, 0, 3*len(boids))
	indices := make([]uint16, 0, 3*len(boids))

	for _, b := range boids {
		clr, size := stateColors[b.State], 6.0
		if !b.Adult {
			size = 4
		}
		if b.Leader {
			clr, size = leaderColor, 9
		}
		r, g, bl, a := float32(clr.R)/255, float32(clr.G)/255, float32(clr.B)/255, float32(clr.A)/255

		base := uint16(len(vertices))
		for _, p := range boidTriangle(b.Pos, b.Vel, size) {
			vertices = append(vertices, ebiten.Vertex{
				DstX: float32(p.X), DstY: float32(p.Y),
				SrcX: 1, SrcY: 1,
				ColorR: r, ColorG: g, ColorB: bl, ColorA: a,
			})
		}
		indices = append(indices, base, base+1, base+2)
	}
	screen.DrawTriangles(vertices, indices, whiteImage, &ebiten.DrawTrianglesOptions{})
}

// drawStatsBar stacks the flock state counts in one bar at the top right.
func (g *Game) drawStatsBar(screen *ebiten.Image, s *simulation.Snapshot) {
	total := float32(len(s.Boids))
	if total == 0 {
		return
	}

	barWidth := float32(200.0)
	barHeight := float32(20.0)
	marginTop := float32(10.0)
	marginRight := float32(10.0)

	screenW := float32(screen.Bounds().Dx())
	x := screenW - barWidth - marginRight
	y := marginTop

	counts := s.StateCounts()
	offset := x
	for _, st := range simulation.AllStates() {
		n := counts[st]
		if n == 0 {
			continue
		}
		w := barWidth * float32(n) / total
		vector.FillRect(screen, offset, y, w, barHeight, stateColors[st], true)
		offset += w
	}

	msg := fmt.Sprintf("%d in flock", len(s.Boids))
	ebitenutil.DebugPrintAt(screen, msg, int(x), int(y+barHeight+5))
}
