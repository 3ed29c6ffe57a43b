package ui

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// WeightRow is a checkbox and a weight slider for one named quantity,
// such as a steering force. The bar shows empty while the box is unchecked.
type WeightRow struct {
	Active *Checkbox
	Weight *Slider

	x, y, w float64
}

// NewWeightRow creates a row with a weight slider over [0, max].
func NewWeightRow(label string, active bool, max, weight float64) *WeightRow {
	return &WeightRow{
		Active: NewCheckbox(label, active),
		Weight: NewSlider(0, max, weight),
	}
}

func (r *WeightRow) Height() float64 { return labelHeight + barHeight + 8 }

func (r *WeightRow) place(x, y, width float64) {
	r.x, r.y, r.w = x, y, width
	r.Weight.place(x, y, width)
}

func (r *WeightRow) Update() {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && hit(r.x, r.y, boxSize, boxSize) {
		r.Active.toggle()
		return
	}
	r.Weight.Update()
}

func (r *WeightRow) Draw(screen *ebiten.Image) {
	drawBox(screen, r.x, r.y, r.Active.Value)
	ebitenutil.DebugPrintAt(screen, r.Active.Label, int(r.x+boxSize+8), int(r.y))
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.2f", r.Weight.Value), int(r.x+r.w-40), int(r.y))

	ratio := r.Weight.ratio()
	if !r.Active.Value {
		ratio = 0
	}
	drawBar(screen, r.x, r.Weight.barY(), r.w, ratio)
}
