package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const boxSize = 14

// Checkbox toggles on a click on its box or its label.
type Checkbox struct {
	Label string
	Value bool

	// OnChange runs after every toggle.
	OnChange func(value bool)

	x, y, w float64
}

func NewCheckbox(label string, value bool) *Checkbox {
	return &Checkbox{Label: label, Value: value}
}

func (c *Checkbox) Height() float64 { return boxSize + 8 }

func (c *Checkbox) place(x, y, width float64) { c.x, c.y, c.w = x, y, width }

func (c *Checkbox) Update() {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && hit(c.x, c.y, c.w, boxSize) {
		c.toggle()
	}
}

func (c *Checkbox) toggle() {
	c.Value = !c.Value
	if c.OnChange != nil {
		c.OnChange(c.Value)
	}
}

func (c *Checkbox) Draw(screen *ebiten.Image) {
	drawBox(screen, c.x, c.y, c.Value)
	ebitenutil.DebugPrintAt(screen, c.Label, int(c.x+boxSize+8), int(c.y))
}

func drawBox(screen *ebiten.Image, x, y float64, checked bool) {
	vector.StrokeRect(screen, float32(x), float32(y), boxSize, boxSize, 2, fillColor, true)
	if checked {
		vector.FillRect(screen, float32(x+3), float32(y+3), boxSize-6, boxSize-6, checkedColor, true)
	}
}
