package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const buttonHeight = 20

var (
	buttonColor = color.RGBA{R: 80, G: 120, B: 180, A: 255}
	hoverColor  = color.RGBA{R: 100, G: 150, B: 220, A: 255}
)

// Button runs OnClick once per press.
type Button struct {
	Label   string
	OnClick func()

	x, y, w float64
}

func NewButton(label string, onClick func()) *Button {
	return &Button{Label: label, OnClick: onClick}
}

func (b *Button) Height() float64 { return buttonHeight + 6 }

func (b *Button) place(x, y, width float64) { b.x, b.y, b.w = x, y, width }

func (b *Button) Update() {
	if b.OnClick != nil && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && hit(b.x, b.y, b.w, buttonHeight) {
		b.OnClick()
	}
}

func (b *Button) Draw(screen *ebiten.Image) {
	bg := buttonColor
	if hit(b.x, b.y, b.w, buttonHeight) {
		bg = hoverColor
	}
	vector.FillRect(screen, float32(b.x), float32(b.y), float32(b.w), buttonHeight, bg, true)
	vector.StrokeRect(screen, float32(b.x), float32(b.y), float32(b.w), buttonHeight, 1, fillColor, true)
	ebitenutil.DebugPrintAt(screen, b.Label, int(b.x+8), int(b.y+3))
}
