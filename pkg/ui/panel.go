// Package ui holds the few ebiten widgets the flock console needs: a
// scrolling panel of titled sections holding checkboxes, buttons and
// weight rows.
package ui

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	titleHeight   = 24
	headerHeight  = 22
	margin        = 10
	wheelStepSize = 20
)

// Widget is laid out by its panel before every Update and Draw.
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	Height() float64
	place(x, y, width float64)
}

var (
	panelColor   = color.RGBA{R: 40, G: 40, B: 45, A: 230}
	borderColor  = color.RGBA{R: 100, G: 100, B: 110, A: 255}
	headerColor  = color.RGBA{R: 60, G: 60, B: 70, A: 255}
	trackColor   = color.RGBA{R: 80, G: 80, B: 80, A: 255}
	fillColor    = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	checkedColor = color.RGBA{R: 100, G: 200, B: 100, A: 255}
)

// Section is a titled group of widgets.
type Section struct {
	Title   string
	widgets []Widget
}

func (s *Section) add(w Widget) { s.widgets = append(s.widgets, w) }

func (s *Section) Checkbox(label string, value bool) *Checkbox {
	w := NewCheckbox(label, value)
	s.add(w)
	return w
}

func (s *Section) Button(label string, onClick func()) *Button {
	w := NewButton(label, onClick)
	s.add(w)
	return w
}

// Weight adds a row that toggles a quantity on or off and tunes its weight.
func (s *Section) Weight(label string, active bool, max, weight float64) *WeightRow {
	w := NewWeightRow(label, active, max, weight)
	s.add(w)
	return w
}

func (s *Section) height() float64 {
	h := float64(headerHeight)
	for _, w := range s.widgets {
		h += w.Height()
	}
	return h
}

// Panel stacks sections vertically and scrolls with the mouse wheel when
// they do not fit.
type Panel struct {
	Title               string
	X, Y, Width, Height float64

	sections []*Section
	scroll   float64
}

func NewPanel(title string, x, y, width, height float64) *Panel {
	return &Panel{Title: title, X: x, Y: y, Width: width, Height: height}
}

// Section appends a new, empty section.
func (p *Panel) Section(title string) *Section {
	s := &Section{Title: title}
	p.sections = append(p.sections, s)
	return s
}

func (p *Panel) contentHeight() float64 {
	h := float64(titleHeight)
	for _, s := range p.sections {
		h += s.height()
	}
	return h
}

func (p *Panel) contains(x, y float64) bool {
	return x >= p.X && x <= p.X+p.Width && y >= p.Y && y <= p.Y+p.Height
}

// layout positions every widget for the current scroll offset.
func (p *Panel) layout() {
	y := p.Y + titleHeight - p.scroll
	for _, s := range p.sections {
		y += headerHeight
		for _, w := range s.widgets {
			w.place(p.X+margin, y, p.Width-2*margin)
			y += w.Height()
		}
	}
}

// Update scrolls, then lets the visible widgets handle the mouse.
func (p *Panel) Update() {
	cx, cy := ebiten.CursorPosition()
	if _, dy := ebiten.Wheel(); dy != 0 && p.contains(float64(cx), float64(cy)) {
		maxScroll := max(0, p.contentHeight()-p.Height+margin)
		p.scroll = max(0, min(p.scroll-dy*wheelStepSize, maxScroll))
	}

	p.layout()
	if !p.contains(float64(cx), float64(cy)) {
		return
	}
	for _, s := range p.sections {
		for _, w := range s.widgets {
			w.Update()
		}
	}
}

// Draw renders the panel clipped to its bounds.
func (p *Panel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), panelColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, borderColor, true)

	bounds := image.Rect(int(p.X), int(p.Y)+titleHeight, int(p.X+p.Width), int(p.Y+p.Height))
	clip := screen.SubImage(bounds).(*ebiten.Image)

	p.layout()
	y := p.Y + titleHeight - p.scroll
	for _, s := range p.sections {
		vector.FillRect(clip, float32(p.X+5), float32(y), float32(p.Width-10), headerHeight-4, headerColor, true)
		ebitenutil.DebugPrintAt(clip, s.Title, int(p.X+margin), int(y+1))
		y += s.height()
		for _, w := range s.widgets {
			w.Draw(clip)
		}
	}

	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+margin), int(p.Y+5))
}

// hit reports whether the cursor is inside the rectangle.
func hit(x, y, w, h float64) bool {
	cx, cy := ebiten.CursorPosition()
	mx, my := float64(cx), float64(cy)
	return mx >= x && mx <= x+w && my >= y && my <= y+h
}
