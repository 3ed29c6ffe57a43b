package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	barHeight   = 10
	labelHeight = 16
)

// Slider maps a horizontal drag on its bar to a value in [Min, Max]. A drag
// that starts on the bar keeps control until the button is released. Its
// owner draws the label.
type Slider struct {
	Value    float64
	Min, Max float64

	// OnChange runs after a drag moved the value.
	OnChange func(value float64)

	x, y, w  float64
	dragging bool
}

// NewSlider creates a slider with the value clamped into range.
func NewSlider(min, max, value float64) *Slider {
	s := &Slider{Min: min, Max: max}
	s.Value = s.clamp(value)
	return s
}

func (s *Slider) clamp(v float64) float64 {
	return max(s.Min, min(v, s.Max))
}

// valueAt maps a cursor x coordinate to a slider value.
func (s *Slider) valueAt(mx float64) float64 {
	if s.w <= 0 {
		return s.Min
	}
	return s.clamp(s.Min + (mx-s.x)/s.w*(s.Max-s.Min))
}

func (s *Slider) ratio() float64 {
	if s.Max <= s.Min {
		return 0
	}
	return (s.Value - s.Min) / (s.Max - s.Min)
}

func (s *Slider) barY() float64 { return s.y + labelHeight }

func (s *Slider) place(x, y, width float64) { s.x, s.y, s.w = x, y, width }

func (s *Slider) Update() {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && hit(s.x, s.barY(), s.w, barHeight) {
		s.dragging = true
	}
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		s.dragging = false
	}
	if !s.dragging {
		return
	}
	cx, _ := ebiten.CursorPosition()
	if v := s.valueAt(float64(cx)); v != s.Value {
		s.Value = v
		if s.OnChange != nil {
			s.OnChange(v)
		}
	}
}

func drawBar(screen *ebiten.Image, x, y, w, ratio float64) {
	vector.FillRect(screen, float32(x), float32(y), float32(w), barHeight, trackColor, true)
	vector.FillRect(screen, float32(x), float32(y), float32(w*ratio), barHeight, fillColor, true)
}
