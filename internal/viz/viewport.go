package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// ShiftSpeed is one pan step in viewport widths.
	ShiftSpeed = 0.02
	// ZoomFactor scales the viewport per zoom step.
	ZoomFactor = 1.1
)

// Viewport is the window of world space shown on screen. Screen y grows
// downward, same as world y.
type Viewport struct {
	TopLeft r2.Vec
	Dims    r2.Vec
}

func NewViewport(topLeft, dims r2.Vec) Viewport {
	return Viewport{TopLeft: topLeft, Dims: dims}
}

// Fit returns a viewport that shows box with a margin on every side and the
// aspect ratio of a screenW x screenH screen.
func Fit(box r2.Box, margin float64, screenW, screenH int) Viewport {
	w := box.Max.X - box.Min.X + 2*margin
	h := box.Max.Y - box.Min.Y + 2*margin
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	aspect := float64(screenW) / float64(screenH)
	if w/h < aspect {
		w = h * aspect
	} else {
		h = w / aspect
	}
	center := box.Center()
	return Viewport{
		TopLeft: r2.Vec{X: center.X - w/2, Y: center.Y - h/2},
		Dims:    r2.Vec{X: w, Y: h},
	}
}

// Shift pans by disp, measured in units of the larger viewport dimension.
func (v *Viewport) Shift(disp r2.Vec) {
	v.TopLeft = r2.Add(v.TopLeft, r2.Scale(math.Max(v.Dims.X, v.Dims.Y), disp))
}

// Zoom scales the viewport about its center; factor > 1 zooms out.
func (v *Viewport) Zoom(factor float64) {
	v.TopLeft = r2.Sub(v.TopLeft, r2.Scale((factor-1)/2, v.Dims))
	v.Dims = r2.Scale(factor, v.Dims)
}

// Refit keeps the world scale when the screen is resized, growing or
// shrinking the viewport about its center.
func (v *Viewport) Refit(oldW, oldH, newW, newH int) {
	sx := float64(newW) / float64(oldW)
	sy := float64(newH) / float64(oldH)
	v.TopLeft = r2.Sub(v.TopLeft, r2.Vec{X: v.Dims.X * (sx - 1) / 2, Y: v.Dims.Y * (sy - 1) / 2})
	v.Dims = r2.Vec{X: v.Dims.X * sx, Y: v.Dims.Y * sy}
}

// PixelsPerMeter is the horizontal scale for a screen screenW pixels wide.
func (v Viewport) PixelsPerMeter(screenW int) float64 {
	return float64(screenW) / v.Dims.X
}

func (v Viewport) WorldToScreen(p r2.Vec, screenW int) r2.Vec {
	return r2.Scale(v.PixelsPerMeter(screenW), r2.Sub(p, v.TopLeft))
}

func (v Viewport) ScreenToWorld(p r2.Vec, screenW int) r2.Vec {
	return r2.Add(v.TopLeft, r2.Scale(1/v.PixelsPerMeter(screenW), p))
}

// Contains reports whether p lies inside the viewport grown by margin.
func (v Viewport) Contains(p r2.Vec, margin float64) bool {
	return p.X >= v.TopLeft.X-margin && p.X <= v.TopLeft.X+v.Dims.X+margin &&
		p.Y >= v.TopLeft.Y-margin && p.Y <= v.TopLeft.Y+v.Dims.Y+margin
}

// Box returns the viewport as an r2.Box.
func (v Viewport) Box() r2.Box {
	return r2.Box{Min: v.TopLeft, Max: r2.Add(v.TopLeft, v.Dims)}
}

// ClipSegment clips the world segment a-b to the viewport (Liang-Barsky).
// ok is false when no part of the segment is visible.
func (v Viewport) ClipSegment(a, b r2.Vec) (r2.Vec, r2.Vec, bool) {
	d := r2.Sub(b, a)
	t0, t1 := 0.0, 1.0
	minX, maxX := v.TopLeft.X, v.TopLeft.X+v.Dims.X
	minY, maxY := v.TopLeft.Y, v.TopLeft.Y+v.Dims.Y

	edges := [4][2]float64{
		{-d.X, a.X - minX},
		{d.X, maxX - a.X},
		{-d.Y, a.Y - minY},
		{d.Y, maxY - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return a, b, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return a, b, false
			}
			t1 = math.Min(t1, r)
		}
	}
	return r2.Add(a, r2.Scale(t0, d)), r2.Add(a, r2.Scale(t1, d)), true
}
