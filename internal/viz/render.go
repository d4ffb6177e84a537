package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/springnet/internal/physics"
)

// LockRingOffset is how far outside a locked body its ring is drawn, in pixels.
const LockRingOffset = 3.0

// SpringWidth is the stroke width of a spring with stiffness k at the given
// pixels-per-meter scale.
func SpringWidth(k, ppm float64) float64 {
	return math.Max(2, math.Round(k*ppm/60))
}

// DrawSystem draws every visible spring and body of sys onto c through vp.
// Springs are drawn first so bodies sit on top.
func DrawSystem(c *Canvas, sys *physics.System, vp Viewport, springColor string) {
	w := c.PixelWidth()
	ppm := vp.PixelsPerMeter(w)
	bodies := sys.Bodies()

	for _, sp := range sys.Springs() {
		a, b, ok := vp.ClipSegment(bodies[sp.A].Position, bodies[sp.B].Position)
		if !ok {
			continue
		}
		pa, pb := vp.WorldToScreen(a, w), vp.WorldToScreen(b, w)
		c.DrawLineColor(round(pa.X), round(pa.Y), round(pb.X), round(pb.Y), springColor)
	}

	for i := range bodies {
		b := &bodies[i]
		if !vp.Contains(b.Position, b.Radius) {
			continue
		}
		p := vp.WorldToScreen(b.Position, w)
		x, y := round(p.X), round(p.Y)
		r := b.Radius * ppm
		hex := b.Color.Clamped().Hex()
		c.FillCircle(x, y, r, hex)
		if b.Locked {
			c.DrawCircle(x, y, r+LockRingOffset, hex)
		}
	}
}

// CanvasToWorld maps a terminal cell to the world point under the center of
// that cell.
func CanvasToWorld(col, row int, c *Canvas, vp Viewport) r2.Vec {
	px := r2.Vec{X: float64(col*2 + 1), Y: float64(row*4 + 2)}
	return vp.ScreenToWorld(px, c.PixelWidth())
}

func round(v float64) int {
	return int(math.Round(v))
}
