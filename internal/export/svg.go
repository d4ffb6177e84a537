package export

import (
	"fmt"
	"html"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/springnet/internal/physics"
	"github.com/san-kum/springnet/internal/sim"
	"github.com/san-kum/springnet/internal/viz"
)

const (
	background  = "#1e1e1e"
	springColor = "#8c8c8c"
	labelColor  = "#dddddd"
)

func header(sb *strings.Builder, width, height int) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))
}

// LayoutToSVG draws the current state of sys as seen through vp on a
// width x height image. Springs get a stroke that grows with stiffness,
// locked bodies get a ring, and labelled bodies get their label.
func LayoutToSVG(sys *physics.System, vp viz.Viewport, width, height int) string {
	var sb strings.Builder
	header(&sb, width, height)

	ppm := vp.PixelsPerMeter(width)
	bodies := sys.Bodies()

	sb.WriteString(fmt.Sprintf("<g stroke=\"%s\" stroke-linecap=\"round\">\n", springColor))
	for _, sp := range sys.Springs() {
		a, b, ok := vp.ClipSegment(bodies[sp.A].Position, bodies[sp.B].Position)
		if !ok {
			continue
		}
		pa, pb := vp.WorldToScreen(a, width), vp.WorldToScreen(b, width)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke-width="%.0f"/>
`, pa.X, pa.Y, pb.X, pb.Y, viz.SpringWidth(sp.K, ppm)))
	}
	sb.WriteString("</g>\n")

	for i := range bodies {
		b := &bodies[i]
		if !vp.Contains(b.Position, b.Radius) {
			continue
		}
		p := vp.WorldToScreen(b.Position, width)
		r := b.Radius * ppm
		hex := b.Color.Clamped().Hex()
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, p.X, p.Y, r, hex))
		if b.Locked {
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s" stroke-width="1"/>
`, p.X, p.Y, r+viz.LockRingOffset, hex))
		}
		if b.Label != "" {
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" fill="%s" font-size="10" font-family="monospace">%s</text>
`, p.X+r+2, p.Y-r-2, labelColor, html.EscapeString(b.Label)))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// Paths turns sampled frames into one position path per body.
func Paths(frames []sim.Frame) [][]r2.Vec {
	if len(frames) == 0 {
		return nil
	}
	paths := make([][]r2.Vec, len(frames[0].Positions))
	for _, f := range frames {
		for i, p := range f.Positions {
			if i < len(paths) {
				paths[i] = append(paths[i], p)
			}
		}
	}
	return paths
}

// BodyColors returns the hex color of every body in sys.
func BodyColors(sys *physics.System) []string {
	colors := make([]string, sys.Len())
	for i, b := range sys.Bodies() {
		colors[i] = b.Color.Clamped().Hex()
	}
	return colors
}

// TrajectoryToSVG draws every path scaled to fit a width x height image.
// colors[i] strokes paths[i]; missing colors fall back to white. Paths with
// fewer than two points are skipped.
func TrajectoryToSVG(paths [][]r2.Vec, colors []string, width, height int) string {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, path := range paths {
		for _, p := range path {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}

	var sb strings.Builder
	header(&sb, width, height)
	if math.IsInf(minX, 1) {
		sb.WriteString("</svg>")
		return sb.String()
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	for i, path := range paths {
		if len(path) < 2 {
			continue
		}
		stroke := "#ffffff"
		if i < len(colors) && colors[i] != "" {
			stroke = colors[i]
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
		for j, p := range path {
			x := (p.X - minX) / rangeX * float64(width)
			y := (p.Y - minY) / rangeY * float64(height)
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// WriteFile writes an SVG document to path.
func WriteFile(path, svg string) error {
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return fmt.Errorf("failed to write svg: %w", err)
	}
	return nil
}
