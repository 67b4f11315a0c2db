package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/lcpsim/internal/geometry"
	"github.com/san-kum/lcpsim/internal/lcp"
	"github.com/san-kum/lcpsim/internal/viz"
)

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.Pixels()
	width, height := float64(w)*scale, float64(h)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	dotRadius := scale * 0.4
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			if canvas.IsSet(px, py) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					(float64(px)+0.5)*scale, (float64(py)+0.5)*scale, dotRadius)
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

type bounds struct{ minX, maxX, minY, maxY float64 }

func (b bounds) project(x, y float64, width, height int) (float64, float64) {
	return (x - b.minX) / (b.maxX - b.minX) * float64(width),
		float64(height) - (y-b.minY)/(b.maxY-b.minY)*float64(height)
}

func trajectoryBounds(traj []lcp.Solved) bounds {
	b := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for _, u := range traj {
		b.minX, b.maxX = min(b.minX, u.Q[lcp.X]), max(b.maxX, u.Q[lcp.X])
		b.minY = min(b.minY, u.Q[lcp.Z])
		b.maxY = max(b.maxY, u.Q[lcp.Y])
	}
	// Keep the aspect ratio square so the leg stays vertical.
	size := max(b.maxX-b.minX, b.maxY-b.minY, 0.5) * 1.2
	cx, cy := (b.minX+b.maxX)/2, (b.minY+b.maxY)/2
	return bounds{cx - size/2, cx + size/2, cy - size/2, cy + size/2}
}

// clip returns the segment of the line Normal·p = Offset inside b.
func (b bounds) clip(h geometry.HalfSpace) (x0, y0, x1, y1 float64, ok bool) {
	nx, ny, c := h.Normal[0], h.Normal[1], h.Offset
	var pts [][2]float64
	if ny != 0 {
		for _, x := range []float64{b.minX, b.maxX} {
			if y := (c - nx*x) / ny; y >= b.minY && y <= b.maxY {
				pts = append(pts, [2]float64{x, y})
			}
		}
	}
	if nx != 0 {
		for _, y := range []float64{b.minY, b.maxY} {
			if x := (c - ny*y) / nx; x >= b.minX && x <= b.maxX {
				pts = append(pts, [2]float64{x, y})
			}
		}
	}
	if len(pts) < 2 {
		return 0, 0, 0, 0, false
	}
	return pts[0][0], pts[0][1], pts[len(pts)-1][0], pts[len(pts)-1][1], true
}

func polyline(sb *strings.Builder, pts [][2]float64, stroke string) {
	sb.WriteString(`<path fill="none" stroke="` + stroke + `" stroke-width="1.5" d="M`)
	for i, p := range pts {
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(sb, "%.1f,%.1f", p[0], p[1])
	}
	sb.WriteString("\"/>\n")
}

// TrajectoryToSVG draws the obstacle faces, the body path, the foot path and
// a dot at every step where a contact carries a normal impulse.
func TrajectoryToSVG(traj []lcp.Solved, env lcp.Environment, width, height int) string {
	if len(traj) < 2 {
		return ""
	}
	b := trajectoryBounds(traj)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for _, o := range env.Obstacles {
		x0, y0, x1, y1, ok := b.clip(o.Face)
		if !ok {
			continue
		}
		a, c := b.project(x0, y0, width, height)
		d, e := b.project(x1, y1, width, height)
		fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"#888888\" stroke-width=\"2\"/>\n", a, c, d, e)
	}

	body := make([][2]float64, len(traj))
	foot := make([][2]float64, len(traj))
	for i, u := range traj {
		body[i][0], body[i][1] = b.project(u.Q[lcp.X], u.Q[lcp.Y], width, height)
		foot[i][0], foot[i][1] = b.project(u.Q[lcp.X], u.Q[lcp.Z], width, height)
	}
	polyline(&sb, body, "#00ccff")
	polyline(&sb, foot, "#ffaa00")

	for i, u := range traj {
		for _, c := range u.Contacts {
			if c.Cn > 1e-9 {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"#ff4444\"/>\n", foot[i][0], foot[i][1])
				break
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}
