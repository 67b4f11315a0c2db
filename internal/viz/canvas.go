package viz

import (
	"strings"

	"github.com/san-kum/lcpsim/internal/geometry"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Pixels returns the canvas size in sub-pixels.
func (c *Canvas) Pixels() (int, int) {
	return c.Width * 2, c.Height * 4
}

// Set lights the sub-pixel (x, y); y grows downward.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the sub-pixel (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 {
		return false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return false
	}
	return c.Grid[row][col]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawDisc fills a disc of radius r sub-pixels.
func (c *Canvas) DrawDisc(cx, cy, r int) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				c.Set(cx+x, cy+y)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Viewport maps world coordinates onto a canvas with equal scale on both axes.
type Viewport struct {
	CenterX, CenterY float64
	Scale            float64 // sub-pixels per world unit
	canvas           *Canvas
}

// NewViewport fits span world units across the canvas width.
func NewViewport(c *Canvas, cx, cy, span float64) *Viewport {
	w, _ := c.Pixels()
	return &Viewport{CenterX: cx, CenterY: cy, Scale: float64(w) / span, canvas: c}
}

func (v *Viewport) Project(x, y float64) (int, int) {
	w, h := v.canvas.Pixels()
	px := float64(w)/2 + (x-v.CenterX)*v.Scale
	py := float64(h)/2 - (y-v.CenterY)*v.Scale
	return int(px), int(py)
}

// Unproject returns the world point at the center of sub-pixel (px, py).
func (v *Viewport) Unproject(px, py int) (float64, float64) {
	w, h := v.canvas.Pixels()
	x := v.CenterX + (float64(px)+0.5-float64(w)/2)/v.Scale
	y := v.CenterY - (float64(py)+0.5-float64(h)/2)/v.Scale
	return x, y
}

func (v *Viewport) Segment(x0, y0, x1, y1 float64) {
	a, b := v.Project(x0, y0)
	c, d := v.Project(x1, y1)
	v.canvas.DrawLine(a, b, c, d)
}

func (v *Viewport) Disc(x, y float64, r int) {
	px, py := v.Project(x, y)
	v.canvas.DrawDisc(px, py, r)
}

// Fill outlines the set of world points where solid holds and hatches its
// interior.
func (v *Viewport) Fill(solid func(x, y float64) bool) {
	w, h := v.canvas.Pixels()
	inside := func(px, py int) bool {
		return solid(v.Unproject(px, py))
	}
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			if !inside(px, py) {
				continue
			}
			edge := !inside(px-1, py) || !inside(px+1, py) || !inside(px, py-1) || !inside(px, py+1)
			if edge || (px+py)%6 == 0 {
				v.canvas.Set(px, py)
			}
		}
	}
}

// Polyhedron fills p.
func (v *Viewport) Polyhedron(p geometry.Polyhedron) {
	v.Fill(func(x, y float64) bool {
		ok, err := p.Contains([]float64{x, y}, 0)
		return err == nil && ok
	})
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
