package viz

import (
	"math"
	"strings"

	"github.com/san-kum/qrsim/internal/dynamo"
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

// Set lights the dot at (x, y) in sub-pixel coordinates. The canvas is
// (Width*2) x (Height*4) sub-pixels; anything outside is ignored.
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

// Dot draws a 2x2 marker centred on (x, y).
func (c *Canvas) Dot(x, y int) {
	c.Set(x, y)
	c.Set(x+1, y)
	c.Set(x, y+1)
	c.Set(x+1, y+1)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Viewport maps world coordinates onto canvas sub-pixels. Y grows upward in
// world space and downward on screen.
type Viewport struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// FitViewport returns a square viewport around every body in the world with
// a margin of pad (a fraction of the span) on each side.
func FitViewport(world dynamo.Snapshot, pad float64) Viewport {
	if len(world) == 0 {
		return Viewport{-1, 1, -1, 1}
	}
	v := Viewport{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for _, s := range world {
		v.MinX = math.Min(v.MinX, s.X)
		v.MaxX = math.Max(v.MaxX, s.X)
		v.MinY = math.Min(v.MinY, s.Y)
		v.MaxY = math.Max(v.MaxY, s.Y)
	}
	span := math.Max(v.MaxX-v.MinX, v.MaxY-v.MinY)
	if span == 0 {
		span = 1
	}
	cx, cy := (v.MinX+v.MaxX)/2, (v.MinY+v.MaxY)/2
	half := span * (0.5 + pad)
	return Viewport{cx - half, cx + half, cy - half, cy + half}
}

// Project converts a world point to sub-pixel coordinates on c.
func (v Viewport) Project(c *Canvas, x, y float64) (int, int) {
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	px := (x - v.MinX) / (v.MaxX - v.MinX) * w
	py := (v.MaxY - y) / (v.MaxY - v.MinY) * h
	return int(math.Round(px)), int(math.Round(py))
}

// Contains reports whether (x, y) lies inside the viewport.
func (v Viewport) Contains(x, y float64) bool {
	return x >= v.MinX && x <= v.MaxX && y >= v.MinY && y <= v.MaxY
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
