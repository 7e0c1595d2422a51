package svgscene

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"github.com/gmlewis/gpuraster/gpu"
)

// capture is a rasterx.Scanner that records the flattened polygons of each
// draw call instead of filling pixels.
type capture struct {
	contours [][]gpu.Point
	color    gpu.Color
	fillRule gpu.FillRule
	paths    []gpu.Path
}

var _ rasterx.Scanner = (*capture)(nil)

func toPoint(p fixed.Point26_6) gpu.Point {
	return gpu.Point{X: float32(p.X) / 64, Y: float32(p.Y) / 64}
}

func (c *capture) Start(a fixed.Point26_6) {
	c.contours = append(c.contours, []gpu.Point{toPoint(a)})
}

func (c *capture) Line(b fixed.Point26_6) {
	n := len(c.contours)
	if n == 0 {
		c.Start(b)
		return
	}
	c.contours[n-1] = append(c.contours[n-1], toPoint(b))
}

func (c *capture) Draw() {
	var contours [][]gpu.Point
	for _, ct := range c.contours {
		if len(ct) >= 3 {
			contours = append(contours, ct)
		}
	}
	if len(contours) > 0 {
		c.paths = append(c.paths, gpu.Path{Contours: contours, Color: c.color, FillRule: c.fillRule})
	}
	c.contours = nil
}

func (c *capture) GetPathExtent() fixed.Rectangle26_6 {
	var r fixed.Rectangle26_6
	first := true
	for _, ct := range c.contours {
		for _, p := range ct {
			fp := fixed.Point26_6{X: fixed.Int26_6(p.X * 64), Y: fixed.Int26_6(p.Y * 64)}
			if first {
				r = fixed.Rectangle26_6{Min: fp, Max: fp}
				first = false
				continue
			}
			r.Min.X = min(r.Min.X, fp.X)
			r.Min.Y = min(r.Min.Y, fp.Y)
			r.Max.X = max(r.Max.X, fp.X)
			r.Max.Y = max(r.Max.Y, fp.Y)
		}
	}
	return r
}

func (c *capture) SetBounds(w, h int)           {}
func (c *capture) SetClip(rect image.Rectangle) {}

func (c *capture) SetWinding(useNonZeroWinding bool) {
	c.fillRule = gpu.EvenOdd
	if useNonZeroWinding {
		c.fillRule = gpu.NonZero
	}
}

// SetColor accepts a color.Color or a rasterx.ColorFunc. Gradients are
// reduced to the color at the centre of the current path.
func (c *capture) SetColor(clr interface{}) {
	switch v := clr.(type) {
	case color.Color:
		c.color = gpu.ColorFrom(v)
	case rasterx.ColorFunc:
		e := c.GetPathExtent()
		x := int((e.Min.X + e.Max.X) / 128)
		y := int((e.Min.Y + e.Max.Y) / 128)
		c.color = gpu.ColorFrom(v(x, y))
	}
}

func (c *capture) Clear() {
	c.contours = nil
}

// matrix converts a 2D homogeneous mgl32 transform to a rasterx matrix.
func matrix(m mgl32.Mat3) rasterx.Matrix2D {
	return rasterx.Matrix2D{
		A: float64(m[0]), B: float64(m[1]),
		C: float64(m[3]), D: float64(m[4]),
		E: float64(m[6]), F: float64(m[7]),
	}
}

// dilate moves every vertex of the closed polygon c outward by d, mitered
// at corners.
func dilate(c []gpu.Point, d mgl32.Vec2) {
	n := len(c)
	if n < 3 || d == (mgl32.Vec2{}) {
		return
	}
	var area float32
	for i := range c {
		j := (i + 1) % n
		area += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	sign := float32(1)
	if area < 0 {
		sign = -1
	}
	out := make([]gpu.Point, n)
	for i, p := range c {
		n0 := edgeNormal(c[(i+n-1)%n], p)
		n1 := edgeNormal(p, c[(i+1)%n])
		m := n0.Add(n1)
		if l := m.Len(); l > 0 {
			m = m.Mul(1 / l)
		}
		ref := n0
		if ref == (mgl32.Vec2{}) {
			ref = n1
		}
		// Limit the miter at sharp corners.
		if dot := m.Dot(ref); dot > 0.25 {
			m = m.Mul(1 / dot)
		} else {
			m = m.Mul(4)
		}
		out[i] = gpu.Point{X: p.X + sign*m[0]*d[0], Y: p.Y + sign*m[1]*d[1]}
	}
	copy(c, out)
}

func edgeNormal(a, b gpu.Point) mgl32.Vec2 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{dy / l, -dx / l}
}
