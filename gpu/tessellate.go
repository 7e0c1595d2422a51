package gpu

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// floatsPerVertex is the vertex stride in float32 values: x, y, r, g, b, a.
const floatsPerVertex = 6

// coverPadding is the number of pixels added around a path's bounds when
// generating its cover quad.
const coverPadding = 1.0

// batch locates the stencil fan and cover quad of one path in a Mesh.
type batch struct {
	fanFirst   int32
	fanCount   int32
	coverFirst int32
	fillRule   FillRule
}

// mesh holds the vertex data of a whole pass.
type mesh struct {
	vertices []float32
	batches  []batch
}

func (m *mesh) vertexCount() int32 {
	return int32(len(m.vertices) / floatsPerVertex)
}

func (m *mesh) push(p Point, c Color) {
	m.vertices = append(m.vertices, p.X, p.Y, c[0], c[1], c[2], c[3])
}

// buildMesh converts paths into fan triangles for the stencil pass and
// one cover quad per path.
//
// For each contour the first vertex is the fan centre and a triangle is
// emitted for every following edge. This is valid for concave and
// self-intersecting contours because the stencil pass resolves winding.
func buildMesh(paths []Path) *mesh {
	m := &mesh{}
	for _, p := range paths {
		first := m.vertexCount()
		minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
		maxX, maxY := -minX, -minY
		for _, c := range p.Contours {
			if len(c) < 3 {
				continue
			}
			for i := 1; i+1 < len(c); i++ {
				m.push(c[0], p.Color)
				m.push(c[i], p.Color)
				m.push(c[i+1], p.Color)
			}
			for _, pt := range c {
				minX = min(minX, pt.X)
				minY = min(minY, pt.Y)
				maxX = max(maxX, pt.X)
				maxY = max(maxY, pt.Y)
			}
		}
		count := m.vertexCount() - first
		if count == 0 {
			continue
		}
		minX, minY = minX-coverPadding, minY-coverPadding
		maxX, maxY = maxX+coverPadding, maxY+coverPadding
		cover := m.vertexCount()
		for _, pt := range [6]Point{
			{minX, minY}, {maxX, minY}, {minX, maxY},
			{maxX, minY}, {maxX, maxY}, {minX, maxY},
		} {
			m.push(pt, p.Color)
		}
		m.batches = append(m.batches, batch{
			fanFirst:   first,
			fanCount:   count,
			coverFirst: cover,
			fillRule:   p.FillRule,
		})
	}
	return m
}

// projection maps pixel coordinates to clip space for a target of size
// target holding content of size content anchored at its top-left corner.
//
// With bottomUp set, the projection is arranged for a framebuffer whose row
// 0 is the bottom row (OpenGL): content row y lands on framebuffer row
// content.Y-1-y, so reading rows [0,content.Y) and reversing them yields
// the content top-down.
func projection(target, content image.Point, bottomUp bool) mgl32.Mat4 {
	w, h := float32(target.X), float32(target.Y)
	if bottomUp {
		cy := float32(content.Y)
		return mgl32.Ortho(0, w, cy, cy-h, -1, 1)
	}
	return mgl32.Ortho(0, w, h, 0, -1, 1)
}
