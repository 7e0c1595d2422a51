package gpu

import (
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 float32) []Point {
	return []Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func TestBuildMesh(t *testing.T) {
	red := Color{1, 0, 0, 1}
	m := buildMesh([]Path{
		{Contours: [][]Point{square(2, 2, 8, 8)}, Color: red},
		{Contours: [][]Point{{{0, 0}, {1, 1}}}, Color: red}, // degenerate, skipped
		{Contours: [][]Point{square(0, 0, 4, 4), square(1, 1, 3, 3)}, Color: red, FillRule: EvenOdd},
	})
	require.Len(t, m.batches, 2)

	b := m.batches[0]
	assert.Equal(t, int32(0), b.fanFirst)
	assert.Equal(t, int32(6), b.fanCount) // 2 triangles
	assert.Equal(t, int32(6), b.coverFirst)
	assert.Equal(t, NonZero, b.fillRule)

	b = m.batches[1]
	assert.Equal(t, int32(12), b.fanFirst)
	assert.Equal(t, int32(12), b.fanCount)
	assert.Equal(t, int32(24), b.coverFirst)
	assert.Equal(t, EvenOdd, b.fillRule)
	assert.Equal(t, int32(30), m.vertexCount())

	// Cover quad of the first path is its bounds padded by one pixel.
	cover := m.vertices[6*floatsPerVertex : 12*floatsPerVertex]
	var xs, ys []float32
	for i := 0; i < len(cover); i += floatsPerVertex {
		xs = append(xs, cover[i])
		ys = append(ys, cover[i+1])
		assert.Equal(t, []float32{1, 0, 0, 1}, cover[i+2:i+6])
	}
	assert.ElementsMatch(t, []float32{1, 9, 1, 9, 9, 1}, xs)
	assert.ElementsMatch(t, []float32{1, 1, 9, 1, 9, 9}, ys)
}

func TestBuildMeshEmpty(t *testing.T) {
	m := buildMesh(nil)
	assert.Empty(t, m.batches)
	assert.Empty(t, m.vertices)
}

func TestProjection(t *testing.T) {
	target := image.Pt(32, 32)
	content := image.Pt(20, 10)

	apply := func(m mgl32.Mat4, x, y float32) []float32 {
		v := m.Mul4x1(mgl32.Vec4{x, y, 0, 1})
		return []float32{v[0], v[1]}
	}
	// Top-down: pixel origin maps to the top-left clip corner.
	td := projection(target, content, false)
	assert.InDeltaSlice(t, []float32{-1, 1}, apply(td, 0, 0), 1e-5)
	assert.InDeltaSlice(t, []float32{1, -1}, apply(td, 32, 32), 1e-5)

	// Bottom-up: the top content row lands at window row content.Y.
	bu := projection(target, content, true)
	windowY := func(ndc float32) float32 { return (ndc + 1) / 2 * float32(target.Y) }
	assert.InDelta(t, 10, windowY(apply(bu, 0, 0)[1]), 1e-4)
	assert.InDelta(t, 0, windowY(apply(bu, 0, 10)[1]), 1e-4)
	assert.InDelta(t, -1, apply(bu, 0, 0)[0], 1e-5)
}
