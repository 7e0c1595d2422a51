package raster

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gmlewis/gpuraster/gpu"
)

// Rect is a view-box in logical units.
type Rect struct {
	X, Y, W, H float64
}

// MaxViewBoxSize is the largest view-box width or height Rasterize accepts.
const MaxViewBoxSize = gpu.MaxTextureDimension

// valid reports whether r has a finite origin and a positive size no
// larger than MaxViewBoxSize once rounded up to whole pixels.
func (r Rect) valid() bool {
	for _, v := range []float64{r.X, r.Y, r.W, r.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.W > 0 && r.H > 0 && math.Ceil(r.W) <= MaxViewBoxSize && math.Ceil(r.H) <= MaxViewBoxSize
}

// PixelSize returns the output size of r: its size rounded up to whole
// pixels.
func (r Rect) PixelSize() (w, h int) {
	return int(math.Ceil(r.W)), int(math.Ceil(r.H))
}

// Scene is a vector document that can render itself through a
// gpu.Renderer.
type Scene interface {
	ViewBox() Rect
	SetViewBox(Rect)
	// BuildAndRender converts the scene into paths and submits them to r.
	BuildAndRender(r *gpu.Renderer, opts BuildOptions) error
}

// BuildOptions parameterize Scene.BuildAndRender.
type BuildOptions struct {
	// Transform maps scene coordinates to pixels.
	Transform mgl32.Mat3
	// Dilation grows every shape by the given amount in x and y.
	Dilation mgl32.Vec2
	// SubpixelAA requests LCD subpixel anti-aliasing.
	SubpixelAA bool
	// Executor runs path building work.
	Executor Executor
}
