package raster

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gmlewis/gpuraster/gpu"
)

// fakeDevice records allocations and returns configurable read backs.
type fakeDevice struct {
	format          gpu.TextureFormat
	short           bool
	failAlloc       bool
	failFramebuffer bool

	textures      int
	freedTextures int
	destroyed     []gpu.Framebuffer
	passes        []*gpu.Pass
	releases      int
}

type fakeTexture struct{ size image.Point }

func (t *fakeTexture) Size() image.Point         { return t.size }
func (t *fakeTexture) Format() gpu.TextureFormat { return gpu.RGBA8 }

type fakeFramebuffer struct{ tex *fakeTexture }

func (fb *fakeFramebuffer) Texture() gpu.Texture { return fb.tex }

func (d *fakeDevice) CreateTexture(format gpu.TextureFormat, size image.Point) (gpu.Texture, error) {
	if d.failAlloc {
		return nil, gpu.ErrOutOfMemory
	}
	d.textures++
	return &fakeTexture{size: size}, nil
}

func (d *fakeDevice) CreateFramebuffer(tex gpu.Texture) (gpu.Framebuffer, error) {
	if d.failFramebuffer {
		return nil, gpu.ErrOutOfMemory
	}
	return &fakeFramebuffer{tex: tex.(*fakeTexture)}, nil
}

func (d *fakeDevice) DestroyTexture(tex gpu.Texture) { d.freedTextures++ }

func (d *fakeDevice) DestroyFramebuffer(fb gpu.Framebuffer) {
	d.destroyed = append(d.destroyed, fb)
}

func (d *fakeDevice) Draw(fb gpu.Framebuffer, pass *gpu.Pass) error {
	d.passes = append(d.passes, pass)
	return nil
}

func (d *fakeDevice) ReadPixels(fb gpu.Framebuffer, rect image.Rectangle) (gpu.TextureData, error) {
	n := rect.Dx() * rect.Dy() * d.format.BytesPerPixel()
	if d.short {
		n -= 4
	}
	return gpu.TextureData{Format: d.format, Pixels: make([]byte, n)}, nil
}

func (d *fakeDevice) Release() { d.releases++ }

// fakeContext counts lifecycle calls.
type fakeContext struct {
	current        int
	terminates     int
	makeCurrentErr error
	terminateErr   error
}

func (c *fakeContext) MakeCurrent() error { c.current++; return c.makeCurrentErr }
func (c *fakeContext) GL() *gpu.GL        { return nil }
func (c *fakeContext) Terminate() error   { c.terminates++; return c.terminateErr }

// rectScene fills axis-aligned rectangles given in scene coordinates.
type rectScene struct {
	viewBox Rect
	rects   []Rect
	color   gpu.Color
	err     error

	opts     BuildOptions
	builds   int
	lastSize image.Point
}

func (s *rectScene) ViewBox() Rect     { return s.viewBox }
func (s *rectScene) SetViewBox(r Rect) { s.viewBox = r }

func (s *rectScene) BuildAndRender(r *gpu.Renderer, opts BuildOptions) error {
	s.builds++
	s.opts = opts
	if s.err != nil {
		return s.err
	}
	xf := func(x, y float64) gpu.Point {
		v := opts.Transform.Mul3x1(mgl32.Vec3{float32(x), float32(y), 1})
		return gpu.Point{X: v[0], Y: v[1]}
	}
	var paths []gpu.Path
	for _, rc := range s.rects {
		paths = append(paths, gpu.Path{
			Contours: [][]gpu.Point{{
				xf(rc.X, rc.Y), xf(rc.X+rc.W, rc.Y), xf(rc.X+rc.W, rc.Y+rc.H), xf(rc.X, rc.Y+rc.H),
			}},
			Color: s.color,
		})
	}
	w, h := s.viewBox.PixelSize()
	s.lastSize = image.Pt(w, h)
	return r.Render(s.lastSize, paths)
}
