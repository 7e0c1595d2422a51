// Package svgscene compiles SVG documents into scenes that a
// raster.Rasterizer can draw.
//
// Documents are parsed with oksvg. Path outlines and strokes are flattened
// into polygons by rasterx and submitted to the GPU renderer as filled
// paths.
package svgscene

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/gmlewis/gpuraster/gpu"
	"github.com/gmlewis/gpuraster/raster"
)

// ErrSubpixelAA is returned by BuildAndRender when subpixel anti-aliasing
// is requested.
var ErrSubpixelAA = errors.New("svgscene: subpixel anti-aliasing is not supported")

// ErrorMode controls how unsupported SVG elements are handled.
type ErrorMode = oksvg.ErrorMode

const (
	IgnoreErrors = oksvg.IgnoreErrorMode
	WarnErrors   = oksvg.WarnErrorMode
	StrictErrors = oksvg.StrictErrorMode
)

type options struct {
	mode    ErrorMode
	opacity float64
}

// Option configures Read and Open.
type Option func(*options)

// WithErrorMode sets the parser error mode. The default is WarnErrors.
func WithErrorMode(m ErrorMode) Option {
	return func(o *options) { o.mode = m }
}

// WithOpacity multiplies the opacity of every path.
func WithOpacity(a float64) Option {
	return func(o *options) { o.opacity = a }
}

// Scene is a parsed SVG document.
type Scene struct {
	icon    *oksvg.SvgIcon
	viewBox raster.Rect
	opacity float64
}

var _ raster.Scene = (*Scene)(nil)

// Read parses an SVG document from r.
func Read(r io.Reader, opts ...Option) (*Scene, error) {
	o := options{mode: WarnErrors, opacity: 1}
	for _, opt := range opts {
		opt(&o)
	}
	icon, err := oksvg.ReadIconStream(r, o.mode)
	if err != nil {
		return nil, fmt.Errorf("svgscene: %w", err)
	}
	vb := icon.ViewBox
	return &Scene{
		icon:    icon,
		viewBox: raster.Rect{X: vb.X, Y: vb.Y, W: vb.W, H: vb.H},
		opacity: o.opacity,
	}, nil
}

// Open parses the SVG file at path.
func Open(path string, opts ...Option) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, opts...)
}

// New returns an empty scene of the given size.
func New(width, height float64) *Scene {
	return &Scene{
		icon:    &oksvg.SvgIcon{},
		viewBox: raster.Rect{W: width, H: height},
		opacity: 1,
	}
}

func (s *Scene) ViewBox() raster.Rect      { return s.viewBox }
func (s *Scene) SetViewBox(vb raster.Rect) { s.viewBox = vb }

// Len returns the number of drawable paths in the document.
func (s *Scene) Len() int { return len(s.icon.SVGPaths) }

// BuildAndRender flattens every path of the document with opts.Transform
// applied and draws the result with r in document order.
func (s *Scene) BuildAndRender(r *gpu.Renderer, opts raster.BuildOptions) error {
	if opts.SubpixelAA {
		return ErrSubpixelAA
	}
	exec := opts.Executor
	if exec == nil {
		exec = raster.SequentialExecutor{}
	}
	w, h := s.viewBox.PixelSize()
	m := matrix(opts.Transform)

	built := make([][]gpu.Path, len(s.icon.SVGPaths))
	err := exec.Run(len(built), func(i int) error {
		c := &capture{}
		d := rasterx.NewDasher(w, h, c)
		s.icon.SVGPaths[i].DrawTransformed(d, s.opacity, m)
		built[i] = c.paths
		return nil
	})
	if err != nil {
		return err
	}

	var paths []gpu.Path
	for _, ps := range built {
		for _, p := range ps {
			for _, contour := range p.Contours {
				dilate(contour, opts.Dilation)
			}
			paths = append(paths, p)
		}
	}
	gpu.Logger().Debug("scene built", "svgPaths", len(built), "paths", len(paths))
	return r.Render(image.Pt(w, h), paths)
}
