// Package gpu defines the render devices used to rasterize vector paths
// off-screen and read the result back into host memory.
//
// Three backends implement Device: an OpenGL device driven through a GL
// function table (GLES 3 for the baseline level, GL 4.1 core for the
// advanced level), a WebGPU device, and a CPU software device.
//
// All devices return pixel rows top-down: row 0 of the data returned by
// ReadPixels is the top row of the rendered image.
package gpu

import (
	"errors"
	"fmt"
	"image"
)

// Level selects the GPU API tier targeted by a device.
type Level int

const (
	// Baseline targets OpenGL ES 3.0.
	Baseline Level = iota
	// Advanced targets desktop OpenGL 4.1 core.
	Advanced
)

func (l Level) String() string {
	switch l {
	case Baseline:
		return "baseline"
	case Advanced:
		return "advanced"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel parses "baseline" or "advanced".
func ParseLevel(s string) (Level, error) {
	switch s {
	case "baseline", "":
		return Baseline, nil
	case "advanced":
		return Advanced, nil
	}
	return Baseline, fmt.Errorf("unknown render level %q", s)
}

// TextureFormat is the texel format of a Texture or of read back pixels.
type TextureFormat int

const (
	RGBA8 TextureFormat = iota
	RGBA16F
	R8
)

func (f TextureFormat) String() string {
	switch f {
	case RGBA8:
		return "RGBA8"
	case RGBA16F:
		return "RGBA16F"
	case R8:
		return "R8"
	}
	return fmt.Sprintf("TextureFormat(%d)", int(f))
}

// BytesPerPixel returns the size of one texel.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case RGBA16F:
		return 8
	case R8:
		return 1
	}
	return 4
}

// Texture is a device texture.
type Texture interface {
	Size() image.Point
	Format() TextureFormat
}

// Framebuffer is a render destination wrapping a color Texture.
type Framebuffer interface {
	Texture() Texture
}

// TextureData holds pixels read back from a Framebuffer.
type TextureData struct {
	Format TextureFormat
	Pixels []byte
}

// Device is a GPU (or GPU-like) device able to allocate render targets,
// draw paths into them and read them back.
//
// A Device is not safe for concurrent use. GL devices additionally require
// their context to be current on the calling thread.
type Device interface {
	// CreateTexture allocates a texture. Failure to allocate returns an
	// error wrapping ErrOutOfMemory.
	CreateTexture(format TextureFormat, size image.Point) (Texture, error)
	// CreateFramebuffer wraps tex so that it can be rendered into.
	CreateFramebuffer(tex Texture) (Framebuffer, error)
	// DestroyTexture releases a texture that was never wrapped in a
	// framebuffer.
	DestroyTexture(tex Texture)
	// DestroyFramebuffer releases fb and its texture.
	DestroyFramebuffer(fb Framebuffer)
	// Draw executes one render pass into fb.
	Draw(fb Framebuffer, pass *Pass) error
	// ReadPixels submits a read of rect and blocks until the data is
	// available.
	ReadPixels(fb Framebuffer, rect image.Rectangle) (TextureData, error)
	// Release frees every resource held by the device.
	Release()
}

var (
	// ErrOutOfMemory is returned when a device cannot allocate a resource.
	ErrOutOfMemory = errors.New("gpu: out of memory")
	// ErrNoDestination is returned by Renderer.Render without a destination.
	ErrNoDestination = errors.New("gpu: renderer has no destination framebuffer")
	// ErrForeignFramebuffer is returned when a framebuffer from another
	// device is passed in.
	ErrForeignFramebuffer = errors.New("gpu: framebuffer does not belong to this device")
)

// Point is a position in pixel space.
type Point struct{ X, Y float32 }

// Color is a premultiplied RGBA color with components in [0,1].
type Color [4]float32

// FillRule determines inside/outside testing for a Path.
type FillRule int

const (
	NonZero FillRule = iota
	EvenOdd
)

// Path is a filled shape: one or more closed polygons with one paint.
type Path struct {
	Contours [][]Point
	Color    Color
	FillRule FillRule
}

// Pass describes a render pass.
//
// Size is the content size in pixels. It may be smaller than the target
// texture; content is anchored at the top-left corner of the target.
type Pass struct {
	Size       image.Point
	Background *Color
	Paths      []Path
}

const (
	// MaxTextureDimension is the largest texture width or height any
	// device accepts. It fits in both int32 and uint32.
	MaxTextureDimension = 1 << 16
	// MaxTextureBytes bounds the storage of a single RGBA8 texture.
	MaxTextureBytes = 1 << 32
)

// checkSize rejects sizes no device can allocate. Sizes beyond the limits
// wrap ErrOutOfMemory.
func checkSize(size image.Point) error {
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("gpu: invalid texture size %v", size)
	}
	if size.X > MaxTextureDimension || size.Y > MaxTextureDimension ||
		int64(size.X)*int64(size.Y)*4 > MaxTextureBytes {
		return fmt.Errorf("%w: texture size %v exceeds device limits", ErrOutOfMemory, size)
	}
	return nil
}
