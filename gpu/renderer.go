package gpu

import (
	"image"
	"image/color"
)

// Options controls where and how a Renderer draws.
type Options struct {
	// Dest is the framebuffer that receives the render pass.
	Dest Framebuffer
	// Background, when set, clears the destination to that color.
	// Otherwise the destination is cleared to transparent.
	Background *Color
}

// Renderer couples a Device with its render options.
type Renderer struct {
	device  Device
	options Options
}

// NewRenderer returns a renderer drawing on device.
func NewRenderer(device Device, options Options) *Renderer {
	return &Renderer{device: device, options: options}
}

// Device returns the device the renderer draws on.
func (r *Renderer) Device() Device { return r.device }

// Options returns the renderer options, which may be modified in place.
func (r *Renderer) Options() *Options { return &r.options }

// Render draws paths into the destination framebuffer. size is the content
// size in pixels.
func (r *Renderer) Render(size image.Point, paths []Path) error {
	if r.options.Dest == nil {
		return ErrNoDestination
	}
	Logger().Debug("render pass", "size", size, "paths", len(paths))
	return r.device.Draw(r.options.Dest, &Pass{
		Size:       size,
		Background: r.options.Background,
		Paths:      paths,
	})
}

// ColorFrom converts c to a premultiplied Color.
func ColorFrom(c color.Color) Color {
	r, g, b, a := c.RGBA()
	return Color{float32(r) / 0xffff, float32(g) / 0xffff, float32(b) / 0xffff, float32(a) / 0xffff}
}

// RGBA converts c to an 8-bit premultiplied color.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: to8(c[0]), G: to8(c[1]), B: to8(c[2]), A: to8(c[3])}
}

func to8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
