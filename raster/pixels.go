package raster

import (
	"image"
	"image/color"
)

// PixelBuffer is a rasterized image: Width*Height pixels of premultiplied
// RGBA8, 4 bytes per pixel, rows stored top to bottom. This is the memory
// layout of image.RGBA.
type PixelBuffer struct {
	Width, Height int
	Pix           []byte
}

// Stride returns the number of bytes per row.
func (p *PixelBuffer) Stride() int { return p.Width * 4 }

// Image returns an image.RGBA sharing p's pixels.
func (p *PixelBuffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    p.Pix,
		Stride: p.Stride(),
		Rect:   image.Rect(0, 0, p.Width, p.Height),
	}
}

// RGBAAt returns the pixel at (x, y), or transparent black outside the
// buffer.
func (p *PixelBuffer) RGBAAt(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height {
		return color.RGBA{}
	}
	i := y*p.Stride() + x*4
	s := p.Pix[i : i+4 : i+4]
	return color.RGBA{s[0], s[1], s[2], s[3]}
}
