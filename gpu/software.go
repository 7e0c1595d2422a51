package gpu

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// SoftwareDevice renders on the CPU into image.RGBA render targets.
//
// Paths are filled with the rasterx ScannerGV scanner, which only
// implements the non-zero fill rule: EvenOdd paths are filled as NonZero.
type SoftwareDevice struct{}

// NewSoftwareDevice returns a CPU device.
func NewSoftwareDevice() *SoftwareDevice { return &SoftwareDevice{} }

var _ Device = (*SoftwareDevice)(nil)

type softwareTexture struct {
	img    *image.RGBA
	format TextureFormat
}

func (t *softwareTexture) Size() image.Point     { return t.img.Rect.Size() }
func (t *softwareTexture) Format() TextureFormat { return t.format }

type softwareFramebuffer struct {
	tex *softwareTexture
}

func (fb *softwareFramebuffer) Texture() Texture { return fb.tex }

func (d *SoftwareDevice) CreateTexture(format TextureFormat, size image.Point) (Texture, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	if format != RGBA8 {
		return nil, fmt.Errorf("software device: unsupported texture format %v", format)
	}
	return &softwareTexture{img: image.NewRGBA(image.Rectangle{Max: size}), format: format}, nil
}

func (d *SoftwareDevice) CreateFramebuffer(tex Texture) (Framebuffer, error) {
	st, ok := tex.(*softwareTexture)
	if !ok {
		return nil, fmt.Errorf("software device: %w", ErrForeignFramebuffer)
	}
	return &softwareFramebuffer{tex: st}, nil
}

func (d *SoftwareDevice) DestroyTexture(tex Texture) {
	if st, ok := tex.(*softwareTexture); ok {
		st.img = nil
	}
}

func (d *SoftwareDevice) DestroyFramebuffer(fb Framebuffer) {
	if sfb, ok := fb.(*softwareFramebuffer); ok {
		sfb.tex.img = nil
	}
}

func (d *SoftwareDevice) Draw(fb Framebuffer, pass *Pass) error {
	sfb, ok := fb.(*softwareFramebuffer)
	if !ok || sfb.tex.img == nil {
		return fmt.Errorf("software device: %w", ErrForeignFramebuffer)
	}
	img := sfb.tex.img
	var bg image.Image = image.Transparent
	if pass.Background != nil {
		bg = image.NewUniform(pass.Background.RGBA())
	}
	draw.Draw(img, img.Rect, bg, image.Point{}, draw.Src)

	size := img.Rect.Size()
	scanner := rasterx.NewScannerGV(size.X, size.Y, img, img.Rect)
	for _, p := range pass.Paths {
		scanner.Clear()
		scanner.SetColor(p.Color.RGBA())
		drawn := false
		for _, c := range p.Contours {
			if len(c) < 3 {
				continue
			}
			scanner.Start(toFixed(c[0]))
			for _, pt := range c[1:] {
				scanner.Line(toFixed(pt))
			}
			scanner.Line(toFixed(c[0]))
			drawn = true
		}
		if drawn {
			scanner.Draw()
		}
	}
	return nil
}

func (d *SoftwareDevice) ReadPixels(fb Framebuffer, rect image.Rectangle) (TextureData, error) {
	sfb, ok := fb.(*softwareFramebuffer)
	if !ok || sfb.tex.img == nil {
		return TextureData{}, fmt.Errorf("software device: %w", ErrForeignFramebuffer)
	}
	img := sfb.tex.img
	if !rect.In(img.Rect) {
		return TextureData{}, fmt.Errorf("software device: read rect %v outside target %v", rect, img.Rect)
	}
	w := rect.Dx() * 4
	pix := make([]byte, w*rect.Dy())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		src := img.PixOffset(rect.Min.X, y)
		copy(pix[(y-rect.Min.Y)*w:], img.Pix[src:src+w])
	}
	return TextureData{Format: sfb.tex.format, Pixels: pix}, nil
}

func (d *SoftwareDevice) Release() {}

func toFixed(p Point) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(p.X * 64), Y: fixed.Int26_6(p.Y * 64)}
}
