// Package imgfile writes rasterized images to disk.
package imgfile

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gmlewis/gpuraster/gpu"
)

// Format is an output image format.
type Format int

const (
	PNG Format = iota
	BMP
	TIFF
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case BMP:
		return "bmp"
	case TIFF:
		return "tiff"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatOf returns the format matching the extension of filename.
func FormatOf(filename string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".png":
		return PNG, nil
	case ".bmp":
		return BMP, nil
	case ".tif", ".tiff":
		return TIFF, nil
	default:
		return PNG, fmt.Errorf("unsupported image extension %q", ext)
	}
}

// Encode writes img to w in format f.
func Encode(w io.Writer, f Format, img image.Image) error {
	switch f {
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return png.Encode(w, img)
}

// Write encodes img into filename, choosing the format from its extension.
func Write(filename string, img image.Image) error {
	f, err := FormatOf(filename)
	if err != nil {
		return err
	}
	gpu.Logger().Info("writing image", "file", filename, "format", f, "bounds", img.Bounds())

	out, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := Encode(out, f, img); err != nil {
		out.Close()
		return fmt.Errorf("encode %v: %w", filename, err)
	}
	return out.Close()
}
