package gpu

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRendererNoDestination(t *testing.T) {
	r := NewRenderer(NewSoftwareDevice(), Options{})
	assert.ErrorIs(t, r.Render(image.Pt(1, 1), nil), ErrNoDestination)
}

func TestColorConversion(t *testing.T) {
	tests := []struct {
		in   color.Color
		want color.RGBA
	}{
		{color.RGBA{}, color.RGBA{}},
		{color.RGBA{255, 0, 0, 255}, color.RGBA{255, 0, 0, 255}},
		{color.NRGBA{255, 255, 255, 128}, color.RGBA{128, 128, 128, 128}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ColorFrom(tt.in).RGBA(), "ColorFrom(%v)", tt.in)
	}
	assert.Equal(t, color.RGBA{255, 0, 255, 0}, Color{2, -1, 1.5, 0}.RGBA())
}

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]Level{"": Baseline, "baseline": Baseline, "advanced": Advanced} {
		got, err := ParseLevel(s)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("ultra")
	assert.Error(t, err)
	assert.Equal(t, "advanced", Advanced.String())
	assert.Equal(t, 1, R8.BytesPerPixel())
	assert.Equal(t, 4, RGBA8.BytesPerPixel())
}
