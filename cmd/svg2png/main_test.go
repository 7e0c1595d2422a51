package main

import (
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmlewis/gpuraster/gpu"
)

const square = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 8">
  <rect x="0" y="0" width="8" height="8" fill="#0000ff"/>
</svg>`

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.svg")
	out := filepath.Join(dir, "out.png")
	require.NoError(t, os.WriteFile(in, []byte(square), 0644))

	cfg := Config{Backend: "software", Background: "#ffffff"}
	require.NoError(t, run(cfg, in, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())
	assert.Equal(t, color.RGBA{B: 255, A: 255}, color.RGBAModel.Convert(img.At(3, 3)))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, color.RGBAModel.Convert(img.At(12, 3)))
}

func TestRunStages(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.svg")
	require.NoError(t, os.WriteFile(in, []byte(square), 0644))
	bad := filepath.Join(dir, "bad.svg")
	require.NoError(t, os.WriteFile(bad, []byte("<svg"), 0644))

	tests := []struct {
		name   string
		cfg    Config
		input  string
		output string
		stage  string
	}{
		{"missing input", Config{Backend: "software"}, filepath.Join(dir, "nope.svg"), "x.png", "read"},
		{"bad svg", Config{Backend: "software"}, bad, "x.png", "parse"},
		{"bad backend", Config{Backend: "metal"}, in, "x.png", "session"},
		{"bad background", Config{Backend: "software", Background: "blue"}, in, "x.png", "session"},
		{"bad extension", Config{Backend: "software"}, in, filepath.Join(dir, "out.jpg"), "write"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.cfg, tt.input, tt.output)
			var se *stageError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.stage, se.stage)
			assert.Contains(t, err.Error(), tt.stage+": ")
		})
	}
}

func TestMain(m *testing.M) {
	gpu.SetLogger(nil)
	os.Exit(m.Run())
}
