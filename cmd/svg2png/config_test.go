package main

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmlewis/gpuraster/svgscene"
)

func TestLoadConfig(t *testing.T) {
	c, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, c)

	path := filepath.Join(t.TempDir(), "svg2png.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
level = "advanced"
backend = "webgpu"
background = "#102030"
alignment = 32
workers = 2
error_mode = "strict"
`), 0644))
	c, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Level:      "advanced",
		Backend:    "webgpu",
		Background: "#102030",
		Alignment:  32,
		Workers:    2,
		ErrorMode:  "strict",
	}, c)

	c.override(Config{Backend: "software", Verbose: true})
	assert.Equal(t, "software", c.Backend)
	assert.Equal(t, "advanced", c.Level)
	assert.True(t, c.Verbose)

	mode, err := c.errorMode()
	require.NoError(t, err)
	assert.Equal(t, svgscene.StrictErrors, mode)

	opts, err := c.options()
	require.NoError(t, err)
	assert.Len(t, opts, 5)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := loadConfig(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(path, []byte("colour = \"red\"\n"), 0644))
	_, err = loadConfig(path)
	assert.ErrorContains(t, err, path)
}

func TestConfigOptionErrors(t *testing.T) {
	for _, c := range []Config{{Level: "ultra"}, {Backend: "metal"}, {Context: "wayland"}} {
		_, err := c.options()
		assert.Error(t, err, "%+v", c)
	}
	_, err := Config{ErrorMode: "loud"}.errorMode()
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	c, err := parseColor("")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = parseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, &color.RGBA{255, 128, 0, 255}, c)

	c, err = parseColor("00000000")
	require.NoError(t, err)
	assert.Equal(t, &color.RGBA{}, c)

	c, err = parseColor("#ff000080")
	require.NoError(t, err)
	assert.Equal(t, &color.RGBA{128, 0, 0, 128}, c)

	for _, s := range []string{"#fff", "#gg0000", "red"} {
		_, err := parseColor(s)
		assert.Error(t, err, s)
	}
}
