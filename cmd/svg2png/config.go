package main

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/gmlewis/gpuraster/gpu"
	"github.com/gmlewis/gpuraster/raster"
	"github.com/gmlewis/gpuraster/svgscene"
)

// Config holds the settings that may come from a TOML file. Command line
// flags take precedence.
type Config struct {
	Level      string `toml:"level"`
	Backend    string `toml:"backend"`
	Context    string `toml:"context"`
	Background string `toml:"background"`
	Alignment  int    `toml:"alignment"`
	Workers    int    `toml:"workers"`
	ErrorMode  string `toml:"error_mode"`
	Verbose    bool   `toml:"verbose"`
}

func loadConfig(path string) (Config, error) {
	var c Config
	if path == "" {
		return c, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()
	d := toml.NewDecoder(f)
	d.DisallowUnknownFields()
	if err := d.Decode(&c); err != nil {
		return c, fmt.Errorf("%v: %w", path, err)
	}
	return c, nil
}

// override replaces the settings of c that are set in o.
func (c *Config) override(o Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Level, o.Level)
	set(&c.Backend, o.Backend)
	set(&c.Context, o.Context)
	set(&c.Background, o.Background)
	set(&c.ErrorMode, o.ErrorMode)
	if o.Alignment != 0 {
		c.Alignment = o.Alignment
	}
	if o.Workers != 0 {
		c.Workers = o.Workers
	}
	c.Verbose = c.Verbose || o.Verbose
}

func (c Config) options() ([]raster.Option, error) {
	level, err := gpu.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	backend, err := raster.ParseBackend(c.Backend)
	if err != nil {
		return nil, err
	}
	provider, err := raster.ParseContextProvider(c.Context)
	if err != nil {
		return nil, err
	}
	opts := []raster.Option{
		raster.WithLevel(level),
		raster.WithBackend(backend),
		raster.WithContextProvider(provider),
		raster.WithExecutor(raster.PoolExecutor{Workers: c.Workers}),
	}
	if c.Alignment != 0 {
		opts = append(opts, raster.WithAlignment(c.Alignment))
	}
	return opts, nil
}

func (c Config) errorMode() (svgscene.ErrorMode, error) {
	switch c.ErrorMode {
	case "", "warn":
		return svgscene.WarnErrors, nil
	case "ignore":
		return svgscene.IgnoreErrors, nil
	case "strict":
		return svgscene.StrictErrors, nil
	}
	return svgscene.WarnErrors, fmt.Errorf("unknown error mode %q", c.ErrorMode)
}

// parseColor parses #rrggbb or #rrggbbaa. The empty string means no
// background.
func parseColor(s string) (*color.RGBA, error) {
	if s == "" {
		return nil, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	c := color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	return &rgba, nil
}
