// svg2png rasterizes an SVG document on the GPU and writes the result as a
// PNG, BMP or TIFF image.
//
// Usage:
//
//	svg2png [flags] <input.svg> <output.png>
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gmlewis/gpuraster/gpu"
	"github.com/gmlewis/gpuraster/imgfile"
	"github.com/gmlewis/gpuraster/raster"
	"github.com/gmlewis/gpuraster/svgscene"
)

var (
	level      = flag.String("level", "", "render level: baseline (GLES 3) or advanced (GL 4.1)")
	backend    = flag.String("backend", "", "device backend: gl, webgpu or software")
	provider   = flag.String("context", "", "GL context provider: egl or glfw")
	background = flag.String("background", "", "background color as #rrggbb or #rrggbbaa (default transparent)")
	configFile = flag.String("config", "", "TOML file with default settings")
	verbose    = flag.Bool("v", false, "log rendering details to stderr")
)

func main() {
	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: svg2png [flags] <input.svg> <output>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("svg2png: config: %v", err)
	}
	cfg.override(Config{
		Level:      *level,
		Backend:    *backend,
		Context:    *provider,
		Background: *background,
		Verbose:    *verbose,
	})
	if cfg.Verbose {
		gpu.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if err := run(cfg, flag.Arg(0), flag.Arg(1)); err != nil {
		log.Fatalf("svg2png: %v", err)
	}
}

// stageError tags an error with the step of the pipeline that failed.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func run(cfg Config, input, output string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return &stageError{"read", err}
	}
	mode, err := cfg.errorMode()
	if err != nil {
		return &stageError{"parse", err}
	}
	scene, err := svgscene.Read(bytes.NewReader(data), svgscene.WithErrorMode(mode))
	if err != nil {
		return &stageError{"parse", err}
	}

	opts, err := cfg.options()
	if err != nil {
		return &stageError{"session", err}
	}
	bg, err := parseColor(cfg.Background)
	if err != nil {
		return &stageError{"session", err}
	}
	r, err := raster.New(opts...)
	if err != nil {
		return &stageError{"session", err}
	}
	defer func() {
		// A failed teardown is reported but does not change the outcome.
		if cerr := r.Close(); cerr != nil {
			log.Printf("svg2png: terminate: %v", cerr)
		}
	}()

	pb, err := r.Rasterize(scene, bg)
	if err != nil {
		return &stageError{"render", err}
	}
	log.Printf("Rendered %vx%v pixels", pb.Width, pb.Height)

	if err := imgfile.Write(output, pb.Image()); err != nil {
		return &stageError{"write", err}
	}
	log.Printf("Wrote: %v", output)
	return nil
}
