// Package raster renders vector scenes off-screen on the GPU and reads the
// result back as RGBA pixels.
//
// A Rasterizer owns a graphics context, a device and one cached render
// target. It is single-threaded: all calls must come from the goroutine
// that created it, which should be the main goroutine for GL backends.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gmlewis/gpuraster/egl"
	"github.com/gmlewis/gpuraster/glfwctx"
	"github.com/gmlewis/gpuraster/gpu"
)

func init() {
	// GL contexts are bound to the OS thread that made them current.
	runtime.LockOSThread()
}

// State is the lifecycle state of a Rasterizer.
type State int

const (
	Uninitialized State = iota
	ContextReady
	RenderTargetReady
	Rendering
	Terminated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case ContextReady:
		return "context ready"
	case RenderTargetReady:
		return "render target ready"
	case Rendering:
		return "rendering"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Rasterizer is a headless rendering session.
type Rasterizer struct {
	opts   options
	log    *slog.Logger
	ctx    GLContext
	cache  *targetCache
	state  State
	failed error
}

// New creates a session. For BackendGL the graphics context is created
// and made current immediately; the device and render target are created
// by the first Rasterize call.
func New(opts ...Option) (*Rasterizer, error) {
	o := options{
		level:     gpu.Baseline,
		alignment: DefaultAlignment,
		executor:  PoolExecutor{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.alignment <= 0 {
		return nil, fmt.Errorf("raster: alignment must be positive, got %v", o.alignment)
	}
	r := &Rasterizer{opts: o, log: o.logger}
	if r.log == nil {
		r.log = gpu.Logger()
	}

	ctx, err := r.openContext()
	if err != nil {
		return nil, err
	}
	r.ctx = ctx
	factory := o.deviceFactory
	if factory == nil {
		factory = defaultDeviceFactory(o.backend)
	}
	r.cache = &targetCache{
		alignment: o.alignment,
		newDevice: func() (gpu.Device, error) { return factory(ctx) },
		log:       r.log,
	}
	r.state = ContextReady
	r.log.Info("rasterizer ready", "backend", o.backend, "level", o.level)
	return r, nil
}

func (r *Rasterizer) openContext() (GLContext, error) {
	o := &r.opts
	if o.context != nil {
		return o.context, nil
	}
	if o.backend != BackendGL {
		return nopContext{}, nil
	}
	if o.provider == ProviderGLFW {
		ctx, err := glfwctx.Open(o.level)
		if err != nil {
			return nil, err
		}
		return ctx, nil
	}
	drv := o.driver
	if drv == nil {
		var err error
		if drv, err = egl.Load(); err != nil {
			return nil, err
		}
	}
	conn, err := egl.Open(drv, o.level)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func defaultDeviceFactory(b Backend) DeviceFactory {
	return func(ctx GLContext) (gpu.Device, error) {
		switch b {
		case BackendWebGPU:
			return gpu.NewWebGPUDevice()
		case BackendSoftware:
			return gpu.NewSoftwareDevice(), nil
		}
		t := ctx.GL()
		if t == nil {
			return nil, errors.New("GL backend requires a GL context")
		}
		return gpu.NewGLDevice(t)
	}
}

// nopContext stands in for the graphics context of backends that manage
// their own.
type nopContext struct{}

func (nopContext) MakeCurrent() error { return nil }
func (nopContext) GL() *gpu.GL        { return nil }
func (nopContext) Terminate() error   { return nil }

// State returns the lifecycle state.
func (r *Rasterizer) State() State { return r.state }

// Stats returns the render target cache counters.
func (r *Rasterizer) Stats() Stats { return r.cache.stats }

// Rasterize renders scene into a new PixelBuffer of the scene's view-box
// size rounded up to whole pixels. background, when non-nil, fills the
// image before drawing; otherwise the image starts transparent.
//
// The scene's view-box is rewritten to start at the origin. The returned
// buffer is owned by the caller.
func (r *Rasterizer) Rasterize(scene Scene, background *color.RGBA) (*PixelBuffer, error) {
	switch {
	case r.state == Terminated:
		return nil, ErrTerminated
	case r.failed != nil:
		return nil, fmt.Errorf("%w: %w", ErrSessionPoisoned, r.failed)
	}

	if err := r.ctx.MakeCurrent(); err != nil {
		return nil, r.poison(err)
	}

	vb := scene.ViewBox()
	if !vb.valid() {
		return nil, fmt.Errorf("%w: view-box %v", ErrInvalidSize, vb)
	}
	w, h := vb.PixelSize()
	size := image.Pt(w, h)
	transform := mgl32.Translate2D(float32(-vb.X), float32(-vb.Y))

	t, err := r.cache.get(size)
	if err != nil {
		return nil, r.poison(err)
	}
	r.state = Rendering
	defer func() { r.state = RenderTargetReady }()

	renderer := r.cache.renderer
	renderer.Options().Dest = t.fb
	renderer.Options().Background = nil
	if background != nil {
		bg := gpu.ColorFrom(*background)
		renderer.Options().Background = &bg
	}
	scene.SetViewBox(Rect{W: vb.W, H: vb.H})

	r.log.Debug("rasterize", "viewBox", vb, "size", size, "target", t.size)
	if err := scene.BuildAndRender(renderer, BuildOptions{
		Transform: transform,
		Executor:  r.opts.executor,
	}); err != nil {
		if errors.Is(err, gpu.ErrOutOfMemory) {
			return nil, r.poison(fmt.Errorf("%w: %w", ErrDeviceOutOfMemory, err))
		}
		return nil, fmt.Errorf("build scene: %w", err)
	}

	data, err := r.cache.device.ReadPixels(t.fb, image.Rect(0, 0, w, h))
	if err != nil {
		return nil, r.poison(fmt.Errorf("read pixels: %w", err))
	}
	if data.Format != gpu.RGBA8 {
		return nil, r.poison(fmt.Errorf("%w: got %v for %vx%v", ErrUnsupportedPixelFormat, data.Format, w, h))
	}
	if want := w * h * 4; len(data.Pixels) != want {
		return nil, r.poison(fmt.Errorf("%w: got %v bytes, want %v for %vx%v", ErrBufferSizeMismatch, len(data.Pixels), want, w, h))
	}
	return &PixelBuffer{Width: w, Height: h, Pix: data.Pixels}, nil
}

// poison records the first GPU failure; later renders refuse to run.
func (r *Rasterizer) poison(err error) error {
	if r.failed == nil {
		r.failed = err
		r.log.Warn("rasterizer unusable", "err", err)
	}
	return err
}

// Close releases the render target and the device, then terminates the
// graphics context. Only the first call does any work; later calls return
// nil. A terminate failure is logged and returned.
func (r *Rasterizer) Close() error {
	if r.state == Terminated {
		return nil
	}
	r.state = Terminated
	if err := r.ctx.MakeCurrent(); err != nil {
		r.log.Warn("context not current at close", "err", err)
	}
	r.cache.release()
	if err := r.ctx.Terminate(); err != nil {
		r.log.Warn("terminate failed", "err", err)
		return err
	}
	return nil
}
