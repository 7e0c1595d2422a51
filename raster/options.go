package raster

import (
	"fmt"
	"log/slog"

	"github.com/gmlewis/gpuraster/egl"
	"github.com/gmlewis/gpuraster/gpu"
)

// Backend selects the device implementation.
type Backend int

const (
	BackendGL Backend = iota
	BackendWebGPU
	BackendSoftware
)

func (b Backend) String() string {
	switch b {
	case BackendGL:
		return "gl"
	case BackendWebGPU:
		return "webgpu"
	case BackendSoftware:
		return "software"
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

// ParseBackend parses "gl", "webgpu" or "software".
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "gl", "":
		return BackendGL, nil
	case "webgpu":
		return BackendWebGPU, nil
	case "software":
		return BackendSoftware, nil
	}
	return BackendGL, fmt.Errorf("unknown backend %q", s)
}

// ContextProvider selects how the GL context of BackendGL is created.
type ContextProvider int

const (
	ProviderEGL ContextProvider = iota
	ProviderGLFW
)

func (p ContextProvider) String() string {
	switch p {
	case ProviderEGL:
		return "egl"
	case ProviderGLFW:
		return "glfw"
	}
	return fmt.Sprintf("ContextProvider(%d)", int(p))
}

// ParseContextProvider parses "egl" or "glfw".
func ParseContextProvider(s string) (ContextProvider, error) {
	switch s {
	case "egl", "":
		return ProviderEGL, nil
	case "glfw":
		return ProviderGLFW, nil
	}
	return ProviderEGL, fmt.Errorf("unknown context provider %q", s)
}

// GLContext is a graphics context owned by a Rasterizer.
type GLContext interface {
	MakeCurrent() error
	// GL returns the function table of the context, or nil for contexts
	// of non-GL backends.
	GL() *gpu.GL
	Terminate() error
}

// DeviceFactory creates the device of a session from its context. It is
// called once, when the first render target is needed.
type DeviceFactory func(ctx GLContext) (gpu.Device, error)

type options struct {
	level         gpu.Level
	backend       Backend
	provider      ContextProvider
	driver        egl.Driver
	context       GLContext
	deviceFactory DeviceFactory
	alignment     int
	executor      Executor
	logger        *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithLevel selects the render level. The default is gpu.Baseline.
func WithLevel(level gpu.Level) Option {
	return func(o *options) { o.level = level }
}

// WithBackend selects the device implementation. The default is BackendGL.
func WithBackend(b Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithContextProvider selects how the GL context is created.
func WithContextProvider(p ContextProvider) Option {
	return func(o *options) { o.provider = p }
}

// WithDriver sets the EGL driver used by ProviderEGL instead of loading the
// system libEGL.
func WithDriver(drv egl.Driver) Option {
	return func(o *options) { o.driver = drv }
}

// WithContext hands an existing context to the session, which takes
// ownership of it and terminates it on Close.
func WithContext(ctx GLContext) Option {
	return func(o *options) { o.context = ctx }
}

// WithDeviceFactory overrides how the device is created.
func WithDeviceFactory(f DeviceFactory) Option {
	return func(o *options) { o.deviceFactory = f }
}

// WithAlignment sets the render target size granularity. The default is
// DefaultAlignment.
func WithAlignment(n int) Option {
	return func(o *options) { o.alignment = n }
}

// WithExecutor sets the executor passed to Scene.BuildAndRender. The
// default is a PoolExecutor with one worker per CPU.
func WithExecutor(e Executor) Option {
	return func(o *options) { o.executor = e }
}

// WithLogger sets the session logger. The default is gpu.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}
