package egl

import (
	"fmt"
	"unsafe"

	"github.com/gmlewis/gpuraster/gpu"
)

// GLLoader resolves a GL function table through a proc address lookup.
type GLLoader func(level gpu.Level, getProcAddr func(name string) unsafe.Pointer) (*gpu.GL, error)

// Connection is an initialized EGL display together with a pbuffer surface
// and a rendering context. It is created current on the calling thread.
//
// A Connection is not safe for concurrent use and must stay on the thread
// it was created on.
type Connection struct {
	drv     Driver
	level   gpu.Level
	display Display
	config  Config
	surface Surface
	context Context
	gl      *gpu.GL

	major, minor int32
	terminated   bool
}

// Open initializes the default display of drv and creates a context for
// level, current on the calling thread, with its GL function table loaded.
//
// On failure every object created so far is released and an *Error naming
// the failed stage is returned.
func Open(drv Driver, level gpu.Level) (*Connection, error) {
	return open(drv, level, gpu.LoadGL)
}

func open(drv Driver, level gpu.Level, load GLLoader) (*Connection, error) {
	c := &Connection{drv: drv, level: level}
	log := gpu.Logger()

	c.display = drv.GetDisplay(DefaultDisplay)
	if c.display == NoDisplay {
		return nil, newError(StageDisplay, drv.GetError(), nil)
	}
	var ok bool
	if c.major, c.minor, ok = drv.Initialize(c.display); !ok {
		return nil, newError(StageDisplay, drv.GetError(), nil)
	}
	log.Info("EGL initialized", "version", c.Version(), "vendor", drv.QueryString(c.display, Vendor))

	configs, ok := drv.ChooseConfig(c.display, configAttribs(level), 1)
	if !ok || len(configs) == 0 {
		err := newError(StageConfig, drv.GetError(), nil)
		c.release()
		return nil, err
	}
	c.config = configs[0]
	if id, ok := drv.GetConfigAttrib(c.display, c.config, ConfigID); ok {
		log.Debug("EGL config chosen", "id", id, "level", level)
	}

	c.surface = drv.CreatePbufferSurface(c.display, c.config, pbufferAttribs)
	if c.surface == NoSurface {
		err := newError(StageSurface, drv.GetError(), nil)
		c.release()
		return nil, err
	}

	api, attribs := contextAttribs(level)
	if !drv.BindAPI(api) {
		err := newError(StageContext, drv.GetError(), nil)
		c.release()
		return nil, err
	}
	c.context = drv.CreateContext(c.display, c.config, NoContext, attribs)
	if c.context == NoContext {
		err := newError(StageContext, drv.GetError(), nil)
		c.release()
		return nil, err
	}

	if !drv.MakeCurrent(c.display, c.surface, c.surface, c.context) {
		err := newError(StageMakeCurrent, drv.GetError(), nil)
		c.release()
		return nil, err
	}

	gl, err := load(level, drv.GetProcAddress)
	if err != nil {
		err := newError(StageProcAddress, Success, err)
		c.release()
		return nil, err
	}
	c.gl = gl
	log.Info("GL context created", "level", level, "gl", gl.Version)
	return c, nil
}

// MakeCurrent binds the context to the calling thread. It is a no-op when
// the context is already current.
func (c *Connection) MakeCurrent() error {
	if c.terminated {
		return ErrTerminated
	}
	if c.drv.GetCurrentContext() == c.context {
		return nil
	}
	if !c.drv.MakeCurrent(c.display, c.surface, c.surface, c.context) {
		return newError(StageMakeCurrent, c.drv.GetError(), nil)
	}
	return nil
}

// ProcAddress returns the address of a GL or EGL entry point, or nil.
func (c *Connection) ProcAddress(name string) unsafe.Pointer {
	return c.drv.GetProcAddress(name)
}

// GL returns the function table of the context.
func (c *Connection) GL() *gpu.GL { return c.gl }

// Level returns the render level the context was created for.
func (c *Connection) Level() gpu.Level { return c.level }

// Version returns the EGL version reported by the display.
func (c *Connection) Version() string {
	return fmt.Sprintf("%d.%d", c.major, c.minor)
}

// Terminate releases the context, the surface and the display. Only the
// first call does any work; later calls return nil.
func (c *Connection) Terminate() error {
	if c.terminated {
		return nil
	}
	return c.release()
}

// release destroys whatever has been created and terminates the display,
// reporting the first driver failure.
func (c *Connection) release() error {
	c.terminated = true
	drv := c.drv
	var first error
	fail := func() {
		if first == nil {
			first = newError(StageTerminate, drv.GetError(), nil)
		}
	}
	if c.context != NoContext {
		if drv.GetCurrentContext() == c.context && !drv.MakeCurrent(c.display, NoSurface, NoSurface, NoContext) {
			fail()
		}
		if !drv.DestroyContext(c.display, c.context) {
			fail()
		}
		c.context = NoContext
	}
	if c.surface != NoSurface {
		if !drv.DestroySurface(c.display, c.surface) {
			fail()
		}
		c.surface = NoSurface
	}
	if c.display != NoDisplay {
		if !drv.Terminate(c.display) {
			fail()
		}
		c.display = NoDisplay
	}
	c.gl = nil
	return first
}
