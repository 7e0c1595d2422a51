// Package glfwctx creates an OpenGL context on a hidden GLFW window. It is
// an alternative to package egl on hosts where a display server is
// available but libEGL is not.
package glfwctx

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gmlewis/gpuraster/gpu"
)

// ErrTerminated is returned by MakeCurrent after Terminate.
var ErrTerminated = errors.New("glfw context already terminated")

// Context is a hidden window owning a GL context. GLFW requires that it is
// used from the main thread.
type Context struct {
	window *glfw.Window
	level  gpu.Level
	gl     *gpu.GL
}

// Open initializes GLFW and creates a hidden 1x1 window whose context
// targets level, then loads its GL function table.
func Open(level gpu.Level) (*Context, error) {
	err := glfw.Init()
	if err != nil {
		return nil, fmt.Errorf("glfw.Init: %v", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.Visible, glfw.False)
	if level == gpu.Advanced {
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	} else {
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLESAPI)
		glfw.WindowHint(glfw.ContextVersionMajor, 3)
		glfw.WindowHint(glfw.ContextVersionMinor, 0)
	}
	window, err := glfw.CreateWindow(1, 1, "gpuraster", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("CreateWindow(%v,%v): %v", 1, 1, err)
	}
	window.MakeContextCurrent()

	t, err := gpu.LoadGL(level, func(name string) unsafe.Pointer {
		return glfw.GetProcAddress(name)
	})
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, err
	}
	gpu.Logger().Info("GLFW context created", "level", level, "gl", t.Version)
	return &Context{window: window, level: level, gl: t}, nil
}

// MakeCurrent makes the window's context current on the calling thread.
func (c *Context) MakeCurrent() error {
	if c.window == nil {
		return ErrTerminated
	}
	if glfw.GetCurrentContext() != c.window {
		c.window.MakeContextCurrent()
	}
	return nil
}

// GL returns the function table of the context.
func (c *Context) GL() *gpu.GL { return c.gl }

// Level returns the render level the context was created for.
func (c *Context) Level() gpu.Level { return c.level }

// Terminate destroys the window and terminates GLFW. Only the first call
// does any work.
func (c *Context) Terminate() error {
	if c.window == nil {
		return nil
	}
	c.window.Destroy()
	c.window = nil
	c.gl = nil
	glfw.Terminate()
	return nil
}
