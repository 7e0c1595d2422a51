// Package egl creates a headless OpenGL (ES) context with EGL: a pbuffer
// surface and a rendering context bound to it, without any window or
// display server.
//
// The EGL library is opened at run time (see Load), so binaries using this
// package start on hosts without libEGL and fail only when a context is
// requested.
package egl

import (
	"unsafe"

	"github.com/gmlewis/gpuraster/gpu"
)

// Opaque EGL handles.
type (
	Display uintptr
	Config  uintptr
	Surface uintptr
	Context uintptr
)

const (
	NoDisplay Display = 0
	NoSurface Surface = 0
	NoContext Context = 0

	DefaultDisplay uintptr = 0
)

// Attribute names and values.
const (
	None           int32 = 0x3038
	BlueSize       int32 = 0x3022
	GreenSize      int32 = 0x3023
	RedSize        int32 = 0x3024
	DepthSize      int32 = 0x3025
	StencilSize    int32 = 0x3026
	ConfigID       int32 = 0x3028
	SurfaceType    int32 = 0x3033
	RenderableType int32 = 0x3040
	Height         int32 = 0x3056
	Width          int32 = 0x3057

	PbufferBit     int32 = 0x0001
	OpenGLES2Bit   int32 = 0x0004
	OpenGLBit      int32 = 0x0008
	OpenGLES3Bit   int32 = 0x0040
	CoreProfileBit int32 = 0x0001

	ContextMajorVersion      int32 = 0x3098
	ContextMinorVersion      int32 = 0x30FB
	ContextOpenGLProfileMask int32 = 0x30FD

	Vendor     int32 = 0x3053
	Version    int32 = 0x3054
	ClientAPIs int32 = 0x308D
)

// Client APIs for BindAPI.
const (
	OpenGLESAPI uint32 = 0x30A0
	OpenGLAPI   uint32 = 0x30A2
)

// Error codes returned by GetError.
const (
	Success           int32 = 0x3000
	NotInitialized    int32 = 0x3001
	BadAccess         int32 = 0x3002
	BadAlloc          int32 = 0x3003
	BadAttribute      int32 = 0x3004
	BadConfig         int32 = 0x3005
	BadContext        int32 = 0x3006
	BadCurrentSurface int32 = 0x3007
	BadDisplay        int32 = 0x3008
	BadMatch          int32 = 0x3009
	BadNativePixmap   int32 = 0x300A
	BadNativeWindow   int32 = 0x300B
	BadParameter      int32 = 0x300C
	BadSurface        int32 = 0x300D
	ContextLost       int32 = 0x300E
)

// Driver is the subset of the EGL 1.5 API used by this package. Attribute
// lists are terminated by None.
//
// Load returns a Driver backed by the system libEGL; tests substitute their
// own.
type Driver interface {
	GetDisplay(native uintptr) Display
	Initialize(dpy Display) (major, minor int32, ok bool)
	ChooseConfig(dpy Display, attribs []int32, size int) ([]Config, bool)
	GetConfigAttrib(dpy Display, cfg Config, attrib int32) (int32, bool)
	CreatePbufferSurface(dpy Display, cfg Config, attribs []int32) Surface
	BindAPI(api uint32) bool
	CreateContext(dpy Display, cfg Config, share Context, attribs []int32) Context
	MakeCurrent(dpy Display, draw, read Surface, ctx Context) bool
	GetCurrentContext() Context
	GetProcAddress(name string) unsafe.Pointer
	QueryString(dpy Display, name int32) string
	GetError() int32
	DestroyContext(dpy Display, ctx Context) bool
	DestroySurface(dpy Display, surface Surface) bool
	Terminate(dpy Display) bool
}

// configAttribs returns the eglChooseConfig attributes for level: an 8-bit
// RGB pbuffer config with depth and a stencil buffer for path filling.
func configAttribs(level gpu.Level) []int32 {
	renderable := OpenGLES3Bit
	if level == gpu.Advanced {
		renderable = OpenGLBit
	}
	return []int32{
		SurfaceType, PbufferBit,
		RedSize, 8,
		GreenSize, 8,
		BlueSize, 8,
		DepthSize, 8,
		StencilSize, 8,
		RenderableType, renderable,
		None,
	}
}

// contextAttribs returns the client API and eglCreateContext attributes
// for level: OpenGL ES 3.0 or OpenGL 4.1 core.
func contextAttribs(level gpu.Level) (uint32, []int32) {
	if level == gpu.Advanced {
		return OpenGLAPI, []int32{
			ContextMajorVersion, 4,
			ContextMinorVersion, 1,
			ContextOpenGLProfileMask, CoreProfileBit,
			None,
		}
	}
	return OpenGLESAPI, []int32{
		ContextMajorVersion, 3,
		ContextMinorVersion, 0,
		None,
	}
}

// pbufferAttribs sizes the placeholder surface. Rendering goes to
// framebuffer objects, so the surface itself is never drawn to.
var pbufferAttribs = []int32{Width, 1, Height, 1, None}
