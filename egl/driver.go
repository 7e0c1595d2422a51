package egl

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// DefaultLibraries are the library names tried by Load, in order.
var DefaultLibraries = []string{"libEGL.so.1", "libEGL.so"}

type eglBool = uint32

// dynamicDriver calls into a libEGL opened with purego.
type dynamicDriver struct {
	lib uintptr

	eglGetDisplay           func(native uintptr) uintptr
	eglInitialize           func(dpy uintptr, major, minor *int32) eglBool
	eglChooseConfig         func(dpy uintptr, attribs *int32, configs *uintptr, size int32, num *int32) eglBool
	eglGetConfigAttrib      func(dpy, cfg uintptr, attrib int32, value *int32) eglBool
	eglCreatePbufferSurface func(dpy, cfg uintptr, attribs *int32) uintptr
	eglBindAPI              func(api uint32) eglBool
	eglCreateContext        func(dpy, cfg, share uintptr, attribs *int32) uintptr
	eglMakeCurrent          func(dpy, draw, read, ctx uintptr) eglBool
	eglGetCurrentContext    func() uintptr
	eglGetProcAddress       func(name string) uintptr
	eglQueryString          func(dpy uintptr, name int32) string
	eglGetError             func() int32
	eglDestroyContext       func(dpy, ctx uintptr) eglBool
	eglDestroySurface       func(dpy, surface uintptr) eglBool
	eglTerminate            func(dpy uintptr) eglBool
}

// Load opens the first loadable library of names (DefaultLibraries when
// empty) and binds the EGL entry points. Errors match ErrDriverLoad.
func Load(names ...string) (Driver, error) {
	if len(names) == 0 {
		names = DefaultLibraries
	}
	var errs []error
	for _, name := range names {
		lib, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d, err := bind(lib)
		if err != nil {
			purego.Dlclose(lib)
			return nil, newError(StageLoad, Success, fmt.Errorf("%v: %w", name, err))
		}
		return d, nil
	}
	return nil, newError(StageLoad, Success, errors.Join(errs...))
}

func bind(lib uintptr) (*dynamicDriver, error) {
	d := &dynamicDriver{lib: lib}
	for _, sym := range []struct {
		name string
		fptr any
	}{
		{"eglGetDisplay", &d.eglGetDisplay},
		{"eglInitialize", &d.eglInitialize},
		{"eglChooseConfig", &d.eglChooseConfig},
		{"eglGetConfigAttrib", &d.eglGetConfigAttrib},
		{"eglCreatePbufferSurface", &d.eglCreatePbufferSurface},
		{"eglBindAPI", &d.eglBindAPI},
		{"eglCreateContext", &d.eglCreateContext},
		{"eglMakeCurrent", &d.eglMakeCurrent},
		{"eglGetCurrentContext", &d.eglGetCurrentContext},
		{"eglGetProcAddress", &d.eglGetProcAddress},
		{"eglQueryString", &d.eglQueryString},
		{"eglGetError", &d.eglGetError},
		{"eglDestroyContext", &d.eglDestroyContext},
		{"eglDestroySurface", &d.eglDestroySurface},
		{"eglTerminate", &d.eglTerminate},
	} {
		addr, err := purego.Dlsym(lib, sym.name)
		if err != nil {
			return nil, err
		}
		purego.RegisterFunc(sym.fptr, addr)
	}
	return d, nil
}

func (d *dynamicDriver) GetDisplay(native uintptr) Display {
	return Display(d.eglGetDisplay(native))
}

func (d *dynamicDriver) Initialize(dpy Display) (major, minor int32, ok bool) {
	ok = d.eglInitialize(uintptr(dpy), &major, &minor) != 0
	return major, minor, ok
}

func (d *dynamicDriver) ChooseConfig(dpy Display, attribs []int32, size int) ([]Config, bool) {
	configs := make([]uintptr, size)
	var n int32
	if d.eglChooseConfig(uintptr(dpy), &attribs[0], &configs[0], int32(size), &n) == 0 {
		return nil, false
	}
	out := make([]Config, n)
	for i := range out {
		out[i] = Config(configs[i])
	}
	return out, true
}

func (d *dynamicDriver) GetConfigAttrib(dpy Display, cfg Config, attrib int32) (int32, bool) {
	var v int32
	ok := d.eglGetConfigAttrib(uintptr(dpy), uintptr(cfg), attrib, &v) != 0
	return v, ok
}

func (d *dynamicDriver) CreatePbufferSurface(dpy Display, cfg Config, attribs []int32) Surface {
	return Surface(d.eglCreatePbufferSurface(uintptr(dpy), uintptr(cfg), &attribs[0]))
}

func (d *dynamicDriver) BindAPI(api uint32) bool {
	return d.eglBindAPI(api) != 0
}

func (d *dynamicDriver) CreateContext(dpy Display, cfg Config, share Context, attribs []int32) Context {
	return Context(d.eglCreateContext(uintptr(dpy), uintptr(cfg), uintptr(share), &attribs[0]))
}

func (d *dynamicDriver) MakeCurrent(dpy Display, draw, read Surface, ctx Context) bool {
	return d.eglMakeCurrent(uintptr(dpy), uintptr(draw), uintptr(read), uintptr(ctx)) != 0
}

func (d *dynamicDriver) GetCurrentContext() Context {
	return Context(d.eglGetCurrentContext())
}

func (d *dynamicDriver) GetProcAddress(name string) unsafe.Pointer {
	addr := d.eglGetProcAddress(name)
	return *(*unsafe.Pointer)(unsafe.Pointer(&addr))
}

func (d *dynamicDriver) QueryString(dpy Display, name int32) string {
	return d.eglQueryString(uintptr(dpy), name)
}

func (d *dynamicDriver) GetError() int32 { return d.eglGetError() }

func (d *dynamicDriver) DestroyContext(dpy Display, ctx Context) bool {
	return d.eglDestroyContext(uintptr(dpy), uintptr(ctx)) != 0
}

func (d *dynamicDriver) DestroySurface(dpy Display, surface Surface) bool {
	return d.eglDestroySurface(uintptr(dpy), uintptr(surface)) != 0
}

func (d *dynamicDriver) Terminate(dpy Display) bool {
	return d.eglTerminate(uintptr(dpy)) != 0
}
