package egl

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmlewis/gpuraster/gpu"
)

// mockDriver is an in-memory Driver. Setting a fail* field makes the
// corresponding call report failure with code.
type mockDriver struct {
	failDisplay, failInit, failConfig, failSurface bool
	failBind, failContext, failMakeCurrent         bool
	failTerminate                                  bool
	code                                           int32

	current        Context
	configAttribs  []int32
	contextAttribs []int32
	api            uint32

	makeCurrentCalls int
	destroyedCtx     int
	destroyedSurf    int
	terminated       int
}

func (m *mockDriver) fail(f bool) bool {
	if f && m.code == 0 {
		m.code = BadAlloc
	}
	return f
}

func (m *mockDriver) GetDisplay(native uintptr) Display {
	if m.fail(m.failDisplay) {
		return NoDisplay
	}
	return 1
}

func (m *mockDriver) Initialize(dpy Display) (int32, int32, bool) {
	if m.fail(m.failInit) {
		return 0, 0, false
	}
	return 1, 5, true
}

func (m *mockDriver) ChooseConfig(dpy Display, attribs []int32, size int) ([]Config, bool) {
	m.configAttribs = attribs
	if m.fail(m.failConfig) {
		return nil, true
	}
	return []Config{7}, true
}

func (m *mockDriver) GetConfigAttrib(dpy Display, cfg Config, attrib int32) (int32, bool) {
	return int32(cfg), true
}

func (m *mockDriver) CreatePbufferSurface(dpy Display, cfg Config, attribs []int32) Surface {
	if m.fail(m.failSurface) {
		return NoSurface
	}
	return 2
}

func (m *mockDriver) BindAPI(api uint32) bool {
	m.api = api
	return !m.fail(m.failBind)
}

func (m *mockDriver) CreateContext(dpy Display, cfg Config, share Context, attribs []int32) Context {
	m.contextAttribs = attribs
	if m.fail(m.failContext) {
		return NoContext
	}
	return 3
}

func (m *mockDriver) MakeCurrent(dpy Display, draw, read Surface, ctx Context) bool {
	m.makeCurrentCalls++
	if ctx != NoContext && m.fail(m.failMakeCurrent) {
		return false
	}
	m.current = ctx
	return true
}

func (m *mockDriver) GetCurrentContext() Context { return m.current }

func (m *mockDriver) GetProcAddress(name string) unsafe.Pointer { return nil }

func (m *mockDriver) QueryString(dpy Display, name int32) string { return "mock" }

func (m *mockDriver) GetError() int32 {
	code := m.code
	m.code = 0
	if code == 0 {
		return Success
	}
	return code
}

func (m *mockDriver) DestroyContext(dpy Display, ctx Context) bool {
	m.destroyedCtx++
	return true
}

func (m *mockDriver) DestroySurface(dpy Display, surface Surface) bool {
	m.destroyedSurf++
	return true
}

func (m *mockDriver) Terminate(dpy Display) bool {
	m.terminated++
	return !m.fail(m.failTerminate)
}

func fakeLoader(level gpu.Level, _ func(string) unsafe.Pointer) (*gpu.GL, error) {
	return &gpu.GL{Level: level, Version: "fake GL"}, nil
}

func TestOpen(t *testing.T) {
	for _, level := range []gpu.Level{gpu.Baseline, gpu.Advanced} {
		t.Run(level.String(), func(t *testing.T) {
			m := &mockDriver{}
			c, err := open(m, level, fakeLoader)
			require.NoError(t, err)

			assert.Equal(t, "1.5", c.Version())
			assert.Equal(t, level, c.Level())
			assert.Equal(t, "fake GL", c.GL().Version)
			assert.Equal(t, Context(3), m.current)

			if level == gpu.Advanced {
				assert.Equal(t, OpenGLAPI, m.api)
				assert.Contains(t, m.configAttribs, OpenGLBit)
				assert.Equal(t, []int32{ContextMajorVersion, 4, ContextMinorVersion, 1, ContextOpenGLProfileMask, CoreProfileBit, None}, m.contextAttribs)
			} else {
				assert.Equal(t, OpenGLESAPI, m.api)
				assert.Contains(t, m.configAttribs, OpenGLES3Bit)
				assert.Equal(t, []int32{ContextMajorVersion, 3, ContextMinorVersion, 0, None}, m.contextAttribs)
			}
			assert.Equal(t, None, m.configAttribs[len(m.configAttribs)-1])

			require.NoError(t, c.Terminate())
			assert.Equal(t, NoContext, m.current)
			assert.Nil(t, c.GL())
		})
	}
}

func TestOpenFailures(t *testing.T) {
	tests := []struct {
		name      string
		m         *mockDriver
		loader    GLLoader
		want      error
		stage     Stage
		terminate int
	}{
		{"display", &mockDriver{failDisplay: true}, fakeLoader, ErrDisplayInit, StageDisplay, 0},
		{"init", &mockDriver{failInit: true}, fakeLoader, ErrDisplayInit, StageDisplay, 0},
		{"config", &mockDriver{failConfig: true}, fakeLoader, ErrNoMatchingConfig, StageConfig, 1},
		{"surface", &mockDriver{failSurface: true}, fakeLoader, ErrSurfaceCreation, StageSurface, 1},
		{"bind", &mockDriver{failBind: true}, fakeLoader, ErrContextCreation, StageContext, 1},
		{"context", &mockDriver{failContext: true}, fakeLoader, ErrContextCreation, StageContext, 1},
		{"make current", &mockDriver{failMakeCurrent: true}, fakeLoader, ErrMakeCurrent, StageMakeCurrent, 1},
		{"proc address", &mockDriver{}, func(gpu.Level, func(string) unsafe.Pointer) (*gpu.GL, error) {
			return nil, errors.New("glFenceSync")
		}, ErrProcAddress, StageProcAddress, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := open(tt.m, gpu.Baseline, tt.loader)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tt.want)

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.stage, e.Stage)
			assert.Equal(t, tt.terminate, tt.m.terminated, "display terminated")
			assert.Equal(t, NoContext, tt.m.current)
		})
	}
}

func TestOpenFailureCode(t *testing.T) {
	_, err := open(&mockDriver{failSurface: true, code: BadMatch}, gpu.Baseline, fakeLoader)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, BadMatch, e.Code)
	assert.Contains(t, err.Error(), "EGL_BAD_MATCH")
	assert.Contains(t, err.Error(), "create surface")
}

func TestTerminateOnce(t *testing.T) {
	m := &mockDriver{}
	c, err := open(m, gpu.Baseline, fakeLoader)
	require.NoError(t, err)

	require.NoError(t, c.Terminate())
	require.NoError(t, c.Terminate())
	assert.Equal(t, 1, m.terminated)
	assert.Equal(t, 1, m.destroyedCtx)
	assert.Equal(t, 1, m.destroyedSurf)
	assert.ErrorIs(t, c.MakeCurrent(), ErrTerminated)
}

func TestTerminateError(t *testing.T) {
	m := &mockDriver{}
	c, err := open(m, gpu.Baseline, fakeLoader)
	require.NoError(t, err)

	m.failTerminate = true
	err = c.Terminate()
	assert.ErrorIs(t, err, ErrTerminate)
	assert.NoError(t, c.Terminate())
	assert.Equal(t, 1, m.terminated)
}

func TestMakeCurrentIdempotent(t *testing.T) {
	m := &mockDriver{}
	c, err := open(m, gpu.Baseline, fakeLoader)
	require.NoError(t, err)
	defer c.Terminate()

	calls := m.makeCurrentCalls
	require.NoError(t, c.MakeCurrent())
	assert.Equal(t, calls, m.makeCurrentCalls)

	// Another context was made current in between.
	m.current = 42
	require.NoError(t, c.MakeCurrent())
	assert.Equal(t, calls+1, m.makeCurrentCalls)
	assert.Equal(t, Context(3), m.current)
}

func TestLoadMissingLibrary(t *testing.T) {
	_, err := Load("libdoes-not-exist-egl.so.0")
	assert.ErrorIs(t, err, ErrDriverLoad)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "choose config", StageConfig.String())
	assert.Equal(t, "Stage(42)", Stage(42).String())
	assert.Equal(t, "0x1234", CodeName(0x1234))
}
