package egl

import (
	"errors"
	"fmt"
)

// Stage identifies the step of context setup or teardown that failed.
type Stage int

const (
	StageLoad Stage = iota
	StageDisplay
	StageConfig
	StageSurface
	StageContext
	StageMakeCurrent
	StageProcAddress
	StageTerminate
)

var stageNames = [...]string{
	StageLoad:        "load driver",
	StageDisplay:     "initialize display",
	StageConfig:      "choose config",
	StageSurface:     "create surface",
	StageContext:     "create context",
	StageMakeCurrent: "make current",
	StageProcAddress: "load GL functions",
	StageTerminate:   "terminate",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

var (
	ErrDriverLoad       = errors.New("EGL driver could not be loaded")
	ErrDisplayInit      = errors.New("EGL display initialization failed")
	ErrNoMatchingConfig = errors.New("no EGL config matches the requested attributes")
	ErrSurfaceCreation  = errors.New("EGL pbuffer surface creation failed")
	ErrContextCreation  = errors.New("EGL context creation failed")
	ErrMakeCurrent      = errors.New("EGL context could not be made current")
	ErrProcAddress      = errors.New("GL entry point lookup failed")
	ErrTerminate        = errors.New("EGL terminate failed")
	ErrTerminated       = errors.New("EGL connection already terminated")
)

var stageErrors = [...]error{
	StageLoad:        ErrDriverLoad,
	StageDisplay:     ErrDisplayInit,
	StageConfig:      ErrNoMatchingConfig,
	StageSurface:     ErrSurfaceCreation,
	StageContext:     ErrContextCreation,
	StageMakeCurrent: ErrMakeCurrent,
	StageProcAddress: ErrProcAddress,
	StageTerminate:   ErrTerminate,
}

// Error reports a failed EGL call. It matches the sentinel error of its
// stage with errors.Is.
type Error struct {
	Stage Stage
	// Code is the value of eglGetError after the failure, or Success when
	// the failure was not reported by the driver.
	Code int32
	// Err is an optional underlying cause.
	Err error
}

func newError(stage Stage, code int32, err error) *Error {
	return &Error{Stage: stage, Code: code, Err: err}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("egl: %v: %v", e.Stage, stageErrors[e.Stage])
	if e.Code != Success {
		msg += fmt.Sprintf(" (%v)", CodeName(e.Code))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return e.Stage >= 0 && int(e.Stage) < len(stageErrors) && target == stageErrors[e.Stage]
}

// CodeName returns the symbolic name of an EGL error code.
func CodeName(code int32) string {
	switch code {
	case Success:
		return "EGL_SUCCESS"
	case NotInitialized:
		return "EGL_NOT_INITIALIZED"
	case BadAccess:
		return "EGL_BAD_ACCESS"
	case BadAlloc:
		return "EGL_BAD_ALLOC"
	case BadAttribute:
		return "EGL_BAD_ATTRIBUTE"
	case BadConfig:
		return "EGL_BAD_CONFIG"
	case BadContext:
		return "EGL_BAD_CONTEXT"
	case BadCurrentSurface:
		return "EGL_BAD_CURRENT_SURFACE"
	case BadDisplay:
		return "EGL_BAD_DISPLAY"
	case BadMatch:
		return "EGL_BAD_MATCH"
	case BadNativePixmap:
		return "EGL_BAD_NATIVE_PIXMAP"
	case BadNativeWindow:
		return "EGL_BAD_NATIVE_WINDOW"
	case BadParameter:
		return "EGL_BAD_PARAMETER"
	case BadSurface:
		return "EGL_BAD_SURFACE"
	case ContextLost:
		return "EGL_CONTEXT_LOST"
	}
	return fmt.Sprintf("0x%x", code)
}
