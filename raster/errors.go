package raster

import "errors"

var (
	// ErrInvalidSize is returned when a scene's view-box is not finite, has
	// a non-positive width or height, or exceeds MaxViewBoxSize. It reports
	// bad input, not a GPU failure.
	ErrInvalidSize = errors.New("raster: scene view-box size must be positive and finite")
	// ErrDeviceOutOfMemory is returned when a render target cannot be
	// allocated.
	ErrDeviceOutOfMemory = errors.New("raster: device out of memory")
	// ErrUnsupportedPixelFormat is returned when read back pixels are not
	// 8 bits per channel RGBA.
	ErrUnsupportedPixelFormat = errors.New("raster: unsupported pixel format")
	// ErrBufferSizeMismatch is returned when the read back byte count does
	// not match the requested size.
	ErrBufferSizeMismatch = errors.New("raster: pixel buffer size mismatch")
	// ErrTerminated is returned by every call after Close.
	ErrTerminated = errors.New("raster: session terminated")
	// ErrSessionPoisoned is returned by Rasterize after a GPU failure left
	// the session in an unknown state. A new session must be created.
	ErrSessionPoisoned = errors.New("raster: session unusable after GPU failure")
)
