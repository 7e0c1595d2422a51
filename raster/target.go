package raster

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/gmlewis/gpuraster/gpu"
)

// DefaultAlignment is the granularity render target sizes are rounded up
// to, so that documents of similar sizes share one target.
const DefaultAlignment = 16

type action int

const (
	actionCreate action = iota
	actionResize
	actionReuse
)

func (a action) String() string {
	switch a {
	case actionCreate:
		return "create"
	case actionResize:
		return "resize"
	}
	return "reuse"
}

// target is a render target: a framebuffer and the size of its texture.
type target struct {
	size image.Point
	fb   gpu.Framebuffer
}

// Stats counts render target cache decisions.
type Stats struct {
	Creates int
	Resizes int
	Reuses  int
}

func alignUp(v, alignment int) int {
	return (v + alignment - 1) / alignment * alignment
}

// resolve decides what to do with the cached target current for a render
// of requested size, and returns the aligned target size.
func resolve(requested image.Point, current *target, alignment int) (action, image.Point) {
	size := image.Pt(alignUp(requested.X, alignment), alignUp(requested.Y, alignment))
	switch {
	case current == nil:
		return actionCreate, size
	case current.size != size:
		return actionResize, size
	}
	return actionReuse, size
}

// targetCache owns the device and the single live render target.
type targetCache struct {
	alignment int
	newDevice func() (gpu.Device, error)
	log       *slog.Logger

	device   gpu.Device
	renderer *gpu.Renderer
	current  *target
	stats    Stats
}

// get returns a target at least as large as size, creating the device on
// first use.
func (c *targetCache) get(size image.Point) (*target, error) {
	act, aligned := resolve(size, c.current, c.alignment)
	c.logger().Debug("render target", "requested", size, "aligned", aligned, "action", act)
	if act == actionReuse {
		c.stats.Reuses++
		return c.current, nil
	}

	if c.device == nil {
		device, err := c.newDevice()
		if err != nil {
			return nil, fmt.Errorf("create device: %w", err)
		}
		c.device = device
		c.renderer = gpu.NewRenderer(device, gpu.Options{})
	}

	t, err := c.allocate(aligned)
	if err != nil {
		return nil, err
	}
	c.renderer.Options().Dest = t.fb
	if old := c.current; old != nil {
		c.device.DestroyFramebuffer(old.fb)
		c.stats.Resizes++
	} else {
		c.stats.Creates++
	}
	c.current = t
	return t, nil
}

func (c *targetCache) allocate(size image.Point) (*target, error) {
	tex, err := c.device.CreateTexture(gpu.RGBA8, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %vx%v texture: %v", ErrDeviceOutOfMemory, size.X, size.Y, err)
	}
	fb, err := c.device.CreateFramebuffer(tex)
	if err != nil {
		c.device.DestroyTexture(tex)
		return nil, fmt.Errorf("%w: %vx%v framebuffer: %v", ErrDeviceOutOfMemory, size.X, size.Y, err)
	}
	return &target{size: size, fb: fb}, nil
}

func (c *targetCache) logger() *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return gpu.Logger()
}

// release destroys the target and the device.
func (c *targetCache) release() {
	if c.current != nil {
		c.device.DestroyFramebuffer(c.current.fb)
		c.current = nil
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
		c.renderer = nil
	}
}
