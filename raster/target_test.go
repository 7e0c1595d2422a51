package raster

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmlewis/gpuraster/gpu"
)

func TestAlignUp(t *testing.T) {
	tests := []struct{ v, a, want int }{
		{1, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
		{100, 16, 112},
		{11, 1, 11},
		{5, 4, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, alignUp(tt.v, tt.a), "alignUp(%v, %v)", tt.v, tt.a)
	}
}

func TestResolve(t *testing.T) {
	cached := &target{size: image.Pt(32, 16)}
	tests := []struct {
		name      string
		requested image.Point
		current   *target
		want      action
		wantSize  image.Point
	}{
		{"empty cache", image.Pt(20, 10), nil, actionCreate, image.Pt(32, 16)},
		{"same bucket", image.Pt(17, 1), cached, actionReuse, image.Pt(32, 16)},
		{"exact", image.Pt(32, 16), cached, actionReuse, image.Pt(32, 16)},
		{"taller", image.Pt(20, 17), cached, actionResize, image.Pt(32, 32)},
		{"smaller", image.Pt(10, 10), cached, actionResize, image.Pt(16, 16)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, size := resolve(tt.requested, tt.current, DefaultAlignment)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSize, size)
		})
	}
}

func TestTargetCache(t *testing.T) {
	dev := &fakeDevice{format: gpu.RGBA8}
	newDevice := 0
	c := &targetCache{
		alignment: DefaultAlignment,
		newDevice: func() (gpu.Device, error) { newDevice++; return dev, nil },
	}

	t1, err := c.get(image.Pt(10, 10))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(16, 16), t1.size)
	assert.Equal(t, t1.fb, c.renderer.Options().Dest)

	t2, err := c.get(image.Pt(16, 3))
	require.NoError(t, err)
	assert.Same(t, t1, t2)

	t3, err := c.get(image.Pt(40, 3))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(48, 16), t3.size)
	assert.Equal(t, t3.fb, c.renderer.Options().Dest)

	assert.Equal(t, Stats{Creates: 1, Resizes: 1, Reuses: 1}, c.stats)
	assert.Equal(t, 1, newDevice)
	assert.Equal(t, 2, dev.textures)
	assert.Equal(t, []gpu.Framebuffer{t1.fb}, dev.destroyed)

	c.release()
	assert.Equal(t, []gpu.Framebuffer{t1.fb, t3.fb}, dev.destroyed)
	assert.Equal(t, 1, dev.releases)
}

func TestTargetCacheAllocationFailure(t *testing.T) {
	dev := &fakeDevice{format: gpu.RGBA8, failAlloc: true}
	c := &targetCache{
		alignment: DefaultAlignment,
		newDevice: func() (gpu.Device, error) { return dev, nil },
	}
	_, err := c.get(image.Pt(10, 10))
	assert.ErrorIs(t, err, ErrDeviceOutOfMemory)
	assert.Nil(t, c.current)

	c = &targetCache{
		alignment: DefaultAlignment,
		newDevice: func() (gpu.Device, error) { return nil, errors.New("no adapter") },
	}
	_, err = c.get(image.Pt(10, 10))
	assert.ErrorContains(t, err, "no adapter")
}
