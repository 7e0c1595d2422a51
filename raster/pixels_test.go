package raster

import (
	"errors"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPixelBuffer(t *testing.T) {
	p := &PixelBuffer{Width: 2, Height: 2, Pix: []byte{
		1, 2, 3, 4, 5, 6, 7, 8,
		9, 10, 11, 12, 13, 14, 15, 16,
	}}
	assert.Equal(t, 8, p.Stride())
	assert.Equal(t, color.RGBA{5, 6, 7, 8}, p.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{9, 10, 11, 12}, p.RGBAAt(0, 1))
	assert.Equal(t, color.RGBA{}, p.RGBAAt(2, 0))
	assert.Equal(t, color.RGBA{}, p.RGBAAt(0, -1))

	img := p.Image()
	assert.Equal(t, color.RGBA{13, 14, 15, 16}, img.RGBAAt(1, 1))
	img.SetRGBA(0, 0, color.RGBA{A: 255})
	assert.Equal(t, byte(255), p.Pix[3])
}

func TestExecutors(t *testing.T) {
	for name, e := range map[string]Executor{
		"sequential": SequentialExecutor{},
		"pool":       PoolExecutor{Workers: 3},
		"pool/cpus":  PoolExecutor{},
	} {
		t.Run(name, func(t *testing.T) {
			out := make([]int, 50)
			err := e.Run(len(out), func(i int) error {
				out[i] = i * i
				return nil
			})
			assert.NoError(t, err)
			for i, v := range out {
				assert.Equal(t, i*i, v)
			}

			boom := errors.New("boom")
			err = e.Run(10, func(i int) error {
				if i == 4 {
					return boom
				}
				return nil
			})
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestSequentialExecutorStops(t *testing.T) {
	var calls atomic.Int32
	err := SequentialExecutor{}.Run(10, func(i int) error {
		calls.Add(1)
		if i == 2 {
			return errors.New("stop")
		}
		return nil
	})
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}
