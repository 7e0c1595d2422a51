package raster

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Executor runs n independent jobs and returns the first error.
type Executor interface {
	Run(n int, job func(i int) error) error
}

// SequentialExecutor runs jobs one after another on the calling goroutine.
type SequentialExecutor struct{}

func (SequentialExecutor) Run(n int, job func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := job(i); err != nil {
			return err
		}
	}
	return nil
}

// PoolExecutor runs jobs on at most Workers goroutines, or
// runtime.NumCPU() when Workers is zero.
type PoolExecutor struct {
	Workers int
}

func (p PoolExecutor) Run(n int, job func(i int) error) error {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error { return job(i) })
	}
	return g.Wait()
}
