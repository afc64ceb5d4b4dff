// Package accel offloads the stencil to a compute device.
package accel

import (
	"fmt"
	"runtime"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// Buffer is a region of device memory.
type Buffer struct {
	mem      []byte
	released bool
}

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int { return len(b.mem) }

// Bytes exposes device memory to kernels running on the device.
func (b *Buffer) Bytes() []byte { return b.mem }

// Device is the contract an accelerator backend implements: explicit copies
// in and out of device memory and a launch of independent tasks.
type Device interface {
	Name() string
	CopyIn(src []byte) (*Buffer, error)
	Alloc(n int) (*Buffer, error)
	// Launch runs kernel once per task index in [0, tasks) and returns when
	// all tasks have finished. Tasks may run in any order.
	Launch(tasks int, kernel func(task int)) error
	CopyOut(dst []byte, b *Buffer) error
	Release(bufs ...*Buffer)
	Close() error
}

// HostDevice emulates an accelerator on the CPU. Device memory is a separate
// allocation from host memory and compute units are a persistent worker pool.
type HostDevice struct {
	pool  *workerpool.Pool
	units int
}

// NewHostDevice starts units compute units; units <= 0 uses GOMAXPROCS.
func NewHostDevice(units int) *HostDevice {
	if units <= 0 {
		units = runtime.GOMAXPROCS(0)
	}
	return &HostDevice{pool: workerpool.New(units), units: units}
}

func (d *HostDevice) Name() string {
	return fmt.Sprintf("host(%d units)", d.units)
}

func (d *HostDevice) CopyIn(src []byte) (*Buffer, error) {
	b := &Buffer{mem: make([]byte, len(src))}
	copy(b.mem, src)
	return b, nil
}

func (d *HostDevice) Alloc(n int) (*Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("alloc of %d bytes", n)
	}
	return &Buffer{mem: make([]byte, n)}, nil
}

func (d *HostDevice) Launch(tasks int, kernel func(task int)) error {
	d.pool.ParallelFor(tasks, func(start, end int) {
		for t := start; t < end; t++ {
			kernel(t)
		}
	})
	return nil
}

func (d *HostDevice) CopyOut(dst []byte, b *Buffer) error {
	if b.released {
		return fmt.Errorf("copy out of released buffer")
	}
	if len(dst) != len(b.mem) {
		return fmt.Errorf("copy out of %d bytes into %d", len(b.mem), len(dst))
	}
	copy(dst, b.mem)
	return nil
}

func (d *HostDevice) Release(bufs ...*Buffer) {
	for _, b := range bufs {
		if b == nil {
			continue
		}
		b.mem = nil
		b.released = true
	}
}

func (d *HostDevice) Close() error {
	d.pool.Close()
	return nil
}
