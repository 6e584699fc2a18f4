// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"math"
	"time"

	"github.com/devblok/koru/gfx"
	"github.com/pkg/errors"
)

// Forever is the fence timeout used when none is configured.
const Forever = time.Duration(math.MaxInt64)

// NewFence creates a fence in the signaled state, so that
// the first wait on it returns immediately.
func NewFence(device gfx.Device) *Fence {
	fence, err := device.CreateFence(true)
	if err != nil {
		fatal(err, "CreateFence")
		return nil
	}
	return &Fence{
		device: device,
		fence:  fence,
	}
}

// Fence is a GPU to CPU completion signal.
type Fence struct {
	device gfx.Device
	fence  gfx.Fence
}

// Wait blocks until the fence is signaled or timeout passes.
// Returns false on timeout.
func (f *Fence) Wait(timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = Forever
	}
	switch res := f.device.WaitForFence(f.fence, timeout); res {
	case gfx.Success:
		return true
	case gfx.Timeout:
		return false
	default:
		fatal(errors.New(res.String()), "WaitForFences")
		return false
	}
}

// Reset returns the fence to the unsignaled state.
func (f *Fence) Reset() {
	if err := f.device.ResetFence(f.fence); err != nil {
		fatal(err, "ResetFences")
	}
}

// Handle returns the backend fence.
func (f *Fence) Handle() gfx.Fence {
	return f.fence
}

// Destroy releases the fence. No pending submission may reference it.
func (f *Fence) Destroy() {
	f.device.DestroyFence(f.fence)
}

// NewSemaphore creates a GPU to GPU signal.
func NewSemaphore(device gfx.Device) *Semaphore {
	semaphore, err := device.CreateSemaphore()
	if err != nil {
		fatal(err, "CreateSemaphore")
		return nil
	}
	return &Semaphore{
		device:    device,
		semaphore: semaphore,
	}
}

// Semaphore orders work within the GPU queue and has no CPU visible state.
type Semaphore struct {
	device    gfx.Device
	semaphore gfx.Semaphore
}

// Handle returns the backend semaphore.
func (s *Semaphore) Handle() gfx.Semaphore {
	return s.semaphore
}

// Destroy releases the semaphore.
func (s *Semaphore) Destroy() {
	s.device.DestroySemaphore(s.semaphore)
}
