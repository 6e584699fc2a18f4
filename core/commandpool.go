// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"

	"github.com/devblok/koru/gfx"
)

// NewCommandPool creates a pool bound to one queue family and
// allocates count primary command buffers from it.
func NewCommandPool(device gfx.Device, queueFamily uint32, count int) *CommandPool {
	pool, err := device.CreateCommandPool(queueFamily)
	if err != nil {
		fatal(err, "CreateCommandPool")
		return nil
	}

	buffers, err := device.AllocateCommandBuffers(pool, count)
	if err != nil {
		device.DestroyCommandPool(pool)
		fatal(err, "AllocateCommandBuffers")
		return nil
	}

	return &CommandPool{
		device:      device,
		pool:        pool,
		buffers:     buffers,
		queueFamily: queueFamily,
	}
}

// CommandPool owns the command buffers of one queue family.
// Buffers are reset between uses, never reallocated.
type CommandPool struct {
	device      gfx.Device
	pool        gfx.CommandPool
	buffers     []gfx.CommandBuffer
	queueFamily uint32
}

// Handle returns the backend pool.
func (p *CommandPool) Handle() gfx.CommandPool {
	return p.pool
}

// QueueFamily returns the queue family the pool was created for.
func (p *CommandPool) QueueFamily() uint32 {
	return p.queueFamily
}

// Len is the number of command buffers in the pool.
func (p *CommandPool) Len() int {
	return len(p.buffers)
}

// Buffer returns the command buffer at idx.
func (p *CommandPool) Buffer(idx int) gfx.CommandBuffer {
	return p.buffers[idx]
}

// WaitAndReset blocks until every fence guarding the pool's buffers is
// signaled, then resets all buffers. After it returns no buffer of the
// pool is in flight.
func (p *CommandPool) WaitAndReset(fences []*Fence, timeout time.Duration) {
	for idx, fence := range fences {
		for !fence.Wait(timeout) {
			logger.WithField("frame", idx).Warn("command buffer still in flight, waiting")
		}
	}
	if err := p.device.ResetCommandPool(p.pool); err != nil {
		fatal(err, "ResetCommandPool")
	}
}

// Destroy frees the command buffers together with the pool.
func (p *CommandPool) Destroy() {
	p.device.DestroyCommandPool(p.pool)
	p.buffers = nil
}
