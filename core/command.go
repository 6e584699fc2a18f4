// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/koru/gfx"
)

// CommandBuffer is the command buffer of the current frame, in the
// recording state while submit callbacks run.
type CommandBuffer struct {
	cmds   gfx.Commands
	handle gfx.CommandBuffer
	bound  gfx.Pipeline
}

// NewCommandBuffer wraps a backend command buffer that is recording.
func NewCommandBuffer(cmds gfx.Commands, handle gfx.CommandBuffer) *CommandBuffer {
	return &CommandBuffer{
		cmds:   cmds,
		handle: handle,
	}
}

// Handle returns the backend command buffer.
func (c *CommandBuffer) Handle() gfx.CommandBuffer {
	return c.handle
}

// BindPipeline binds a graphics pipeline, skipped if it is already bound.
func (c *CommandBuffer) BindPipeline(pipeline gfx.Pipeline) {
	if pipeline == nil || c.bound == pipeline {
		return
	}
	c.cmds.CmdBindPipeline(c.handle, pipeline)
	c.bound = pipeline
}

// BindVertexBuffers binds all buffers of the array in a single call.
func (c *CommandBuffer) BindVertexBuffers(arr *VertexBufferArray) {
	if arr.Len() == 0 {
		return
	}
	c.cmds.CmdBindVertexBuffers(c.handle, arr.Handles())
}

// Draw records a non-indexed draw.
func (c *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	c.cmds.CmdDraw(c.handle, vertexCount, instanceCount, firstVertex, firstInstance)
}

// DrawArray binds the array and draws all of its vertices once.
// An empty array records nothing.
func (c *CommandBuffer) DrawArray(arr *VertexBufferArray) {
	if arr == nil || arr.VertexCount() == 0 {
		return
	}
	c.BindVertexBuffers(arr)
	c.Draw(arr.VertexCount(), 1, 0, 0)
}
