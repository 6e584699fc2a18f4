// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strconv"

	"github.com/devblok/koru/model"
)

// SubmitRenderCommandsFunc records a renderable's draw commands.
type SubmitRenderCommandsFunc func(cmd *CommandBuffer)

// Mediator is what a renderable sees of the renderer.
type Mediator interface {
	// SetSubmitRenderCommandsCallback sets the function invoked every frame
	// while the frame's command buffer is recording.
	SetSubmitRenderCommandsCallback(fn SubmitRenderCommandsFunc)

	// CreateVertexBuffer uploads vertices and appends the buffer
	// to the mediator's vertex buffer array. It returns nil once the
	// array holds gfx.MaxVertexBindings buffers.
	CreateVertexBuffer(vertices []model.Vertex) *VertexBuffer

	// VertexBuffers returns the mediator's vertex buffer array.
	VertexBuffers() *VertexBufferArray

	// Delete unregisters the mediator. It must be called before
	// the renderable is discarded.
	Delete()
}

// RenderMediator connects one renderable to the Renderer. It refers to
// its shader without owning it.
type RenderMediator struct {
	id     int
	name   string
	shader *PipelineShader

	submit             SubmitRenderCommandsFunc
	createVertexBuffer func(m *RenderMediator, vertices []model.Vertex) *VertexBuffer
	vertexBuffers      func(name string) *VertexBufferArray
	unregister         func(m *RenderMediator)

	deleted bool
}

func newRenderMediator(id int, shader *PipelineShader, r *Renderer) *RenderMediator {
	return &RenderMediator{
		id:                 id,
		name:               shader.Name() + "#" + strconv.Itoa(id),
		shader:             shader,
		createVertexBuffer: r.createVertexBuffer,
		vertexBuffers:      r.vertices.GetVertexBuffers,
		unregister:         r.unregister,
	}
}

// ID is unique among the mediators of a Renderer.
func (m *RenderMediator) ID() int {
	return m.id
}

// Name keys the mediator's vertex buffer array.
func (m *RenderMediator) Name() string {
	return m.name
}

// Shader returns the shader the mediator draws with.
func (m *RenderMediator) Shader() *PipelineShader {
	return m.shader
}

// SetSubmitRenderCommandsCallback replaces the draw callback.
func (m *RenderMediator) SetSubmitRenderCommandsCallback(fn SubmitRenderCommandsFunc) {
	m.submit = fn
}

// SubmitRenderCommands invokes the draw callback, if one is set.
func (m *RenderMediator) SubmitRenderCommands(cmd *CommandBuffer) {
	if m.deleted || m.submit == nil {
		return
	}
	m.submit(cmd)
}

// CreateVertexBuffer uploads vertices through the Renderer.
func (m *RenderMediator) CreateVertexBuffer(vertices []model.Vertex) *VertexBuffer {
	if m.deleted {
		logger.WithField("mediator", m.name).Warn("vertex buffer requested by deleted mediator")
		return nil
	}
	return m.createVertexBuffer(m, vertices)
}

// VertexBuffers returns the array of buffers created through this mediator.
func (m *RenderMediator) VertexBuffers() *VertexBufferArray {
	return m.vertexBuffers(m.name)
}

// Delete unregisters the mediator, its callback is not invoked again.
// Deleting twice is a no-op.
func (m *RenderMediator) Delete() {
	if m.deleted {
		return
	}
	m.deleted = true
	m.unregister(m)
}

// Deleted reports whether Delete was called.
func (m *RenderMediator) Deleted() bool {
	return m.deleted
}
