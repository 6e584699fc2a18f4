// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/koru/gfx"
	"github.com/devblok/koru/model"
)

// DefaultVertexArray is the array name used when a requested name is missing.
const DefaultVertexArray = "default"

// NewVertexBuffer copies vertices into a new GPU visible buffer.
func NewVertexBuffer(device gfx.Device, vertices []model.Vertex) *VertexBuffer {
	data := make([]model.Vertex, len(vertices))
	copy(data, vertices)

	buffer, err := device.CreateVertexBuffer(data)
	if err != nil {
		logger.WithField("vertices", len(data)).Error("vertex buffer creation failed")
		fatal(err, "CreateBuffer")
		return nil
	}
	return &VertexBuffer{
		device:   device,
		buffer:   buffer,
		vertices: data,
	}
}

// VertexBuffer holds a copy of its vertices on the GPU, immutable once created.
type VertexBuffer struct {
	device   gfx.Device
	buffer   gfx.Buffer
	vertices []model.Vertex
}

// Handle returns the backend buffer.
func (v *VertexBuffer) Handle() gfx.Buffer {
	return v.buffer
}

// Len is the number of vertices in the buffer.
func (v *VertexBuffer) Len() int {
	return len(v.vertices)
}

// Destroy releases the buffer and its memory.
func (v *VertexBuffer) Destroy() {
	v.device.DestroyBuffer(v.buffer)
}

// NewVertexBufferArray groups buffers under name. The array takes
// ownership of buffers.
func NewVertexBufferArray(name string, buffers []*VertexBuffer) *VertexBufferArray {
	arr := &VertexBufferArray{
		name:    name,
		buffers: buffers,
		handles: make([]gfx.Buffer, 0, len(buffers)),
	}
	for _, b := range buffers {
		arr.handles = append(arr.handles, b.Handle())
		arr.vertexCount += uint32(b.Len())
	}
	return arr
}

// VertexBufferArray is an ordered group of vertex buffers bound with
// one call. Handles and vertex count are computed once.
type VertexBufferArray struct {
	name        string
	buffers     []*VertexBuffer
	handles     []gfx.Buffer
	vertexCount uint32
}

// Name returns the name of the array.
func (a *VertexBufferArray) Name() string {
	return a.name
}

// Buffers returns the buffers in bind order.
func (a *VertexBufferArray) Buffers() []*VertexBuffer {
	return a.buffers
}

// Handles returns the backend buffers in bind order.
func (a *VertexBufferArray) Handles() []gfx.Buffer {
	return a.handles
}

// VertexCount is the sum of vertices of all buffers.
func (a *VertexBufferArray) VertexCount() uint32 {
	return a.vertexCount
}

// Len is the number of buffers.
func (a *VertexBufferArray) Len() int {
	return len(a.buffers)
}

// With returns a new array holding the buffers of a followed by buf.
func (a *VertexBufferArray) With(buf *VertexBuffer) *VertexBufferArray {
	buffers := make([]*VertexBuffer, 0, len(a.buffers)+1)
	buffers = append(buffers, a.buffers...)
	buffers = append(buffers, buf)
	return NewVertexBufferArray(a.name, buffers)
}

// Destroy releases all buffers of the array.
func (a *VertexBufferArray) Destroy() {
	for _, b := range a.buffers {
		b.Destroy()
	}
	a.buffers = nil
	a.handles = nil
	a.vertexCount = 0
}

// NewVertexManager creates a manager holding only the empty default array.
func NewVertexManager() *VertexManager {
	return &VertexManager{
		arrays: map[string]*VertexBufferArray{
			DefaultVertexArray: NewVertexBufferArray(DefaultVertexArray, nil),
		},
	}
}

// VertexManager maps names to vertex buffer arrays.
type VertexManager struct {
	arrays map[string]*VertexBufferArray
}

// GetVertexBuffers returns the named array, or the default array
// if the name is unknown.
func (m *VertexManager) GetVertexBuffers(name string) *VertexBufferArray {
	if arr, ok := m.arrays[name]; ok {
		return arr
	}
	logger.WithField("array", name).Debug("unknown vertex array, using default")
	return m.arrays[DefaultVertexArray]
}

// Has reports whether an array is registered under name.
func (m *VertexManager) Has(name string) bool {
	_, ok := m.arrays[name]
	return ok
}

// AddVertexBuffer appends buf to the array registered under name,
// creating the array if needed.
func (m *VertexManager) AddVertexBuffer(name string, buf *VertexBuffer) *VertexBufferArray {
	arr, ok := m.arrays[name]
	if !ok {
		arr = NewVertexBufferArray(name, nil)
	}
	arr = arr.With(buf)
	m.arrays[name] = arr
	return arr
}

// Remove drops the named array without destroying it.
// The default array cannot be removed.
func (m *VertexManager) Remove(name string) *VertexBufferArray {
	if name == DefaultVertexArray {
		return nil
	}
	arr := m.arrays[name]
	delete(m.arrays, name)
	return arr
}

// Destroy releases every array.
func (m *VertexManager) Destroy() {
	for name, arr := range m.arrays {
		arr.Destroy()
		delete(m.arrays, name)
	}
}
