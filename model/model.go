// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds plain geometry data shared by renderables and backends.
package model

import (
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Vertex is a model vertex, a 2D position with an RGB color.
// The layout is what the vertex input state of every pipeline expects.
type Vertex struct {
	Pos   glm.Vec2
	Color glm.Vec3
}

// VertexSize is the stride of Vertex in a vertex buffer.
const VertexSize = uint32(unsafe.Sizeof(Vertex{}))

// PosOffset and ColorOffset are the attribute offsets within a Vertex.
var (
	PosOffset   = uint32(unsafe.Offsetof(Vertex{}.Pos))
	ColorOffset = uint32(unsafe.Offsetof(Vertex{}.Color))
)

// Bytes reinterprets vertices as raw bytes for copying into mapped memory.
// The returned slice shares memory with vertices.
func Bytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*int(VertexSize))
}
