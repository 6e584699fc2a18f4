// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package renderable holds objects that draw themselves through a
// core.Mediator. Each one owns its mediator and deletes it on Destroy.
package renderable

import (
	"github.com/devblok/koru/core"
	"github.com/devblok/koru/model"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Renderable is drawn every frame until it is destroyed.
type Renderable interface {
	Destroy()
}

// TriangleVertices is a triangle centered on the origin with a red,
// a green and a blue corner.
var TriangleVertices = []model.Vertex{
	{Pos: glm.Vec2{0.0, -0.5}, Color: glm.Vec3{1.0, 0.0, 0.0}},
	{Pos: glm.Vec2{0.5, 0.5}, Color: glm.Vec3{0.0, 1.0, 0.0}},
	{Pos: glm.Vec2{-0.5, 0.5}, Color: glm.Vec3{0.0, 0.0, 1.0}},
}

// base uploads vertices once and draws the whole
// vertex buffer array of its mediator every frame.
type base struct {
	mediator core.Mediator
}

func newBase(m core.Mediator, vertices []model.Vertex) base {
	b := base{mediator: m}
	m.CreateVertexBuffer(vertices)
	m.SetSubmitRenderCommandsCallback(b.submit)
	return b
}

func (b base) submit(cmd *core.CommandBuffer) {
	cmd.DrawArray(b.mediator.VertexBuffers())
}

// NewTriangle creates a static coloured triangle.
func NewTriangle(m core.Mediator) *Triangle {
	return &Triangle{base: newBase(m, TriangleVertices)}
}

// Triangle is a static coloured triangle.
type Triangle struct {
	base
}

// Destroy deletes the mediator, calling it again does nothing.
func (t *Triangle) Destroy() {
	if t.mediator == nil {
		return
	}
	t.mediator.Delete()
	t.mediator = nil
}

// QuadVertices returns the two triangles covering the axis aligned
// square of the given half size around center.
func QuadVertices(center glm.Vec2, halfSize float32, color glm.Vec3) []model.Vertex {
	topLeft := center.Sub(glm.Vec2{halfSize, halfSize})
	topRight := center.Add(glm.Vec2{halfSize, -halfSize})
	bottomRight := center.Add(glm.Vec2{halfSize, halfSize})
	bottomLeft := center.Add(glm.Vec2{-halfSize, halfSize})

	corners := []glm.Vec2{
		topLeft, topRight, bottomRight,
		bottomRight, bottomLeft, topLeft,
	}
	vertices := make([]model.Vertex, len(corners))
	for idx, corner := range corners {
		vertices[idx] = model.Vertex{Pos: corner, Color: color}
	}
	return vertices
}

// NewQuad creates a single coloured square.
func NewQuad(m core.Mediator, center glm.Vec2, halfSize float32, color glm.Vec3) *Quad {
	return &Quad{base: newBase(m, QuadVertices(center, halfSize, color))}
}

// Quad is a coloured square drawn as two triangles.
type Quad struct {
	base
}

// Destroy deletes the mediator, calling it again does nothing.
func (q *Quad) Destroy() {
	if q.mediator == nil {
		return
	}
	q.mediator.Delete()
	q.mediator = nil
}

// NewMesh creates a static mesh from a triangle list, such as the
// vertices of a geometry loaded with the collada package.
func NewMesh(m core.Mediator, vertices []model.Vertex) (*Mesh, error) {
	if len(vertices) == 0 || len(vertices)%3 != 0 {
		return nil, errors.Errorf("mesh of %d vertices is not a triangle list", len(vertices))
	}
	return &Mesh{base: newBase(m, vertices)}, nil
}

// Mesh is a static triangle list.
type Mesh struct {
	base
}

// Destroy deletes the mediator, calling it again does nothing.
func (m *Mesh) Destroy() {
	if m.mediator == nil {
		return
	}
	m.mediator.Delete()
	m.mediator = nil
}
