// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package wavefront turns Wavefront OBJ models into triangle lists.
package wavefront

import (
	"io"

	"github.com/devblok/koru/model"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/mokiat/go-data-front/decoder/obj"
	"github.com/pkg/errors"
)

// Decode reads an OBJ model and returns the faces of all its objects as
// one triangle list. Polygons are split into fans around their first
// corner, positions are projected onto the xy plane.
func Decode(r io.Reader, color glm.Vec3) ([]model.Vertex, error) {
	decoder := obj.NewDecoder(obj.DefaultLimits())
	m, err := decoder.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decoding obj")
	}

	var vertices []model.Vertex
	for _, object := range m.Objects {
		for _, mesh := range object.Meshes {
			for _, face := range mesh.Faces {
				if len(face.References) < 3 {
					return nil, errors.Errorf("object %q has a face with %d corners", object.Name, len(face.References))
				}
				corners := make([]model.Vertex, len(face.References))
				for idx, ref := range face.References {
					v := m.GetVertexFromReference(ref)
					corners[idx] = model.Vertex{
						Pos:   glm.Vec2{float32(v.X), float32(v.Y)},
						Color: color,
					}
				}
				for idx := 1; idx+1 < len(corners); idx++ {
					vertices = append(vertices, corners[0], corners[idx], corners[idx+1])
				}
			}
		}
	}
	if len(vertices) == 0 {
		return nil, errors.New("obj model has no faces")
	}
	return vertices, nil
}
