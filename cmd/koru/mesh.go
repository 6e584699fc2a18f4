// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/model"
	"github.com/devblok/koru/renderable"
	"github.com/devblok/koru/util/collada"
	"github.com/devblok/koru/util/wavefront"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var meshColor = glm.Vec3{0.3, 0.7, 0.9}

type namedVertices struct {
	name     string
	vertices []model.Vertex
}

func decodeCollada(r io.Reader) ([]namedVertices, error) {
	doc, err := collada.Decode(r)
	if err != nil {
		return nil, err
	}
	meshes := make([]namedVertices, 0, len(doc.Geometries))
	for idx := range doc.Geometries {
		geometry := &doc.Geometries[idx]
		vertices, err := geometry.Vertices(meshColor)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, namedVertices{name: geometry.ID, vertices: vertices})
	}
	return meshes, nil
}

func decodeWavefront(r io.Reader) ([]namedVertices, error) {
	vertices, err := wavefront.Decode(r, meshColor)
	if err != nil {
		return nil, err
	}
	return []namedVertices{{name: "obj", vertices: vertices}}, nil
}

// loadMeshes creates a mesh for every geometry in a COLLADA (.dae) file,
// or a single mesh for a Wavefront (.obj) file. Each mesh gets its own mediator.
func loadMeshes(path string, newMediator func() core.Mediator) ([]renderable.Renderable, error) {
	var decode func(io.Reader) ([]namedVertices, error)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".dae":
		decode = decodeCollada
	case ".obj":
		decode = decodeWavefront
	default:
		return nil, errors.Errorf("unsupported mesh format %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening mesh file")
	}
	defer f.Close()

	decoded, err := decode(f)
	if err != nil {
		return nil, err
	}

	meshes := make([]renderable.Renderable, 0, len(decoded))
	for _, nv := range decoded {
		mediator := newMediator()
		mesh, err := renderable.NewMesh(mediator, nv.vertices)
		if err != nil {
			mediator.Delete()
			destroyAll(meshes)
			return nil, errors.Wrapf(err, "mesh %q", nv.name)
		}
		log.WithFields(log.Fields{
			"mesh":     nv.name,
			"vertices": len(nv.vertices),
		}).Info("mesh loaded")
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

func destroyAll(renderables []renderable.Renderable) {
	for _, r := range renderables {
		r.Destroy()
	}
}
