// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package collada reads triangle meshes out of COLLADA documents
// and flattens them into vertices the renderer can draw.
package collada

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/devblok/koru/model"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Input semantics understood by Geometry.Vertices.
const (
	SemanticVertex   = "VERTEX"
	SemanticPosition = "POSITION"
)

// Collada is the top-level Collada object
type Collada struct {
	Geometries []Geometry `xml:"library_geometries>geometry"`
}

// Decode reads a COLLADA document.
func Decode(r io.Reader) (*Collada, error) {
	var doc Collada
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding collada")
	}
	return &doc, nil
}

// Geometry finds a geometry by id or name.
func (c *Collada) Geometry(name string) (*Geometry, bool) {
	for idx := range c.Geometries {
		if c.Geometries[idx].ID == name || c.Geometries[idx].Name == name {
			return &c.Geometries[idx], true
		}
	}
	return nil, false
}

// Geometry represents Collada's geometry
type Geometry struct {
	Mesh Mesh   `xml:"mesh"`
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

// Mesh contains all the primitive data
type Mesh struct {
	Source    []Source  `xml:"source"`
	Vertices  Vertices  `xml:"vertices"`
	Triangles Triangles `xml:"triangles"`
}

// Source links to other sources where data is present
type Source struct {
	ID     string `xml:"id,attr"`
	Floats Floats `xml:"float_array"`
}

// Floats is the array of floats
type Floats struct {
	ID   string
	Data []float32
}

// UnmarshalXML unmarshals the array of floats
func (f *Floats) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "id" {
			f.ID = attr.Value
		}
	}
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	for _, r := range strings.Fields(raw) {
		num, err := strconv.ParseFloat(r, 32)
		if err != nil {
			return errors.Wrapf(err, "float_array %q", f.ID)
		}
		f.Data = append(f.Data, float32(num))
	}
	return nil
}

// Vertices contains the list of vertices
type Vertices struct {
	ID     string  `xml:"id,attr"`
	Inputs []Input `xml:"input"`
}

// Triangles contain the list of triangles
type Triangles struct {
	Count    int     `xml:"count,attr"`
	Material string  `xml:"material,attr"`
	Inputs   []Input `xml:"input"`
	Index    []int
}

// UnmarshalXML parses the index list
func (t *Triangles) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "count":
			num, err := strconv.Atoi(attr.Value)
			if err != nil {
				return errors.Wrap(err, "triangles count")
			}
			t.Count = num
		case "material":
			t.Material = attr.Value
		}
	}

	for {
		token, err := d.Token()
		if err != nil {
			return err
		}

		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "input":
				var input Input
				if err := d.DecodeElement(&input, &el); err != nil {
					return err
				}
				t.Inputs = append(t.Inputs, input)
			case "p":
				var raw string
				if err := d.DecodeElement(&raw, &el); err != nil {
					return err
				}
				fields := strings.Fields(raw)
				t.Index = make([]int, len(fields))
				for idx, r := range fields {
					if t.Index[idx], err = strconv.Atoi(r); err != nil {
						return errors.Wrap(err, "triangles index")
					}
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if el == start.End() {
				return nil
			}
		}
	}
}

// stride is the number of indices per triangle corner.
func (t *Triangles) stride() int {
	var last uint
	for _, input := range t.Inputs {
		if input.Offset > last {
			last = input.Offset
		}
	}
	return int(last) + 1
}

// Input is Collada'a input type
type Input struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   uint   `xml:"offset,attr"`
}

func findInput(inputs []Input, semantic string) (Input, bool) {
	for _, input := range inputs {
		if input.Semantic == semantic {
			return input, true
		}
	}
	return Input{}, false
}

func (m *Mesh) source(ref string) (*Source, bool) {
	id := strings.TrimPrefix(ref, "#")
	for idx := range m.Source {
		if m.Source[idx].ID == id {
			return &m.Source[idx], true
		}
	}
	return nil, false
}

// positions resolves the VERTEX input of the triangles into
// the float array holding xyz positions.
func (m *Mesh) positions() ([]float32, uint, error) {
	vertex, ok := findInput(m.Triangles.Inputs, SemanticVertex)
	if !ok {
		return nil, 0, errors.New("triangles have no VERTEX input")
	}
	if strings.TrimPrefix(vertex.Source, "#") != m.Vertices.ID {
		return nil, 0, errors.Errorf("VERTEX input refers to unknown vertices %q", vertex.Source)
	}
	position, ok := findInput(m.Vertices.Inputs, SemanticPosition)
	if !ok {
		return nil, 0, errors.Errorf("vertices %q have no POSITION input", m.Vertices.ID)
	}
	src, ok := m.source(position.Source)
	if !ok {
		return nil, 0, errors.Errorf("unknown position source %q", position.Source)
	}
	return src.Floats.Data, vertex.Offset, nil
}

// Vertices flattens the triangles into a triangle list. Positions are
// projected onto the xy plane and every vertex gets the same color.
func (g *Geometry) Vertices(color glm.Vec3) ([]model.Vertex, error) {
	positions, offset, err := g.Mesh.positions()
	if err != nil {
		return nil, errors.Wrapf(err, "geometry %q", g.ID)
	}

	tris := &g.Mesh.Triangles
	stride := tris.stride()
	corners := len(tris.Index) / stride
	if len(tris.Index)%stride != 0 || corners%3 != 0 {
		return nil, errors.Errorf("geometry %q: %d indices do not form whole triangles", g.ID, len(tris.Index))
	}
	if tris.Count > 0 && corners != tris.Count*3 {
		return nil, errors.Errorf("geometry %q: expected %d triangles, got %d", g.ID, tris.Count, corners/3)
	}

	vertices := make([]model.Vertex, corners)
	for corner := 0; corner < corners; corner++ {
		idx := tris.Index[corner*stride+int(offset)]
		if idx < 0 || idx*3+2 >= len(positions) {
			return nil, errors.Errorf("geometry %q: position index %d out of range", g.ID, idx)
		}
		vertices[corner] = model.Vertex{
			Pos:   glm.Vec2{positions[idx*3], positions[idx*3+1]},
			Color: color,
		}
	}
	return vertices, nil
}
