// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/utility/kar"
	qt "github.com/frankban/quicktest"
)

func writeFiles(c *qt.C, dir string, files map[string]string) {
	for name, content := range files {
		c.Assert(ioutil.WriteFile(filepath.Join(dir, name), []byte(content), 0644), qt.IsNil)
	}
}

func fakeCompiler(compiled *[]string) core.Compiler {
	return func(src, dst string) error {
		*compiled = append(*compiled, filepath.Base(src))
		return ioutil.WriteFile(dst, []byte("compiled "+filepath.Base(src)), 0644)
	}
}

func TestShaderNames(t *testing.T) {
	c := qt.New(t)
	dir := c.Mkdir()
	writeFiles(c, dir, map[string]string{
		"triangle.vert":  "",
		"triangle.frag":  "",
		"quadVert.spv":   "",
		"quadFrag.spv":   "",
		"line.frag":      "",
		"README.md":      "",
		"trianglex.glsl": "",
	})

	names, err := shaderNames(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(names, qt.DeepEquals, []string{"line", "quad", "triangle"})
}

func TestPackAndUnpack(t *testing.T) {
	c := qt.New(t)
	dir := c.Mkdir()
	writeFiles(c, dir, map[string]string{
		"triangle.vert":    "vert source",
		"triangle.frag":    "frag source",
		"triangleFrag.spv": "frag bytecode",
		"quadVert.spv":     "quad vert",
		"quadFrag.spv":     "quad frag",
	})

	var compiled []string
	var buf bytes.Buffer
	count, err := pack(dir, &buf, kar.Header{Author: "koru", Version: 2}, fakeCompiler(&compiled))
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 2)
	c.Assert(compiled, qt.DeepEquals, []string{"triangle.vert"})

	archive, err := kar.Open(bytes.NewReader(buf.Bytes()))
	c.Assert(err, qt.IsNil)
	c.Assert(archive.Header().Author, qt.Equals, "koru")
	c.Assert(archive.Header().Version, qt.Equals, int64(2))

	vert, frag, err := core.NewArchiveSource(archive).Load("triangle")
	c.Assert(err, qt.IsNil)
	c.Assert(string(vert), qt.Equals, "compiled triangle.vert")
	c.Assert(string(frag), qt.Equals, "frag bytecode")

	out := c.Mkdir()
	c.Assert(unpack(archive, out), qt.IsNil)
	data, err := ioutil.ReadFile(filepath.Join(out, "quadVert.spv"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "quad vert")
}

func TestPackIncompleteShader(t *testing.T) {
	c := qt.New(t)
	dir := c.Mkdir()
	writeFiles(c, dir, map[string]string{
		"line.vert": "vert source",
	})

	var compiled []string
	_, err := pack(dir, ioutil.Discard, kar.Header{}, fakeCompiler(&compiled))
	c.Assert(err, qt.ErrorMatches, "loading shader line: line.frag: shader bytecode and source not found")
}

func TestCompressShadersRefusesOverwrite(t *testing.T) {
	c := qt.New(t)
	dir := c.Mkdir()
	dst := filepath.Join(dir, "out.kar")
	writeFiles(c, dir, map[string]string{"out.kar": "existing"})

	err := compressShaders(dir, dst, kar.Header{}, nil)
	c.Assert(err, qt.ErrorMatches, "destination file exists, will not overwrite")
}

func TestExtractArchive(t *testing.T) {
	c := qt.New(t)
	src := c.Mkdir()
	writeFiles(c, src, map[string]string{
		"triangleVert.spv": "vert",
		"triangleFrag.spv": "frag",
	})
	path := filepath.Join(c.Mkdir(), "shaders.kar")
	c.Assert(compressShaders(src, path, kar.Header{Author: "koru"}, nil), qt.IsNil)

	out := c.Mkdir()
	c.Assert(extractArchive(path, out), qt.IsNil)
	data, err := ioutil.ReadFile(filepath.Join(out, "triangleFrag.spv"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "frag")
}
