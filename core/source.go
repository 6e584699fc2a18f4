// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/devblok/koru/utility/kar"
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// ErrShaderNotFound is returned when neither bytecode nor source exists for a shader.
var ErrShaderNotFound = errors.New("shader bytecode and source not found")

// Compiler compiles the shader source at src into bytecode at dst.
type Compiler func(src, dst string) error

// ExternalCompiler runs a glslc compatible tool as `tool src -o dst`.
func ExternalCompiler(tool string) Compiler {
	return func(src, dst string) error {
		out, err := exec.Command(tool, src, "-o", dst).CombinedOutput()
		if err != nil {
			return errors.Wrapf(err, "%s %s: %s", tool, src, out)
		}
		return nil
	}
}

// BytecodeNames returns the precompiled vertex and fragment file names of a shader.
func BytecodeNames(name string) (vert, frag string) {
	return name + "Vert.spv", name + "Frag.spv"
}

// SourceNames returns the vertex and fragment source file names of a shader.
func SourceNames(name string) (vert, frag string) {
	return name + ".vert", name + ".frag"
}

// DirectorySource loads shaders from Dir. Missing bytecode is
// compiled from source with Compile first.
type DirectorySource struct {
	Dir     string
	Compile Compiler
}

// Load reads both stages of the named shader.
func (d DirectorySource) Load(name string) ([]byte, []byte, error) {
	vertBin, fragBin := BytecodeNames(name)
	vertSrc, fragSrc := SourceNames(name)

	vert, err := d.loadStage(vertSrc, vertBin)
	if err != nil {
		return nil, nil, err
	}
	frag, err := d.loadStage(fragSrc, fragBin)
	if err != nil {
		return nil, nil, err
	}
	return vert, frag, nil
}

func (d DirectorySource) loadStage(src, bin string) ([]byte, error) {
	binPath := filepath.Join(d.Dir, bin)
	if _, err := os.Stat(binPath); os.IsNotExist(err) {
		srcPath := filepath.Join(d.Dir, src)
		if _, err := os.Stat(srcPath); os.IsNotExist(err) {
			return nil, errors.Wrap(ErrShaderNotFound, src)
		}
		if d.Compile == nil {
			return nil, errors.Errorf("%s: no compiler configured", src)
		}
		logger.WithField("shader", src).Info("compiling shader")
		if err := d.Compile(srcPath, binPath); err != nil {
			return nil, err
		}
	}

	code, err := ioutil.ReadFile(binPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading shader bytecode")
	}
	return code, nil
}

// OpenArchiveSource memory maps the kar archive at path.
func OpenArchiveSource(path string) (*ArchiveSource, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "mapping shader archive")
	}
	archive, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, errors.Wrap(err, "opening shader archive")
	}
	source := NewArchiveSource(archive)
	source.closer = r
	return source, nil
}

// NewArchiveSource loads shaders from an open archive.
func NewArchiveSource(archive *kar.Archive) *ArchiveSource {
	return &ArchiveSource{
		archive: archive,
	}
}

// ArchiveSource loads precompiled shaders bundled in a kar archive.
type ArchiveSource struct {
	archive *kar.Archive
	closer  *mmap.ReaderAt
}

// Load reads both stages of the named shader from the archive.
func (a *ArchiveSource) Load(name string) ([]byte, []byte, error) {
	vertBin, fragBin := BytecodeNames(name)

	vert, err := a.archive.ReadAll(vertBin)
	if err == kar.ErrNotFound {
		return nil, nil, errors.Wrap(ErrShaderNotFound, vertBin)
	} else if err != nil {
		return nil, nil, errors.Wrap(err, vertBin)
	}

	frag, err := a.archive.ReadAll(fragBin)
	if err == kar.ErrNotFound {
		return nil, nil, errors.Wrap(ErrShaderNotFound, fragBin)
	} else if err != nil {
		return nil, nil, errors.Wrap(err, fragBin)
	}
	return vert, frag, nil
}

// Close unmaps the archive if it was opened from a file.
func (a *ArchiveSource) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
