// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/utility/kar"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"
)

// shaderNames lists the shaders with a source or bytecode stage in dir.
func shaderNames(dir string) ([]string, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := entry.Name()
		var name string
		switch {
		case strings.HasSuffix(file, ".vert"):
			name = strings.TrimSuffix(file, ".vert")
		case strings.HasSuffix(file, ".frag"):
			name = strings.TrimSuffix(file, ".frag")
		case strings.HasSuffix(file, "Vert.spv"):
			name = strings.TrimSuffix(file, "Vert.spv")
		case strings.HasSuffix(file, "Frag.spv"):
			name = strings.TrimSuffix(file, "Frag.spv")
		default:
			continue
		}
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// pack writes the bytecode of every shader in dir to w as a kar archive.
// Stages without bytecode are compiled first.
func pack(dir string, w io.Writer, header kar.Header, compile core.Compiler) (int, error) {
	names, err := shaderNames(dir)
	if err != nil {
		return 0, err
	}

	builder, err := kar.NewBuilder(header)
	if err != nil {
		return 0, err
	}
	defer builder.Close()

	source := core.DirectorySource{Dir: dir, Compile: compile}
	for _, name := range names {
		vert, frag, err := source.Load(name)
		if err != nil {
			return 0, errors.Wrapf(err, "loading shader %s", name)
		}
		vertBin, fragBin := core.BytecodeNames(name)
		if err := builder.Add(vertBin, bytes.NewReader(vert)); err != nil {
			return 0, err
		}
		if err := builder.Add(fragBin, bytes.NewReader(frag)); err != nil {
			return 0, err
		}
		log.WithField("shader", name).Info("shader packed")
	}

	if _, err := builder.WriteTo(w); err != nil {
		return 0, err
	}
	return len(names), nil
}

func compressShaders(dir, dst string, header kar.Header, compile core.Compiler) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}

	count, err := pack(dir, f, header, compile)
	if err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	log.WithFields(log.Fields{"shaders": count, "file": dst}).Info("archive written")
	return f.Close()
}

// unpack writes every file of the archive into dir.
func unpack(archive *kar.Archive, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, name := range archive.Names() {
		data, err := archive.ReadAll(name)
		if err != nil {
			return errors.Wrap(err, name)
		}
		if err := ioutil.WriteFile(filepath.Join(dir, filepath.Base(name)), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

func extractArchive(path, dir string) error {
	r, err := mmap.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	archive, err := kar.Open(r)
	if err != nil {
		return err
	}
	return unpack(archive, dir)
}
