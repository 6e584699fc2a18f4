// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/devblok/koru/core"
	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// defaultShaders are the shader sources the application draws with.
var defaultShaders = packr.NewBox("./shaders")

// materialiseShaders writes the bundled shader sources into dir,
// files already present are left alone.
func materialiseShaders(box packr.Box, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating shader directory")
	}
	for _, name := range box.List() {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		data, err := box.Find(name)
		if err != nil {
			return errors.Wrapf(err, "reading bundled shader %s", name)
		}
		if err := ioutil.WriteFile(path, data, 0644); err != nil {
			return errors.Wrapf(err, "writing shader %s", name)
		}
		log.WithField("shader", name).Debug("bundled shader written")
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// shaderSource returns the archive source when an archive is configured,
// the shader directory with the bundled sources otherwise.
func shaderSource(cfg core.RendererConfiguration) (core.ShaderSource, io.Closer, error) {
	if cfg.ShaderArchive != "" {
		source, err := core.OpenArchiveSource(cfg.ShaderArchive)
		if err != nil {
			return nil, nil, err
		}
		return source, source, nil
	}

	if err := materialiseShaders(defaultShaders, cfg.ShaderDirectory); err != nil {
		return nil, nil, err
	}
	return core.DirectorySource{
		Dir:     cfg.ShaderDirectory,
		Compile: core.ExternalCompiler(cfg.ShaderCompiler),
	}, nopCloser{}, nil
}
