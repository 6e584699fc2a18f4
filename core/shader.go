// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/koru/gfx"
)

const shaderEntryPoint = "main"

// ShaderSource resolves a shader name to vertex and fragment bytecode.
type ShaderSource interface {
	Load(name string) (vert, frag []byte, err error)
}

// PipelineShader is the vertex and fragment bytecode of one named shader.
// Backend modules are only created on request, see ShaderStage.
type PipelineShader struct {
	name     string
	vertex   []byte
	fragment []byte
}

// Name returns the name the shader was loaded under.
func (p *PipelineShader) Name() string {
	return p.name
}

// VertexStage creates the vertex stage module on device.
func (p *PipelineShader) VertexStage(device gfx.Device) *ShaderStage {
	return newShaderStage(device, p.name, gfx.VertexStage, p.vertex)
}

// FragmentStage creates the fragment stage module on device.
func (p *PipelineShader) FragmentStage(device gfx.Device) *ShaderStage {
	return newShaderStage(device, p.name, gfx.FragmentStage, p.fragment)
}

// Stages creates both stages, vertex first.
func (p *PipelineShader) Stages(device gfx.Device) []*ShaderStage {
	return []*ShaderStage{
		p.VertexStage(device),
		p.FragmentStage(device),
	}
}

func newShaderStage(device gfx.Device, name string, stage gfx.ShaderStage, code []byte) *ShaderStage {
	module, err := device.CreateShaderModule(code)
	if err != nil {
		logger.WithField("shader", name).WithField("stage", stage).Error("shader module creation failed")
		fatal(err, "CreateShaderModule")
		return nil
	}
	return &ShaderStage{
		device: device,
		info: gfx.ShaderStageInfo{
			Stage:      stage,
			Module:     module,
			EntryPoint: shaderEntryPoint,
		},
	}
}

// ShaderStage owns one shader module. It must be consumed by pipeline
// creation before Destroy is called.
type ShaderStage struct {
	device gfx.Device
	info   gfx.ShaderStageInfo
}

// Info returns the stage description for pipeline creation.
func (s *ShaderStage) Info() gfx.ShaderStageInfo {
	return s.info
}

// Destroy releases the shader module.
func (s *ShaderStage) Destroy() {
	s.device.DestroyShaderModule(s.info.Module)
}

// NewShaderManager creates an empty manager loading from source.
func NewShaderManager(source ShaderSource) *ShaderManager {
	return &ShaderManager{
		source:  source,
		shaders: make(map[string]*PipelineShader),
	}
}

// ShaderManager caches pipeline shaders by name. Each name is loaded
// once, the first time it is requested.
type ShaderManager struct {
	source  ShaderSource
	names   []string
	shaders map[string]*PipelineShader
}

// AddShader loads the named shader unless it is already present.
func (m *ShaderManager) AddShader(name string) {
	m.GetPipelineShader(name)
}

// GetPipelineShader returns the cached shader, loading it first if absent.
// A shader that cannot be loaded is fatal.
func (m *ShaderManager) GetPipelineShader(name string) *PipelineShader {
	if shader, ok := m.shaders[name]; ok {
		return shader
	}

	vert, frag, err := m.source.Load(name)
	if err != nil {
		logger.WithField("shader", name).Error("shader could not be loaded")
		fatal(err, "LoadShader")
		return nil
	}

	shader := &PipelineShader{
		name:     name,
		vertex:   vert,
		fragment: frag,
	}
	m.shaders[name] = shader
	m.names = append(m.names, name)
	logger.WithField("shader", name).Info("shader loaded")
	return shader
}

// Names lists loaded shaders in the order they were added.
func (m *ShaderManager) Names() []string {
	names := make([]string, len(m.names))
	copy(names, m.names)
	return names
}

// Len is the number of loaded shaders.
func (m *ShaderManager) Len() int {
	return len(m.shaders)
}
