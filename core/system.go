// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/koru/gfx"
)

// NewRenderSystem creates the shader manager over source and the Renderer.
func NewRenderSystem(driver gfx.Driver, window Window, pd gfx.PhysicalDevice, source ShaderSource, cfg RendererConfiguration) *RenderSystem {
	shaders := NewShaderManager(source)
	return &RenderSystem{
		shaders:  shaders,
		renderer: NewRenderer(driver, window, pd, shaders, cfg),
	}
}

// RenderSystem is the entry point for application code.
type RenderSystem struct {
	shaders  *ShaderManager
	renderer *Renderer
}

// CreateRenderMediator returns a mediator drawing with the named shader.
func (s *RenderSystem) CreateRenderMediator(shaderName string) Mediator {
	return s.renderer.CreateRenderMediator(shaderName)
}

// DrawFrame renders one frame.
func (s *RenderSystem) DrawFrame() {
	s.renderer.DrawFrame()
}

// ResetCommandPool waits for all frames in flight, see Renderer.ResetCommandPool.
func (s *RenderSystem) ResetCommandPool() {
	s.renderer.ResetCommandPool()
}

// NotifyResized forwards a window resize to the Renderer.
func (s *RenderSystem) NotifyResized() {
	s.renderer.NotifyResized()
}

// Renderer returns the underlying Renderer.
func (s *RenderSystem) Renderer() *Renderer {
	return s.renderer
}

// ShaderManager returns the shader cache.
func (s *RenderSystem) ShaderManager() *ShaderManager {
	return s.shaders
}

// Destroy tears down the Renderer and everything it owns.
func (s *RenderSystem) Destroy() {
	s.renderer.Destroy()
}
