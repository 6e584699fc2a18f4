// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// NewGLFW initialises GLFW and opens a window without a client API.
// Must be called from the main thread.
func NewGLFW(title string, width, height int) (*GLFW, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw.Init()")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw: vulkan is not supported")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "glfw.CreateWindow()")
	}

	g := &GLFW{window: window}
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		g.resized = true
		log.WithFields(log.Fields{"width": width, "height": height}).Debug("window resized")
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
	return g, nil
}

// GLFW is a window backed by go-gl/glfw.
type GLFW struct {
	window  *glfw.Window
	surface uintptr
	resized bool
}

// InstanceExtensions implements Window
func (g *GLFW) InstanceExtensions() []string {
	return g.window.GetRequiredInstanceExtensions()
}

// ProcAddr implements Window
func (g *GLFW) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// CreateSurface implements Window
func (g *GLFW) CreateSurface(instance vk.Instance) (interface{}, error) {
	surface, err := g.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return nil, errors.Wrap(err, "glfw.CreateWindowSurface()")
	}
	g.surface = surface
	return surface, nil
}

// Surface implements core.Window
func (g *GLFW) Surface() interface{} {
	return g.surface
}

// NotClosed implements core.Window
func (g *GLFW) NotClosed() bool {
	return !g.window.ShouldClose()
}

// FramebufferSize implements core.Window
func (g *GLFW) FramebufferSize() (int, int) {
	return g.window.GetFramebufferSize()
}

// PollEvents implements Window
func (g *GLFW) PollEvents() Events {
	glfw.PollEvents()
	events := Events{
		Quit:    g.window.ShouldClose(),
		Resized: g.resized,
	}
	g.resized = false
	return events
}

// Destroy closes the window and terminates GLFW. The surface
// must have been destroyed with the instance before.
func (g *GLFW) Destroy() {
	g.window.Destroy()
	glfw.Terminate()
}
