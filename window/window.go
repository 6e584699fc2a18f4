// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package window provides the vulkan capable windows the renderer presents to.
package window

import (
	"unsafe"

	"github.com/devblok/koru/core"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Window is a window system window with a vulkan surface.
type Window interface {
	core.Window

	// InstanceExtensions lists the instance extensions needed to present.
	InstanceExtensions() []string

	// ProcAddr is the vkGetInstanceProcAddr vulkan is loaded with.
	ProcAddr() unsafe.Pointer

	// CreateSurface creates the surface returned by Surface.
	CreateSurface(instance vk.Instance) (interface{}, error)

	// PollEvents handles pending window events.
	PollEvents() Events

	Destroy()
}

// Events summarises the events handled by one PollEvents call.
type Events struct {
	// Quit is set when the window was closed or escape was pressed.
	Quit bool

	// Resized is set when the drawable size changed.
	Resized bool
}

// Kind names a window system implementation.
type Kind string

// Supported window systems.
const (
	KindSDL  Kind = "sdl"
	KindGLFW Kind = "glfw"
)

// New creates a window of the given kind.
func New(kind Kind, title string, width, height int) (Window, error) {
	switch kind {
	case KindSDL:
		w, err := NewSDL(title, width, height)
		if err != nil {
			return nil, err
		}
		return w, nil
	case KindGLFW:
		w, err := NewGLFW(title, width, height)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	return nil, errors.Errorf("unknown window system %q", kind)
}
