// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"unsafe"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"
)

// NewSDL initialises SDL video, loads the vulkan library and opens a
// resizable vulkan window. Must be called from the main thread.
func NewSDL(title string, width, height int) (*SDL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "sdl.Init()")
	}

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}

	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(width),
		int32(height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}

	return &SDL{
		window: window,
		open:   true,
	}, nil
}

// SDL is a window backed by veandco/go-sdl2.
type SDL struct {
	window  *sdl.Window
	surface unsafe.Pointer
	open    bool
}

// InstanceExtensions implements Window
func (s *SDL) InstanceExtensions() []string {
	return s.window.VulkanGetInstanceExtensions()
}

// ProcAddr implements Window
func (s *SDL) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// CreateSurface implements Window
func (s *SDL) CreateSurface(instance vk.Instance) (interface{}, error) {
	surface, err := s.window.VulkanCreateSurface(instance)
	if err != nil {
		return nil, errors.Wrap(err, "sdl.VulkanCreateSurface()")
	}
	s.surface = surface
	return surface, nil
}

// Surface implements core.Window
func (s *SDL) Surface() interface{} {
	return s.surface
}

// NotClosed implements core.Window
func (s *SDL) NotClosed() bool {
	return s.open
}

// FramebufferSize implements core.Window
func (s *SDL) FramebufferSize() (int, int) {
	width, height := s.window.VulkanGetDrawableSize()
	return int(width), int(height)
}

// PollEvents implements Window
func (s *SDL) PollEvents() Events {
	var events Events
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				events.Quit = true
			}
		case *sdl.QuitEvent:
			events.Quit = true
		case *sdl.WindowEvent:
			switch et.Event {
			case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED,
				sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED:
				events.Resized = true
			}
		}
	}
	if events.Quit {
		s.open = false
	}
	if events.Resized {
		width, height := s.FramebufferSize()
		log.WithFields(log.Fields{"width": width, "height": height}).Debug("window resized")
	}
	return events
}

// Destroy closes the window and shuts SDL down. The surface
// must have been destroyed with the instance before.
func (s *SDL) Destroy() {
	s.open = false
	s.window.Destroy()
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
