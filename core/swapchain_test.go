// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"math"
	"testing"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/gfx"
	qt "github.com/frankban/quicktest"
)

func TestChooseSurfaceFormat(t *testing.T) {
	c := qt.New(t)

	preferred := gfx.SurfaceFormat{Format: 50, ColorSpace: 0}
	other := gfx.SurfaceFormat{Format: 44, ColorSpace: 0}

	c.Assert(core.ChooseSurfaceFormat([]gfx.SurfaceFormat{other, preferred}), qt.Equals, preferred)
	c.Assert(core.ChooseSurfaceFormat([]gfx.SurfaceFormat{other}), qt.Equals, other)
	c.Assert(core.ChooseSurfaceFormat([]gfx.SurfaceFormat{{Format: 50, ColorSpace: 1}, other}), qt.Equals, gfx.SurfaceFormat{Format: 50, ColorSpace: 1})
}

func TestChoosePresentMode(t *testing.T) {
	c := qt.New(t)

	available := []gfx.PresentMode{gfx.PresentModeFifo, gfx.PresentModeMailbox}
	c.Assert(core.ChoosePresentMode(available, gfx.PresentModeMailbox), qt.Equals, gfx.PresentModeMailbox)
	c.Assert(core.ChoosePresentMode(available, gfx.PresentModeImmediate), qt.Equals, gfx.PresentModeFifo)
}

func TestChooseExtent(t *testing.T) {
	c := qt.New(t)

	capabilities := gfx.SurfaceCapabilities{
		CurrentExtent:  gfx.Extent2D{Width: 640, Height: 480},
		MinImageExtent: gfx.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: gfx.Extent2D{Width: 1920, Height: 1080},
	}
	window := &fakeWindow{width: 3000, height: 50}
	c.Assert(core.ChooseExtent(capabilities, window), qt.Equals, gfx.Extent2D{Width: 640, Height: 480})

	capabilities.CurrentExtent = gfx.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
	c.Assert(core.ChooseExtent(capabilities, window), qt.Equals, gfx.Extent2D{Width: 1920, Height: 100})

	window.width, window.height = 1024, 768
	c.Assert(core.ChooseExtent(capabilities, window), qt.Equals, gfx.Extent2D{Width: 1024, Height: 768})
}

func TestChooseImageCount(t *testing.T) {
	c := qt.New(t)

	capabilities := gfx.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 3}
	c.Assert(core.ChooseImageCount(capabilities, 0), qt.Equals, uint32(3))
	c.Assert(core.ChooseImageCount(capabilities, 8), qt.Equals, uint32(3))
	c.Assert(core.ChooseImageCount(capabilities, 1), qt.Equals, uint32(2))

	capabilities.MinImageCount = 3
	c.Assert(core.ChooseImageCount(capabilities, 0), qt.Equals, uint32(3))

	capabilities.MaxImageCount = 0
	c.Assert(core.ChooseImageCount(capabilities, 0), qt.Equals, uint32(4))
	c.Assert(core.ChooseImageCount(capabilities, 8), qt.Equals, uint32(8))
}

func TestSwapchainStack(t *testing.T) {
	c := qt.New(t)
	fatalLogger(c)
	device := newFakeDevice()

	cfg := core.DefaultConfiguration().Renderer
	cfg.SwapchainSize = 4
	support, err := device.SwapchainSupport()
	c.Assert(err, qt.IsNil)

	swapchain := core.NewSwapChain(device, support, &fakeWindow{width: 800, height: 600}, gfx.QueueFamilyIndices{}, cfg)
	c.Assert(swapchain.Len(), qt.Equals, 4)
	c.Assert(swapchain.Extent(), qt.Equals, gfx.Extent2D{Width: 800, Height: 600})
	c.Assert(swapchain.PresentMode(), qt.Equals, gfx.PresentModeMailbox)

	views := core.NewSwapChainImageViews(device, swapchain)
	pass := core.NewRenderPass(device, swapchain.Format())
	framebuffers := core.NewFramebuffers(device, views, pass, swapchain.Extent())
	c.Assert(views.Len(), qt.Equals, swapchain.Len())
	c.Assert(framebuffers.Len(), qt.Equals, swapchain.Len())
	c.Assert(device.liveKinds(), qt.DeepEquals, map[string]int{
		"swapchain":   1,
		"view":        4,
		"renderpass":  1,
		"framebuffer": 4,
	})

	framebuffers.Destroy()
	views.Destroy()
	swapchain.Destroy()
	pass.Destroy()
	c.Assert(device.live, qt.HasLen, 0)
	c.Assert(device.errs, qt.HasLen, 0)
}

func TestFramebufferFailureReleasesCreated(t *testing.T) {
	c := qt.New(t)
	hook := fatalLogger(c)
	device := newFakeDevice()

	support, _ := device.SwapchainSupport()
	swapchain := core.NewSwapChain(device, support, &fakeWindow{width: 800, height: 600}, gfx.QueueFamilyIndices{}, core.DefaultConfiguration().Renderer)
	views := core.NewSwapChainImageViews(device, swapchain)
	pass := core.NewRenderPass(device, swapchain.Format())

	device.fail["framebuffer"] = errInjected
	c.Assert(func() {
		core.NewFramebuffers(device, views, pass, swapchain.Extent())
	}, qt.PanicMatches, "fatal exit 1")
	c.Assert(hook.LastEntry().Data["op"], qt.Equals, "CreateFramebuffer")
	c.Assert(device.liveKinds()["framebuffer"], qt.Equals, 0)
}
