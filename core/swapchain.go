// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"math"

	"github.com/devblok/koru/gfx"
)

// Surface format preferred when available: B8G8R8A8_SRGB in the
// SRGB_NONLINEAR color space.
var preferredSurfaceFormat = gfx.SurfaceFormat{
	Format:     50,
	ColorSpace: 0,
}

// ChooseSurfaceFormat picks the preferred format or falls back to the first one.
func ChooseSurfaceFormat(available []gfx.SurfaceFormat) gfx.SurfaceFormat {
	for _, format := range available {
		if format == preferredSurfaceFormat {
			return format
		}
	}
	return available[0]
}

// ChoosePresentMode picks preferred if supported, FIFO otherwise.
// FIFO is the only mode every surface must support.
func ChoosePresentMode(available []gfx.PresentMode, preferred gfx.PresentMode) gfx.PresentMode {
	for _, mode := range available {
		if mode == preferred {
			return mode
		}
	}
	return gfx.PresentModeFifo
}

// ChooseExtent uses the current surface extent unless the surface leaves it
// to the application, then the window framebuffer size clamped to the limits.
func ChooseExtent(capabilities gfx.SurfaceCapabilities, window Window) gfx.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}

	width, height := window.FramebufferSize()
	return gfx.Extent2D{
		Width:  clamp(uint32(width), capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(uint32(height), capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, or requested
// when set, within the surface limits. A zero maximum means no limit.
func ChooseImageCount(capabilities gfx.SurfaceCapabilities, requested uint32) uint32 {
	count := capabilities.MinImageCount + 1
	if requested != 0 {
		count = requested
	}
	if count < capabilities.MinImageCount {
		count = capabilities.MinImageCount
	}
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

func clamp(val, min, max uint32) uint32 {
	if val < min {
		val = min
	}
	if val > max {
		val = max
	}
	return val
}

// NewSwapChain builds a swapchain for the given support query result.
func NewSwapChain(device gfx.Device, support gfx.SwapchainSupport, window Window, families gfx.QueueFamilyIndices, cfg RendererConfiguration) *SwapChain {
	info := gfx.SwapchainCreateInfo{
		ImageCount:    ChooseImageCount(support.Capabilities, cfg.SwapchainSize),
		Format:        ChooseSurfaceFormat(support.Formats),
		Extent:        ChooseExtent(support.Capabilities, window),
		PresentMode:   ChoosePresentMode(support.PresentModes, cfg.PresentMode),
		QueueFamilies: families,
	}

	swapchain, err := device.CreateSwapchain(info)
	if err != nil {
		fatal(err, "CreateSwapchain")
		return nil
	}

	images, err := device.SwapchainImages(swapchain)
	if err != nil {
		device.DestroySwapchain(swapchain)
		fatal(err, "GetSwapchainImages")
		return nil
	}

	logger.WithFields(map[string]interface{}{
		"images":  len(images),
		"width":   info.Extent.Width,
		"height":  info.Extent.Height,
		"present": info.PresentMode,
	}).Info("swapchain created")

	return &SwapChain{
		device:      device,
		swapchain:   swapchain,
		images:      images,
		format:      info.Format,
		extent:      info.Extent,
		presentMode: info.PresentMode,
	}
}

// SwapChain is the ordered sequence of presentable images.
// It is never modified, a changed surface gets a new SwapChain.
type SwapChain struct {
	device      gfx.Device
	swapchain   gfx.Swapchain
	images      []gfx.Image
	format      gfx.SurfaceFormat
	extent      gfx.Extent2D
	presentMode gfx.PresentMode
}

// Handle returns the backend swapchain.
func (s *SwapChain) Handle() gfx.Swapchain {
	return s.swapchain
}

// Images returns the swapchain images in presentation index order.
func (s *SwapChain) Images() []gfx.Image {
	return s.images
}

// Len is the number of images.
func (s *SwapChain) Len() int {
	return len(s.images)
}

// Format returns the surface format of the images.
func (s *SwapChain) Format() gfx.SurfaceFormat {
	return s.format
}

// Extent returns the size of the images.
func (s *SwapChain) Extent() gfx.Extent2D {
	return s.extent
}

// PresentMode returns the mode the swapchain was created with.
func (s *SwapChain) PresentMode() gfx.PresentMode {
	return s.presentMode
}

// Destroy releases the swapchain, its images go with it.
func (s *SwapChain) Destroy() {
	s.device.DestroySwapchain(s.swapchain)
	s.images = nil
}

// NewSwapChainImageViews creates one view per swapchain image.
func NewSwapChainImageViews(device gfx.Device, swapchain *SwapChain) *SwapChainImageViews {
	views := &SwapChainImageViews{device: device}
	for idx, image := range swapchain.Images() {
		view, err := device.CreateImageView(image, swapchain.Format())
		if err != nil {
			views.Destroy()
			logger.WithField("image", idx).Error("image view creation failed")
			fatal(err, "CreateImageView")
			return nil
		}
		views.views = append(views.views, view)
	}
	return views
}

// SwapChainImageViews holds a view for each swapchain image, same index.
type SwapChainImageViews struct {
	device gfx.Device
	views  []gfx.ImageView
}

// Len is the number of views.
func (v *SwapChainImageViews) Len() int {
	return len(v.views)
}

// View returns the view of image idx.
func (v *SwapChainImageViews) View(idx int) gfx.ImageView {
	return v.views[idx]
}

// Destroy releases all views.
func (v *SwapChainImageViews) Destroy() {
	for _, view := range v.views {
		v.device.DestroyImageView(view)
	}
	v.views = nil
}

// NewRenderPass creates the single subpass render pass: one color
// attachment, cleared on load, stored at the end and transitioned
// to the presentable layout.
func NewRenderPass(device gfx.Device, format gfx.SurfaceFormat) *RenderPass {
	pass, err := device.CreateRenderPass(format)
	if err != nil {
		fatal(err, "CreateRenderPass")
		return nil
	}
	return &RenderPass{
		device: device,
		pass:   pass,
		format: format,
	}
}

// RenderPass is shared by all framebuffers and immutable once created.
type RenderPass struct {
	device gfx.Device
	pass   gfx.RenderPass
	format gfx.SurfaceFormat
}

// Handle returns the backend render pass.
func (r *RenderPass) Handle() gfx.RenderPass {
	return r.pass
}

// Format returns the color attachment format.
func (r *RenderPass) Format() gfx.SurfaceFormat {
	return r.format
}

// Destroy releases the render pass.
func (r *RenderPass) Destroy() {
	r.device.DestroyRenderPass(r.pass)
}

// NewFramebuffers creates one framebuffer per image view, same index.
func NewFramebuffers(device gfx.Device, views *SwapChainImageViews, pass *RenderPass, extent gfx.Extent2D) *Framebuffers {
	framebuffers := &Framebuffers{device: device}
	for idx := 0; idx < views.Len(); idx++ {
		fb, err := device.CreateFramebuffer(pass.Handle(), views.View(idx), extent)
		if err != nil {
			framebuffers.Destroy()
			logger.WithField("image", idx).Error("framebuffer creation failed")
			fatal(err, "CreateFramebuffer")
			return nil
		}
		framebuffers.framebuffers = append(framebuffers.framebuffers, fb)
	}
	return framebuffers
}

// Framebuffers are the render targets, one per swapchain image.
type Framebuffers struct {
	device       gfx.Device
	framebuffers []gfx.Framebuffer
}

// Len is the number of framebuffers.
func (f *Framebuffers) Len() int {
	return len(f.framebuffers)
}

// Framebuffer returns the framebuffer of image idx.
func (f *Framebuffers) Framebuffer(idx int) gfx.Framebuffer {
	return f.framebuffers[idx]
}

// Destroy releases all framebuffers.
func (f *Framebuffers) Destroy() {
	for _, fb := range f.framebuffers {
		f.device.DestroyFramebuffer(fb)
	}
	f.framebuffers = nil
}
