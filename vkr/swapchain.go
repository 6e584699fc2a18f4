// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/koru/gfx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// QuerySwapchainSupport reads what surface supports on a physical device.
func QuerySwapchainSupport(physical vk.PhysicalDevice, surface vk.Surface) (gfx.SwapchainSupport, error) {
	var support gfx.SwapchainSupport

	caps, err := surfaceCapabilities(physical, surface)
	if err != nil {
		return support, err
	}
	support.Capabilities = gfx.SurfaceCapabilities{
		MinImageCount:  caps.MinImageCount,
		MaxImageCount:  caps.MaxImageCount,
		CurrentExtent:  gfx.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height},
		MinImageExtent: gfx.Extent2D{Width: caps.MinImageExtent.Width, Height: caps.MinImageExtent.Height},
		MaxImageExtent: gfx.Extent2D{Width: caps.MaxImageExtent.Width, Height: caps.MaxImageExtent.Height},
	}

	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &formatCount, nil)); err != nil {
		return support, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats(count)")
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &formatCount, formats)); err != nil {
		return support, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats(formats)")
	}
	for _, format := range formats {
		format.Deref()
		support.Formats = append(support.Formats, gfx.SurfaceFormat{
			Format:     int32(format.Format),
			ColorSpace: int32(format.ColorSpace),
		})
	}

	var modeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &modeCount, nil)); err != nil {
		return support, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes(count)")
	}
	modes := make([]vk.PresentMode, modeCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &modeCount, modes)); err != nil {
		return support, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes(modes)")
	}
	for _, mode := range modes {
		support.PresentModes = append(support.PresentModes, gfx.PresentMode(mode))
	}
	return support, nil
}

func surfaceCapabilities(physical vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(physical, surface, &caps)); err != nil {
		return caps, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceCapabilities()")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

var compositeAlphaFlags = []vk.CompositeAlphaFlagBits{
	vk.CompositeAlphaOpaqueBit,
	vk.CompositeAlphaPreMultipliedBit,
	vk.CompositeAlphaPostMultipliedBit,
	vk.CompositeAlphaInheritBit,
}

// chooseCompositeAlpha picks the first supported mode, opaque preferred.
func chooseCompositeAlpha(supported vk.CompositeAlphaFlags) vk.CompositeAlphaFlagBits {
	for _, flag := range compositeAlphaFlags {
		if supported&vk.CompositeAlphaFlags(flag) != 0 {
			return flag
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

// SwapchainSupport implements gfx.Device
func (d *Device) SwapchainSupport() (gfx.SwapchainSupport, error) {
	return QuerySwapchainSupport(d.physical, d.surface)
}

// CreateSwapchain implements gfx.Device
func (d *Device) CreateSwapchain(info gfx.SwapchainCreateInfo) (gfx.Swapchain, error) {
	caps, err := surfaceCapabilities(d.physical, d.surface)
	if err != nil {
		return nil, err
	}

	scci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         d.surface,
		MinImageCount:   info.ImageCount,
		ImageFormat:     vk.Format(info.Format.Format),
		ImageColorSpace: vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
		},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   chooseCompositeAlpha(caps.SupportedCompositeAlpha),
		PresentMode:      vk.PresentMode(info.PresentMode),
		Clipped:          vk.True,
		ImageSharingMode: vk.SharingModeExclusive,
	}
	if info.QueueFamilies.Graphics != info.QueueFamilies.Present {
		scci.ImageSharingMode = vk.SharingModeConcurrent
		scci.QueueFamilyIndexCount = 2
		scci.PQueueFamilyIndices = []uint32{
			info.QueueFamilies.Graphics,
			info.QueueFamilies.Present,
		}
	}

	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(d.device, &scci, nil, &swapchain)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateSwapchain()")
	}
	return swapchain, nil
}

// SwapchainImages implements gfx.Device
func (d *Device) SwapchainImages(sc gfx.Swapchain) ([]gfx.Image, error) {
	swapchain := sc.(vk.Swapchain)

	var numImages uint32
	if err := vk.Error(vk.GetSwapchainImages(d.device, swapchain, &numImages, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.GetSwapchainImages(num)")
	}
	images := make([]vk.Image, numImages)
	if err := vk.Error(vk.GetSwapchainImages(d.device, swapchain, &numImages, images)); err != nil {
		return nil, errors.Wrap(err, "vk.GetSwapchainImages(images)")
	}

	handles := make([]gfx.Image, len(images))
	for idx, image := range images {
		handles[idx] = image
	}
	return handles, nil
}

// DestroySwapchain implements gfx.Device
func (d *Device) DestroySwapchain(sc gfx.Swapchain) {
	vk.DestroySwapchain(d.device, sc.(vk.Swapchain), nil)
}

// CreateImageView implements gfx.Device
func (d *Device) CreateImageView(img gfx.Image, format gfx.SurfaceFormat) (gfx.ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.(vk.Image),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format.Format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var imageView vk.ImageView
	if err := vk.Error(vk.CreateImageView(d.device, &ivci, nil, &imageView)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateImageView()")
	}
	return imageView, nil
}

// DestroyImageView implements gfx.Device
func (d *Device) DestroyImageView(view gfx.ImageView) {
	vk.DestroyImageView(d.device, view.(vk.ImageView), nil)
}

// CreateRenderPass implements gfx.Device, the pass has a single
// color attachment that is cleared and left ready for presentation.
func (d *Device) CreateRenderPass(format gfx.SurfaceFormat) (gfx.RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         vk.Format(format.Format),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentRef)),
		PColorAttachments:    colorAttachmentRef,
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(d.device, &rpci, nil, &renderPass)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateRenderPass()")
	}
	return renderPass, nil
}

// DestroyRenderPass implements gfx.Device
func (d *Device) DestroyRenderPass(rp gfx.RenderPass) {
	vk.DestroyRenderPass(d.device, rp.(vk.RenderPass), nil)
}

// CreateFramebuffer implements gfx.Device
func (d *Device) CreateFramebuffer(rp gfx.RenderPass, view gfx.ImageView, extent gfx.Extent2D) (gfx.Framebuffer, error) {
	attachments := []vk.ImageView{view.(vk.ImageView)}
	fci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp.(vk.RenderPass),
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if err := vk.Error(vk.CreateFramebuffer(d.device, &fci, nil, &framebuffer)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateFramebuffer()")
	}
	return framebuffer, nil
}

// DestroyFramebuffer implements gfx.Device
func (d *Device) DestroyFramebuffer(fb gfx.Framebuffer) {
	vk.DestroyFramebuffer(d.device, fb.(vk.Framebuffer), nil)
}
