// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines rendering related features that renderers must implement.
// Handles are opaque to everything above the backend, the frame loop in core
// only moves them between calls of a Device.
package gfx

import (
	"errors"
	"time"

	"github.com/devblok/koru/model"
)

// ErrNoSuitableDevice is returned when no physical device can present
// to the given surface with the required extensions.
var ErrNoSuitableDevice = errors.New("no suitable physical device")

// Handle is an opaque backend object handle.
type Handle interface{}

// Backend object handles.
type (
	Fence         Handle
	Semaphore     Handle
	CommandPool   Handle
	CommandBuffer Handle
	Swapchain     Handle
	Image         Handle
	ImageView     Handle
	RenderPass    Handle
	Framebuffer   Handle
	ShaderModule  Handle
	Pipeline      Handle
	Buffer        Handle
)

// Result is the outcome of acquire and present operations.
type Result int

// Results that the frame loop distinguishes.
const (
	Success Result = iota
	Suboptimal
	OutOfDate
	Timeout
	DeviceLost
	SurfaceLost
	Failure
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Suboptimal:
		return "suboptimal"
	case OutOfDate:
		return "out of date"
	case Timeout:
		return "timeout"
	case DeviceLost:
		return "device lost"
	case SurfaceLost:
		return "surface lost"
	case Failure:
		return "failure"
	}
	return "unknown"
}

// Extent2D is a size in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// Empty reports if either dimension is zero, as with a minimised window.
func (e Extent2D) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// SurfaceFormat is a backend pixel format and color space pair.
type SurfaceFormat struct {
	Format     int32
	ColorSpace int32
}

// PresentMode selects how images are queued for display.
type PresentMode int32

// Present modes, values match the Vulkan enumeration.
const (
	PresentModeImmediate PresentMode = iota
	PresentModeMailbox
	PresentModeFifo
	PresentModeFifoRelaxed
)

func (p PresentMode) String() string {
	switch p {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo_relaxed"
	}
	return "unknown"
}

// ParsePresentMode is the inverse of PresentMode.String.
func ParsePresentMode(s string) (PresentMode, bool) {
	for _, m := range []PresentMode{PresentModeImmediate, PresentModeMailbox, PresentModeFifo, PresentModeFifoRelaxed} {
		if m.String() == s {
			return m, true
		}
	}
	return PresentModeFifo, false
}

// SurfaceCapabilities is the subset of surface capabilities the swapchain needs.
type SurfaceCapabilities struct {
	MinImageCount  uint32
	MaxImageCount  uint32
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

// SwapchainSupport describes what a surface supports on a physical device.
type SwapchainSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

// IsAdequate reports if a swapchain can be built at all.
// A device is rejected during selection when this is false.
func (s SwapchainSupport) IsAdequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

// QueueFamilyIndices holds the queue families used for drawing and presenting.
type QueueFamilyIndices struct {
	Graphics uint32
	Present  uint32
}

// PhysicalDevice is a selected GPU.
type PhysicalDevice interface {
	// Handle returns the native physical device handle.
	Handle() interface{}

	// QueueFamilies returns the graphics and present queue families.
	QueueFamilies() QueueFamilyIndices

	// Extensions returns device extensions that must be enabled.
	Extensions() []string
}

// Driver opens logical devices.
type Driver interface {
	Open(pd PhysicalDevice, surface interface{}) (Device, error)
}

// SwapchainCreateInfo configures a new swapchain.
type SwapchainCreateInfo struct {
	ImageCount    uint32
	Format        SurfaceFormat
	Extent        Extent2D
	PresentMode   PresentMode
	QueueFamilies QueueFamilyIndices
}

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage int

// Supported stages.
const (
	VertexStage ShaderStage = iota
	FragmentStage
)

func (s ShaderStage) String() string {
	if s == VertexStage {
		return "vertex"
	}
	return "fragment"
}

// ShaderStageInfo is one stage of a graphics pipeline.
type ShaderStageInfo struct {
	Stage      ShaderStage
	Module     ShaderModule
	EntryPoint string
}

// MaxVertexBindings is the number of vertex buffer bindings a pipeline
// reads. Every binding holds model.Vertex data.
const MaxVertexBindings = 1

// PipelineCreateInfo configures a graphics pipeline. Viewport and scissor
// are dynamic so pipelines survive swapchain extent changes.
type PipelineCreateInfo struct {
	Stages     []ShaderStageInfo
	RenderPass RenderPass
}

// SubmitInfo is a single command buffer submission to the graphics queue.
type SubmitInfo struct {
	CommandBuffer   CommandBuffer
	WaitSemaphore   Semaphore
	SignalSemaphore Semaphore
	Fence           Fence
}

// PresentInfo queues one swapchain image for display.
type PresentInfo struct {
	Swapchain     Swapchain
	ImageIndex    uint32
	WaitSemaphore Semaphore
}

// Commands records into a command buffer in the recording state.
type Commands interface {
	CmdBeginRenderPass(cb CommandBuffer, rp RenderPass, fb Framebuffer, extent Extent2D, clear [4]float32)
	CmdEndRenderPass(cb CommandBuffer)
	CmdSetViewport(cb CommandBuffer, extent Extent2D)
	CmdBindPipeline(cb CommandBuffer, p Pipeline)
	CmdBindVertexBuffers(cb CommandBuffer, buffers []Buffer)
	CmdDraw(cb CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
}

// Device is a logical device with a single graphics and present queue.
// Every object it creates must be destroyed through it before Destroy.
type Device interface {
	Commands

	// WaitIdle blocks until the device has no pending work.
	WaitIdle() error

	// SwapchainSupport queries the surface the device was opened for.
	SwapchainSupport() (SwapchainSupport, error)

	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)
	SwapchainImages(sc Swapchain) ([]Image, error)
	DestroySwapchain(sc Swapchain)

	CreateImageView(img Image, format SurfaceFormat) (ImageView, error)
	DestroyImageView(view ImageView)

	CreateRenderPass(format SurfaceFormat) (RenderPass, error)
	DestroyRenderPass(rp RenderPass)

	CreateFramebuffer(rp RenderPass, view ImageView, extent Extent2D) (Framebuffer, error)
	DestroyFramebuffer(fb Framebuffer)

	CreateShaderModule(code []byte) (ShaderModule, error)
	DestroyShaderModule(m ShaderModule)

	CreatePipeline(info PipelineCreateInfo) (Pipeline, error)
	DestroyPipeline(p Pipeline)

	CreateFence(signaled bool) (Fence, error)
	// WaitForFence returns Timeout if the fence was not signaled in time.
	WaitForFence(f Fence, timeout time.Duration) Result
	ResetFence(f Fence) error
	DestroyFence(f Fence)

	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(s Semaphore)

	CreateCommandPool(queueFamily uint32) (CommandPool, error)
	AllocateCommandBuffers(pool CommandPool, count int) ([]CommandBuffer, error)
	ResetCommandPool(pool CommandPool) error
	DestroyCommandPool(pool CommandPool)

	ResetCommandBuffer(cb CommandBuffer) error
	BeginCommandBuffer(cb CommandBuffer) error
	EndCommandBuffer(cb CommandBuffer) error

	CreateVertexBuffer(vertices []model.Vertex) (Buffer, error)
	DestroyBuffer(b Buffer)

	AcquireNextImage(sc Swapchain, signal Semaphore) (uint32, Result)
	QueueSubmit(info SubmitInfo) error
	QueuePresent(info PresentInfo) Result

	// Destroy releases the logical device.
	Destroy()
}
