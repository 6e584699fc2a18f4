// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"math"
	"time"

	"github.com/devblok/koru/gfx"
	"github.com/devblok/koru/model"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Device is a vulkan logical device with a graphics and a present queue.
type Device struct {
	physical vk.PhysicalDevice
	device   vk.Device
	surface  vk.Surface
	families gfx.QueueFamilyIndices

	graphicsQueue vk.Queue
	presentQueue  vk.Queue

	allocator      *MemoryAllocator
	pipelineLayout vk.PipelineLayout
	pipelineCache  vk.PipelineCache
}

// Handle returns the native logical device.
func (d *Device) Handle() vk.Device {
	return d.device
}

// WaitIdle implements gfx.Device
func (d *Device) WaitIdle() error {
	return errors.Wrap(vk.Error(vk.DeviceWaitIdle(d.device)), "vk.DeviceWaitIdle()")
}

// CreateFence implements gfx.Device
func (d *Device) CreateFence(signaled bool) (gfx.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(d.device, &fci, nil, &fence)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateFence()")
	}
	return fence, nil
}

// WaitForFence implements gfx.Device
func (d *Device) WaitForFence(f gfx.Fence, timeout time.Duration) gfx.Result {
	ns := uint64(math.MaxUint64)
	if timeout > 0 && timeout != time.Duration(math.MaxInt64) {
		ns = uint64(timeout.Nanoseconds())
	}
	return toResult(vk.WaitForFences(d.device, 1, []vk.Fence{f.(vk.Fence)}, vk.True, ns))
}

// ResetFence implements gfx.Device
func (d *Device) ResetFence(f gfx.Fence) error {
	return errors.Wrap(vk.Error(vk.ResetFences(d.device, 1, []vk.Fence{f.(vk.Fence)})), "vk.ResetFences()")
}

// DestroyFence implements gfx.Device
func (d *Device) DestroyFence(f gfx.Fence) {
	vk.DestroyFence(d.device, f.(vk.Fence), nil)
}

// CreateSemaphore implements gfx.Device
func (d *Device) CreateSemaphore() (gfx.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var semaphore vk.Semaphore
	if err := vk.Error(vk.CreateSemaphore(d.device, &sci, nil, &semaphore)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateSemaphore()")
	}
	return semaphore, nil
}

// DestroySemaphore implements gfx.Device
func (d *Device) DestroySemaphore(s gfx.Semaphore) {
	vk.DestroySemaphore(d.device, s.(vk.Semaphore), nil)
}

// CreateVertexBuffer implements gfx.Device, the vertices are copied
// into host visible memory.
func (d *Device) CreateVertexBuffer(vertices []model.Vertex) (gfx.Buffer, error) {
	data := model.Bytes(vertices)
	if len(data) == 0 {
		return nil, errors.New("vertex buffer without vertices")
	}

	buffer, err := NewBuffer(d.device, uint(len(data)), vk.BufferUsageVertexBufferBit, vk.SharingModeExclusive, d.allocator)
	if err != nil {
		return nil, err
	}

	mapped, err := buffer.Mem().Map()
	if err != nil {
		buffer.Release()
		return nil, err
	}
	vk.Memcopy(mapped, data)
	buffer.Mem().Unmap()
	return buffer, nil
}

// DestroyBuffer implements gfx.Device
func (d *Device) DestroyBuffer(b gfx.Buffer) {
	b.(*Buffer).Release()
}

// AcquireNextImage implements gfx.Device
func (d *Device) AcquireNextImage(sc gfx.Swapchain, signal gfx.Semaphore) (uint32, gfx.Result) {
	var index uint32
	ret := vk.AcquireNextImage(d.device, sc.(vk.Swapchain), math.MaxUint64,
		signal.(vk.Semaphore), vk.Fence(vk.NullHandle), &index)
	return index, toResult(ret)
}

// QueueSubmit implements gfx.Device
func (d *Device) QueueSubmit(info gfx.SubmitInfo) error {
	signal := []vk.Semaphore{info.SignalSemaphore.(vk.Semaphore)}
	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{info.WaitSemaphore.(vk.Semaphore)},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{info.CommandBuffer.(vk.CommandBuffer)},
		SignalSemaphoreCount: uint32(len(signal)),
		PSignalSemaphores:    signal,
	}}

	ret := vk.QueueSubmit(d.graphicsQueue, uint32(len(submit)), submit, info.Fence.(vk.Fence))
	return errors.Wrap(vk.Error(ret), "vk.QueueSubmit()")
}

// QueuePresent implements gfx.Device
func (d *Device) QueuePresent(info gfx.PresentInfo) gfx.Result {
	wait := []vk.Semaphore{info.WaitSemaphore.(vk.Semaphore)}
	swapchains := []vk.Swapchain{info.Swapchain.(vk.Swapchain)}
	pi := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(wait)),
		PWaitSemaphores:    wait,
		SwapchainCount:     uint32(len(swapchains)),
		PSwapchains:        swapchains,
		PImageIndices:      []uint32{info.ImageIndex},
	}
	return toResult(vk.QueuePresent(d.presentQueue, &pi))
}

// Destroy implements gfx.Device
func (d *Device) Destroy() {
	vk.DestroyPipelineCache(d.device, d.pipelineCache, nil)
	vk.DestroyPipelineLayout(d.device, d.pipelineLayout, nil)
	vk.DestroyDevice(d.device, nil)
}
