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

// CreateCommandPool implements gfx.Device. Buffers from the pool
// can be reset individually.
func (d *Device) CreateCommandPool(queueFamily uint32) (gfx.CommandPool, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: queueFamily,
	}

	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(d.device, &cpci, nil, &commandPool)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateCommandPool()")
	}
	return commandPool, nil
}

// AllocateCommandBuffers implements gfx.Device
func (d *Device) AllocateCommandBuffers(pool gfx.CommandPool, count int) ([]gfx.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool.(vk.CommandPool),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	commandBuffers := make([]vk.CommandBuffer, count)
	if err := vk.Error(vk.AllocateCommandBuffers(d.device, &cbai, commandBuffers)); err != nil {
		return nil, errors.Wrap(err, "vk.AllocateCommandBuffers()")
	}

	handles := make([]gfx.CommandBuffer, count)
	for idx, cb := range commandBuffers {
		handles[idx] = cb
	}
	return handles, nil
}

// ResetCommandPool implements gfx.Device
func (d *Device) ResetCommandPool(pool gfx.CommandPool) error {
	ret := vk.ResetCommandPool(d.device, pool.(vk.CommandPool), 0)
	return errors.Wrap(vk.Error(ret), "vk.ResetCommandPool()")
}

// DestroyCommandPool implements gfx.Device, buffers allocated
// from it are freed with it.
func (d *Device) DestroyCommandPool(pool gfx.CommandPool) {
	vk.DestroyCommandPool(d.device, pool.(vk.CommandPool), nil)
}

// ResetCommandBuffer implements gfx.Device
func (d *Device) ResetCommandBuffer(cb gfx.CommandBuffer) error {
	ret := vk.ResetCommandBuffer(cb.(vk.CommandBuffer), 0)
	return errors.Wrap(vk.Error(ret), "vk.ResetCommandBuffer()")
}

// BeginCommandBuffer implements gfx.Device
func (d *Device) BeginCommandBuffer(cb gfx.CommandBuffer) error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	ret := vk.BeginCommandBuffer(cb.(vk.CommandBuffer), &cbbi)
	return errors.Wrap(vk.Error(ret), "vk.BeginCommandBuffer()")
}

// EndCommandBuffer implements gfx.Device
func (d *Device) EndCommandBuffer(cb gfx.CommandBuffer) error {
	ret := vk.EndCommandBuffer(cb.(vk.CommandBuffer))
	return errors.Wrap(vk.Error(ret), "vk.EndCommandBuffer()")
}

// CmdBeginRenderPass implements gfx.Commands
func (d *Device) CmdBeginRenderPass(cb gfx.CommandBuffer, rp gfx.RenderPass, fb gfx.Framebuffer, extent gfx.Extent2D, clear [4]float32) {
	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(clear[:])

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.(vk.RenderPass),
		Framebuffer: fb.(vk.Framebuffer),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{
				Width:  extent.Width,
				Height: extent.Height,
			},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(cb.(vk.CommandBuffer), &rpbi, vk.SubpassContentsInline)
}

// CmdEndRenderPass implements gfx.Commands
func (d *Device) CmdEndRenderPass(cb gfx.CommandBuffer) {
	vk.CmdEndRenderPass(cb.(vk.CommandBuffer))
}

// CmdSetViewport implements gfx.Commands, the scissor covers the whole viewport.
func (d *Device) CmdSetViewport(cb gfx.CommandBuffer, extent gfx.Extent2D) {
	commandBuffer := cb.(vk.CommandBuffer)
	vk.CmdSetViewport(commandBuffer, 0, 1, []vk.Viewport{{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}})
	vk.CmdSetScissor(commandBuffer, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{
			Width:  extent.Width,
			Height: extent.Height,
		},
	}})
}

// CmdBindPipeline implements gfx.Commands
func (d *Device) CmdBindPipeline(cb gfx.CommandBuffer, p gfx.Pipeline) {
	vk.CmdBindPipeline(cb.(vk.CommandBuffer), vk.PipelineBindPointGraphics, p.(vk.Pipeline))
}

// CmdBindVertexBuffers implements gfx.Commands, buffers are bound
// to consecutive bindings starting at zero.
func (d *Device) CmdBindVertexBuffers(cb gfx.CommandBuffer, buffers []gfx.Buffer) {
	handles := make([]vk.Buffer, len(buffers))
	offsets := make([]vk.DeviceSize, len(buffers))
	for idx, b := range buffers {
		handles[idx] = b.(*Buffer).Get()
	}
	vk.CmdBindVertexBuffers(cb.(vk.CommandBuffer), 0, uint32(len(handles)), handles, offsets)
}

// CmdDraw implements gfx.Commands
func (d *Device) CmdDraw(cb gfx.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(cb.(vk.CommandBuffer), vertexCount, instanceCount, firstVertex, firstInstance)
}
