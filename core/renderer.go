// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/devblok/koru/gfx"
	"github.com/devblok/koru/model"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// frame holds what one frame in flight needs exclusively.
type frame struct {
	inFlight       *Fence
	imageAvailable *Semaphore
	renderFinished *Semaphore
	commandBuffer  gfx.CommandBuffer
}

// retiredArray is a vertex buffer array of a deleted mediator, kept until
// no frame that could reference it is in flight.
type retiredArray struct {
	array *VertexBufferArray
	// frame is the first frame number that cannot reference array.
	frame uint64
}

// NewRenderer opens the device and builds the swapchain stack,
// command buffers and synchronization primitives. Any failure is fatal.
func NewRenderer(driver gfx.Driver, window Window, pd gfx.PhysicalDevice, shaders *ShaderManager, cfg RendererConfiguration) *Renderer {
	if cfg.FramesInFlight < 1 {
		cfg.FramesInFlight = 1
	}

	device, err := driver.Open(pd, window.Surface())
	if err != nil {
		fatal(err, "CreateDevice")
		return nil
	}

	r := &Renderer{
		config:    cfg,
		window:    window,
		pd:        pd,
		device:    device,
		shaders:   shaders,
		vertices:  NewVertexManager(),
		pipelines: make(map[string]gfx.Pipeline),
	}

	support, err := device.SwapchainSupport()
	if err != nil {
		fatal(err, "GetPhysicalDeviceSurfaceCapabilities")
		return nil
	}
	if !support.IsAdequate() {
		fatal(gfx.ErrNoSuitableDevice, "SwapchainSupport")
		return nil
	}

	r.swapchain = NewSwapChain(device, support, window, pd.QueueFamilies(), cfg)
	r.views = NewSwapChainImageViews(device, r.swapchain)
	r.renderPass = NewRenderPass(device, r.swapchain.Format())
	r.framebuffers = NewFramebuffers(device, r.views, r.renderPass, r.swapchain.Extent())

	r.commandPool = NewCommandPool(device, pd.QueueFamilies().Graphics, cfg.FramesInFlight)
	for idx := 0; idx < cfg.FramesInFlight; idx++ {
		r.frames = append(r.frames, frame{
			inFlight:       NewFence(device),
			imageAvailable: NewSemaphore(device),
			renderFinished: NewSemaphore(device),
			commandBuffer:  r.commandPool.Buffer(idx),
		})
	}

	logger.WithField("frames", cfg.FramesInFlight).Info("renderer initialized")
	return r
}

// Renderer owns the device and every object created on it, and drives
// the per-frame protocol. It must only be used from one goroutine.
type Renderer struct {
	config RendererConfiguration
	window Window
	pd     gfx.PhysicalDevice
	device gfx.Device

	shaders   *ShaderManager
	vertices  *VertexManager
	pipelines map[string]gfx.Pipeline

	swapchain    *SwapChain
	views        *SwapChainImageViews
	renderPass   *RenderPass
	framebuffers *Framebuffers

	commandPool *CommandPool
	frames      []frame

	mediators []*RenderMediator
	nextID    int
	retired   []retiredArray

	state        FrameState
	currentFrame int
	frameCount   uint64

	stale     bool
	resized   bool
	drained   bool
	destroyed bool
}

// DrawFrame renders and presents one frame. A swapchain that no longer
// matches the surface is rebuilt and the frame is skipped.
func (r *Renderer) DrawFrame() {
	if r.destroyed {
		return
	}
	if r.stale && !r.recreateSwapchain() {
		return
	}
	r.drained = false

	f := r.frames[r.currentFrame]
	for !f.inFlight.Wait(r.config.FenceTimeout) {
		logger.WithField("frame", r.currentFrame).Warn("frame still in flight, waiting")
	}
	r.collectRetired()

	r.state = Acquiring
	imageIndex, res := r.device.AcquireNextImage(r.swapchain.Handle(), f.imageAvailable.Handle())
	switch res {
	case gfx.Success, gfx.Suboptimal:
	case gfx.OutOfDate:
		logger.WithField("op", "AcquireNextImage").Warn("swapchain out of date")
		r.state = Idle
		r.recreateSwapchain()
		return
	default:
		r.state = Idle
		fatal(errors.New(res.String()), "AcquireNextImage")
		return
	}

	f.inFlight.Reset()

	r.state = Recording
	r.record(f.commandBuffer, int(imageIndex))

	r.state = Submitted
	if err := r.device.QueueSubmit(gfx.SubmitInfo{
		CommandBuffer:   f.commandBuffer,
		WaitSemaphore:   f.imageAvailable.Handle(),
		SignalSemaphore: f.renderFinished.Handle(),
		Fence:           f.inFlight.Handle(),
	}); err != nil {
		r.state = Idle
		fatal(err, "QueueSubmit")
		return
	}

	r.state = Presenting
	res = r.device.QueuePresent(gfx.PresentInfo{
		Swapchain:     r.swapchain.Handle(),
		ImageIndex:    imageIndex,
		WaitSemaphore: f.renderFinished.Handle(),
	})

	r.frameCount++
	r.currentFrame = (r.currentFrame + 1) % len(r.frames)
	r.state = Idle

	switch {
	case res == gfx.OutOfDate || res == gfx.Suboptimal:
		logger.WithFields(log.Fields{
			"op":     "QueuePresent",
			"result": res,
		}).Warn("swapchain needs recreation")
		r.resized = false
		r.recreateSwapchain()
	case res != gfx.Success:
		fatal(errors.New(res.String()), "QueuePresent")
	case r.resized:
		logger.Debug("window resized, recreating swapchain")
		r.resized = false
		r.recreateSwapchain()
	}
}

func (r *Renderer) record(handle gfx.CommandBuffer, imageIndex int) {
	if err := r.device.ResetCommandBuffer(handle); err != nil {
		fatal(err, "ResetCommandBuffer")
		return
	}
	if err := r.device.BeginCommandBuffer(handle); err != nil {
		fatal(err, "BeginCommandBuffer")
		return
	}

	extent := r.swapchain.Extent()
	r.device.CmdBeginRenderPass(handle, r.renderPass.Handle(), r.framebuffers.Framebuffer(imageIndex), extent, r.config.ClearColor)
	r.device.CmdSetViewport(handle, extent)

	cmd := NewCommandBuffer(r.device, handle)
	mediators := make([]*RenderMediator, len(r.mediators))
	copy(mediators, r.mediators)
	for _, m := range mediators {
		if m.Deleted() {
			continue
		}
		cmd.BindPipeline(r.pipelines[m.shader.Name()])
		m.SubmitRenderCommands(cmd)
	}

	r.device.CmdEndRenderPass(handle)
	if err := r.device.EndCommandBuffer(handle); err != nil {
		fatal(err, "EndCommandBuffer")
	}
}

// recreateSwapchain rebuilds the swapchain stack for the current surface.
// It returns false when the surface has no area, the rebuild is then
// retried on the next DrawFrame.
func (r *Renderer) recreateSwapchain() bool {
	support, err := r.device.SwapchainSupport()
	if err != nil {
		fatal(err, "GetPhysicalDeviceSurfaceCapabilities")
		return false
	}
	width, height := r.window.FramebufferSize()
	if width == 0 || height == 0 || ChooseExtent(support.Capabilities, r.window).Empty() {
		if !r.stale {
			logger.Debug("surface has no area, postponing swapchain recreation")
		}
		r.stale = true
		return false
	}

	if err := r.device.WaitIdle(); err != nil {
		fatal(err, "DeviceWaitIdle")
		return false
	}

	r.framebuffers.Destroy()
	r.views.Destroy()
	r.swapchain.Destroy()

	r.swapchain = NewSwapChain(r.device, support, r.window, r.pd.QueueFamilies(), r.config)
	r.views = NewSwapChainImageViews(r.device, r.swapchain)
	if r.swapchain.Format() != r.renderPass.Format() {
		logger.WithField("format", r.swapchain.Format().Format).Info("surface format changed, rebuilding render pass")
		r.destroyPipelines()
		r.renderPass.Destroy()
		r.renderPass = NewRenderPass(r.device, r.swapchain.Format())
		for _, name := range r.shaders.Names() {
			r.createPipeline(r.shaders.GetPipelineShader(name))
		}
	}
	r.framebuffers = NewFramebuffers(r.device, r.views, r.renderPass, r.swapchain.Extent())

	r.stale = false
	return true
}

func (r *Renderer) createPipeline(shader *PipelineShader) gfx.Pipeline {
	if pipeline, ok := r.pipelines[shader.Name()]; ok {
		return pipeline
	}

	stages := shader.Stages(r.device)
	infos := make([]gfx.ShaderStageInfo, 0, len(stages))
	for _, stage := range stages {
		infos = append(infos, stage.Info())
	}

	pipeline, err := r.device.CreatePipeline(gfx.PipelineCreateInfo{
		Stages:     infos,
		RenderPass: r.renderPass.Handle(),
	})
	for _, stage := range stages {
		stage.Destroy()
	}
	if err != nil {
		logger.WithField("shader", shader.Name()).Error("pipeline creation failed")
		fatal(err, "CreateGraphicsPipelines")
		return nil
	}

	r.pipelines[shader.Name()] = pipeline
	return pipeline
}

func (r *Renderer) destroyPipelines() {
	for name, pipeline := range r.pipelines {
		r.device.DestroyPipeline(pipeline)
		delete(r.pipelines, name)
	}
}

// CreateRenderMediator registers a new mediator drawing with the named
// shader, loading the shader and building its pipeline if needed.
// Mediators are invoked in the order they were created.
func (r *Renderer) CreateRenderMediator(shaderName string) *RenderMediator {
	shader := r.shaders.GetPipelineShader(shaderName)
	r.createPipeline(shader)

	r.nextID++
	m := newRenderMediator(r.nextID, shader, r)
	r.mediators = append(r.mediators, m)
	logger.WithField("mediator", m.Name()).Debug("render mediator registered")
	return m
}

func (r *Renderer) createVertexBuffer(m *RenderMediator, vertices []model.Vertex) *VertexBuffer {
	if r.vertices.Has(m.Name()) && r.vertices.GetVertexBuffers(m.Name()).Len() >= gfx.MaxVertexBindings {
		logger.WithFields(log.Fields{
			"mediator": m.Name(),
			"bindings": gfx.MaxVertexBindings,
		}).Warn("vertex buffer refused, pipelines read no further bindings")
		return nil
	}
	buf := NewVertexBuffer(r.device, vertices)
	r.vertices.AddVertexBuffer(m.Name(), buf)
	return buf
}

func (r *Renderer) unregister(m *RenderMediator) {
	for idx, registered := range r.mediators {
		if registered == m {
			r.mediators = append(r.mediators[:idx], r.mediators[idx+1:]...)
			break
		}
	}
	if arr := r.vertices.Remove(m.Name()); arr != nil {
		// The frame being recorded is numbered frameCount and may
		// already have bound the array.
		unused := r.frameCount
		if r.state == Recording {
			unused++
		}
		r.retired = append(r.retired, retiredArray{
			array: arr,
			frame: unused,
		})
	}
	logger.WithField("mediator", m.Name()).Debug("render mediator deleted")
}

// collectRetired destroys arrays no longer referenced by any frame in
// flight. It runs right after the current slot's fence was waited on,
// when every frame up to frameCount-len(frames) has completed.
func (r *Renderer) collectRetired() {
	kept := r.retired[:0]
	for _, ra := range r.retired {
		if r.drained || ra.frame+uint64(len(r.frames)) <= r.frameCount+1 {
			ra.array.Destroy()
			continue
		}
		kept = append(kept, ra)
	}
	r.retired = kept
}

// ResetCommandPool waits until no frame is in flight and resets all
// command buffers. It must be called before renderables or the
// Renderer are destroyed.
func (r *Renderer) ResetCommandPool() {
	if r.destroyed {
		return
	}
	fences := make([]*Fence, 0, len(r.frames))
	for _, f := range r.frames {
		fences = append(fences, f.inFlight)
	}
	r.commandPool.WaitAndReset(fences, r.config.FenceTimeout)
	r.drained = true
	r.collectRetired()
	logger.Debug("command pool drained")
}

// NotifyResized makes the next presented frame rebuild the swapchain.
func (r *Renderer) NotifyResized() {
	r.resized = true
}

// State returns the position in the frame protocol.
func (r *Renderer) State() FrameState {
	return r.state
}

// FrameCount is the number of frames submitted so far.
func (r *Renderer) FrameCount() uint64 {
	return r.frameCount
}

// CurrentFrame is the frame slot the next DrawFrame uses.
func (r *Renderer) CurrentFrame() int {
	return r.currentFrame
}

// FramesInFlight is the number of frame slots.
func (r *Renderer) FramesInFlight() int {
	return len(r.frames)
}

// Mediators returns the registered mediators in invocation order.
func (r *Renderer) Mediators() []*RenderMediator {
	mediators := make([]*RenderMediator, len(r.mediators))
	copy(mediators, r.mediators)
	return mediators
}

// VertexManager returns the vertex buffer arrays of all mediators.
func (r *Renderer) VertexManager() *VertexManager {
	return r.vertices
}

// Pipeline returns the pipeline built for a shader.
func (r *Renderer) Pipeline(shaderName string) (gfx.Pipeline, bool) {
	p, ok := r.pipelines[shaderName]
	return p, ok
}

// SwapChain returns the current swapchain.
func (r *Renderer) SwapChain() *SwapChain {
	return r.swapchain
}

// ImageViews returns the views of the current swapchain.
func (r *Renderer) ImageViews() *SwapChainImageViews {
	return r.views
}

// Framebuffers returns the framebuffers of the current swapchain.
func (r *Renderer) Framebuffers() *Framebuffers {
	return r.framebuffers
}

// RenderPass returns the render pass shared by all framebuffers.
func (r *Renderer) RenderPass() *RenderPass {
	return r.renderPass
}

// Destroy releases every object in reverse order of creation,
// draining the command pool first if that was not done.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	if !r.drained {
		r.ResetCommandPool()
	}
	if err := r.device.WaitIdle(); err != nil {
		logger.WithError(err).Warn("device wait idle failed during shutdown")
	}

	for _, m := range r.mediators {
		m.deleted = true
	}
	r.mediators = nil
	r.collectRetired()
	r.vertices.Destroy()
	r.destroyPipelines()

	r.commandPool.Destroy()
	for _, f := range r.frames {
		f.inFlight.Destroy()
		f.imageAvailable.Destroy()
		f.renderFinished.Destroy()
	}
	r.frames = nil

	r.framebuffers.Destroy()
	r.views.Destroy()
	r.swapchain.Destroy()
	r.renderPass.Destroy()

	r.device.Destroy()
	r.destroyed = true
	logger.Info("renderer destroyed")
}
