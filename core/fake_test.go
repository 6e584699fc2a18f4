// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/gfx"
	"github.com/devblok/koru/model"
	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// handle is the fake backend's object handle.
type handle struct {
	kind string
	id   int
}

func (h handle) String() string {
	return fmt.Sprintf("%s#%d", h.kind, h.id)
}

// handlesEqual compares values holding fake handles.
var handlesEqual = qt.CmpEquals(cmp.AllowUnexported(handle{}))

type fakeFence struct {
	signaled bool
	pending  int // submission waiting to complete on this fence, -1 if none
	bound    []handle
}

// fakeDevice is a gfx.Device recording every call in events. Submitted work
// completes only when its fence is waited on or the device idles.
type fakeDevice struct {
	events []string
	live   map[handle]bool
	nextID int
	errs   []string

	// fail makes creation of an object kind, or the named call, return an error.
	fail map[string]error

	support   gfx.SwapchainSupport
	images    int
	nextImage uint32

	fences      map[handle]*fakeFence
	submissions int
	completed   []int

	acquireResults []gfx.Result
	presentResults []gfx.Result
	fenceTimeouts  int
	lastTimeout    time.Duration

	buffers map[handle]int
	// recording holds the vertex buffers bound by each command buffer
	// since it began recording.
	recording map[handle][]handle
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		live: make(map[handle]bool),
		fail: make(map[string]error),
		support: gfx.SwapchainSupport{
			Capabilities: gfx.SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  8,
				CurrentExtent:  gfx.Extent2D{Width: 800, Height: 600},
				MinImageExtent: gfx.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: gfx.Extent2D{Width: 4096, Height: 4096},
			},
			Formats:      []gfx.SurfaceFormat{{Format: 44, ColorSpace: 0}, {Format: 50, ColorSpace: 0}},
			PresentModes: []gfx.PresentMode{gfx.PresentModeFifo, gfx.PresentModeMailbox},
		},
		fences:    make(map[handle]*fakeFence),
		buffers:   make(map[handle]int),
		recording: make(map[handle][]handle),
	}
}

func (d *fakeDevice) log(format string, args ...interface{}) {
	d.events = append(d.events, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) create(kind string) (handle, error) {
	if err := d.fail[kind]; err != nil {
		return handle{}, err
	}
	d.nextID++
	h := handle{kind: kind, id: d.nextID}
	d.live[h] = true
	d.log("create %s", h)
	return h, nil
}

func (d *fakeDevice) destroy(obj interface{}) {
	h := obj.(handle)
	if !d.live[h] {
		d.errs = append(d.errs, "destroy of dead object "+h.String())
	}
	delete(d.live, h)
	d.log("destroy %s", h)
}

// liveKinds counts live objects by kind.
func (d *fakeDevice) liveKinds() map[string]int {
	kinds := make(map[string]int)
	for h := range d.live {
		kinds[h.kind]++
	}
	return kinds
}

// indexOf returns the index of the first event with prefix, -1 if none.
func (d *fakeDevice) indexOf(prefix string) int {
	for idx, e := range d.events {
		if strings.HasPrefix(e, prefix) {
			return idx
		}
	}
	return -1
}

// count returns the number of events with prefix.
func (d *fakeDevice) count(prefix string) int {
	var n int
	for _, e := range d.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func (d *fakeDevice) complete(f *fakeFence) {
	if f.pending >= 0 {
		d.completed = append(d.completed, f.pending)
		d.log("complete submission %d", f.pending)
		f.pending = -1
	}
	f.bound = nil
	f.signaled = true
}

func (d *fakeDevice) WaitIdle() error {
	d.log("wait idle")
	for _, f := range d.fences {
		if f.pending >= 0 {
			d.complete(f)
		}
	}
	return nil
}

func (d *fakeDevice) SwapchainSupport() (gfx.SwapchainSupport, error) {
	return d.support, d.fail["SwapchainSupport"]
}

func (d *fakeDevice) CreateSwapchain(info gfx.SwapchainCreateInfo) (gfx.Swapchain, error) {
	d.images = int(info.ImageCount)
	d.nextImage = 0
	return d.create("swapchain")
}

func (d *fakeDevice) SwapchainImages(sc gfx.Swapchain) ([]gfx.Image, error) {
	images := make([]gfx.Image, 0, d.images)
	for idx := 0; idx < d.images; idx++ {
		images = append(images, handle{kind: "image", id: idx})
	}
	return images, nil
}

func (d *fakeDevice) DestroySwapchain(sc gfx.Swapchain) { d.destroy(sc) }

func (d *fakeDevice) CreateImageView(img gfx.Image, format gfx.SurfaceFormat) (gfx.ImageView, error) {
	return d.create("view")
}

func (d *fakeDevice) DestroyImageView(view gfx.ImageView) { d.destroy(view) }

func (d *fakeDevice) CreateRenderPass(format gfx.SurfaceFormat) (gfx.RenderPass, error) {
	return d.create("renderpass")
}

func (d *fakeDevice) DestroyRenderPass(rp gfx.RenderPass) { d.destroy(rp) }

func (d *fakeDevice) CreateFramebuffer(rp gfx.RenderPass, view gfx.ImageView, extent gfx.Extent2D) (gfx.Framebuffer, error) {
	if !d.live[rp.(handle)] || !d.live[view.(handle)] {
		d.errs = append(d.errs, "framebuffer created from dead objects")
	}
	return d.create("framebuffer")
}

func (d *fakeDevice) DestroyFramebuffer(fb gfx.Framebuffer) { d.destroy(fb) }

func (d *fakeDevice) CreateShaderModule(code []byte) (gfx.ShaderModule, error) {
	return d.create("module")
}

func (d *fakeDevice) DestroyShaderModule(m gfx.ShaderModule) { d.destroy(m) }

func (d *fakeDevice) CreatePipeline(info gfx.PipelineCreateInfo) (gfx.Pipeline, error) {
	for _, stage := range info.Stages {
		if !d.live[stage.Module.(handle)] {
			d.errs = append(d.errs, "pipeline created from dead module")
		}
	}
	return d.create("pipeline")
}

func (d *fakeDevice) DestroyPipeline(p gfx.Pipeline) { d.destroy(p) }

func (d *fakeDevice) CreateFence(signaled bool) (gfx.Fence, error) {
	h, err := d.create("fence")
	if err != nil {
		return nil, err
	}
	d.fences[h] = &fakeFence{signaled: signaled, pending: -1}
	return h, nil
}

func (d *fakeDevice) WaitForFence(f gfx.Fence, timeout time.Duration) gfx.Result {
	h := f.(handle)
	d.log("wait %s", h)
	d.lastTimeout = timeout
	if d.fenceTimeouts > 0 {
		d.fenceTimeouts--
		return gfx.Timeout
	}
	fence := d.fences[h]
	if !fence.signaled && fence.pending < 0 {
		panic("waiting on a fence that is never signaled: " + h.String())
	}
	d.complete(fence)
	return gfx.Success
}

func (d *fakeDevice) ResetFence(f gfx.Fence) error {
	h := f.(handle)
	d.log("reset %s", h)
	d.fences[h].signaled = false
	return nil
}

func (d *fakeDevice) DestroyFence(f gfx.Fence) {
	if d.fences[f.(handle)].pending >= 0 {
		d.errs = append(d.errs, "fence destroyed with pending work")
	}
	d.destroy(f)
}

func (d *fakeDevice) CreateSemaphore() (gfx.Semaphore, error) { return d.create("semaphore") }

func (d *fakeDevice) DestroySemaphore(s gfx.Semaphore) { d.destroy(s) }

func (d *fakeDevice) CreateCommandPool(queueFamily uint32) (gfx.CommandPool, error) {
	return d.create("pool")
}

func (d *fakeDevice) AllocateCommandBuffers(pool gfx.CommandPool, count int) ([]gfx.CommandBuffer, error) {
	if err := d.fail["AllocateCommandBuffers"]; err != nil {
		return nil, err
	}
	buffers := make([]gfx.CommandBuffer, 0, count)
	for idx := 0; idx < count; idx++ {
		buffers = append(buffers, handle{kind: "cmd", id: idx})
	}
	return buffers, nil
}

func (d *fakeDevice) ResetCommandPool(pool gfx.CommandPool) error {
	for _, f := range d.fences {
		if f.pending >= 0 {
			d.errs = append(d.errs, "command pool reset with work in flight")
		}
	}
	d.log("reset pool")
	return nil
}

func (d *fakeDevice) DestroyCommandPool(pool gfx.CommandPool) { d.destroy(pool) }

func (d *fakeDevice) ResetCommandBuffer(cb gfx.CommandBuffer) error {
	d.log("reset %s", cb)
	return nil
}

func (d *fakeDevice) BeginCommandBuffer(cb gfx.CommandBuffer) error {
	d.log("begin %s", cb)
	delete(d.recording, cb.(handle))
	return nil
}

func (d *fakeDevice) EndCommandBuffer(cb gfx.CommandBuffer) error {
	d.log("end %s", cb)
	return nil
}

func (d *fakeDevice) CreateVertexBuffer(vertices []model.Vertex) (gfx.Buffer, error) {
	h, err := d.create("buffer")
	if err != nil {
		return nil, err
	}
	d.buffers[h] = len(vertices)
	return h, nil
}

func (d *fakeDevice) DestroyBuffer(b gfx.Buffer) {
	h := b.(handle)
	for _, f := range d.fences {
		if f.pending < 0 {
			continue
		}
		for _, bound := range f.bound {
			if bound == h {
				d.errs = append(d.errs, fmt.Sprintf("%s bound by submission %d destroyed while in flight", h, f.pending))
			}
		}
	}
	d.destroy(b)
}

func (d *fakeDevice) AcquireNextImage(sc gfx.Swapchain, signal gfx.Semaphore) (uint32, gfx.Result) {
	res := gfx.Success
	if len(d.acquireResults) > 0 {
		res, d.acquireResults = d.acquireResults[0], d.acquireResults[1:]
	}
	d.log("acquire %s", res)
	if res != gfx.Success && res != gfx.Suboptimal {
		return 0, res
	}
	idx := d.nextImage
	d.nextImage = (d.nextImage + 1) % uint32(d.images)
	return idx, res
}

func (d *fakeDevice) QueueSubmit(info gfx.SubmitInfo) error {
	if err := d.fail["QueueSubmit"]; err != nil {
		return err
	}
	h := info.Fence.(handle)
	fence := d.fences[h]
	if fence.signaled || fence.pending >= 0 {
		d.errs = append(d.errs, "submitted with a fence that was not reset")
	}
	fence.pending = d.submissions
	fence.bound = d.recording[info.CommandBuffer.(handle)]
	delete(d.recording, info.CommandBuffer.(handle))
	d.log("submit %d %s %s", d.submissions, info.CommandBuffer, h)
	d.submissions++
	return nil
}

func (d *fakeDevice) QueuePresent(info gfx.PresentInfo) gfx.Result {
	res := gfx.Success
	if len(d.presentResults) > 0 {
		res, d.presentResults = d.presentResults[0], d.presentResults[1:]
	}
	d.log("present %d %s", info.ImageIndex, res)
	return res
}

func (d *fakeDevice) Destroy() {
	for h := range d.live {
		d.errs = append(d.errs, "leaked "+h.String())
	}
	d.log("destroy device")
}

func (d *fakeDevice) CmdBeginRenderPass(cb gfx.CommandBuffer, rp gfx.RenderPass, fb gfx.Framebuffer, extent gfx.Extent2D, clear [4]float32) {
	d.log("cmd begin pass %s", fb)
}

func (d *fakeDevice) CmdEndRenderPass(cb gfx.CommandBuffer) { d.log("cmd end pass") }

func (d *fakeDevice) CmdSetViewport(cb gfx.CommandBuffer, extent gfx.Extent2D) {
	d.log("cmd viewport %dx%d", extent.Width, extent.Height)
}

func (d *fakeDevice) CmdBindPipeline(cb gfx.CommandBuffer, p gfx.Pipeline) {
	d.log("cmd bind %s", p)
}

func (d *fakeDevice) CmdBindVertexBuffers(cb gfx.CommandBuffer, buffers []gfx.Buffer) {
	d.log("cmd bind buffers %v", buffers)
	for _, b := range buffers {
		d.recording[cb.(handle)] = append(d.recording[cb.(handle)], b.(handle))
	}
}

func (d *fakeDevice) CmdDraw(cb gfx.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	d.log("cmd draw %d", vertexCount)
}

type fakeDriver struct {
	device *fakeDevice
	err    error
}

func (d fakeDriver) Open(pd gfx.PhysicalDevice, surface interface{}) (gfx.Device, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.device, nil
}

type fakeWindow struct {
	width, height int
	closed        bool
}

func (w *fakeWindow) Surface() interface{} { return "surface" }

func (w *fakeWindow) NotClosed() bool { return !w.closed }

func (w *fakeWindow) FramebufferSize() (int, int) { return w.width, w.height }

type fakePhysicalDevice struct{}

func (fakePhysicalDevice) Handle() interface{} { return "gpu" }

func (fakePhysicalDevice) QueueFamilies() gfx.QueueFamilyIndices {
	return gfx.QueueFamilyIndices{Graphics: 0, Present: 0}
}

func (fakePhysicalDevice) Extensions() []string { return []string{"VK_KHR_swapchain"} }

// fakeSource serves every shader name except those in missing.
type fakeSource struct {
	loads   map[string]int
	missing map[string]bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		loads:   make(map[string]int),
		missing: make(map[string]bool),
	}
}

func (s *fakeSource) Load(name string) ([]byte, []byte, error) {
	if s.missing[name] {
		return nil, nil, core.ErrShaderNotFound
	}
	s.loads[name]++
	return []byte(name + "-vert"), []byte(name + "-frag"), nil
}

var errInjected = errors.New("injected failure")

// fatalLogger routes the package logger into a test hook and turns the
// fatal exit into a panic.
func fatalLogger(c *qt.C) *test.Hook {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	logger.ExitFunc = func(code int) {
		panic(fmt.Sprintf("fatal exit %d", code))
	}
	core.SetLogger(logger)
	c.Cleanup(func() {
		core.SetLogger(nil)
	})
	return hook
}

type fixture struct {
	device  *fakeDevice
	window  *fakeWindow
	source  *fakeSource
	system  *core.RenderSystem
	hook    *test.Hook
	config  core.RendererConfiguration
	shaders *core.ShaderManager
}

func newFixture(c *qt.C, framesInFlight int) *fixture {
	f := &fixture{
		device: newFakeDevice(),
		window: &fakeWindow{width: 800, height: 600},
		source: newFakeSource(),
		hook:   fatalLogger(c),
	}
	f.config = core.DefaultConfiguration().Renderer
	f.config.FramesInFlight = framesInFlight
	f.system = core.NewRenderSystem(fakeDriver{device: f.device}, f.window, fakePhysicalDevice{}, f.source, f.config)
	f.shaders = f.system.ShaderManager()
	return f
}

func (f *fixture) renderer() *core.Renderer {
	return f.system.Renderer()
}

// undefinedExtent makes the surface report that the window decides the extent.
func (f *fixture) undefinedExtent() {
	f.device.support.Capabilities.CurrentExtent = gfx.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
}
