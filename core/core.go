// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core drives frame rendering on top of a gfx.Device: it owns the
// swapchain stack, synchronization primitives and command buffers, and
// dispatches per-frame draw recording to registered render mediators.
package core

// Window is the surface-owning window the renderer presents to.
// Event polling stays with the caller.
type Window interface {
	// Surface returns the native presentation surface handle.
	Surface() interface{}

	// NotClosed reports whether the window is still open.
	NotClosed() bool

	// FramebufferSize returns the drawable size in pixels.
	FramebufferSize() (width, height int)
}

// FrameState is the position of the Renderer in the frame protocol.
type FrameState int

// Frame states, DrawFrame moves through them in order and returns to Idle.
const (
	Idle FrameState = iota
	Acquiring
	Recording
	Submitted
	Presenting
)

func (s FrameState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Acquiring:
		return "acquiring"
	case Recording:
		return "recording"
	case Submitted:
		return "submitted"
	case Presenting:
		return "presenting"
	}
	return "unknown"
}

// RenderCommandSubmitter records draw commands into the active command buffer.
// It is the only capability the Renderer dispatches on every frame.
type RenderCommandSubmitter interface {
	SubmitRenderCommands(cmd *CommandBuffer)
}
