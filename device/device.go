// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device creates the vulkan instance and picks the physical
// device that the renderer opens its logical device on.
package device

import (
	"github.com/devblok/koru/gfx"
)

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int      `json:"id"`
	VendorID      int      `json:"vendorId"`
	DriverVersion int      `json:"driverVersion"`
	Name          string   `json:"name"`
	Discrete      bool     `json:"discrete"`
	Invalid       bool     `json:"invalid,omitempty"`
	Extensions    []string `json:"extensions"`
	Layers        []string `json:"layers"`
	Memory        uint     `json:"memory"`
}

// InstanceConfiguration configures instance creation.
type InstanceConfiguration struct {
	// Extensions are instance extensions, usually the ones
	// the window system needs for presenting.
	Extensions []string
	Layers     []string

	// DebugMode enables validation.
	DebugMode bool
}

// Debug layers and extensions enabled with InstanceConfiguration.DebugMode.
const (
	ValidationLayer      = "VK_LAYER_KHRONOS_validation"
	DebugReportExtension = "VK_EXT_debug_report"
)

// QueueFamily is what selection needs to know about a queue family.
type QueueFamily struct {
	Graphics bool
	Present  bool
}

// FindQueueFamilies picks the graphics and present queue families.
// A family that supports both is preferred, so that swapchain
// images need not be shared between queues.
func FindQueueFamilies(families []QueueFamily) (gfx.QueueFamilyIndices, bool) {
	var (
		indices                     gfx.QueueFamilyIndices
		graphicsFound, presentFound bool
	)
	for idx, family := range families {
		if family.Graphics && family.Present {
			return gfx.QueueFamilyIndices{Graphics: uint32(idx), Present: uint32(idx)}, true
		}
		if family.Graphics && !graphicsFound {
			indices.Graphics = uint32(idx)
			graphicsFound = true
		}
		if family.Present && !presentFound {
			indices.Present = uint32(idx)
			presentFound = true
		}
	}
	return indices, graphicsFound && presentFound
}

// Candidate is a physical device considered by Select.
type Candidate struct {
	Name          string
	Discrete      bool
	QueueFamilies []QueueFamily
	Extensions    []string
	Support       gfx.SwapchainSupport
}

// MissingExtensions returns the required extensions the candidate lacks.
func (c Candidate) MissingExtensions(required []string) []string {
	available := make(map[string]struct{}, len(c.Extensions))
	for _, ext := range c.Extensions {
		available[ext] = struct{}{}
	}

	var missing []string
	for _, ext := range required {
		if _, ok := available[ext]; !ok {
			missing = append(missing, ext)
		}
	}
	return missing
}

// score rates the candidate, zero means unusable.
func (c Candidate) score(required []string) (uint32, gfx.QueueFamilyIndices) {
	families, ok := FindQueueFamilies(c.QueueFamilies)
	if !ok || len(c.MissingExtensions(required)) > 0 || !c.Support.IsAdequate() {
		return 0, families
	}
	if c.Discrete {
		return 1000, families
	}
	return 1, families
}

// Select returns the index of the best candidate and its queue families.
// Candidates lacking a graphics or present queue, a required extension or
// an adequate swapchain are rejected, discrete GPUs are preferred and ties
// keep enumeration order.
func Select(candidates []Candidate, required []string) (int, gfx.QueueFamilyIndices, error) {
	var (
		best      = -1
		bestScore uint32
		families  gfx.QueueFamilyIndices
	)
	for idx, candidate := range candidates {
		score, indices := candidate.score(required)
		if score > bestScore {
			best, bestScore, families = idx, score, indices
		}
	}
	if best < 0 {
		return -1, families, gfx.ErrNoSuitableDevice
	}
	return best, families, nil
}
