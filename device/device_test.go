// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device_test

import (
	"testing"

	"github.com/devblok/koru/device"
	"github.com/devblok/koru/gfx"
	qt "github.com/frankban/quicktest"
)

var swapchainExtension = []string{"VK_KHR_swapchain"}

var adequate = gfx.SwapchainSupport{
	Formats:      []gfx.SurfaceFormat{{Format: 50}},
	PresentModes: []gfx.PresentMode{gfx.PresentModeFifo},
}

func TestFindQueueFamiliesPrefersShared(t *testing.T) {
	c := qt.New(t)

	indices, ok := device.FindQueueFamilies([]device.QueueFamily{
		{Graphics: true},
		{Present: true},
		{Graphics: true, Present: true},
	})
	c.Assert(ok, qt.IsTrue)
	c.Assert(indices, qt.Equals, gfx.QueueFamilyIndices{Graphics: 2, Present: 2})
}

func TestFindQueueFamiliesSeparate(t *testing.T) {
	c := qt.New(t)

	indices, ok := device.FindQueueFamilies([]device.QueueFamily{
		{},
		{Present: true},
		{Graphics: true},
		{Graphics: true},
	})
	c.Assert(ok, qt.IsTrue)
	c.Assert(indices, qt.Equals, gfx.QueueFamilyIndices{Graphics: 2, Present: 1})

	_, ok = device.FindQueueFamilies([]device.QueueFamily{{Graphics: true}})
	c.Assert(ok, qt.IsFalse)

	_, ok = device.FindQueueFamilies(nil)
	c.Assert(ok, qt.IsFalse)
}

func TestMissingExtensions(t *testing.T) {
	c := qt.New(t)

	candidate := device.Candidate{Extensions: []string{"VK_KHR_swapchain", "VK_KHR_maintenance1"}}
	c.Assert(candidate.MissingExtensions(swapchainExtension), qt.HasLen, 0)
	c.Assert(candidate.MissingExtensions([]string{"VK_KHR_swapchain", "VK_KHR_ray_query"}),
		qt.DeepEquals, []string{"VK_KHR_ray_query"})
}

func TestSelectPrefersDiscrete(t *testing.T) {
	c := qt.New(t)

	integrated := device.Candidate{
		Name:          "integrated",
		QueueFamilies: []device.QueueFamily{{Graphics: true, Present: true}},
		Extensions:    swapchainExtension,
		Support:       adequate,
	}
	discrete := device.Candidate{
		Name:          "discrete",
		Discrete:      true,
		QueueFamilies: []device.QueueFamily{{Graphics: true}, {Present: true}},
		Extensions:    swapchainExtension,
		Support:       adequate,
	}

	idx, families, err := device.Select([]device.Candidate{integrated, discrete}, swapchainExtension)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, 1)
	c.Assert(families, qt.Equals, gfx.QueueFamilyIndices{Graphics: 0, Present: 1})

	idx, _, err = device.Select([]device.Candidate{integrated, integrated}, swapchainExtension)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, 0)
}

func TestSelectRejectsUnsuitable(t *testing.T) {
	c := qt.New(t)

	noPresent := device.Candidate{
		Discrete:      true,
		QueueFamilies: []device.QueueFamily{{Graphics: true}},
		Extensions:    swapchainExtension,
		Support:       adequate,
	}
	noExtension := device.Candidate{
		Discrete:      true,
		QueueFamilies: []device.QueueFamily{{Graphics: true, Present: true}},
		Support:       adequate,
	}
	noFormats := device.Candidate{
		Discrete:      true,
		QueueFamilies: []device.QueueFamily{{Graphics: true, Present: true}},
		Extensions:    swapchainExtension,
		Support:       gfx.SwapchainSupport{PresentModes: adequate.PresentModes},
	}
	usable := device.Candidate{
		QueueFamilies: []device.QueueFamily{{Graphics: true, Present: true}},
		Extensions:    swapchainExtension,
		Support:       adequate,
	}

	_, _, err := device.Select([]device.Candidate{noPresent, noExtension, noFormats}, swapchainExtension)
	c.Assert(err, qt.Equals, gfx.ErrNoSuitableDevice)

	idx, _, err := device.Select([]device.Candidate{noPresent, noExtension, noFormats, usable}, swapchainExtension)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, 3)

	_, _, err = device.Select(nil, swapchainExtension)
	c.Assert(err, qt.Equals, gfx.ErrNoSuitableDevice)
}
