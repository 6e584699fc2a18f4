// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the vulkan renderer backend. It satisfies
// gfx.Driver and gfx.Device, handles it returns are native vk objects.
package vkr

import (
	"unsafe"

	"github.com/devblok/koru/gfx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// Driver opens vulkan logical devices. The vulkan instance must
// be created and initialised before Open is called.
type Driver struct {
	// Layers are enabled on every opened device.
	Layers []string
}

// Open creates a logical device on pd that presents to surface.
// The surface may be a vk.Surface, a uintptr or an unsafe.Pointer.
func (d Driver) Open(pd gfx.PhysicalDevice, surface interface{}) (gfx.Device, error) {
	physical, ok := pd.Handle().(vk.PhysicalDevice)
	if !ok {
		return nil, errors.Errorf("unexpected physical device handle %T", pd.Handle())
	}

	srf, err := SurfaceFrom(surface)
	if err != nil {
		return nil, err
	}

	families := pd.QueueFamilies()
	unique := []uint32{families.Graphics}
	if families.Present != families.Graphics {
		unique = append(unique, families.Present)
	}

	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(unique))
	for _, family := range unique {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	extensions := SafeStrings(pd.Extensions())
	layers := SafeStrings(d.Layers)
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(physical, &dci, nil, &device)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateDevice()")
	}

	dev := &Device{
		physical: physical,
		device:   device,
		surface:  srf,
		families: families,
	}
	vk.GetDeviceQueue(device, families.Graphics, 0, &dev.graphicsQueue)
	vk.GetDeviceQueue(device, families.Present, 0, &dev.presentQueue)

	dev.allocator = NewMemoryAllocator(device, physical)

	if err := dev.createPipelineLayout(); err != nil {
		vk.DestroyDevice(device, nil)
		return nil, err
	}
	return dev, nil
}

// SurfaceFrom converts a window system surface handle to a vk.Surface.
func SurfaceFrom(surface interface{}) (vk.Surface, error) {
	switch s := surface.(type) {
	case vk.Surface:
		if s == vk.NullSurface {
			break
		}
		return s, nil
	case uintptr:
		if s == 0 {
			break
		}
		return vk.SurfaceFromPointer(s), nil
	case unsafe.Pointer:
		if s == nil {
			break
		}
		return vk.SurfaceFromPointer(uintptr(s)), nil
	default:
		return vk.NullSurface, errors.Errorf("unsupported surface handle %T", surface)
	}
	return vk.NullSurface, errors.New("null surface")
}

// toResult maps a vulkan result to the outcomes the frame loop tells apart.
func toResult(ret vk.Result) gfx.Result {
	switch ret {
	case vk.Success:
		return gfx.Success
	case vk.Suboptimal:
		return gfx.Suboptimal
	case vk.ErrorOutOfDate:
		return gfx.OutOfDate
	case vk.Timeout, vk.NotReady:
		return gfx.Timeout
	case vk.ErrorDeviceLost:
		return gfx.DeviceLost
	case vk.ErrorSurfaceLost:
		return gfx.SurfaceLost
	}
	log.WithError(vk.Error(ret)).WithField("result", int32(ret)).Warn("unexpected vulkan result")
	return gfx.Failure
}
