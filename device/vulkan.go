// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"unsafe"

	"github.com/devblok/koru/gfx"
	"github.com/devblok/koru/vkr"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// DefaultVulkanApplicationInfo application info describes a Vulkan application
var DefaultVulkanApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   "Koru3D\x00",
	PEngineName:        "Koru3D\x00",
}

// NewVulkanInstance loads vulkan and creates an instance. procAddr is the
// window system's vkGetInstanceProcAddr, nil uses the default loader.
func NewVulkanInstance(appInfo *vk.ApplicationInfo, procAddr unsafe.Pointer, cfg InstanceConfiguration) (*Instance, error) {
	if cfg.DebugMode {
		cfg.Layers = append(cfg.Layers, ValidationLayer)
		cfg.Extensions = append(cfg.Extensions, DebugReportExtension)
	}

	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()")
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init()")
	}

	extensions := vkr.SafeStrings(cfg.Extensions)
	layers := vkr.SafeStrings(cfg.Layers)
	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateInstance()")
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.Wrap(err, "vk.InitInstance()")
	}

	physicalDevices, err := enumerateDevices(instance)
	if err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, err
	}

	log.WithField("devices", len(physicalDevices)).Info("vulkan instance created")
	return &Instance{
		configuration:    cfg,
		instance:         instance,
		availableDevices: physicalDevices,
		surface:          vk.NullSurface,
	}, nil
}

// Instance describes a Vulkan API Instance
type Instance struct {
	configuration InstanceConfiguration

	availableDevices []vk.PhysicalDevice
	surface          vk.Surface
	instance         vk.Instance
}

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumeratePhysicalDevices(count)")
	}
	availableDevices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, availableDevices)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumeratePhysicalDevices(devices)")
	}
	return availableDevices, nil
}

func deviceExtensions(pd vk.PhysicalDevice) ([]string, error) {
	var numDeviceExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &numDeviceExtensions, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateDeviceExtensionProperties(count)")
	}
	deviceExt := make([]vk.ExtensionProperties, numDeviceExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &numDeviceExtensions, deviceExt)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateDeviceExtensionProperties(extensions)")
	}

	extensions := make([]string, 0, len(deviceExt))
	for _, ext := range deviceExt {
		ext.Deref()
		extensions = append(extensions, vk.ToString(ext.ExtensionName[:]))
	}
	return extensions, nil
}

func deviceLayers(pd vk.PhysicalDevice) ([]string, error) {
	var numDeviceLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateDeviceLayerProperties(count)")
	}
	layerProperties := make([]vk.LayerProperties, numDeviceLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, layerProperties)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateDeviceLayerProperties(layers)")
	}

	layers := make([]string, 0, len(layerProperties))
	for _, layer := range layerProperties {
		layer.Deref()
		layers = append(layers, vk.ToString(layer.LayerName[:]))
	}
	return layers, nil
}

func deviceProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()
	return properties
}

// PhysicalDevicesInfo reports every enumerated device. A device whose
// extensions or layers could not be listed is marked Invalid.
func (v *Instance) PhysicalDevicesInfo() []PhysicalDeviceInfo {
	pdi := make([]PhysicalDeviceInfo, len(v.availableDevices))
	for i, pd := range v.availableDevices {
		var err error
		if pdi[i].Extensions, err = deviceExtensions(pd); err != nil {
			log.WithError(err).WithField("device", i).Warn("listing device extensions failed")
			pdi[i].Invalid = true
		}
		if pdi[i].Layers, err = deviceLayers(pd); err != nil {
			log.WithError(err).WithField("device", i).Warn("listing device layers failed")
			pdi[i].Invalid = true
		}

		var memoryProperties vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(pd, &memoryProperties)
		memoryProperties.Deref()
		for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
			memoryProperties.MemoryHeaps[iMem].Deref()
			pdi[i].Memory += uint(memoryProperties.MemoryHeaps[iMem].Size)
		}

		properties := deviceProperties(pd)
		pdi[i].ID = int(properties.DeviceID)
		pdi[i].VendorID = int(properties.VendorID)
		pdi[i].Name = vk.ToString(properties.DeviceName[:])
		pdi[i].DriverVersion = int(properties.DriverVersion)
		pdi[i].Discrete = properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu
	}
	return pdi
}

// SetSurface sets the surface that devices are selected and opened for.
// The instance takes ownership and destroys it with itself.
func (v *Instance) SetSurface(surface interface{}) error {
	srf, err := vkr.SurfaceFrom(surface)
	if err != nil {
		return err
	}
	v.surface = srf
	return nil
}

// Surface returns the surface set with SetSurface.
func (v *Instance) Surface() vk.Surface {
	return v.surface
}

// Handle returns internal vk.Instance
func (v *Instance) Handle() vk.Instance {
	return v.instance
}

// Extensions returns the enabled instance extensions.
func (v *Instance) Extensions() []string {
	return v.configuration.Extensions
}

// AvailableDevices returns the enumerated physical devices.
func (v *Instance) AvailableDevices() []vk.PhysicalDevice {
	return v.availableDevices
}

func (v *Instance) candidate(pd vk.PhysicalDevice) Candidate {
	properties := deviceProperties(pd)
	candidate := Candidate{
		Name:     vk.ToString(properties.DeviceName[:]),
		Discrete: properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu,
	}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &queueFamilyCount, queueFamilies)
	for idx, family := range queueFamilies {
		family.Deref()

		var supportsPresent vk.Bool32
		ret := vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(idx), v.surface, &supportsPresent)
		if err := vk.Error(ret); err != nil {
			log.WithError(err).WithField("family", idx).Warn("querying surface support failed")
		}
		candidate.QueueFamilies = append(candidate.QueueFamilies, QueueFamily{
			Graphics: family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			Present:  supportsPresent.B(),
		})
	}

	extensions, err := deviceExtensions(pd)
	if err != nil {
		log.WithError(err).WithField("device", candidate.Name).Warn("listing device extensions failed")
	}
	candidate.Extensions = extensions

	if support, err := vkr.QuerySwapchainSupport(pd, v.surface); err == nil {
		candidate.Support = support
	} else {
		log.WithError(err).WithField("device", candidate.Name).Warn("querying swapchain support failed")
	}
	return candidate
}

// SelectPhysicalDevice picks the device to render on for the surface set with
// SetSurface. It returns gfx.ErrNoSuitableDevice when none can present.
func (v *Instance) SelectPhysicalDevice(requiredExtensions []string) (*PhysicalDevice, error) {
	if v.surface == vk.NullSurface {
		return nil, errors.New("no surface to select a physical device for")
	}

	candidates := make([]Candidate, len(v.availableDevices))
	for idx, pd := range v.availableDevices {
		candidates[idx] = v.candidate(pd)
	}

	idx, families, err := Select(candidates, requiredExtensions)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"device":   candidates[idx].Name,
		"graphics": families.Graphics,
		"present":  families.Present,
	}).Info("physical device selected")
	return &PhysicalDevice{
		handle:     v.availableDevices[idx],
		name:       candidates[idx].Name,
		families:   families,
		extensions: requiredExtensions,
	}, nil
}

// Destroy releases the surface and the instance.
func (v *Instance) Destroy() {
	if v.surface != vk.NullSurface {
		vk.DestroySurface(v.instance, v.surface, nil)
		v.surface = vk.NullSurface
	}
	v.availableDevices = nil
	vk.DestroyInstance(v.instance, nil)
}

// PhysicalDevice is the selected GPU, it implements gfx.PhysicalDevice.
type PhysicalDevice struct {
	handle     vk.PhysicalDevice
	name       string
	families   gfx.QueueFamilyIndices
	extensions []string
}

// Handle implements gfx.PhysicalDevice
func (p *PhysicalDevice) Handle() interface{} {
	return p.handle
}

// QueueFamilies implements gfx.PhysicalDevice
func (p *PhysicalDevice) QueueFamilies() gfx.QueueFamilyIndices {
	return p.families
}

// Extensions implements gfx.PhysicalDevice
func (p *PhysicalDevice) Extensions() []string {
	return p.extensions
}

// Name returns the device name.
func (p *PhysicalDevice) Name() string {
	return p.name
}
