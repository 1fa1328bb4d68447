package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

const discreteBonus = 1000

// PhysicalDevice is one enumerable GPU adapter. Everything it reports is
// captured once at discovery.
type PhysicalDevice struct {
	handle core1_0.PhysicalDevice

	name                string
	discrete            bool
	maxImageDimension2D int
	maxAnisotropy       float32

	graphicsFamily *int
	presentFamily  *int

	hasSwapchain      bool
	hasPortability    bool
	samplerAnisotropy bool
	geometryShader    bool
}

func newPhysicalDevice(handle core1_0.PhysicalDevice, surface khr_surface.Surface) (*PhysicalDevice, error) {
	properties, err := handle.Properties()
	if err != nil {
		return nil, errors.Wrap(err, "query physical device properties")
	}

	device := &PhysicalDevice{
		handle:              handle,
		name:                properties.DriverName,
		discrete:            properties.DriverType == core1_0.PhysicalDeviceTypeDiscreteGPU,
		maxImageDimension2D: properties.Limits.MaxImageDimension2D,
		maxAnisotropy:       properties.Limits.MaxSamplerAnisotropy,
	}

	features := handle.Features()
	device.samplerAnisotropy = features.SamplerAnisotropy
	device.geometryShader = features.GeometryShader

	extensions, _, err := handle.EnumerateDeviceExtensionProperties()
	if err != nil {
		return nil, errors.Wrapf(err, "enumerate extensions of %s", device.name)
	}
	_, device.hasSwapchain = extensions[khr_swapchain.ExtensionName]
	_, device.hasPortability = extensions[khr_portability_subset.ExtensionName]

	var flags []core1_0.QueueFlags
	for _, family := range handle.QueueFamilyProperties() {
		flags = append(flags, family.QueueFlags)
	}

	device.graphicsFamily, device.presentFamily, err = findQueueFamilies(flags, func(family int) (bool, error) {
		supported, _, err := surface.PhysicalDeviceSurfaceSupport(handle, family)
		return supported, err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "find queue families of %s", device.name)
	}

	return device, nil
}

// findQueueFamilies scans the families once. A family that does both
// graphics and presentation wins outright, otherwise the first of each kind
// is reported independently.
func findQueueFamilies(families []core1_0.QueueFlags, presentSupported func(family int) (bool, error)) (graphics, present *int, err error) {
	for index, flags := range families {
		isGraphics := flags&core1_0.QueueGraphics != 0

		canPresent, err := presentSupported(index)
		if err != nil {
			return nil, nil, err
		}

		if isGraphics && canPresent {
			family := index
			return &family, &family, nil
		}

		if isGraphics && graphics == nil {
			graphics = new(int)
			*graphics = index
		}
		if canPresent && present == nil {
			present = new(int)
			*present = index
		}
	}

	return graphics, present, nil
}

func (d *PhysicalDevice) Name() string {
	return d.name
}

func (d *PhysicalDevice) Discrete() bool {
	return d.discrete
}

func (d *PhysicalDevice) MaxImageDimension2D() int {
	return d.maxImageDimension2D
}

func (d *PhysicalDevice) GraphicsQueueFamily() (int, bool) {
	if d.graphicsFamily == nil {
		return 0, false
	}
	return *d.graphicsFamily, true
}

func (d *PhysicalDevice) PresentQueueFamily() (int, bool) {
	if d.presentFamily == nil {
		return 0, false
	}
	return *d.presentFamily, true
}

func (d *PhysicalDevice) queueFamilies() (graphics, present int, err error) {
	graphics, hasGraphics := d.GraphicsQueueFamily()
	present, hasPresent := d.PresentQueueFamily()
	if !hasGraphics || !hasPresent {
		return 0, 0, errors.Wrapf(ErrNoQueueFamily, "%s (graphics %t, present %t)", d.name, hasGraphics, hasPresent)
	}
	return graphics, present, nil
}

// Suitable reports whether the adapter can run the renderer at all.
func (d *PhysicalDevice) Suitable() bool {
	return d.graphicsFamily != nil &&
		d.presentFamily != nil &&
		d.hasSwapchain &&
		d.samplerAnisotropy &&
		d.geometryShader
}

// Score ranks adapters. Unsuitable adapters score zero regardless of type.
func (d *PhysicalDevice) Score() int {
	if !d.Suitable() {
		return 0
	}

	score := d.maxImageDimension2D
	if d.discrete {
		score += discreteBonus
	}
	return score
}

// optimalPhysicalDevice returns the highest scoring adapter. Ties keep the
// first encountered.
func optimalPhysicalDevice(devices []*PhysicalDevice) *PhysicalDevice {
	var best *PhysicalDevice
	bestScore := -1

	for _, device := range devices {
		score := device.Score()
		if score > bestScore {
			best = device
			bestScore = score
		}
	}

	return best
}
