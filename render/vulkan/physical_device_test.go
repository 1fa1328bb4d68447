package vulkan

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"github.com/vkngwrapper/core/core1_0"
)

func family(index int) *int {
	return &index
}

func capableDevice(name string, discrete bool, maxDimension int) *PhysicalDevice {
	return &PhysicalDevice{
		name:                name,
		discrete:            discrete,
		maxImageDimension2D: maxDimension,
		graphicsFamily:      family(0),
		presentFamily:       family(0),
		hasSwapchain:        true,
		samplerAnisotropy:   true,
		geometryShader:      true,
	}
}

func TestScore(t *testing.T) {
	c := qt.New(t)

	c.Assert(capableDevice("integrated", false, 8192).Score(), qt.Equals, 8192)
	c.Assert(capableDevice("discrete", true, 8192).Score(), qt.Equals, 9192)

	disqualified := []func(d *PhysicalDevice){
		func(d *PhysicalDevice) { d.graphicsFamily = nil },
		func(d *PhysicalDevice) { d.presentFamily = nil },
		func(d *PhysicalDevice) { d.hasSwapchain = false },
		func(d *PhysicalDevice) { d.samplerAnisotropy = false },
		func(d *PhysicalDevice) { d.geometryShader = false },
	}
	for _, disqualify := range disqualified {
		device := capableDevice("discrete", true, 16384)
		disqualify(device)
		c.Assert(device.Suitable(), qt.IsFalse)
		c.Assert(device.Score(), qt.Equals, 0)
	}
}

func TestOptimalPrefersDiscrete(t *testing.T) {
	c := qt.New(t)

	integrated := capableDevice("integrated", false, 16384)
	discrete := capableDevice("discrete", true, 16384)

	instance := &Instance{physicalDevices: []*PhysicalDevice{integrated, discrete}}
	c.Assert(instance.GetOptimalPhysicalDevice(), qt.Equals, discrete)
}

func TestOptimalSkipsDiscreteWithoutSwapchain(t *testing.T) {
	c := qt.New(t)

	discrete := capableDevice("discrete", true, 16384)
	discrete.hasSwapchain = false
	integrated := capableDevice("integrated", false, 8192)

	instance := &Instance{physicalDevices: []*PhysicalDevice{discrete, integrated}}
	c.Assert(instance.GetOptimalPhysicalDevice(), qt.Equals, integrated)
}

func TestOptimalTieKeepsFirst(t *testing.T) {
	c := qt.New(t)

	first := capableDevice("first", false, 4096)
	second := capableDevice("second", false, 4096)
	c.Assert(optimalPhysicalDevice([]*PhysicalDevice{first, second}), qt.Equals, first)
	c.Assert(optimalPhysicalDevice(nil), qt.IsNil)
}

func presentOn(families ...int) func(int) (bool, error) {
	return func(index int) (bool, error) {
		for _, f := range families {
			if f == index {
				return true, nil
			}
		}
		return false, nil
	}
}

func TestFindQueueFamilies(t *testing.T) {
	c := qt.New(t)

	c.Run("shared family wins", func(c *qt.C) {
		families := []core1_0.QueueFlags{core1_0.QueueGraphics, core1_0.QueueTransfer, core1_0.QueueGraphics}
		graphics, present, err := findQueueFamilies(families, presentOn(1, 2))
		c.Assert(err, qt.IsNil)
		c.Assert(*graphics, qt.Equals, 2)
		c.Assert(*present, qt.Equals, 2)
	})

	c.Run("separate families", func(c *qt.C) {
		families := []core1_0.QueueFlags{core1_0.QueueTransfer, core1_0.QueueGraphics, core1_0.QueueCompute}
		graphics, present, err := findQueueFamilies(families, presentOn(0, 2))
		c.Assert(err, qt.IsNil)
		c.Assert(*graphics, qt.Equals, 1)
		c.Assert(*present, qt.Equals, 0)
	})

	c.Run("no present", func(c *qt.C) {
		graphics, present, err := findQueueFamilies([]core1_0.QueueFlags{core1_0.QueueGraphics}, presentOn())
		c.Assert(err, qt.IsNil)
		c.Assert(*graphics, qt.Equals, 0)
		c.Assert(present, qt.IsNil)

		device := &PhysicalDevice{name: "headless", graphicsFamily: graphics, presentFamily: present}
		_, _, err = device.queueFamilies()
		c.Assert(err, qt.ErrorIs, ErrNoQueueFamily)
	})

	c.Run("query failure", func(c *qt.C) {
		_, _, err := findQueueFamilies([]core1_0.QueueFlags{core1_0.QueueGraphics}, func(int) (bool, error) {
			return false, errors.New("surface lost")
		})
		c.Assert(err, qt.ErrorMatches, "surface lost")
	})
}
