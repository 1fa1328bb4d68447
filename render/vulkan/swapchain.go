package vulkan

import (
	"math"

	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"

	"github.com/MalcolmParry/mwengine/render"
)

func chooseSurfaceFormat(availableFormats []khr_surface.Format) khr_surface.Format {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

func choosePresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

// undefinedExtent is the 0xFFFFFFFF width a surface reports when the
// swapchain decides its own size.
const undefinedExtent = math.MaxUint32

// chooseExtent clamps the window's client size to what the surface allows.
// When the client size is unknown the surface's current extent is used.
func chooseExtent(capabilities *khr_surface.Capabilities, client render.UInt2) core1_0.Extent2D {
	if client.IsZero() && capabilities.CurrentExtent.Width != undefinedExtent {
		return capabilities.CurrentExtent
	}

	width := clamp(int(client.X), capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width)
	height := clamp(int(client.Y), capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height)

	return core1_0.Extent2D{Width: width, Height: height}
}

func clamp(value, low, high int) int {
	if value < low {
		value = low
	}
	if value > high {
		value = high
	}
	return value
}

// chooseImageCount asks for one more image than the minimum so the
// application never waits on the driver. A zero maximum means unbounded.
func chooseImageCount(capabilities *khr_surface.Capabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}
