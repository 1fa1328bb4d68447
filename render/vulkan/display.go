package vulkan

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/MalcolmParry/mwengine/render"
)

// DefaultAcquireTimeout bounds how long GetNextFramebufferIndex waits for the
// driver to release an image.
const DefaultAcquireTimeout = time.Second

type displayState uint8

const (
	displayUnbuilt displayState = iota
	displayBuilt
	displayPresenting
)

func (s displayState) String() string {
	switch s {
	case displayBuilt:
		return "built"
	case displayPresenting:
		return "presenting"
	default:
		return "unbuilt"
	}
}

// Display owns the swapchain, a view per swapchain image, the shared depth
// buffer and, once a RenderPass is bound, one framebuffer per image.
type Display struct {
	instance *Instance
	log      logrus.FieldLogger

	swapchainExtension khr_swapchain.Extension
	swapchain          khr_swapchain.Swapchain
	colorImages        []*Image
	depthImage         *Image
	framebuffers       []*Framebuffer
	renderPass         *RenderPass

	extent         render.UInt2
	surfaceFormat  khr_surface.Format
	acquireTimeout time.Duration
	state          displayState
}

// NewDisplay builds the swapchain, its image views and the depth buffer.
// Framebuffers need a RenderPass, and the RenderPass needs ColorFormat, so a
// new Display has ImageCount images but no framebuffers until SetRenderPass.
func NewDisplay(instance *Instance) (*Display, error) {
	if instance.device == nil {
		return nil, ErrNoDevice
	}

	extension := khr_swapchain.CreateExtensionFromDevice(instance.device)
	if extension == nil {
		return nil, errors.Newf("device does not enable %s", khr_swapchain.ExtensionName)
	}

	display := &Display{
		instance:           instance,
		log:                instance.log.WithField("component", "display"),
		swapchainExtension: extension,
		acquireTimeout:     DefaultAcquireTimeout,
	}

	err := display.CreateSwapChain()
	if err != nil {
		display.Destroy()
		return nil, err
	}

	return display, nil
}

func (d *Display) SetAcquireTimeout(timeout time.Duration) {
	d.acquireTimeout = timeout
}

// CreateSwapChain builds a swapchain for the current surface, replacing the
// existing one. The old swapchain is destroyed only once the new one exists.
func (d *Display) CreateSwapChain() error {
	instance := d.instance
	physicalDevice := instance.physicalDevice.handle

	capabilities, _, err := instance.surface.PhysicalDeviceSurfaceCapabilities(physicalDevice)
	if err != nil {
		return errors.Wrap(err, "query surface capabilities")
	}

	formats, _, err := instance.surface.PhysicalDeviceSurfaceFormats(physicalDevice)
	if err != nil {
		return errors.Wrap(err, "query surface formats")
	}
	if len(formats) == 0 {
		return errors.New("surface reports no formats")
	}

	presentModes, _, err := instance.surface.PhysicalDeviceSurfacePresentModes(physicalDevice)
	if err != nil {
		return errors.Wrap(err, "query present modes")
	}

	surfaceFormat := chooseSurfaceFormat(formats)
	presentMode := choosePresentMode(presentModes)
	extent := chooseExtent(capabilities, instance.window.GetClientSize())
	if extent.Width <= 0 || extent.Height <= 0 {
		return errors.Wrapf(ErrZeroExtent, "%dx%d", extent.Width, extent.Height)
	}

	graphicsFamily, presentFamily, err := instance.physicalDevice.queueFamilies()
	if err != nil {
		return err
	}

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if graphicsFamily != presentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, graphicsFamily, presentFamily)
	}

	swapchain, _, err := d.swapchainExtension.CreateSwapchain(instance.device, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: instance.surface,

		MinImageCount:    chooseImageCount(capabilities),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
		OldSwapchain:   d.swapchain,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}

	d.destroyImages()
	if d.swapchain != nil {
		d.swapchain.Destroy(nil)
	}
	d.swapchain = swapchain
	d.surfaceFormat = surfaceFormat
	d.extent = render.UInt2{X: uint32(extent.Width), Y: uint32(extent.Height)}

	err = d.createImages()
	if err != nil {
		return err
	}

	d.state = displayBuilt
	d.log.WithFields(logrus.Fields{
		"width":       d.extent.X,
		"height":      d.extent.Y,
		"images":      len(d.colorImages),
		"presentMode": presentMode,
	}).Debug("built swapchain")
	return nil
}

func (d *Display) createImages() error {
	images, _, err := d.swapchain.SwapchainImages()
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}

	for _, image := range images {
		color, err := wrapSwapchainImage(d.instance, image, d.surfaceFormat.Format, d.extent)
		if err != nil {
			return err
		}
		d.colorImages = append(d.colorImages, color)
	}

	d.depthImage, err = NewDepthImage(d.instance, d.extent)
	if err != nil {
		return errors.Wrap(err, "create depth buffer")
	}

	return d.createFramebuffers()
}

func (d *Display) createFramebuffers() error {
	if d.renderPass == nil {
		return nil
	}

	var depth *Image
	if d.renderPass.hasDepth {
		depth = d.depthImage
	}

	var err error
	d.framebuffers, err = buildFramebuffers(d.colorImages, func(color *Image) (*Framebuffer, error) {
		return NewFramebuffer(d.instance, d.renderPass, color, depth)
	})
	return err
}

func (d *Display) destroyFramebuffers() {
	for _, framebuffer := range d.framebuffers {
		framebuffer.Destroy()
	}
	d.framebuffers = nil
}

func (d *Display) destroyImages() {
	d.destroyFramebuffers()

	if d.depthImage != nil {
		d.depthImage.Destroy()
		d.depthImage = nil
	}

	for _, image := range d.colorImages {
		image.Destroy()
	}
	d.colorImages = nil
}

// Rebuild recreates the swapchain and everything derived from it for the
// surface's current size. A bound RenderPass gets fresh framebuffers.
func (d *Display) Rebuild() error {
	err := d.instance.WaitUntilIdle()
	if err != nil {
		return err
	}

	d.destroyImages()
	return d.CreateSwapChain()
}

// SetRenderPass binds rp and builds one framebuffer per swapchain image.
// Until it is called FramebufferCount is zero.
func (d *Display) SetRenderPass(rp *RenderPass) error {
	d.destroyFramebuffers()
	d.renderPass = rp
	return d.createFramebuffers()
}

func (d *Display) GetRenderPass() *RenderPass {
	return d.renderPass
}

// GetNextFramebufferIndex acquires the next presentable image. A stale
// surface yields render.NoImage with render.ErrSurfaceStale; the caller is
// expected to Rebuild and try again.
func (d *Display) GetNextFramebufferIndex(signal *Semaphore, fence *Fence) (uint32, error) {
	if d.swapchain == nil {
		return render.NoImage, ErrDestroyed
	}

	index, res, err := d.swapchain.AcquireNextImage(d.acquireTimeout, signal.handleOrNil(), fence.handleOrNil())
	switch {
	case res == khr_swapchain.VKErrorOutOfDate:
		return render.NoImage, render.ErrSurfaceStale
	case err != nil:
		return render.NoImage, errors.Wrap(err, "acquire swapchain image")
	case res == core1_0.VKTimeout || res == core1_0.VKNotReady:
		return render.NoImage, errors.Wrapf(ErrAcquireTimeout, "after %s", d.acquireTimeout)
	}

	return uint32(index), nil
}

// AcquireFramebufferIndex retries GetNextFramebufferIndex, rebuilding the
// swapchain between stale attempts.
func (d *Display) AcquireFramebufferIndex(signal *Semaphore, fence *Fence, attempts int) (uint32, error) {
	return render.AcquireWithRetry(attempts,
		func() (uint32, error) { return d.GetNextFramebufferIndex(signal, fence) },
		d.Rebuild,
	)
}

// PresentFramebuffer queues image index for presentation once wait is
// signaled. A stale surface is left for the next acquire to report.
func (d *Display) PresentFramebuffer(index uint32, wait *Semaphore) error {
	if d.swapchain == nil {
		return ErrDestroyed
	}

	var waitSemaphores []core1_0.Semaphore
	if wait != nil {
		waitSemaphores = append(waitSemaphores, wait.handle)
	}

	res, err := d.swapchainExtension.QueuePresent(d.instance.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: waitSemaphores,
		Swapchains:     []khr_swapchain.Swapchain{d.swapchain},
		ImageIndices:   []int{int(index)},
	})
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		d.log.WithField("result", res).Debug("present reported stale surface")
		d.state = displayPresenting
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "present")
	}

	d.state = displayPresenting
	return nil
}

func (d *Display) GetFramebuffer(index uint32) *Framebuffer {
	if int(index) >= len(d.framebuffers) {
		return nil
	}
	return d.framebuffers[index]
}

func (d *Display) FramebufferCount() int {
	return len(d.framebuffers)
}

func (d *Display) ImageCount() int {
	return len(d.colorImages)
}

func (d *Display) Extent() render.UInt2 {
	return d.extent
}

func (d *Display) ColorFormat() core1_0.Format {
	return d.surfaceFormat.Format
}

func (d *Display) Presenting() bool {
	return d.state == displayPresenting
}

func (d *Display) Destroy() {
	d.destroyImages()

	if d.swapchain != nil {
		d.swapchain.Destroy(nil)
		d.swapchain = nil
	}
	d.state = displayUnbuilt
}
