package vulkan

import (
	"image"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/core1_0"
	"golang.org/x/image/draw"

	"github.com/MalcolmParry/mwengine/render"
)

const colorImageFormat = core1_0.FormatR8G8B8A8SRGB

// Image is a 2D device image with its view. The current layout is tracked so
// uploads can transition from wherever the image was left.
type Image struct {
	instance *Instance
	image    core1_0.Image
	memory   core1_0.DeviceMemory
	view     core1_0.ImageView
	format   core1_0.Format
	aspect   core1_0.ImageAspectFlags
	layout   core1_0.ImageLayout
	size     render.UInt2
	byteSize int
	owned    bool
}

func extent2D(size render.UInt2) core1_0.Extent2D {
	return core1_0.Extent2D{Width: int(size.X), Height: int(size.Y)}
}

func NewImage(instance *Instance, size render.UInt2) (*Image, error) {
	return newImage(instance, size, colorImageFormat, core1_0.ImageAspectColor,
		core1_0.ImageUsageTransferDst|core1_0.ImageUsageSampled|core1_0.ImageUsageColorAttachment)
}

// NewDepthImage creates a depth attachment in the device's depth format.
func NewDepthImage(instance *Instance, size render.UInt2) (*Image, error) {
	return newImage(instance, size, instance.depthFormat, core1_0.ImageAspectDepth,
		core1_0.ImageUsageDepthStencilAttachment)
}

func newImage(instance *Instance, size render.UInt2, format core1_0.Format, aspect core1_0.ImageAspectFlags, usage core1_0.ImageUsageFlags) (*Image, error) {
	if size.IsZero() {
		return nil, errors.Wrapf(ErrZeroExtent, "create image %dx%d", size.X, size.Y)
	}

	handle, memory, byteSize, err := instance.allocateImage(extent2D(size), format, usage)
	if err != nil {
		return nil, err
	}

	view, err := instance.createImageView(handle, format, aspect)
	if err != nil {
		handle.Destroy(nil)
		memory.Free(nil)
		return nil, err
	}

	instance.log.WithFields(logrus.Fields{"width": size.X, "height": size.Y, "format": format}).Debug("created image")
	return &Image{
		instance: instance,
		image:    handle,
		memory:   memory,
		view:     view,
		format:   format,
		aspect:   aspect,
		layout:   core1_0.ImageLayoutUndefined,
		size:     size,
		byteSize: byteSize,
		owned:    true,
	}, nil
}

// wrapSwapchainImage adopts an image the swapchain owns. Only the view is
// destroyed with it.
func wrapSwapchainImage(instance *Instance, handle core1_0.Image, format core1_0.Format, size render.UInt2) (*Image, error) {
	view, err := instance.createImageView(handle, format, core1_0.ImageAspectColor)
	if err != nil {
		return nil, err
	}

	return &Image{
		instance: instance,
		image:    handle,
		view:     view,
		format:   format,
		aspect:   core1_0.ImageAspectColor,
		layout:   core1_0.ImageLayoutUndefined,
		size:     size,
	}, nil
}

func (i *Image) GetSize() int {
	return i.byteSize
}

func (i *Image) GetResolution() render.UInt2 {
	return i.size
}

func (i *Image) Layout() core1_0.ImageLayout {
	return i.layout
}

func (i *Image) isDepth() bool {
	return i.aspect&core1_0.ImageAspectDepth != 0
}

// SetData uploads tightly packed RGBA8 pixels and leaves the image ready for
// sampling.
func (i *Image) SetData(pixels []byte) error {
	if i.image == nil {
		return ErrDestroyed
	}
	if i.isDepth() || !i.owned {
		return errors.New("image: only color images created by NewImage accept uploads")
	}

	expected := int(i.size.Area()) * 4
	if len(pixels) != expected {
		return errors.Newf("image: expected %d bytes of RGBA pixels, got %d", expected, len(pixels))
	}

	staging, err := i.instance.newStagingBuffer(len(pixels), core1_0.BufferUsageTransferSrc)
	if err != nil {
		return err
	}
	defer staging.destroy()

	err = staging.write(pixels)
	if err != nil {
		return err
	}

	err = i.transition(core1_0.ImageLayoutTransferDstOptimal)
	if err != nil {
		return err
	}

	err = i.instance.runOneTime(func(cmd core1_0.CommandBuffer) error {
		return cmd.CmdCopyBufferToImage(staging.buffer, i.image, core1_0.ImageLayoutTransferDstOptimal, []core1_0.BufferImageCopy{
			{
				BufferOffset:      0,
				BufferRowLength:   0,
				BufferImageHeight: 0,

				ImageSubresource: core1_0.ImageSubresourceLayers{
					AspectMask:     core1_0.ImageAspectColor,
					MipLevel:       0,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
				ImageExtent: core1_0.Extent3D{Width: int(i.size.X), Height: int(i.size.Y), Depth: 1},
			},
		})
	})
	if err != nil {
		return errors.Wrap(err, "copy pixels to image")
	}

	return i.transition(core1_0.ImageLayoutShaderReadOnlyOptimal)
}

// SetImage converts img to RGBA, scaling it to the image resolution when the
// sizes differ, and uploads it.
func (i *Image) SetImage(img image.Image) error {
	return i.SetData(rgbaPixels(img, i.size))
}

func rgbaPixels(img image.Image, size render.UInt2) []byte {
	bounds := image.Rect(0, 0, int(size.X), int(size.Y))
	dst := image.NewRGBA(bounds)

	if img.Bounds().Size() == bounds.Size() {
		draw.Draw(dst, bounds, img, img.Bounds().Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, bounds, img, img.Bounds(), draw.Src, nil)
	}

	return dst.Pix
}

type layoutBarrier struct {
	srcAccess core1_0.AccessFlags
	dstAccess core1_0.AccessFlags
	srcStage  core1_0.PipelineStageFlags
	dstStage  core1_0.PipelineStageFlags
}

func layoutTransition(oldLayout, newLayout core1_0.ImageLayout) (layoutBarrier, error) {
	switch {
	case oldLayout == core1_0.ImageLayoutUndefined && newLayout == core1_0.ImageLayoutTransferDstOptimal:
		return layoutBarrier{
			srcAccess: 0,
			dstAccess: core1_0.AccessTransferWrite,
			srcStage:  core1_0.PipelineStageTopOfPipe,
			dstStage:  core1_0.PipelineStageTransfer,
		}, nil
	case oldLayout == core1_0.ImageLayoutShaderReadOnlyOptimal && newLayout == core1_0.ImageLayoutTransferDstOptimal:
		return layoutBarrier{
			srcAccess: core1_0.AccessShaderRead,
			dstAccess: core1_0.AccessTransferWrite,
			srcStage:  core1_0.PipelineStageFragmentShader,
			dstStage:  core1_0.PipelineStageTransfer,
		}, nil
	case oldLayout == core1_0.ImageLayoutTransferDstOptimal && newLayout == core1_0.ImageLayoutShaderReadOnlyOptimal:
		return layoutBarrier{
			srcAccess: core1_0.AccessTransferWrite,
			dstAccess: core1_0.AccessShaderRead,
			srcStage:  core1_0.PipelineStageTransfer,
			dstStage:  core1_0.PipelineStageFragmentShader,
		}, nil
	}

	return layoutBarrier{}, errors.Newf("unexpected layout transition: %s -> %s", oldLayout, newLayout)
}

func (i *Image) transition(newLayout core1_0.ImageLayout) error {
	barrier, err := layoutTransition(i.layout, newLayout)
	if err != nil {
		return err
	}

	err = i.instance.runOneTime(func(cmd core1_0.CommandBuffer) error {
		return cmd.CmdPipelineBarrier(barrier.srcStage, barrier.dstStage, 0, nil, nil, []core1_0.ImageMemoryBarrier{
			{
				OldLayout:           i.layout,
				NewLayout:           newLayout,
				SrcQueueFamilyIndex: -1,
				DstQueueFamilyIndex: -1,
				Image:               i.image,
				SubresourceRange: core1_0.ImageSubresourceRange{
					AspectMask:     i.aspect,
					BaseMipLevel:   0,
					LevelCount:     1,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				SrcAccessMask: barrier.srcAccess,
				DstAccessMask: barrier.dstAccess,
			},
		})
	})
	if err != nil {
		return errors.Wrapf(err, "transition image to %s", newLayout)
	}

	i.layout = newLayout
	return nil
}

func (i *Image) Destroy() {
	if i.view != nil {
		i.view.Destroy(nil)
		i.view = nil
	}

	if i.owned && i.image != nil {
		i.image.Destroy(nil)
	}
	i.image = nil

	if i.memory != nil {
		i.memory.Free(nil)
		i.memory = nil
	}
}

// Texture pairs an Image with the sampler shaders read it through.
type Texture struct {
	image     *Image
	sampler   core1_0.Sampler
	pixelated bool
}

func samplerOptions(pixelated bool, maxAnisotropy float32) core1_0.SamplerCreateInfo {
	filter := core1_0.FilterLinear
	mipmapMode := core1_0.SamplerMipmapModeLinear
	if pixelated {
		filter = core1_0.FilterNearest
		mipmapMode = core1_0.SamplerMipmapModeNearest
	}

	return core1_0.SamplerCreateInfo{
		MagFilter:    filter,
		MinFilter:    filter,
		AddressModeU: core1_0.SamplerAddressModeRepeat,
		AddressModeV: core1_0.SamplerAddressModeRepeat,
		AddressModeW: core1_0.SamplerAddressModeRepeat,

		AnisotropyEnable: true,
		MaxAnisotropy:    maxAnisotropy,

		BorderColor: core1_0.BorderColorIntOpaqueBlack,

		MipmapMode: mipmapMode,
	}
}

func NewTexture(instance *Instance, image *Image, pixelated bool) (*Texture, error) {
	if image == nil || image.image == nil {
		return nil, errors.New("texture: no image")
	}

	sampler, _, err := instance.device.CreateSampler(nil, samplerOptions(pixelated, instance.physicalDevice.maxAnisotropy))
	if err != nil {
		return nil, errors.Wrap(err, "create sampler")
	}

	return &Texture{image: image, sampler: sampler, pixelated: pixelated}, nil
}

func (t *Texture) GetImage() *Image {
	return t.image
}

func (t *Texture) Pixelated() bool {
	return t.pixelated
}

// Destroy releases the sampler. The image belongs to the caller.
func (t *Texture) Destroy() {
	if t.sampler != nil {
		t.sampler.Destroy(nil)
		t.sampler = nil
	}
}
