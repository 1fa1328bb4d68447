package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// runOneTime records a short-lived command buffer, submits it to the graphics
// queue and blocks until the queue drains. Every transfer goes through here.
func (i *Instance) runOneTime(record func(buffer core1_0.CommandBuffer) error) error {
	if i.device == nil {
		return ErrNoDevice
	}

	buffers, _, err := i.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        i.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return errors.Wrap(err, "allocate transfer command buffer")
	}
	defer i.device.FreeCommandBuffers(buffers)

	buffer := buffers[0]
	_, err = buffer.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return errors.Wrap(err, "begin transfer command buffer")
	}

	err = record(buffer)
	if err != nil {
		return err
	}

	_, err = buffer.End()
	if err != nil {
		return errors.Wrap(err, "end transfer command buffer")
	}

	_, err = i.graphicsQueue.Submit(nil, []core1_0.SubmitInfo{
		{
			CommandBuffers: []core1_0.CommandBuffer{buffer},
		},
	})
	if err != nil {
		return errors.Wrap(err, "submit transfer")
	}

	_, err = i.graphicsQueue.WaitIdle()
	return errors.Wrap(err, "wait for transfer")
}

func (i *Instance) findMemoryType(typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	memProperties := i.physicalDevice.handle.MemoryProperties()
	for index, memoryType := range memProperties.MemoryTypes {
		typeBit := uint32(1 << index)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return index, nil
		}
	}

	return 0, errors.Newf("no memory type matches filter %b with properties %s", typeFilter, properties)
}

func (i *Instance) findSupportedFormat(formats []core1_0.Format, tiling core1_0.ImageTiling, features core1_0.FormatFeatureFlags) (core1_0.Format, error) {
	for _, format := range formats {
		props := i.physicalDevice.handle.FormatProperties(format)

		if tiling == core1_0.ImageTilingLinear && (props.LinearTilingFeatures&features) == features {
			return format, nil
		} else if tiling == core1_0.ImageTilingOptimal && (props.OptimalTilingFeatures&features) == features {
			return format, nil
		}
	}

	return 0, errors.Newf("no supported format for tiling %s, featureset %s", tiling, features)
}

func (i *Instance) allocateBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	if i.device == nil {
		return nil, nil, ErrNoDevice
	}

	buffer, _, err := i.device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "create buffer")
	}

	memRequirements := buffer.MemoryRequirements()
	memoryTypeIndex, err := i.findMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		buffer.Destroy(nil)
		return nil, nil, err
	}

	memory, _, err := i.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		buffer.Destroy(nil)
		return nil, nil, errors.Wrap(err, "allocate buffer memory")
	}

	_, err = buffer.BindBufferMemory(memory, 0)
	if err != nil {
		buffer.Destroy(nil)
		memory.Free(nil)
		return nil, nil, errors.Wrap(err, "bind buffer memory")
	}

	return buffer, memory, nil
}

// stagingBuffer is a host-visible buffer that lives for a single transfer.
type stagingBuffer struct {
	buffer core1_0.Buffer
	memory core1_0.DeviceMemory
	size   int
}

func (i *Instance) newStagingBuffer(size int, usage core1_0.BufferUsageFlags) (*stagingBuffer, error) {
	buffer, memory, err := i.allocateBuffer(size, usage, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return nil, errors.Wrap(err, "staging")
	}
	return &stagingBuffer{buffer: buffer, memory: memory, size: size}, nil
}

func (s *stagingBuffer) write(data []byte) error {
	memoryPtr, _, err := s.memory.Map(0, len(data), 0)
	if err != nil {
		return errors.Wrap(err, "map staging memory")
	}
	defer s.memory.Unmap()

	copy(unsafe.Slice((*byte)(memoryPtr), len(data)), data)
	return nil
}

func (s *stagingBuffer) read() ([]byte, error) {
	memoryPtr, _, err := s.memory.Map(0, s.size, 0)
	if err != nil {
		return nil, errors.Wrap(err, "map staging memory")
	}
	defer s.memory.Unmap()

	data := make([]byte, s.size)
	copy(data, unsafe.Slice((*byte)(memoryPtr), s.size))
	return data, nil
}

func (s *stagingBuffer) destroy() {
	s.buffer.Destroy(nil)
	s.memory.Free(nil)
}

func (i *Instance) allocateImage(size core1_0.Extent2D, format core1_0.Format, usage core1_0.ImageUsageFlags) (core1_0.Image, core1_0.DeviceMemory, int, error) {
	if i.device == nil {
		return nil, nil, 0, ErrNoDevice
	}

	image, _, err := i.device.CreateImage(nil, core1_0.ImageCreateOptions{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  size.Width,
			Height: size.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return nil, nil, 0, errors.Wrap(err, "create image")
	}

	memReqs := image.MemoryRequirements()
	memoryIndex, err := i.findMemoryType(memReqs.MemoryTypeBits, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		image.Destroy(nil)
		return nil, nil, 0, err
	}

	imageMemory, _, err := i.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		image.Destroy(nil)
		return nil, nil, 0, errors.Wrap(err, "allocate image memory")
	}

	_, err = image.BindImageMemory(imageMemory, 0)
	if err != nil {
		image.Destroy(nil)
		imageMemory.Free(nil)
		return nil, nil, 0, errors.Wrap(err, "bind image memory")
	}

	return image, imageMemory, memReqs.Size, nil
}

func (i *Instance) createImageView(image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags) (core1_0.ImageView, error) {
	imageView, _, err := i.device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	return imageView, errors.Wrap(err, "create image view")
}
