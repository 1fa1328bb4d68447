package vulkan

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/MalcolmParry/mwengine/render"
)

// Buffer is linear device-local memory. Reads and writes go through a
// temporary staging buffer and block until the copy completes.
type Buffer struct {
	instance *Instance
	buffer   core1_0.Buffer
	memory   core1_0.DeviceMemory
	size     int
	usage    render.BufferUsage
}

func bufferUsageFlags(usage render.BufferUsage) core1_0.BufferUsageFlags {
	flags := core1_0.BufferUsageTransferSrc | core1_0.BufferUsageTransferDst
	if usage&render.BufferUsageVertex != 0 {
		flags |= core1_0.BufferUsageVertexBuffer
	}
	if usage&render.BufferUsageIndex != 0 {
		flags |= core1_0.BufferUsageIndexBuffer
	}
	if usage&render.BufferUsageUniform != 0 {
		flags |= core1_0.BufferUsageUniformBuffer
	}
	return flags
}

func NewBuffer(instance *Instance, size int, usage render.BufferUsage) (*Buffer, error) {
	if size <= 0 {
		return nil, errors.Newf("create buffer: invalid size %d", size)
	}

	buffer, memory, err := instance.allocateBuffer(size, bufferUsageFlags(usage), core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}

	instance.log.WithFields(logrus.Fields{"size": size, "usage": usage}).Debug("created buffer")
	return &Buffer{
		instance: instance,
		buffer:   buffer,
		memory:   memory,
		size:     size,
		usage:    usage,
	}, nil
}

func (b *Buffer) GetSize() int {
	return b.size
}

func (b *Buffer) Usage() render.BufferUsage {
	return b.usage
}

func checkRange(size, offset, length int) error {
	if offset < 0 || length < 0 || offset+length > size {
		return errors.Wrapf(ErrOutOfRange, "offset %d length %d in buffer of %d bytes", offset, length, size)
	}
	return nil
}

func (b *Buffer) SetData(data []byte, offset int) error {
	if b.buffer == nil {
		return ErrDestroyed
	}
	if err := checkRange(b.size, offset, len(data)); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	staging, err := b.instance.newStagingBuffer(len(data), core1_0.BufferUsageTransferSrc)
	if err != nil {
		return err
	}
	defer staging.destroy()

	err = staging.write(data)
	if err != nil {
		return err
	}

	return b.instance.runOneTime(func(cmd core1_0.CommandBuffer) error {
		return cmd.CmdCopyBuffer(staging.buffer, b.buffer, []core1_0.BufferCopy{
			{
				SrcOffset: 0,
				DstOffset: offset,
				Size:      len(data),
			},
		})
	})
}

func (b *Buffer) GetData(size, offset int) ([]byte, error) {
	if b.buffer == nil {
		return nil, ErrDestroyed
	}
	if err := checkRange(b.size, offset, size); err != nil {
		return nil, err
	}
	if size == 0 {
		return []byte{}, nil
	}

	staging, err := b.instance.newStagingBuffer(size, core1_0.BufferUsageTransferDst)
	if err != nil {
		return nil, err
	}
	defer staging.destroy()

	err = b.instance.runOneTime(func(cmd core1_0.CommandBuffer) error {
		return cmd.CmdCopyBuffer(b.buffer, staging.buffer, []core1_0.BufferCopy{
			{
				SrcOffset: offset,
				DstOffset: 0,
				Size:      size,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return staging.read()
}

func (b *Buffer) Destroy() {
	if b.buffer != nil {
		b.buffer.Destroy(nil)
		b.buffer = nil
	}

	if b.memory != nil {
		b.memory.Free(nil)
		b.memory = nil
	}
}

// Encode lays out fixed-size values in the byte order the device expects.
func Encode(values any) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := binary.Write(buf, common.ByteOrder, values)
	if err != nil {
		return nil, errors.Wrap(err, "encode buffer data")
	}
	return buf.Bytes(), nil
}

// WriteValues encodes values and uploads them into region.
func WriteValues(region BufferRegion, values any) error {
	data, err := Encode(values)
	if err != nil {
		return err
	}
	return region.SetData(data)
}
