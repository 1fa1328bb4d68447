package vulkan

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/MalcolmParry/mwengine/render"
)

func TestRegionDefaultsToWholeBuffer(t *testing.T) {
	c := qt.New(t)

	for _, size := range []int{1, 64, 4096} {
		buffer := &Buffer{size: size}
		region, err := NewBufferRegion(buffer, 0, 0)
		c.Assert(err, qt.IsNil)
		c.Assert(region.Size, qt.Equals, buffer.GetSize())
		c.Assert(region.Offset, qt.Equals, 0)
	}
}

func TestRegionChaining(t *testing.T) {
	c := qt.New(t)
	buffer := &Buffer{size: 256}

	first, err := NewBufferRegion(buffer, 48, 16)
	c.Assert(err, qt.IsNil)

	second, err := ChainRegion(buffer, 32, first)
	c.Assert(err, qt.IsNil)
	c.Assert(second.Offset, qt.Equals, first.Size+first.Offset)

	third, err := ChainRegion(buffer, 100, second)
	c.Assert(err, qt.IsNil)
	c.Assert(third.Offset, qt.Equals, 16+48+32)
	c.Assert(third.ChainOffset(), qt.Equals, 196)

	_, err = ChainRegion(buffer, 100, third)
	c.Assert(err, qt.ErrorIs, ErrOutOfRange)
}

func TestRegionBounds(t *testing.T) {
	c := qt.New(t)
	buffer := &Buffer{size: 64}

	_, err := NewBufferRegion(buffer, 32, 40)
	c.Assert(err, qt.ErrorIs, ErrOutOfRange)

	_, err = NewBufferRegion(buffer, 0, 8)
	c.Assert(err, qt.ErrorIs, ErrOutOfRange)

	_, err = NewBufferRegion(nil, 8, 0)
	c.Assert(err, qt.IsNotNil)

	region, err := NewBufferRegion(buffer, 16, 48)
	c.Assert(err, qt.IsNil)
	c.Assert(region.SetData(make([]byte, 17)), qt.ErrorIs, ErrOutOfRange)
	c.Assert(BufferRegion{}.IsZero(), qt.IsTrue)
}

func TestArenaPacksSequentially(t *testing.T) {
	c := qt.New(t)
	arena := NewBufferArena(&Buffer{size: 100})

	sizes := []int{10, 30, 20}
	offset := 0
	for _, size := range sizes {
		region, err := arena.Next(size)
		c.Assert(err, qt.IsNil)
		c.Assert(region.Offset, qt.Equals, offset)
		c.Assert(region.Size, qt.Equals, size)
		offset += size
	}
	c.Assert(arena.Offset(), qt.Equals, 60)
	c.Assert(arena.Remaining(), qt.Equals, 40)

	_, err := arena.Next(41)
	c.Assert(err, qt.ErrorIs, ErrOutOfRange)

	rest, err := arena.Next(0)
	c.Assert(err, qt.IsNil)
	c.Assert(rest.Size, qt.Equals, 40)

	_, err = arena.Next(0)
	c.Assert(err, qt.ErrorIs, ErrOutOfRange)

	arena.Reset()
	c.Assert(arena.Remaining(), qt.Equals, 100)
}

func TestEncode(t *testing.T) {
	c := qt.New(t)

	data, err := Encode([]uint16{1, 2, 3})
	c.Assert(err, qt.IsNil)
	c.Assert(data, qt.DeepEquals, []byte{1, 0, 2, 0, 3, 0})

	_, err = Encode([]int{1})
	c.Assert(err, qt.IsNotNil)
}

func TestBufferUsageFlags(t *testing.T) {
	c := qt.New(t)

	flags := bufferUsageFlags(render.BufferUsageInstance)
	c.Assert(flags&core1_0.BufferUsageVertexBuffer != 0, qt.IsTrue)
	c.Assert(flags&core1_0.BufferUsageIndexBuffer != 0, qt.IsFalse)
	c.Assert(flags&core1_0.BufferUsageTransferDst != 0, qt.IsTrue)

	all := bufferUsageFlags(render.BufferUsageAll)
	c.Assert(all&core1_0.BufferUsageUniformBuffer != 0, qt.IsTrue)
	c.Assert(all&core1_0.BufferUsageIndexBuffer != 0, qt.IsTrue)
}
