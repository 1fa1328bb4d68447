package vulkan

import (
	"github.com/cockroachdb/errors"
)

// BufferRegion is a non-owning view of part of a Buffer.
type BufferRegion struct {
	Buffer *Buffer
	Size   int
	Offset int
}

// NewBufferRegion views size bytes of buffer starting at offset. A zero size
// covers the whole buffer.
func NewBufferRegion(buffer *Buffer, size, offset int) (BufferRegion, error) {
	if buffer == nil {
		return BufferRegion{}, errors.New("buffer region: nil buffer")
	}
	if size == 0 {
		size = buffer.GetSize()
	}
	if size < 0 {
		return BufferRegion{}, errors.Newf("buffer region: negative size %d", size)
	}
	if err := checkRange(buffer.GetSize(), offset, size); err != nil {
		return BufferRegion{}, err
	}

	return BufferRegion{Buffer: buffer, Size: size, Offset: offset}, nil
}

// ChainRegion places a region directly after previous.
func ChainRegion(buffer *Buffer, size int, previous BufferRegion) (BufferRegion, error) {
	if size == 0 {
		return BufferRegion{}, errors.New("buffer region: chained regions need an explicit size")
	}
	return NewBufferRegion(buffer, size, previous.ChainOffset())
}

// ChainOffset is the first byte after the region.
func (r BufferRegion) ChainOffset() int {
	return r.Offset + r.Size
}

func (r BufferRegion) IsZero() bool {
	return r.Buffer == nil
}

func (r BufferRegion) SetData(data []byte) error {
	if r.IsZero() {
		return errors.New("buffer region: no buffer")
	}
	if len(data) > r.Size {
		return errors.Wrapf(ErrOutOfRange, "%d bytes into region of %d", len(data), r.Size)
	}
	return r.Buffer.SetData(data, r.Offset)
}

func (r BufferRegion) GetData() ([]byte, error) {
	if r.IsZero() {
		return nil, errors.New("buffer region: no buffer")
	}
	return r.Buffer.GetData(r.Size, r.Offset)
}

// BufferArena hands out consecutive regions of one buffer with a running
// cursor. Nothing is ever freed individually; Reset starts over.
type BufferArena struct {
	buffer *Buffer
	cursor int
}

func NewBufferArena(buffer *Buffer) *BufferArena {
	return &BufferArena{buffer: buffer}
}

// Next claims size bytes, or everything left when size is zero.
func (a *BufferArena) Next(size int) (BufferRegion, error) {
	if size == 0 {
		size = a.Remaining()
	}
	if size <= 0 {
		return BufferRegion{}, errors.Wrapf(ErrOutOfRange, "arena exhausted at %d", a.cursor)
	}

	region, err := NewBufferRegion(a.buffer, size, a.cursor)
	if err != nil {
		return BufferRegion{}, err
	}

	a.cursor = region.ChainOffset()
	return region, nil
}

func (a *BufferArena) Offset() int {
	return a.cursor
}

func (a *BufferArena) Remaining() int {
	return a.buffer.GetSize() - a.cursor
}

func (a *BufferArena) Reset() {
	a.cursor = 0
}
