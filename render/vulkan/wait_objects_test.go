package vulkan

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestWaitObjectsWithoutDevice(t *testing.T) {
	c := qt.New(t)

	var semaphore *Semaphore
	c.Assert(semaphore.handleOrNil(), qt.IsNil)
	var fence *Fence
	c.Assert(fence.handleOrNil(), qt.IsNil)

	_, err := NewSemaphore(&Instance{})
	c.Assert(err, qt.ErrorIs, ErrNoDevice)
	_, err = NewFence(&Instance{}, true)
	c.Assert(err, qt.ErrorIs, ErrNoDevice)
}
