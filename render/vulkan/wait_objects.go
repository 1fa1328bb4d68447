package vulkan

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
)

// Semaphore orders work between GPU queue operations.
type Semaphore struct {
	handle core1_0.Semaphore
}

func NewSemaphore(instance *Instance) (*Semaphore, error) {
	if instance.device == nil {
		return nil, ErrNoDevice
	}

	handle, _, err := instance.device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, errors.Wrap(err, "create semaphore")
	}
	return &Semaphore{handle: handle}, nil
}

func (s *Semaphore) handleOrNil() core1_0.Semaphore {
	if s == nil {
		return nil
	}
	return s.handle
}

func (s *Semaphore) Destroy() {
	if s.handle != nil {
		s.handle.Destroy(nil)
		s.handle = nil
	}
}

// Fence signals the CPU that submitted GPU work has completed.
type Fence struct {
	device core1_0.Device
	handle core1_0.Fence
}

// NewFence creates a fence, already signaled when signaled is set so the
// first wait on it returns immediately.
func NewFence(instance *Instance, signaled bool) (*Fence, error) {
	if instance.device == nil {
		return nil, ErrNoDevice
	}

	var options core1_0.FenceCreateInfo
	if signaled {
		options.Flags = core1_0.FenceCreateSignaled
	}

	handle, _, err := instance.device.CreateFence(nil, options)
	if err != nil {
		return nil, errors.Wrap(err, "create fence")
	}
	return &Fence{device: instance.device, handle: handle}, nil
}

func (f *Fence) handleOrNil() core1_0.Fence {
	if f == nil {
		return nil
	}
	return f.handle
}

func (f *Fence) Reset() error {
	_, err := f.device.ResetFences([]core1_0.Fence{f.handle})
	return errors.Wrap(err, "reset fence")
}

// WaitFor blocks until the fence is signaled.
func (f *Fence) WaitFor() error {
	_, err := f.handle.Wait(common.NoTimeout)
	return errors.Wrap(err, "wait for fence")
}

// WaitForTimeout reports false if the fence was still unsignaled after timeout.
func (f *Fence) WaitForTimeout(timeout time.Duration) (bool, error) {
	res, err := f.handle.Wait(timeout)
	if err != nil {
		return false, errors.Wrap(err, "wait for fence")
	}
	return res != core1_0.VKTimeout, nil
}

func (f *Fence) Destroy() {
	if f.handle != nil {
		f.handle.Destroy(nil)
		f.handle = nil
	}
}
