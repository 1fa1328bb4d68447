package vulkan

import "github.com/cockroachdb/errors"

var (
	ErrNoPhysicalDevice   = errors.New("vulkan: no physical device available")
	ErrNoDevice           = errors.New("vulkan: no logical device bound")
	ErrNoQueueFamily      = errors.New("vulkan: required queue family missing")
	ErrNotRecording       = errors.New("vulkan: command buffer is not recording")
	ErrAlreadyRecording   = errors.New("vulkan: command buffer is already recording")
	ErrIncompletePipeline = errors.New("vulkan: graphics pipeline is incomplete")
	ErrBindingMismatch    = errors.New("vulkan: resource write does not match layout")
	ErrAttachmentMismatch = errors.New("vulkan: framebuffer attachments do not match render pass")
	ErrOutOfRange         = errors.New("vulkan: range exceeds buffer")
	ErrZeroExtent         = errors.New("vulkan: surface has zero extent")
	ErrAcquireTimeout     = errors.New("vulkan: timed out acquiring swapchain image")
	ErrDestroyed          = errors.New("vulkan: object already destroyed")
)
