package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/MalcolmParry/mwengine/render"
)

// Framebuffer binds a color image and an optional depth image to a
// RenderPass. The images stay owned by whoever created them.
type Framebuffer struct {
	handle     core1_0.Framebuffer
	renderPass *RenderPass
	size       render.UInt2
}

func NewFramebuffer(instance *Instance, rp *RenderPass, color *Image, depth *Image) (*Framebuffer, error) {
	if rp == nil || rp.handle == nil {
		return nil, errors.Wrap(ErrAttachmentMismatch, "framebuffer: no render pass")
	}
	if color == nil || color.isDepth() {
		return nil, errors.Wrap(ErrAttachmentMismatch, "framebuffer: missing color image")
	}
	if rp.hasDepth != (depth != nil) {
		return nil, errors.Wrapf(ErrAttachmentMismatch, "framebuffer: render pass depth %t, depth image supplied %t", rp.hasDepth, depth != nil)
	}

	attachments := []core1_0.ImageView{color.view}
	if depth != nil {
		if depth.size != color.size {
			return nil, errors.Wrapf(ErrAttachmentMismatch, "framebuffer: depth %v differs from color %v", depth.size, color.size)
		}
		attachments = append(attachments, depth.view)
	}

	handle, _, err := instance.device.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  rp.handle,
		Layers:      1,
		Attachments: attachments,
		Width:       int(color.size.X),
		Height:      int(color.size.Y),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create framebuffer")
	}

	return &Framebuffer{handle: handle, renderPass: rp, size: color.size}, nil
}

func (f *Framebuffer) GetSize() render.UInt2 {
	return f.size
}

func (f *Framebuffer) GetRenderPass() *RenderPass {
	return f.renderPass
}

func (f *Framebuffer) Destroy() {
	if f.handle != nil {
		f.handle.Destroy(nil)
		f.handle = nil
	}
}

// buildFramebuffers makes one framebuffer per color image. On failure the
// ones already built are destroyed.
func buildFramebuffers(colors []*Image, create func(color *Image) (*Framebuffer, error)) ([]*Framebuffer, error) {
	framebuffers := make([]*Framebuffer, 0, len(colors))
	for index, color := range colors {
		framebuffer, err := create(color)
		if err != nil {
			for _, built := range framebuffers {
				built.Destroy()
			}
			return nil, errors.Wrapf(err, "framebuffer %d", index)
		}
		framebuffers = append(framebuffers, framebuffer)
	}
	return framebuffers, nil
}
