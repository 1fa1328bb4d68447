package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// RenderPass fixes the attachment layout shared by compatible framebuffers
// and pipelines: one color attachment and an optional depth attachment.
type RenderPass struct {
	handle      core1_0.RenderPass
	colorFormat core1_0.Format
	depthFormat core1_0.Format
	hasDepth    bool
	offscreen   bool
}

// NewRenderPass targets display's swapchain images, or an offscreen RGBA
// image that is sampled afterwards when display is nil.
func NewRenderPass(instance *Instance, display *Display, depth bool) (*RenderPass, error) {
	if instance.device == nil {
		return nil, ErrNoDevice
	}

	rp := &RenderPass{
		colorFormat: colorImageFormat,
		depthFormat: instance.depthFormat,
		hasDepth:    depth,
		offscreen:   display == nil,
	}

	finalLayout := core1_0.ImageLayoutShaderReadOnlyOptimal
	if display != nil {
		rp.colorFormat = display.ColorFormat()
		finalLayout = khr_swapchain.ImageLayoutPresentSrc
	}

	var err error
	rp.handle, _, err = instance.device.CreateRenderPass(nil, renderPassOptions(rp.colorFormat, rp.depthFormat, depth, finalLayout))
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}

	return rp, nil
}

func renderPassOptions(colorFormat, depthFormat core1_0.Format, depth bool, finalLayout core1_0.ImageLayout) core1_0.RenderPassCreateInfo {
	attachments := []core1_0.AttachmentDescription{
		{
			Format:         colorFormat,
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOpClear,
			StoreOp:        core1_0.AttachmentStoreOpStore,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    finalLayout,
		},
	}

	subpass := core1_0.SubpassDescription{
		PipelineBindPoint: core1_0.PipelineBindPointGraphics,
		ColorAttachments: []core1_0.AttachmentReference{
			{
				Attachment: 0,
				Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
			},
		},
	}

	stages := core1_0.PipelineStageColorAttachmentOutput
	access := core1_0.AccessColorAttachmentWrite

	if depth {
		attachments = append(attachments, core1_0.AttachmentDescription{
			Format:         depthFormat,
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOpClear,
			StoreOp:        core1_0.AttachmentStoreOpDontCare,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.DepthStencilAttachment = &core1_0.AttachmentReference{
			Attachment: 1,
			Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		}
		stages |= core1_0.PipelineStageEarlyFragmentTests
		access |= core1_0.AccessDepthStencilAttachmentWrite
	}

	return core1_0.RenderPassCreateInfo{
		Attachments: attachments,
		Subpasses:   []core1_0.SubpassDescription{subpass},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  stages,
				SrcAccessMask: 0,

				DstStageMask:  stages,
				DstAccessMask: access,
			},
		},
	}
}

func (rp *RenderPass) HasDepth() bool {
	return rp.hasDepth
}

func (rp *RenderPass) Offscreen() bool {
	return rp.offscreen
}

// clearValues clears color to opaque black and depth to the far plane.
func (rp *RenderPass) clearValues() []core1_0.ClearValue {
	values := []core1_0.ClearValue{
		core1_0.ClearValueFloat{0, 0, 0, 1},
	}
	if rp.hasDepth {
		values = append(values, core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0})
	}
	return values
}

func (rp *RenderPass) Destroy() {
	if rp.handle != nil {
		rp.handle.Destroy(nil)
		rp.handle = nil
	}
}
