package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// CommandBuffer records one frame: StartFrame, any number of QueueDraw calls
// and EndFrame, which submits everything recorded. Synchronization objects
// are supplied by the caller per frame.
type CommandBuffer struct {
	instance    *Instance
	buffer      core1_0.CommandBuffer
	framebuffer *Framebuffer
}

func NewCommandBuffer(instance *Instance) (*CommandBuffer, error) {
	if instance.device == nil {
		return nil, ErrNoDevice
	}

	buffers, _, err := instance.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        instance.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffer")
	}

	return &CommandBuffer{instance: instance, buffer: buffers[0]}, nil
}

func (c *CommandBuffer) Recording() bool {
	return c.framebuffer != nil
}

// StartFrame begins recording into framebuffer, clearing it to opaque black
// and depth 1.
func (c *CommandBuffer) StartFrame(rp *RenderPass, framebuffer *Framebuffer) error {
	if c.Recording() {
		return ErrAlreadyRecording
	}
	if rp == nil || framebuffer == nil {
		return errors.Wrap(ErrAttachmentMismatch, "start frame needs a render pass and framebuffer")
	}
	if framebuffer.renderPass != rp {
		return errors.Wrap(ErrAttachmentMismatch, "framebuffer was built for a different render pass")
	}

	_, err := c.buffer.Reset(0)
	if err != nil {
		return errors.Wrap(err, "reset command buffer")
	}

	_, err = c.buffer.Begin(core1_0.CommandBufferBeginInfo{})
	if err != nil {
		return errors.Wrap(err, "begin command buffer")
	}

	err = c.buffer.CmdBeginRenderPass(core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  rp.handle,
			Framebuffer: framebuffer.handle,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: extent2D(framebuffer.size),
			},
			ClearValues: rp.clearValues(),
		})
	if err != nil {
		_, _ = c.buffer.End()
		return errors.Wrap(err, "begin render pass")
	}

	c.framebuffer = framebuffer
	return nil
}

// checkBindings rejects a draw whose pipeline targets another render pass
// than the one being recorded, or whose resource set does not match the
// pipeline's resource layout.
func checkBindings(pipeline *GraphicsPipeline, framebuffer *Framebuffer, set *ResourceSet) error {
	if pipeline.RenderPass != framebuffer.renderPass {
		return errors.Wrap(ErrAttachmentMismatch, "pipeline was built for a different render pass")
	}

	switch {
	case set == nil && pipeline.ResourceLayout != nil:
		return errors.Wrap(ErrBindingMismatch, "pipeline expects a resource set")
	case set != nil && pipeline.ResourceLayout == nil:
		return errors.Wrap(ErrBindingMismatch, "pipeline has no resource layout")
	case set != nil && set.layout != pipeline.ResourceLayout:
		return errors.Wrap(ErrBindingMismatch, "resource set was allocated from a different layout")
	}

	return nil
}

type drawPlan struct {
	vertexBuffers []BufferRegion
	index         BufferRegion
	indexed       bool
	count         int
	instances     int
}

// planDraw decides buffer slots for a draw. Vertex data takes slot 0 and
// instance data the next free slot, so instance data alone sits at slot 0.
func planDraw(pipeline *GraphicsPipeline, vertex, index, instance BufferRegion) (drawPlan, error) {
	hasVertexSpec := len(pipeline.VertexSpecification) > 0
	hasInstanceSpec := len(pipeline.InstanceSpecification) > 0

	if hasVertexSpec == vertex.IsZero() {
		return drawPlan{}, errors.Wrapf(ErrIncompletePipeline, "pipeline vertex input %t, vertex buffer given %t", hasVertexSpec, !vertex.IsZero())
	}
	if hasInstanceSpec == instance.IsZero() {
		return drawPlan{}, errors.Wrapf(ErrIncompletePipeline, "pipeline instance input %t, instance buffer given %t", hasInstanceSpec, !instance.IsZero())
	}

	plan := drawPlan{
		index:     index,
		indexed:   !index.IsZero(),
		count:     pipeline.IndexCount,
		instances: pipeline.InstanceCount,
	}
	if !vertex.IsZero() {
		plan.vertexBuffers = append(plan.vertexBuffers, vertex)
	}
	if !instance.IsZero() {
		plan.vertexBuffers = append(plan.vertexBuffers, instance)
	}

	return plan, nil
}

// QueueDraw records one draw of pipeline. Without an index buffer the
// pipeline's IndexCount is used as a plain vertex count.
func (c *CommandBuffer) QueueDraw(pipeline *GraphicsPipeline, vertex, index, instance BufferRegion, set *ResourceSet) error {
	if !c.Recording() {
		return ErrNotRecording
	}
	if pipeline == nil || !pipeline.Built() {
		return errors.Wrap(ErrIncompletePipeline, "pipeline not built")
	}

	err := checkBindings(pipeline, c.framebuffer, set)
	if err != nil {
		return err
	}

	plan, err := planDraw(pipeline, vertex, index, instance)
	if err != nil {
		return err
	}

	c.buffer.CmdBindPipeline(core1_0.PipelineBindPointGraphics, pipeline.pipeline)

	if set != nil {
		c.buffer.CmdBindDescriptorSets(core1_0.PipelineBindPointGraphics, pipeline.layout, []core1_0.DescriptorSet{
			set.set,
		}, nil)
	}

	if len(plan.vertexBuffers) > 0 {
		buffers := make([]core1_0.Buffer, 0, len(plan.vertexBuffers))
		offsets := make([]int, 0, len(plan.vertexBuffers))
		for _, region := range plan.vertexBuffers {
			buffers = append(buffers, region.Buffer.buffer)
			offsets = append(offsets, region.Offset)
		}
		c.buffer.CmdBindVertexBuffers(buffers, offsets)
	}

	if plan.indexed {
		c.buffer.CmdBindIndexBuffer(plan.index.Buffer.buffer, plan.index.Offset, core1_0.IndexTypeUInt16)
	}

	extent := extent2D(c.framebuffer.size)
	c.buffer.CmdSetViewport([]core1_0.Viewport{
		{
			X:        0,
			Y:        0,
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		},
	})
	c.buffer.CmdSetScissor([]core1_0.Rect2D{
		{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
	})

	if plan.indexed {
		c.buffer.CmdDrawIndexed(plan.count, plan.instances, 0, 0, 0)
	} else {
		c.buffer.CmdDraw(plan.count, plan.instances, 0, 0)
	}
	return nil
}

// EndFrame closes the render pass and submits the frame. The submission
// waits on wait at color output, then signals signal and fence.
func (c *CommandBuffer) EndFrame(wait, signal *Semaphore, fence *Fence) error {
	if !c.Recording() {
		return ErrNotRecording
	}
	c.framebuffer = nil

	c.buffer.CmdEndRenderPass()

	_, err := c.buffer.End()
	if err != nil {
		return errors.Wrap(err, "end command buffer")
	}

	submit := core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{c.buffer},
	}
	if wait != nil {
		submit.WaitSemaphores = []core1_0.Semaphore{wait.handle}
		submit.WaitDstStageMask = []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput}
	}
	if signal != nil {
		submit.SignalSemaphores = []core1_0.Semaphore{signal.handle}
	}

	_, err = c.instance.graphicsQueue.Submit(fence.handleOrNil(), []core1_0.SubmitInfo{submit})
	return errors.Wrap(err, "submit frame")
}

func (c *CommandBuffer) Destroy() {
	if c.buffer != nil {
		c.instance.device.FreeCommandBuffers([]core1_0.CommandBuffer{c.buffer})
		c.buffer = nil
	}
}
