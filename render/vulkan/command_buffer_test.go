package vulkan

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/golang/mock/gomock"
	"github.com/vkngwrapper/core/mocks"

	"github.com/MalcolmParry/mwengine/render"
)

func TestPlanDrawInstanceOnlyUsesSlotZero(t *testing.T) {
	c := qt.New(t)

	pipeline := NewGraphicsPipeline(&Instance{})
	pipeline.InstanceSpecification = []render.ShaderDataType{render.ShaderDataFloatMat4}
	pipeline.IndexCount = 6
	pipeline.InstanceCount = 10

	instances := BufferRegion{Buffer: &Buffer{size: 640}, Size: 640}
	indices := BufferRegion{Buffer: &Buffer{size: 12}, Size: 12}

	plan, err := planDraw(pipeline, BufferRegion{}, indices, instances)
	c.Assert(err, qt.IsNil)
	c.Assert(plan.vertexBuffers, qt.HasLen, 1)
	c.Assert(plan.vertexBuffers[0], qt.Equals, instances)
	c.Assert(plan.indexed, qt.IsTrue)
	c.Assert(plan.count, qt.Equals, 6)
	c.Assert(plan.instances, qt.Equals, 10)
}

func TestPlanDrawVertexThenInstance(t *testing.T) {
	c := qt.New(t)

	pipeline := NewGraphicsPipeline(&Instance{})
	pipeline.VertexSpecification = []render.ShaderDataType{render.ShaderDataFloatVec3}
	pipeline.InstanceSpecification = []render.ShaderDataType{render.ShaderDataFloatVec4}
	pipeline.IndexCount = 3
	pipeline.InstanceCount = 1

	shared := &Buffer{size: 128}
	vertices := BufferRegion{Buffer: shared, Size: 36}
	instances := BufferRegion{Buffer: shared, Size: 16, Offset: 36}

	plan, err := planDraw(pipeline, vertices, BufferRegion{}, instances)
	c.Assert(err, qt.IsNil)
	c.Assert(plan.vertexBuffers, qt.DeepEquals, []BufferRegion{vertices, instances})
	c.Assert(plan.indexed, qt.IsFalse)
}

func TestPlanDrawRejectsMismatchedBuffers(t *testing.T) {
	c := qt.New(t)

	pipeline := NewGraphicsPipeline(&Instance{})
	pipeline.VertexSpecification = []render.ShaderDataType{render.ShaderDataFloatVec3}

	_, err := planDraw(pipeline, BufferRegion{}, BufferRegion{}, BufferRegion{})
	c.Assert(err, qt.ErrorIs, ErrIncompletePipeline)

	vertices := BufferRegion{Buffer: &Buffer{size: 12}, Size: 12}
	_, err = planDraw(pipeline, vertices, BufferRegion{}, vertices)
	c.Assert(err, qt.ErrorIs, ErrIncompletePipeline)
}

func TestCommandBufferOrdering(t *testing.T) {
	c := qt.New(t)

	buffer := &CommandBuffer{}
	c.Assert(buffer.Recording(), qt.IsFalse)
	c.Assert(buffer.QueueDraw(nil, BufferRegion{}, BufferRegion{}, BufferRegion{}, nil), qt.ErrorIs, ErrNotRecording)
	c.Assert(buffer.EndFrame(nil, nil, nil), qt.ErrorIs, ErrNotRecording)

	buffer.framebuffer = &Framebuffer{size: render.UInt2{X: 4, Y: 4}}
	c.Assert(buffer.StartFrame(&RenderPass{}, buffer.framebuffer), qt.ErrorIs, ErrAlreadyRecording)
	c.Assert(buffer.QueueDraw(NewGraphicsPipeline(&Instance{}), BufferRegion{}, BufferRegion{}, BufferRegion{}, nil), qt.ErrorIs, ErrIncompletePipeline)
}

func TestCheckBindings(t *testing.T) {
	c := qt.New(t)

	pass := &RenderPass{}
	otherPass := &RenderPass{}
	layout := &ResourceLayout{}
	otherLayout := &ResourceLayout{}
	framebuffer := &Framebuffer{renderPass: pass}

	tests := []struct {
		name      string
		pass      *RenderPass
		layout    *ResourceLayout
		set       *ResourceSet
		expectErr error
	}{
		{name: "matching without resources", pass: pass},
		{name: "matching with resources", pass: pass, layout: layout, set: &ResourceSet{layout: layout}},
		{name: "pipeline for another pass", pass: otherPass, expectErr: ErrAttachmentMismatch},
		{name: "pipeline without render pass", expectErr: ErrAttachmentMismatch},
		{name: "set without pipeline layout", pass: pass, set: &ResourceSet{layout: layout}, expectErr: ErrBindingMismatch},
		{name: "set from another layout", pass: pass, layout: layout, set: &ResourceSet{layout: otherLayout}, expectErr: ErrBindingMismatch},
		{name: "layout without set", pass: pass, layout: layout, expectErr: ErrBindingMismatch},
	}

	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			pipeline := NewGraphicsPipeline(&Instance{})
			pipeline.RenderPass = test.pass
			pipeline.ResourceLayout = test.layout

			err := checkBindings(pipeline, framebuffer, test.set)
			if test.expectErr == nil {
				c.Assert(err, qt.IsNil)
				return
			}
			c.Assert(err, qt.ErrorIs, test.expectErr)
		})
	}
}

func TestQueueDrawRejectsMismatchBeforeRecording(t *testing.T) {
	c := qt.New(t)
	ctrl := gomock.NewController(t)

	pass := &RenderPass{}
	layout := &ResourceLayout{}

	// No expectations: any command reaching the buffer fails the test.
	buffer := &CommandBuffer{
		buffer:      mocks.NewMockCommandBuffer(ctrl),
		framebuffer: &Framebuffer{renderPass: pass, size: render.UInt2{X: 4, Y: 4}},
	}

	pipeline := NewGraphicsPipeline(&Instance{})
	pipeline.RenderPass = pass
	pipeline.IndexCount = 3
	pipeline.pipeline = mocks.EasyMockPipeline(ctrl)
	pipeline.layout = mocks.EasyMockPipelineLayout(ctrl)

	err := buffer.QueueDraw(pipeline, BufferRegion{}, BufferRegion{}, BufferRegion{}, &ResourceSet{layout: layout})
	c.Assert(err, qt.ErrorIs, ErrBindingMismatch)

	pipeline.ResourceLayout = layout
	err = buffer.QueueDraw(pipeline, BufferRegion{}, BufferRegion{}, BufferRegion{}, &ResourceSet{layout: &ResourceLayout{}})
	c.Assert(err, qt.ErrorIs, ErrBindingMismatch)

	pipeline.RenderPass = &RenderPass{}
	err = buffer.QueueDraw(pipeline, BufferRegion{}, BufferRegion{}, BufferRegion{}, &ResourceSet{layout: layout})
	c.Assert(err, qt.ErrorIs, ErrAttachmentMismatch)
}

func TestStartFrameRejectsForeignFramebuffer(t *testing.T) {
	c := qt.New(t)
	ctrl := gomock.NewController(t)

	buffer := &CommandBuffer{buffer: mocks.NewMockCommandBuffer(ctrl)}
	framebuffer := &Framebuffer{renderPass: &RenderPass{}, size: render.UInt2{X: 4, Y: 4}}

	err := buffer.StartFrame(&RenderPass{}, framebuffer)
	c.Assert(err, qt.ErrorIs, ErrAttachmentMismatch)
	c.Assert(buffer.Recording(), qt.IsFalse)
}
