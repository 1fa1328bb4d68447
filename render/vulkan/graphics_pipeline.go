package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/MalcolmParry/mwengine/render"
)

// GraphicsPipeline is built from the declarative fields below. Any change to
// them takes effect on the next Rebuild.
type GraphicsPipeline struct {
	RenderPass            *RenderPass
	FramebufferSize       render.UInt2
	VertexSpecification   []render.ShaderDataType
	IndexCount            int
	InstanceSpecification []render.ShaderDataType
	InstanceCount         int
	ResourceLayout        *ResourceLayout
	CullingMode           render.CullingMode
	DepthTesting          bool
	VertexShader          *Shader
	FragmentShader        *Shader

	instance *Instance
	pipeline core1_0.Pipeline
	layout   core1_0.PipelineLayout
}

func NewGraphicsPipeline(instance *Instance) *GraphicsPipeline {
	pipeline := &GraphicsPipeline{instance: instance}
	pipeline.SetDefaults()
	return pipeline
}

// SetDefaults resets every declarative field: back-face culling, depth
// testing, no counts, no resources and no shaders.
func (p *GraphicsPipeline) SetDefaults() {
	p.RenderPass = nil
	p.FramebufferSize = render.UInt2{}
	p.VertexSpecification = nil
	p.IndexCount = 0
	p.InstanceSpecification = nil
	p.InstanceCount = 0
	p.ResourceLayout = nil
	p.CullingMode = render.CullingModeBack
	p.DepthTesting = true
	p.VertexShader = nil
	p.FragmentShader = nil
}

type vertexInput struct {
	bindings   []core1_0.VertexInputBindingDescription
	attributes []core1_0.VertexInputAttributeDescription
}

// vertexInputLayout gives each non-empty specification its own binding in
// vertex then instance order, with locations numbered across both.
func vertexInputLayout(vertexSpec, instanceSpec []render.ShaderDataType) (vertexInput, error) {
	var input vertexInput
	location := 0

	specs := []struct {
		types []render.ShaderDataType
		rate  core1_0.InputRate
	}{
		{vertexSpec, core1_0.RateVertex},
		{instanceSpec, core1_0.RateInstance},
	}

	for _, spec := range specs {
		if len(spec.types) == 0 {
			continue
		}

		unpacked, err := render.Unpack(spec.types)
		if err != nil {
			return vertexInput{}, err
		}

		binding := len(input.bindings)
		offset := 0
		for _, t := range unpacked {
			format, err := shaderDataFormat(t)
			if err != nil {
				return vertexInput{}, err
			}

			input.attributes = append(input.attributes, core1_0.VertexInputAttributeDescription{
				Binding:  binding,
				Location: uint32(location),
				Format:   format,
				Offset:   offset,
			})
			offset += int(t.Size())
			location++
		}

		input.bindings = append(input.bindings, core1_0.VertexInputBindingDescription{
			Binding:   binding,
			Stride:    offset,
			InputRate: spec.rate,
		})
	}

	return input, nil
}

func cullModeFlags(mode render.CullingMode) core1_0.CullModeFlags {
	var flags core1_0.CullModeFlags
	if mode&render.CullingModeFront != 0 {
		flags |= core1_0.CullModeFront
	}
	if mode&render.CullingModeBack != 0 {
		flags |= core1_0.CullModeBack
	}
	return flags
}

func (p *GraphicsPipeline) validate() error {
	switch {
	case p.RenderPass == nil || p.RenderPass.handle == nil:
		return errors.Wrap(ErrIncompletePipeline, "no render pass")
	case p.VertexShader == nil || p.VertexShader.module == nil:
		return errors.Wrap(ErrIncompletePipeline, "no vertex shader")
	case p.FragmentShader == nil || p.FragmentShader.module == nil:
		return errors.Wrap(ErrIncompletePipeline, "no fragment shader")
	case p.DepthTesting && !p.RenderPass.hasDepth:
		return errors.Wrap(ErrIncompletePipeline, "depth testing needs a render pass with depth")
	}
	return nil
}

// Rebuild compiles the declarative state. Viewport and scissor are dynamic,
// so the pipeline serves any framebuffer size using the same RenderPass.
func (p *GraphicsPipeline) Rebuild() error {
	err := p.validate()
	if err != nil {
		return err
	}

	device := p.instance.device
	if device == nil {
		return ErrNoDevice
	}

	input, err := vertexInputLayout(p.VertexSpecification, p.InstanceSpecification)
	if err != nil {
		return err
	}

	var setLayouts []core1_0.DescriptorSetLayout
	if p.ResourceLayout != nil {
		setLayouts = append(setLayouts, p.ResourceLayout.handle)
	}

	layout, _, err := device.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: setLayouts,
	})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}

	extent := extent2D(p.FramebufferSize)

	pipelines, _, err := device.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{
		{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{
					Stage:  core1_0.StageVertex,
					Module: p.VertexShader.module,
					Name:   "main",
				},
				{
					Stage:  core1_0.StageFragment,
					Module: p.FragmentShader.module,
					Name:   "main",
				},
			},
			VertexInputState: &core1_0.PipelineVertexInputStateCreateInfo{
				VertexBindingDescriptions:   input.bindings,
				VertexAttributeDescriptions: input.attributes,
			},
			InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
				Topology:               core1_0.PrimitiveTopologyTriangleList,
				PrimitiveRestartEnable: false,
			},
			ViewportState: &core1_0.PipelineViewportStateCreateInfo{
				Viewports: []core1_0.Viewport{
					{
						Width:    float32(extent.Width),
						Height:   float32(extent.Height),
						MinDepth: 0,
						MaxDepth: 1,
					},
				},
				Scissors: []core1_0.Rect2D{
					{
						Offset: core1_0.Offset2D{X: 0, Y: 0},
						Extent: extent,
					},
				},
			},
			RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
				DepthClampEnable:        false,
				RasterizerDiscardEnable: false,

				PolygonMode: core1_0.PolygonModeFill,
				CullMode:    cullModeFlags(p.CullingMode),
				FrontFace:   core1_0.FrontFaceCounterClockwise,

				DepthBiasEnable: false,

				LineWidth: 1.0,
			},
			MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
				SampleShadingEnable:  false,
				RasterizationSamples: core1_0.Samples1,
				MinSampleShading:     1.0,
			},
			DepthStencilState: &core1_0.PipelineDepthStencilStateCreateInfo{
				DepthTestEnable:  p.DepthTesting,
				DepthWriteEnable: p.DepthTesting,
				DepthCompareOp:   core1_0.CompareOpLess,
			},
			ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
				LogicOpEnabled: false,
				LogicOp:        core1_0.LogicOpCopy,

				BlendConstants: [4]float32{0, 0, 0, 0},
				Attachments: []core1_0.PipelineColorBlendAttachmentState{
					{
						BlendEnabled:   false,
						ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
					},
				},
			},
			DynamicState: &core1_0.PipelineDynamicStateCreateInfo{
				DynamicStates: []core1_0.DynamicState{
					core1_0.DynamicStateViewport,
					core1_0.DynamicStateScissor,
				},
			},
			Layout:            layout,
			RenderPass:        p.RenderPass.handle,
			Subpass:           0,
			BasePipelineIndex: -1,
		},
	})
	if err != nil {
		layout.Destroy(nil)
		return errors.Wrap(err, "create graphics pipeline")
	}

	p.Destroy()
	p.pipeline = pipelines[0]
	p.layout = layout

	p.instance.log.WithFields(logrus.Fields{
		"component":  "pipeline",
		"bindings":   len(input.bindings),
		"attributes": len(input.attributes),
	}).Debug("rebuilt graphics pipeline")
	return nil
}

func (p *GraphicsPipeline) Built() bool {
	return p.pipeline != nil
}

func (p *GraphicsPipeline) Destroy() {
	if p.pipeline != nil {
		p.pipeline.Destroy(nil)
		p.pipeline = nil
	}

	if p.layout != nil {
		p.layout.Destroy(nil)
		p.layout = nil
	}
}
