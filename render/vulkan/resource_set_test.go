package vulkan

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/MalcolmParry/mwengine/render"
)

var testLayout = []render.BindingDescriptor{
	{Stage: render.ShaderStageVertex, Type: render.ResourceTypeUniformBuffer, Binding: 0, Count: 1},
	{Stage: render.ShaderStageFragment, Type: render.ResourceTypeImage, Binding: 1, Count: 2},
}

func TestPlanWritesImplicitBindings(t *testing.T) {
	c := qt.New(t)

	uniforms := BufferRegion{Buffer: &Buffer{size: 64}, Size: 64}
	textures := []*Texture{{}, {}}

	planned, err := planWrites(testLayout, []WriteResource{
		UniformBuffers(render.ImplicitBinding, uniforms),
		Textures(render.ImplicitBinding, textures...),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(planned, qt.HasLen, 2)
	c.Assert(planned[0].binding, qt.Equals, uint32(0))
	c.Assert(planned[1].binding, qt.Equals, uint32(1))
	c.Assert(planned[1].write.Textures, qt.HasLen, 2)
}

func TestPlanWritesLastWriteWins(t *testing.T) {
	c := qt.New(t)

	first := BufferRegion{Buffer: &Buffer{size: 64}, Size: 64}
	second := BufferRegion{Buffer: &Buffer{size: 128}, Size: 128}

	planned, err := planWrites(testLayout, []WriteResource{
		UniformBuffers(0, first),
		UniformBuffers(0, second),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(planned, qt.HasLen, 1)
	c.Assert(planned[0].write.Buffers[0], qt.Equals, second)
}

func TestPlanWritesValidation(t *testing.T) {
	c := qt.New(t)

	region := BufferRegion{Buffer: &Buffer{size: 64}, Size: 64}
	tests := []struct {
		name   string
		writes []WriteResource
	}{
		{"unknown binding", []WriteResource{UniformBuffers(7, region)}},
		{"kind mismatch", []WriteResource{Textures(0, &Texture{})}},
		{"too few", []WriteResource{Textures(1, &Texture{})}},
		{"too many", []WriteResource{UniformBuffers(0, region, region)}},
		{"stray buffers", []WriteResource{{Binding: 1, Type: render.ResourceTypeImage, Buffers: []BufferRegion{region}, Textures: []*Texture{{}, {}}}}},
		{"empty region", []WriteResource{UniformBuffers(0, BufferRegion{})}},
		{"nil texture", []WriteResource{Textures(1, &Texture{}, nil)}},
		{"negative binding", []WriteResource{UniformBuffers(-4, region)}},
	}

	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			_, err := planWrites(testLayout, test.writes)
			c.Assert(err, qt.ErrorIs, ErrBindingMismatch)
		})
	}
}

func TestLayoutBindings(t *testing.T) {
	c := qt.New(t)

	bindings, err := layoutBindings(testLayout)
	c.Assert(err, qt.IsNil)
	c.Assert(bindings, qt.DeepEquals, []core1_0.DescriptorSetLayoutBinding{
		{Binding: 0, DescriptorType: core1_0.DescriptorTypeUniformBuffer, DescriptorCount: 1, StageFlags: core1_0.StageVertex},
		{Binding: 1, DescriptorType: core1_0.DescriptorTypeCombinedImageSampler, DescriptorCount: 2, StageFlags: core1_0.StageFragment},
	})

	_, err = layoutBindings(append(testLayout, testLayout[0]))
	c.Assert(err, qt.ErrorMatches, "resource layout: binding 0 declared twice")

	_, err = layoutBindings([]render.BindingDescriptor{{Stage: render.ShaderStageBoth, Binding: 0}})
	c.Assert(err, qt.ErrorMatches, ".*zero count")
}

func TestPoolSizes(t *testing.T) {
	c := qt.New(t)

	sizes := poolSizes(append(testLayout, render.BindingDescriptor{
		Stage: render.ShaderStageBoth, Type: render.ResourceTypeUniformBuffer, Binding: 2, Count: 3,
	}))
	c.Assert(sizes, qt.DeepEquals, []core1_0.DescriptorPoolSize{
		{Type: core1_0.DescriptorTypeUniformBuffer, DescriptorCount: 4},
		{Type: core1_0.DescriptorTypeCombinedImageSampler, DescriptorCount: 2},
	})
}
