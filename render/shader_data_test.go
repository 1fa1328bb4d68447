package render_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/MalcolmParry/mwengine/render"
)

func TestUnpackMatrix(t *testing.T) {
	c := qt.New(t)

	spec := []render.ShaderDataType{render.ShaderDataFloatVec3, render.ShaderDataFloatMat4}
	unpacked, err := render.Unpack(spec)
	c.Assert(err, qt.IsNil)
	c.Assert(unpacked, qt.HasLen, len(spec)+3)
	c.Assert(unpacked[0], qt.Equals, render.ShaderDataFloatVec3)

	var matrixBytes uint32
	for _, t := range unpacked[1:] {
		c.Assert(t, qt.Equals, render.ShaderDataFloatVec4)
		matrixBytes += t.Size()
	}
	c.Assert(matrixBytes, qt.Equals, uint32(64))
	c.Assert(render.Stride(unpacked), qt.Equals, render.Stride(spec))
}

func TestUnpackRejectsSampler(t *testing.T) {
	c := qt.New(t)

	_, err := render.Unpack([]render.ShaderDataType{render.ShaderDataFloat, render.ShaderDataImageSampler})
	c.Assert(err, qt.ErrorIs, render.ErrInvalidAttribute)
}

func TestShaderDataTypeSizes(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		t    render.ShaderDataType
		size uint32
	}{
		{render.ShaderDataUInt8, 1},
		{render.ShaderDataInt16, 2},
		{render.ShaderDataUIntVec3, 12},
		{render.ShaderDataIntVec4, 16},
		{render.ShaderDataFloatVec2, 8},
		{render.ShaderDataFloatMat4, 64},
		{render.ShaderDataImageSampler, 0},
	}
	for _, test := range tests {
		c.Run(test.t.String(), func(c *qt.C) {
			c.Assert(test.t.Size(), qt.Equals, test.size)
		})
	}
}
