package vulkan

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/MalcolmParry/mwengine/render"
)

func TestBytesToBytecode(t *testing.T) {
	c := qt.New(t)

	code := bytesToBytecode([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	c.Assert(code, qt.DeepEquals, []uint32{0x07230203, 0x00010000})
}

func TestShaderDataFormats(t *testing.T) {
	c := qt.New(t)

	for dataType := render.ShaderDataUInt8; dataType <= render.ShaderDataFloatVec4; dataType++ {
		_, err := shaderDataFormat(dataType)
		c.Assert(err, qt.IsNil, qt.Commentf("%s", dataType))
	}

	_, err := shaderDataFormat(render.ShaderDataImageSampler)
	c.Assert(err, qt.ErrorIs, render.ErrInvalidAttribute)
	_, err = shaderDataFormat(render.ShaderDataFloatMat4)
	c.Assert(err, qt.ErrorIs, render.ErrInvalidAttribute)
}

func TestShaderStageFlags(t *testing.T) {
	c := qt.New(t)

	c.Assert(shaderStageFlags(render.ShaderStageVertex), qt.Equals, core1_0.StageVertex)
	c.Assert(shaderStageFlags(render.ShaderStageBoth), qt.Equals, core1_0.StageVertex|core1_0.StageFragment)
}

func TestNewShaderRejectsMisalignedCode(t *testing.T) {
	c := qt.New(t)

	_, err := NewShader(&Instance{}, []byte{1, 2, 3})
	c.Assert(err, qt.ErrorMatches, ".*not a whole number of words")
}
