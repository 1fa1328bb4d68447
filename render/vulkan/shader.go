package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/MalcolmParry/mwengine/render"
)

type Shader struct {
	module core1_0.ShaderModule
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = common.ByteOrder.Uint32(b[i*4:])
	}
	return byteCode
}

// NewShader hands compiled SPIR-V to the driver unchanged.
func NewShader(instance *Instance, code []byte) (*Shader, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Newf("create shader: code size %d is not a whole number of words", len(code))
	}
	if instance.device == nil {
		return nil, ErrNoDevice
	}

	module, _, err := instance.device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytesToBytecode(code),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create shader module")
	}

	return &Shader{module: module}, nil
}

func LoadShader(instance *Instance, path string) (*Shader, error) {
	code, err := render.LoadShaderFile(path)
	if err != nil {
		return nil, err
	}
	return NewShader(instance, code)
}

func (s *Shader) Destroy() {
	if s.module != nil {
		s.module.Destroy(nil)
		s.module = nil
	}
}

var shaderDataFormats = map[render.ShaderDataType]core1_0.Format{
	render.ShaderDataUInt8:     core1_0.FormatR8UnsignedInt,
	render.ShaderDataUInt16:    core1_0.FormatR16UnsignedInt,
	render.ShaderDataUInt32:    core1_0.FormatR32UnsignedInt,
	render.ShaderDataUIntVec2:  core1_0.FormatR32G32UnsignedInt,
	render.ShaderDataUIntVec3:  core1_0.FormatR32G32B32UnsignedInt,
	render.ShaderDataUIntVec4:  core1_0.FormatR32G32B32A32UnsignedInt,
	render.ShaderDataInt8:      core1_0.FormatR8SignedInt,
	render.ShaderDataInt16:     core1_0.FormatR16SignedInt,
	render.ShaderDataInt32:     core1_0.FormatR32SignedInt,
	render.ShaderDataIntVec2:   core1_0.FormatR32G32SignedInt,
	render.ShaderDataIntVec3:   core1_0.FormatR32G32B32SignedInt,
	render.ShaderDataIntVec4:   core1_0.FormatR32G32B32A32SignedInt,
	render.ShaderDataFloat:     core1_0.FormatR32SignedFloat,
	render.ShaderDataFloatVec2: core1_0.FormatR32G32SignedFloat,
	render.ShaderDataFloatVec3: core1_0.FormatR32G32B32SignedFloat,
	render.ShaderDataFloatVec4: core1_0.FormatR32G32B32A32SignedFloat,
}

func shaderDataFormat(t render.ShaderDataType) (core1_0.Format, error) {
	format, ok := shaderDataFormats[t]
	if !ok {
		return 0, errors.Wrapf(render.ErrInvalidAttribute, "%s has no vertex format", t)
	}
	return format, nil
}

func shaderStageFlags(stage render.ShaderStage) core1_0.ShaderStageFlags {
	var flags core1_0.ShaderStageFlags
	if stage&render.ShaderStageVertex != 0 {
		flags |= core1_0.StageVertex
	}
	if stage&render.ShaderStageFragment != 0 {
		flags |= core1_0.StageFragment
	}
	return flags
}
