package render

import "github.com/cockroachdb/errors"

// ShaderDataType tags one attribute of a vertex or instance specification.
type ShaderDataType uint8

const (
	ShaderDataUInt8 ShaderDataType = iota
	ShaderDataUInt16
	ShaderDataUInt32
	ShaderDataUIntVec2
	ShaderDataUIntVec3
	ShaderDataUIntVec4
	ShaderDataInt8
	ShaderDataInt16
	ShaderDataInt32
	ShaderDataIntVec2
	ShaderDataIntVec3
	ShaderDataIntVec4
	ShaderDataFloat
	ShaderDataFloatVec2
	ShaderDataFloatVec3
	ShaderDataFloatVec4
	ShaderDataImageSampler

	// ShaderDataFloatMat4 is composite: it occupies four consecutive vec4 slots.
	ShaderDataFloatMat4
)

var ErrInvalidAttribute = errors.New("render: shader data type cannot be used as a vertex attribute")

var shaderDataTypeSizes = [...]uint32{
	ShaderDataUInt8:     1,
	ShaderDataUInt16:    2,
	ShaderDataUInt32:    4,
	ShaderDataUIntVec2:  8,
	ShaderDataUIntVec3:  12,
	ShaderDataUIntVec4:  16,
	ShaderDataInt8:      1,
	ShaderDataInt16:     2,
	ShaderDataInt32:     4,
	ShaderDataIntVec2:   8,
	ShaderDataIntVec3:   12,
	ShaderDataIntVec4:   16,
	ShaderDataFloat:     4,
	ShaderDataFloatVec2: 8,
	ShaderDataFloatVec3: 12,
	ShaderDataFloatVec4: 16,
	ShaderDataFloatMat4: 64,
}

var shaderDataTypeNames = [...]string{
	ShaderDataUInt8:        "uint8",
	ShaderDataUInt16:       "uint16",
	ShaderDataUInt32:       "uint32",
	ShaderDataUIntVec2:     "uvec2",
	ShaderDataUIntVec3:     "uvec3",
	ShaderDataUIntVec4:     "uvec4",
	ShaderDataInt8:         "int8",
	ShaderDataInt16:        "int16",
	ShaderDataInt32:        "int32",
	ShaderDataIntVec2:      "ivec2",
	ShaderDataIntVec3:      "ivec3",
	ShaderDataIntVec4:      "ivec4",
	ShaderDataFloat:        "float",
	ShaderDataFloatVec2:    "vec2",
	ShaderDataFloatVec3:    "vec3",
	ShaderDataFloatVec4:    "vec4",
	ShaderDataImageSampler: "sampler2D",
	ShaderDataFloatMat4:    "mat4",
}

func (t ShaderDataType) String() string {
	if int(t) < len(shaderDataTypeNames) {
		return shaderDataTypeNames[t]
	}
	return "unknown"
}

// IsAttribute reports whether t can appear in a vertex or instance specification.
func (t ShaderDataType) IsAttribute() bool {
	return t <= ShaderDataFloatMat4 && t != ShaderDataImageSampler
}

// Size is the byte size of t as laid out in a vertex or instance buffer.
func (t ShaderDataType) Size() uint32 {
	if !t.IsAttribute() {
		return 0
	}
	return shaderDataTypeSizes[t]
}

// Slots is the number of attribute locations t occupies.
func (t ShaderDataType) Slots() uint32 {
	if t == ShaderDataFloatMat4 {
		return 4
	}
	return 1
}

// Unpack expands composite types into the primitive slots the pipeline binds.
func Unpack(types []ShaderDataType) ([]ShaderDataType, error) {
	count := 0
	for _, t := range types {
		if !t.IsAttribute() {
			return nil, errors.Wrapf(ErrInvalidAttribute, "%s", t)
		}
		count += int(t.Slots())
	}

	unpacked := make([]ShaderDataType, 0, count)
	for _, t := range types {
		if t == ShaderDataFloatMat4 {
			unpacked = append(unpacked, ShaderDataFloatVec4, ShaderDataFloatVec4, ShaderDataFloatVec4, ShaderDataFloatVec4)
			continue
		}
		unpacked = append(unpacked, t)
	}

	return unpacked, nil
}

// Stride sums the sizes of types in declaration order.
func Stride(types []ShaderDataType) uint32 {
	var stride uint32
	for _, t := range types {
		stride += t.Size()
	}
	return stride
}
