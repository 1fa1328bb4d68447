package render

import "math"

// NoImage is returned by framebuffer acquisition when no presentable image is available.
const NoImage uint32 = math.MaxUint32

// ImplicitBinding makes a resource write target the binding equal to its position in the write list.
const ImplicitBinding = -1

type UInt2 struct {
	X, Y uint32
}

func (u UInt2) Area() uint64 {
	return uint64(u.X) * uint64(u.Y)
}

func (u UInt2) IsZero() bool {
	return u.X == 0 || u.Y == 0
}

// Window is the only thing the render core needs from the windowing layer.
type Window interface {
	GetClientSize() UInt2
}

type ShaderStage uint8

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment

	ShaderStageBoth = ShaderStageVertex | ShaderStageFragment
)

type ResourceType uint8

const (
	ResourceTypeUniformBuffer ResourceType = iota
	ResourceTypeImage
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeUniformBuffer:
		return "uniform buffer"
	case ResourceTypeImage:
		return "image"
	default:
		return "unknown resource"
	}
}

type BindingDescriptor struct {
	Stage   ShaderStage
	Type    ResourceType
	Binding uint32
	Count   uint32
}

type CullingMode uint8

const (
	CullingModeNone  CullingMode = 0
	CullingModeFront CullingMode = 1 << 0
	CullingModeBack  CullingMode = 1 << 1

	CullingModeFrontAndBack = CullingModeFront | CullingModeBack
)

type BufferUsage uint8

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform

	BufferUsageInstance = BufferUsageVertex
	BufferUsageAll      = BufferUsage(0xFF)
)
