package vulkan

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/MalcolmParry/mwengine/render"
)

func descriptorType(t render.ResourceType) core1_0.DescriptorType {
	if t == render.ResourceTypeImage {
		return core1_0.DescriptorTypeCombinedImageSampler
	}
	return core1_0.DescriptorTypeUniformBuffer
}

// ResourceLayout is the schema a ResourceSet and a GraphicsPipeline agree on.
type ResourceLayout struct {
	instance    *Instance
	handle      core1_0.DescriptorSetLayout
	descriptors []render.BindingDescriptor
}

func layoutBindings(descriptors []render.BindingDescriptor) ([]core1_0.DescriptorSetLayoutBinding, error) {
	seen := map[uint32]bool{}
	bindings := make([]core1_0.DescriptorSetLayoutBinding, 0, len(descriptors))

	for _, descriptor := range descriptors {
		if seen[descriptor.Binding] {
			return nil, errors.Newf("resource layout: binding %d declared twice", descriptor.Binding)
		}
		if descriptor.Count == 0 {
			return nil, errors.Newf("resource layout: binding %d has zero count", descriptor.Binding)
		}
		if descriptor.Stage&render.ShaderStageBoth == 0 {
			return nil, errors.Newf("resource layout: binding %d has no shader stage", descriptor.Binding)
		}
		seen[descriptor.Binding] = true

		bindings = append(bindings, core1_0.DescriptorSetLayoutBinding{
			Binding:         int(descriptor.Binding),
			DescriptorType:  descriptorType(descriptor.Type),
			DescriptorCount: int(descriptor.Count),

			StageFlags: shaderStageFlags(descriptor.Stage),
		})
	}

	return bindings, nil
}

func NewResourceLayout(instance *Instance, descriptors []render.BindingDescriptor) (*ResourceLayout, error) {
	if instance.device == nil {
		return nil, ErrNoDevice
	}

	bindings, err := layoutBindings(descriptors)
	if err != nil {
		return nil, err
	}

	handle, _, err := instance.device.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: bindings,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor set layout")
	}

	return &ResourceLayout{
		instance:    instance,
		handle:      handle,
		descriptors: append([]render.BindingDescriptor(nil), descriptors...),
	}, nil
}

func (l *ResourceLayout) GetDescriptors() []render.BindingDescriptor {
	return l.descriptors
}

func (l *ResourceLayout) descriptor(binding uint32) (render.BindingDescriptor, bool) {
	for _, descriptor := range l.descriptors {
		if descriptor.Binding == binding {
			return descriptor, true
		}
	}
	return render.BindingDescriptor{}, false
}

func (l *ResourceLayout) Destroy() {
	if l.handle != nil {
		l.handle.Destroy(nil)
		l.handle = nil
	}
}

func poolSizes(descriptors []render.BindingDescriptor) []core1_0.DescriptorPoolSize {
	counts := map[render.ResourceType]int{}
	for _, descriptor := range descriptors {
		counts[descriptor.Type] += int(descriptor.Count)
	}

	var sizes []core1_0.DescriptorPoolSize
	for _, t := range []render.ResourceType{render.ResourceTypeUniformBuffer, render.ResourceTypeImage} {
		if counts[t] > 0 {
			sizes = append(sizes, core1_0.DescriptorPoolSize{
				Type:            descriptorType(t),
				DescriptorCount: counts[t],
			})
		}
	}
	return sizes
}

// ResourceSet is one descriptor set allocated against a ResourceLayout from
// a pool it owns.
type ResourceSet struct {
	layout *ResourceLayout
	pool   core1_0.DescriptorPool
	set    core1_0.DescriptorSet
}

func NewResourceSet(layout *ResourceLayout) (*ResourceSet, error) {
	device := layout.instance.device
	if device == nil {
		return nil, ErrNoDevice
	}

	pool, _, err := device.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets:   1,
		PoolSizes: poolSizes(layout.descriptors),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor pool")
	}

	sets, _, err := device.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: pool,
		SetLayouts:     []core1_0.DescriptorSetLayout{layout.handle},
	})
	if err != nil {
		pool.Destroy(nil)
		return nil, errors.Wrap(err, "allocate descriptor set")
	}

	return &ResourceSet{layout: layout, pool: pool, set: sets[0]}, nil
}

func (s *ResourceSet) GetLayout() *ResourceLayout {
	return s.layout
}

// WriteResource points one binding at an ordered list of buffers or textures.
type WriteResource struct {
	Binding  int
	Type     render.ResourceType
	Buffers  []BufferRegion
	Textures []*Texture
}

func UniformBuffers(binding int, regions ...BufferRegion) WriteResource {
	return WriteResource{Binding: binding, Type: render.ResourceTypeUniformBuffer, Buffers: regions}
}

func Textures(binding int, textures ...*Texture) WriteResource {
	return WriteResource{Binding: binding, Type: render.ResourceTypeImage, Textures: textures}
}

type plannedWrite struct {
	binding uint32
	write   WriteResource
}

// planWrites checks every write against the layout before anything touches
// the device. Later writes to the same binding replace earlier ones.
func planWrites(layout []render.BindingDescriptor, writes []WriteResource) ([]plannedWrite, error) {
	declared := map[uint32]render.BindingDescriptor{}
	for _, descriptor := range layout {
		declared[descriptor.Binding] = descriptor
	}

	latest := map[uint32]WriteResource{}
	for index, write := range writes {
		binding := write.Binding
		if binding == render.ImplicitBinding {
			binding = index
		}
		if binding < 0 {
			return nil, errors.Wrapf(ErrBindingMismatch, "write %d: invalid binding %d", index, binding)
		}

		descriptor, ok := declared[uint32(binding)]
		if !ok {
			return nil, errors.Wrapf(ErrBindingMismatch, "write %d: binding %d not in layout", index, binding)
		}
		if descriptor.Type != write.Type {
			return nil, errors.Wrapf(ErrBindingMismatch, "write %d: binding %d holds %s, got %s", index, binding, descriptor.Type, write.Type)
		}

		count := len(write.Buffers)
		stray := len(write.Textures)
		if write.Type == render.ResourceTypeImage {
			count, stray = stray, count
		}
		if stray != 0 {
			return nil, errors.Wrapf(ErrBindingMismatch, "write %d: %s binding %d given resources of another kind", index, write.Type, binding)
		}
		if count != int(descriptor.Count) {
			return nil, errors.Wrapf(ErrBindingMismatch, "write %d: binding %d expects %d resources, got %d", index, binding, descriptor.Count, count)
		}

		for _, region := range write.Buffers {
			if region.IsZero() {
				return nil, errors.Wrapf(ErrBindingMismatch, "write %d: empty buffer region", index)
			}
		}
		for _, texture := range write.Textures {
			if texture == nil {
				return nil, errors.Wrapf(ErrBindingMismatch, "write %d: nil texture", index)
			}
		}

		latest[uint32(binding)] = write
	}

	planned := make([]plannedWrite, 0, len(latest))
	for binding, write := range latest {
		planned = append(planned, plannedWrite{binding: binding, write: write})
	}
	sort.Slice(planned, func(i, j int) bool { return planned[i].binding < planned[j].binding })

	return planned, nil
}

// Write applies all writes as a single descriptor update. Nothing is
// written if any entry fails validation.
func (s *ResourceSet) Write(writes ...WriteResource) error {
	planned, err := planWrites(s.layout.descriptors, writes)
	if err != nil {
		return err
	}

	updates := make([]core1_0.WriteDescriptorSet, 0, len(planned))
	for _, plan := range planned {
		update := core1_0.WriteDescriptorSet{
			DstSet:          s.set,
			DstBinding:      int(plan.binding),
			DstArrayElement: 0,

			DescriptorType: descriptorType(plan.write.Type),
		}

		for _, region := range plan.write.Buffers {
			update.BufferInfo = append(update.BufferInfo, core1_0.DescriptorBufferInfo{
				Buffer: region.Buffer.buffer,
				Offset: region.Offset,
				Range:  region.Size,
			})
		}

		for _, texture := range plan.write.Textures {
			update.ImageInfo = append(update.ImageInfo, core1_0.DescriptorImageInfo{
				ImageView:   texture.image.view,
				Sampler:     texture.sampler,
				ImageLayout: core1_0.ImageLayoutShaderReadOnlyOptimal,
			})
		}

		updates = append(updates, update)
	}

	err = s.layout.instance.device.UpdateDescriptorSets(updates, nil)
	return errors.Wrap(err, "update descriptor set")
}

func (s *ResourceSet) Destroy() {
	if s.pool != nil {
		s.pool.Destroy(nil)
		s.pool = nil
		s.set = nil
	}
}
