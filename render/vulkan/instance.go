package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/MalcolmParry/mwengine/render"
)

const engineName = "mwengine"

// VK_KHR_portability_enumeration has no binding in the extensions module yet.
const (
	portabilityEnumerationExtensionName                             = "VK_KHR_portability_enumeration"
	instanceCreateEnumeratePortability  core1_0.InstanceCreateFlags = 0x00000001
)

// SurfaceWindow is what the windowing layer hands the instance: a loader for
// the native API, the extensions its surface needs, and the surface itself.
type SurfaceWindow interface {
	render.Window
	Loader() (core.Loader, error)
	InstanceExtensions() []string
	CreateSurface(instance core1_0.Instance) (khr_surface.Surface, error)
}

// Instance owns the native context, the window surface and the logical
// device. Every other object in this package is created against an Instance
// and must be destroyed before it.
type Instance struct {
	window SurfaceWindow
	log    logrus.FieldLogger

	loader         core.Loader
	instance       core1_0.Instance
	debugMessenger ext_debug_utils.Messenger
	surface        khr_surface.Surface

	physicalDevices []*PhysicalDevice
	physicalDevice  *PhysicalDevice

	device        core1_0.Device
	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue
	commandPool   core1_0.CommandPool
	depthFormat   core1_0.Format
}

var _ render.Backend = (*Instance)(nil)

func CreateInstance(window SurfaceWindow, appName string, appVersion common.Version, debug bool, log logrus.FieldLogger) (*Instance, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	instance := &Instance{
		window: window,
		log:    log.WithField("component", "instance"),
	}

	err := instance.create(appName, appVersion, debug)
	if err != nil {
		instance.Destroy()
		return nil, err
	}

	return instance, nil
}

func (i *Instance) create(appName string, appVersion common.Version, debug bool) error {
	var err error
	i.loader, err = i.window.Loader()
	if err != nil {
		return errors.Wrap(err, "create loader")
	}

	options := core1_0.InstanceCreateInfo{
		ApplicationName:    appName,
		ApplicationVersion: appVersion,
		EngineName:         engineName,
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := i.loader.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}

	for _, ext := range i.window.InstanceExtensions() {
		if _, hasExt := extensions[ext]; !hasExt {
			return errors.Newf("create instance: window requires missing extension %s", ext)
		}
		options.EnabledExtensionNames = append(options.EnabledExtensionNames, ext)
	}

	if _, enumerationSupported := extensions[portabilityEnumerationExtensionName]; enumerationSupported {
		options.EnabledExtensionNames = append(options.EnabledExtensionNames, portabilityEnumerationExtensionName)
		options.Flags |= instanceCreateEnumeratePortability
	}

	if debug {
		_, hasDebugUtils := extensions[ext_debug_utils.ExtensionName]
		debug = i.enableValidation(&options, hasDebugUtils)
	}

	i.instance, _, err = i.loader.CreateInstance(nil, options)
	if err != nil {
		return errors.Wrap(err, "create instance")
	}

	if debug {
		debugLoader := ext_debug_utils.CreateExtensionFromInstance(i.instance)
		i.debugMessenger, _, err = debugLoader.CreateDebugUtilsMessenger(i.instance, nil, debugMessengerOptions(i.log))
		if err != nil {
			return errors.Wrap(err, "create debug messenger")
		}
	}

	i.surface, err = i.window.CreateSurface(i.instance)
	if err != nil {
		return errors.Wrap(err, "create window surface")
	}

	handles, _, err := i.instance.EnumeratePhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}

	for _, handle := range handles {
		device, err := newPhysicalDevice(handle, i.surface)
		if err != nil {
			return err
		}

		i.log.WithFields(logrus.Fields{
			"device":   device.Name(),
			"discrete": device.Discrete(),
			"score":    device.Score(),
		}).Debug("found physical device")
		i.physicalDevices = append(i.physicalDevices, device)
	}

	optimal := i.GetOptimalPhysicalDevice()
	if optimal == nil {
		return ErrNoPhysicalDevice
	}

	return i.SetPhysicalDevice(optimal)
}

// enableValidation adds the validation layer and debug messenger when the
// loader offers them. A missing layer is reported and skipped.
func (i *Instance) enableValidation(options *core1_0.InstanceCreateInfo, hasDebugUtils bool) bool {
	if !hasDebugUtils {
		i.log.Warnf("debug requested but %s is unavailable, continuing without validation", ext_debug_utils.ExtensionName)
		return false
	}

	layers, _, err := i.loader.AvailableLayers()
	if err != nil {
		i.log.WithError(err).Warn("could not enumerate layers, continuing without validation")
		return false
	}

	for _, layer := range validationLayers {
		if _, hasValidation := layers[layer]; !hasValidation {
			i.log.Warnf("validation layer %s not available, continuing without validation", layer)
			return false
		}
	}

	options.EnabledLayerNames = append(options.EnabledLayerNames, validationLayers...)
	options.EnabledExtensionNames = append(options.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	options.Next = debugMessengerOptions(i.log)
	return true
}

func (i *Instance) API() render.API {
	return render.APIVulkan
}

func (i *Instance) Name() string {
	if i.physicalDevice == nil {
		return "vulkan"
	}
	return "vulkan: " + i.physicalDevice.Name()
}

func (i *Instance) GetWindow() SurfaceWindow {
	return i.window
}

func (i *Instance) GetPhysicalDevices() []*PhysicalDevice {
	return i.physicalDevices
}

func (i *Instance) GetPhysicalDevice() *PhysicalDevice {
	return i.physicalDevice
}

func (i *Instance) GetOptimalPhysicalDevice() *PhysicalDevice {
	return optimalPhysicalDevice(i.physicalDevices)
}

// SetPhysicalDevice replaces the logical device and command pool. Every
// object created against the previous device must already be destroyed.
func (i *Instance) SetPhysicalDevice(device *PhysicalDevice) error {
	if device == nil {
		return ErrNoPhysicalDevice
	}

	i.destroyDevice()

	err := i.createDevice(device)
	if err != nil {
		i.destroyDevice()
		return err
	}

	i.log.WithFields(logrus.Fields{
		"device": device.Name(),
		"score":  device.Score(),
	}).Info("bound physical device")
	return nil
}

func (i *Instance) createDevice(physicalDevice *PhysicalDevice) error {
	graphicsFamily, presentFamily, err := physicalDevice.queueFamilies()
	if err != nil {
		return err
	}

	uniqueQueueFamilies := []int{graphicsFamily}
	if presentFamily != graphicsFamily {
		uniqueQueueFamilies = append(uniqueQueueFamilies, presentFamily)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{1.0},
		})
	}

	extensionNames := []string{khr_swapchain.ExtensionName}
	if physicalDevice.hasPortability {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	i.device, _, err = physicalDevice.handle.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: queueFamilyOptions,
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			SamplerAnisotropy: true,
			GeometryShader:    true,
		},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return errors.Wrapf(err, "create logical device on %s", physicalDevice.Name())
	}
	i.physicalDevice = physicalDevice

	i.graphicsQueue = i.device.GetQueue(graphicsFamily, 0)
	i.presentQueue = i.device.GetQueue(presentFamily, 0)

	i.commandPool, _, err = i.device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: &graphicsFamily,
	})
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}

	i.depthFormat, err = i.findSupportedFormat(
		[]core1_0.Format{core1_0.FormatD32SignedFloat, core1_0.FormatD32SignedFloatS8UnsignedInt, core1_0.FormatD24UnsignedNormalizedS8UnsignedInt},
		core1_0.ImageTilingOptimal,
		core1_0.FormatFeatureDepthStencilAttachment)
	return err
}

func (i *Instance) destroyDevice() {
	if i.commandPool != nil {
		i.commandPool.Destroy(nil)
		i.commandPool = nil
	}

	if i.device != nil {
		i.device.Destroy(nil)
		i.device = nil
	}

	i.graphicsQueue = nil
	i.presentQueue = nil
	i.physicalDevice = nil
}

func (i *Instance) WaitUntilIdle() error {
	if i.device == nil {
		return ErrNoDevice
	}

	_, err := i.device.WaitIdle()
	return errors.Wrap(err, "wait for device idle")
}

func (i *Instance) Destroy() {
	i.destroyDevice()

	if i.surface != nil {
		i.surface.Destroy(nil)
		i.surface = nil
	}

	if i.debugMessenger != nil {
		i.debugMessenger.Destroy(nil)
		i.debugMessenger = nil
	}

	if i.instance != nil {
		i.instance.Destroy(nil)
		i.instance = nil
	}
}
