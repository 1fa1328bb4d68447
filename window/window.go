// Package window provides an SDL2 window that can back a render instance.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"

	"github.com/MalcolmParry/mwengine/render"
	"github.com/MalcolmParry/mwengine/render/vulkan"
)

var _ vulkan.SurfaceWindow = (*SDLWindow)(nil)

// SDLWindow is a resizable Vulkan-capable SDL window. SDL must be driven
// from the thread that created it; callers lock the OS thread.
type SDLWindow struct {
	window *sdl.Window
	log    logrus.FieldLogger

	events   dispatcher
	closed   bool
	occluded bool
}

func New(title string, size render.UInt2, log logrus.FieldLogger) (*SDLWindow, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "init sdl")
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(size.X), int32(size.Y), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	w := &SDLWindow{window: window, log: log.WithField("component", "window")}
	w.log.WithFields(logrus.Fields{"title": title, "width": size.X, "height": size.Y}).Debug("window created")
	return w, nil
}

func (w *SDLWindow) Loader() (core.Loader, error) {
	loader, err := core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	return loader, errors.Wrap(err, "create loader from sdl")
}

func (w *SDLWindow) InstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

func (w *SDLWindow) CreateSurface(instance core1_0.Instance) (khr_surface.Surface, error) {
	surface, _, err := vkng_sdl2.CreateExtensionFromInstance(instance).CreateSurface(instance, w.window)
	return surface, errors.Wrap(err, "create sdl surface")
}

// GetClientSize returns the drawable size in pixels, which differs from the
// window size on high-DPI displays.
func (w *SDLWindow) GetClientSize() render.UInt2 {
	width, height := w.window.VulkanGetDrawableSize()
	if width < 0 || height < 0 {
		return render.UInt2{}
	}
	return render.UInt2{X: uint32(width), Y: uint32(height)}
}

func (w *SDLWindow) SetTitle(title string) {
	w.window.SetTitle(title)
}

// SetCallback registers the function that receives events from PollEvents.
// ctx is handed back on every call.
func (w *SDLWindow) SetCallback(ctx any, callback Callback) {
	w.events = dispatcher{ctx: ctx, callback: callback}
}

// PollEvents drains the SDL queue and dispatches everything to the callback.
func (w *SDLWindow) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		events := translate(event, w.GetClientSize)
		for _, e := range events {
			switch e := e.(type) {
			case WindowClosed:
				w.closed = true
			case WindowResize:
				w.occluded = e.Size.IsZero()
			}
		}
		w.events.dispatch(events)
	}
}

func (w *SDLWindow) ShouldClose() bool {
	return w.closed
}

// Minimized reports whether the window currently has no drawable area.
func (w *SDLWindow) Minimized() bool {
	return w.occluded || w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0
}

func (w *SDLWindow) Destroy() {
	if w.window != nil {
		if err := w.window.Destroy(); err != nil {
			w.log.WithError(err).Warn("destroy window")
		}
		w.window = nil
		sdl.Quit()
	}
}
