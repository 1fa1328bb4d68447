package window

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/MalcolmParry/mwengine/render"
)

func fixedSize(size render.UInt2) func() render.UInt2 {
	return func() render.UInt2 { return size }
}

func TestTranslateWindowEvents(t *testing.T) {
	c := qt.New(t)
	drawable := fixedSize(render.UInt2{X: 1600, Y: 1200})

	c.Assert(translate(&sdl.QuitEvent{}, drawable), qt.DeepEquals, []Event{WindowClosed{}})
	c.Assert(translate(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MOVED, Data1: -20, Data2: 40}, drawable),
		qt.DeepEquals, []Event{WindowMoved{Position: Int2{X: -20, Y: 40}}})
	c.Assert(translate(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_SIZE_CHANGED, Data1: 800, Data2: 600}, drawable),
		qt.DeepEquals, []Event{WindowResize{Size: render.UInt2{X: 1600, Y: 1200}}})
	c.Assert(translate(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MINIMIZED}, drawable),
		qt.DeepEquals, []Event{WindowResize{}})
	c.Assert(translate(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_FOCUS_LOST}, drawable),
		qt.DeepEquals, []Event{WindowLostFocus{}})
	c.Assert(translate(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_EXPOSED}, drawable), qt.HasLen, 0)
}

func TestTranslateInputEvents(t *testing.T) {
	c := qt.New(t)
	drawable := fixedSize(render.UInt2{})

	down := &sdl.KeyboardEvent{State: sdl.PRESSED, Repeat: 1, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}}
	c.Assert(translate(down, drawable), qt.DeepEquals, []Event{KeyDown{Key: sdl.K_ESCAPE, Repeat: true}})

	up := &sdl.KeyboardEvent{State: sdl.RELEASED, Keysym: sdl.Keysym{Sym: sdl.K_a}}
	c.Assert(translate(up, drawable), qt.DeepEquals, []Event{KeyUp{Key: sdl.K_a}})

	click := &sdl.MouseButtonEvent{State: sdl.PRESSED, Button: sdl.BUTTON_LEFT}
	c.Assert(translate(click, drawable), qt.DeepEquals, []Event{MouseDown{Button: sdl.BUTTON_LEFT}})

	motion := &sdl.MouseMotionEvent{X: 10, Y: 20, XRel: -3, YRel: 4}
	c.Assert(translate(motion, drawable), qt.DeepEquals, []Event{
		MouseMoved{Position: Float2{X: 10, Y: 20}},
		RawMouseMoved{Delta: Int2{X: -3, Y: 4}},
	})
}

func TestCategories(t *testing.T) {
	c := qt.New(t)

	c.Assert(InCategory(KeyDown{}, CategoryInput|CategoryKeyboard), qt.IsTrue)
	c.Assert(InCategory(KeyDown{}, CategoryMouse), qt.IsFalse)
	c.Assert(InCategory(WindowResize{}, CategoryWindow), qt.IsTrue)
	c.Assert(InCategory(RawMouseMoved{}, CategoryInput), qt.IsTrue)
	c.Assert(EventRawMouseMoved.String(), qt.Equals, "RawMouseMoved")
}

func TestDispatchPassesContext(t *testing.T) {
	c := qt.New(t)

	type app struct {
		seen []EventType
	}
	state := &app{}

	d := dispatcher{ctx: state, callback: func(ctx any, e Event) {
		a := ctx.(*app)
		a.seen = append(a.seen, e.Type())
	}}
	d.dispatch([]Event{WindowFocus{}, Char{Char: 'x'}})

	c.Assert(state.seen, qt.DeepEquals, []EventType{EventWindowFocus, EventChar})

	var empty dispatcher
	empty.dispatch([]Event{WindowClosed{}})
}
