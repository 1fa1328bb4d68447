package window

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/MalcolmParry/mwengine/render"
)

type EventType uint8

const (
	EventWindowClosed EventType = iota
	EventWindowMoved
	EventWindowResize
	EventWindowFocus
	EventWindowLostFocus
	EventKeyDown
	EventKeyUp
	EventChar
	EventMouseDown
	EventMouseUp
	EventMouseMoved
	EventRawMouseMoved
)

var eventTypeNames = [...]string{
	EventWindowClosed:    "WindowClosed",
	EventWindowMoved:     "WindowMoved",
	EventWindowResize:    "WindowResize",
	EventWindowFocus:     "WindowFocus",
	EventWindowLostFocus: "WindowLostFocus",
	EventKeyDown:         "KeyDown",
	EventKeyUp:           "KeyUp",
	EventChar:            "Char",
	EventMouseDown:       "MouseDown",
	EventMouseUp:         "MouseUp",
	EventMouseMoved:      "MouseMoved",
	EventRawMouseMoved:   "RawMouseMoved",
}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return fmt.Sprintf("EventType(%d)", uint8(t))
}

type EventCategory uint8

const (
	CategoryWindow EventCategory = 1 << iota
	CategoryInput
	CategoryKeyboard
	CategoryMouse
)

// Event is anything the window reports to its callback.
type Event interface {
	Type() EventType
	Categories() EventCategory
}

// InCategory reports whether e belongs to every category in c.
func InCategory(e Event, c EventCategory) bool {
	return e.Categories()&c == c
}

// Int2 is a signed pair. Window positions and relative mouse motion can be
// negative.
type Int2 struct {
	X, Y int32
}

type Float2 struct {
	X, Y float32
}

type WindowClosed struct{}

func (WindowClosed) Type() EventType           { return EventWindowClosed }
func (WindowClosed) Categories() EventCategory { return CategoryWindow }

type WindowMoved struct {
	Position Int2
}

func (WindowMoved) Type() EventType           { return EventWindowMoved }
func (WindowMoved) Categories() EventCategory { return CategoryWindow }

// WindowResize carries the new drawable size. A zero size means the window
// was minimized.
type WindowResize struct {
	Size render.UInt2
}

func (WindowResize) Type() EventType           { return EventWindowResize }
func (WindowResize) Categories() EventCategory { return CategoryWindow }

type WindowFocus struct{}

func (WindowFocus) Type() EventType           { return EventWindowFocus }
func (WindowFocus) Categories() EventCategory { return CategoryWindow }

type WindowLostFocus struct{}

func (WindowLostFocus) Type() EventType           { return EventWindowLostFocus }
func (WindowLostFocus) Categories() EventCategory { return CategoryWindow }

type KeyDown struct {
	Key    sdl.Keycode
	Repeat bool
}

func (KeyDown) Type() EventType           { return EventKeyDown }
func (KeyDown) Categories() EventCategory { return CategoryInput | CategoryKeyboard }

type KeyUp struct {
	Key sdl.Keycode
}

func (KeyUp) Type() EventType           { return EventKeyUp }
func (KeyUp) Categories() EventCategory { return CategoryInput | CategoryKeyboard }

type Char struct {
	Char rune
}

func (Char) Type() EventType           { return EventChar }
func (Char) Categories() EventCategory { return CategoryInput | CategoryKeyboard }

type MouseDown struct {
	Button uint8
}

func (MouseDown) Type() EventType           { return EventMouseDown }
func (MouseDown) Categories() EventCategory { return CategoryInput | CategoryMouse }

type MouseUp struct {
	Button uint8
}

func (MouseUp) Type() EventType           { return EventMouseUp }
func (MouseUp) Categories() EventCategory { return CategoryInput | CategoryMouse }

type MouseMoved struct {
	Position Float2
}

func (MouseMoved) Type() EventType           { return EventMouseMoved }
func (MouseMoved) Categories() EventCategory { return CategoryInput | CategoryMouse }

type RawMouseMoved struct {
	Delta Int2
}

func (RawMouseMoved) Type() EventType           { return EventRawMouseMoved }
func (RawMouseMoved) Categories() EventCategory { return CategoryInput | CategoryMouse }

// translate turns one SDL event into zero or more window events. drawable
// reports the current drawable size for events that don't carry one.
func translate(event sdl.Event, drawable func() render.UInt2) []Event {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return []Event{WindowClosed{}}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			return []Event{WindowClosed{}}
		case sdl.WINDOWEVENT_MOVED:
			return []Event{WindowMoved{Position: Int2{X: e.Data1, Y: e.Data2}}}
		case sdl.WINDOWEVENT_MINIMIZED:
			return []Event{WindowResize{}}
		case sdl.WINDOWEVENT_RESTORED, sdl.WINDOWEVENT_SIZE_CHANGED:
			return []Event{WindowResize{Size: drawable()}}
		case sdl.WINDOWEVENT_FOCUS_GAINED:
			return []Event{WindowFocus{}}
		case sdl.WINDOWEVENT_FOCUS_LOST:
			return []Event{WindowLostFocus{}}
		}
	case *sdl.KeyboardEvent:
		if e.State == sdl.PRESSED {
			return []Event{KeyDown{Key: e.Keysym.Sym, Repeat: e.Repeat != 0}}
		}
		return []Event{KeyUp{Key: e.Keysym.Sym}}
	case *sdl.TextInputEvent:
		var events []Event
		for _, r := range e.GetText() {
			events = append(events, Char{Char: r})
		}
		return events
	case *sdl.MouseButtonEvent:
		if e.State == sdl.PRESSED {
			return []Event{MouseDown{Button: e.Button}}
		}
		return []Event{MouseUp{Button: e.Button}}
	case *sdl.MouseMotionEvent:
		return []Event{
			MouseMoved{Position: Float2{X: float32(e.X), Y: float32(e.Y)}},
			RawMouseMoved{Delta: Int2{X: e.XRel, Y: e.YRel}},
		}
	}

	return nil
}

// Callback receives every event along with the context value registered
// next to it.
type Callback func(ctx any, e Event)

type dispatcher struct {
	ctx      any
	callback Callback
}

func (d *dispatcher) dispatch(events []Event) {
	if d.callback == nil {
		return
	}
	for _, e := range events {
		d.callback(d.ctx, e)
	}
}
