// Package router decides where captured keyboard and mouse input goes: to
// the local master, or serialized and forwarded to whichever client screen
// currently has the cursor. It consults pkg/layout for edge-crossing
// decisions and pkg/hid for modifier bookkeeping and VK translation, and
// depends only on the Transmitter and CursorController interfaces so it can
// be exercised without any real OS hook or network connection.
package router

import (
	"context"
	"sync"
	"time"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/hid"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/layout"
	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/protocol"
)

// TransitionDebounce is the minimum interval between edge-transition fires.
// Without it, the cursor can bounce between master and client: the
// transition fires, the physical cursor is teleported back onto the master
// screen, and before the next input event arrives the cursor is still
// sitting at the edge, firing the transition again immediately.
const TransitionDebounce = 50 * time.Millisecond

// Transmitter delivers translated input messages to a specific client.
// Implementations own the actual network transport; the router only knows
// about client IDs and protocol messages.
type Transmitter interface {
	SendKeyEvent(ctx context.Context, clientID layout.ClientID, event protocol.KeyEventMessage) error
	SendMouseMove(ctx context.Context, clientID layout.ClientID, event protocol.MouseMoveMessage) error
	SendMouseButton(ctx context.Context, clientID layout.ClientID, event protocol.MouseButtonMessage) error
	SendMouseScroll(ctx context.Context, clientID layout.ClientID, event protocol.MouseScrollMessage) error
}

// CursorController moves and reads the position of the physical cursor on
// the master machine. The router uses it to teleport the cursor back onto
// the master screen the instant a transition hands control to a client, so
// the cursor never strays off the edge it just crossed.
type CursorController interface {
	TeleportCursor(x, y int32)
	GetCursorPos() (int32, int32)
}

// RawMouseButton identifies a physical mouse button as reported by the
// capture layer, independent of the wire protocol's MouseButtonID.
type RawMouseButton uint8

const (
	RawButtonLeft RawMouseButton = iota
	RawButtonRight
	RawButtonMiddle
	RawButtonX1
	RawButtonX2
)

// RawEventKind discriminates the variants of RawEvent.
type RawEventKind uint8

const (
	RawKeyDown RawEventKind = iota
	RawKeyUp
	RawMouseMove
	RawMouseButtonDown
	RawMouseButtonUp
	RawMouseWheel
	RawMouseWheelH
)

// RawEvent is a single input event as delivered by the capture layer,
// before any HID translation or routing decision has been made.
type RawEvent struct {
	Kind RawEventKind

	// Keyboard fields (RawKeyDown / RawKeyUp).
	VKCode   uint8
	ScanCode uint16

	// Mouse fields. X/Y are absolute virtual-space coordinates.
	X, Y int32

	// RawMouseButtonDown / RawMouseButtonUp.
	Button RawMouseButton

	// RawMouseWheel (vertical) / RawMouseWheelH (horizontal) delta.
	WheelDelta int16
}

// ActiveTarget names the screen currently receiving keyboard/mouse input.
type ActiveTarget struct {
	IsMaster bool
	ClientID layout.ClientID
}

// TargetMaster is the sentinel ActiveTarget meaning input stays local.
var TargetMaster = ActiveTarget{IsMaster: true}

// TargetClient builds the ActiveTarget that routes input to id.
func TargetClient(id layout.ClientID) ActiveTarget {
	return ActiveTarget{ClientID: id}
}

func (t ActiveTarget) screenID() layout.ScreenID {
	if t.IsMaster {
		return layout.Master
	}
	return layout.Client(t.ClientID)
}

// vkModifierFlag maps the Windows VK codes for modifier keys to the HID
// KeyCode the rest of the router's modifier bookkeeping works in terms of.
// Mouse and keyboard hooks on Windows only ever report raw VK codes, so this
// is the translation point from the capture layer into pkg/hid's Tracker.
func vkModifierFlag(vk uint8) (hid.KeyCode, bool) {
	switch vk {
	case 0xA2:
		return hid.ControlLeft, true
	case 0xA3:
		return hid.ControlRight, true
	case 0xA0:
		return hid.ShiftLeft, true
	case 0xA1:
		return hid.ShiftRight, true
	case 0xA4:
		return hid.AltLeft, true
	case 0xA5:
		return hid.AltRight, true
	case 0x5B:
		return hid.MetaLeft, true
	case 0x5C:
		return hid.MetaRight, true
	default:
		return 0, false
	}
}

// Router is the input-routing use case: it receives raw capture events, runs
// them through modifier tracking, hotkey and edge-transition detection, and
// forwards the result to the active target's Transmitter.
type Router struct {
	mu sync.Mutex

	layout          *layout.VirtualLayout
	active          ActiveTarget
	sharingEnabled  bool
	hotkeyVK        uint8
	modifiers       hid.Tracker
	lastTransition  time.Time
	haveTransition  bool
	transmitter     Transmitter
	cursor          CursorController
}

// New creates a Router anchored to a master screen of the given dimensions.
// hotkeyVK is the Windows VK code that toggles input sharing on and off
// (ScrollLock, 0x91, by default in the reference deployment).
func New(masterWidth, masterHeight uint32, transmitter Transmitter, cursor CursorController, hotkeyVK uint8) *Router {
	return &Router{
		layout:         layout.New(masterWidth, masterHeight),
		active:         TargetMaster,
		sharingEnabled: true,
		hotkeyVK:       hotkeyVK,
		transmitter:    transmitter,
		cursor:         cursor,
	}
}

// Layout returns the router's virtual layout for configuration (adding
// clients, setting adjacencies). Callers must not mutate it concurrently
// with a call to HandleEvent; use UpdateLayout for a safe swap instead.
func (r *Router) Layout() *layout.VirtualLayout {
	return r.layout
}

// UpdateLayout atomically replaces the routing layout. If the active client
// no longer exists in the new layout, routing falls back to the master.
func (r *Router) UpdateLayout(l *layout.VirtualLayout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active.IsMaster {
		found := false
		for _, c := range l.Clients() {
			if c.ClientID == r.active.ClientID {
				found = true
				break
			}
		}
		if !found {
			r.active = TargetMaster
		}
	}
	r.layout = l
}

// ActiveTarget returns the screen currently receiving input.
func (r *Router) ActiveTarget() ActiveTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// SharingEnabled reports whether input sharing is currently on.
func (r *Router) SharingEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sharingEnabled
}

// SetSharingEnabled toggles input sharing. Disabling it snaps routing back
// to the master immediately.
func (r *Router) SetSharingEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sharingEnabled = enabled
	if !enabled {
		r.active = TargetMaster
	}
}

// HandleEvent processes one raw capture event: it updates modifier state,
// checks for the sharing hotkey, checks for a debounced edge transition, and
// forwards the translated event to the active target.
func (r *Router) HandleEvent(ctx context.Context, event RawEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Kind {
	case RawKeyDown:
		if flag, ok := vkModifierFlag(event.VKCode); ok {
			r.modifiers.Update(flag, true)
		}
		return r.handleKeyDown(ctx, event.VKCode, event.ScanCode)
	case RawKeyUp:
		if flag, ok := vkModifierFlag(event.VKCode); ok {
			r.modifiers.Update(flag, false)
		}
		return r.handleKeyUp(ctx, event.VKCode, event.ScanCode)
	case RawMouseMove:
		return r.handleMouseMove(ctx, event.X, event.Y)
	case RawMouseButtonDown:
		return r.handleMouseButton(ctx, event.Button, true, event.X, event.Y)
	case RawMouseButtonUp:
		return r.handleMouseButton(ctx, event.Button, false, event.X, event.Y)
	case RawMouseWheel:
		return r.handleMouseScroll(ctx, 0, event.WheelDelta, event.X, event.Y)
	case RawMouseWheelH:
		return r.handleMouseScroll(ctx, event.WheelDelta, 0, event.X, event.Y)
	}
	return nil
}

func (r *Router) handleKeyDown(ctx context.Context, vk uint8, scanCode uint16) error {
	if vk == r.hotkeyVK {
		r.sharingEnabled = !r.sharingEnabled
		if !r.sharingEnabled {
			r.active = TargetMaster
		}
		return nil
	}
	if !r.sharingEnabled || r.active.IsMaster {
		return nil
	}
	keyCode := hid.VKToHID(vk)
	if keyCode == hid.Unknown {
		return nil
	}
	return r.transmitter.SendKeyEvent(ctx, r.active.ClientID, protocol.KeyEventMessage{
		KeyCode:   keyCode,
		ScanCode:  scanCode,
		EventType: protocol.KeyDown,
		Modifiers: r.modifiers.Snapshot(),
	})
}

func (r *Router) handleKeyUp(ctx context.Context, vk uint8, scanCode uint16) error {
	if !r.sharingEnabled || r.active.IsMaster {
		return nil
	}
	keyCode := hid.VKToHID(vk)
	if keyCode == hid.Unknown {
		return nil
	}
	return r.transmitter.SendKeyEvent(ctx, r.active.ClientID, protocol.KeyEventMessage{
		KeyCode:   keyCode,
		ScanCode:  scanCode,
		EventType: protocol.KeyUp,
		Modifiers: r.modifiers.Snapshot(),
	})
}

func (r *Router) handleMouseMove(ctx context.Context, x, y int32) error {
	if !r.sharingEnabled {
		return nil
	}

	currentScreen := r.active.screenID()

	var localX, localY int32
	if r.active.IsMaster {
		localX, localY = x, y
	} else {
		found := false
		for _, c := range r.layout.Clients() {
			if c.ClientID == r.active.ClientID {
				localX = x - c.Region.VirtualX
				localY = y - c.Region.VirtualY
				found = true
				break
			}
		}
		if !found {
			r.active = TargetMaster
			return nil
		}
	}

	canTransition := !r.haveTransition || time.Since(r.lastTransition) >= TransitionDebounce
	if canTransition {
		if transition, ok := r.layout.CheckEdgeTransition(currentScreen, localX, localY); ok {
			return r.applyTransition(ctx, transition)
		}
	}

	if !r.active.IsMaster {
		return r.transmitter.SendMouseMove(ctx, r.active.ClientID, protocol.MouseMoveMessage{
			X: localX,
			Y: localY,
		})
	}
	return nil
}

func (r *Router) applyTransition(ctx context.Context, transition layout.EdgeTransition) error {
	r.lastTransition = time.Now()
	r.haveTransition = true

	if transition.ToScreen.IsMaster {
		r.active = TargetMaster
	} else {
		r.active = TargetClient(transition.ToScreen.ClientID)
	}

	r.cursor.TeleportCursor(transition.MasterTeleportX, transition.MasterTeleportY)

	if !r.active.IsMaster {
		return r.transmitter.SendMouseMove(ctx, r.active.ClientID, protocol.MouseMoveMessage{
			X: transition.EntryX,
			Y: transition.EntryY,
		})
	}
	return nil
}

func (r *Router) handleMouseButton(ctx context.Context, button RawMouseButton, pressed bool, x, y int32) error {
	if !r.sharingEnabled || r.active.IsMaster {
		return nil
	}
	protoButton, ok := translateMouseButton(button)
	if !ok {
		return nil
	}
	eventType := protocol.ButtonRelease
	if pressed {
		eventType = protocol.ButtonPress
	}
	return r.transmitter.SendMouseButton(ctx, r.active.ClientID, protocol.MouseButtonMessage{
		Button:    protoButton,
		EventType: eventType,
		X:         x,
		Y:         y,
	})
}

func (r *Router) handleMouseScroll(ctx context.Context, deltaX, deltaY int16, x, y int32) error {
	if !r.sharingEnabled || r.active.IsMaster {
		return nil
	}
	return r.transmitter.SendMouseScroll(ctx, r.active.ClientID, protocol.MouseScrollMessage{
		DeltaX: deltaX,
		DeltaY: deltaY,
		X:      x,
		Y:      y,
	})
}

func translateMouseButton(b RawMouseButton) (protocol.MouseButtonID, bool) {
	switch b {
	case RawButtonLeft:
		return protocol.ButtonLeft, true
	case RawButtonRight:
		return protocol.ButtonRight, true
	case RawButtonMiddle:
		return protocol.ButtonMiddle, true
	case RawButtonX1:
		return protocol.ButtonExtra1, true
	case RawButtonX2:
		return protocol.ButtonExtra2, true
	default:
		return 0, false
	}
}
