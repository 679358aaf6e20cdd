package hid

// hidToCGKeyCode is the HID → macOS CGKeyCode translation table
// (kVK_* constants from Carbon's HIToolbox/Events.h).
var hidToCGKeyCode = map[KeyCode]uint16{
	KeyA: 0x00, KeyB: 0x0B, KeyC: 0x08, KeyD: 0x02, KeyE: 0x0E,
	KeyF: 0x03, KeyG: 0x05, KeyH: 0x04, KeyI: 0x22, KeyJ: 0x26,
	KeyK: 0x28, KeyL: 0x25, KeyM: 0x2E, KeyN: 0x2D, KeyO: 0x1F,
	KeyP: 0x23, KeyQ: 0x0C, KeyR: 0x0F, KeyS: 0x01, KeyT: 0x11,
	KeyU: 0x20, KeyV: 0x09, KeyW: 0x0D, KeyX: 0x07, KeyY: 0x10,
	KeyZ: 0x06,

	Digit0: 0x1D, Digit1: 0x12, Digit2: 0x13, Digit3: 0x14, Digit4: 0x15,
	Digit5: 0x17, Digit6: 0x16, Digit7: 0x1A, Digit8: 0x1C, Digit9: 0x19,

	Enter:       0x24, // kVK_Return
	Escape:      0x35, // kVK_Escape
	Backspace:   0x33, // kVK_Delete
	Tab:         0x30, // kVK_Tab
	Space:       0x31, // kVK_Space
	CapsLock:    0x39, // kVK_CapsLock
	ScrollLock:  0x6B, // kVK_F14
	Pause:       0x71, // kVK_F15
	Insert:      0x72, // kVK_Help
	Home:        0x73, // kVK_Home
	PageUp:      0x74, // kVK_PageUp
	Delete:      0x75, // kVK_ForwardDelete
	End:         0x77, // kVK_End
	PageDown:    0x79, // kVK_PageDown
	PrintScreen: 0x69, // kVK_F13
	ContextMenu: 0x6E,

	ArrowLeft: 0x7B, ArrowRight: 0x7C, ArrowDown: 0x7D, ArrowUp: 0x7E,

	F1: 0x7A, F2: 0x78, F3: 0x63, F4: 0x76, F5: 0x60, F6: 0x61,
	F7: 0x62, F8: 0x64, F9: 0x65, F10: 0x6D, F11: 0x67, F12: 0x6F,

	NumLock:        0x47, // kVK_ANSI_KeypadClear
	NumpadDivide:   0x4B,
	NumpadMultiply: 0x43,
	NumpadSubtract: 0x4E,
	NumpadAdd:      0x45,
	NumpadEnter:    0x4C,
	Numpad0:        0x52,
	Numpad1:        0x53,
	Numpad2:        0x54,
	Numpad3:        0x55,
	Numpad4:        0x56,
	Numpad5:        0x57,
	Numpad6:        0x58,
	Numpad7:        0x59,
	Numpad8:        0x5B,
	Numpad9:        0x5C,
	NumpadDecimal:  0x41,

	Minus:        0x1B,
	Equal:        0x18,
	BracketLeft:  0x21,
	BracketRight: 0x1E,
	Backslash:    0x2A,
	Semicolon:    0x29,
	Quote:        0x27,
	Backquote:    0x32,
	Comma:        0x2B,
	Period:       0x2F,
	Slash:        0x2C,

	ControlLeft:  0x3B, // kVK_Control
	ControlRight: 0x3E, // kVK_RightControl
	ShiftLeft:    0x38, // kVK_Shift
	ShiftRight:   0x3C, // kVK_RightShift
	AltLeft:      0x3A, // kVK_Option
	AltRight:     0x3D, // kVK_RightOption
	MetaLeft:     0x37, // kVK_Command
	MetaRight:    0x36, // kVK_RightCommand
}

var cgKeyCodeToHID map[uint16]KeyCode

func init() {
	cgKeyCodeToHID = make(map[uint16]KeyCode, len(hidToCGKeyCode))
	for k, v := range hidToCGKeyCode {
		cgKeyCodeToHID[v] = k
	}
}

// HIDToCGKeyCode converts a HID Usage ID to a macOS CGKeyCode. Returns false
// for Unknown or any HID code with no direct CGKeyCode equivalent.
func HIDToCGKeyCode(k KeyCode) (uint16, bool) {
	v, ok := hidToCGKeyCode[k]
	return v, ok
}

// CGKeyCodeToHID converts a macOS CGKeyCode back to a HID Usage ID. Returns
// Unknown for any code not present in the forward table. Note ScrollLock,
// Pause, PrintScreen and ContextMenu alias into the F13-F15 region on macOS
// keyboards that have no direct equivalent; the reverse lookup resolves to
// whichever HID key was registered last in the forward table for a shared
// code, which in practice never collides for the sets above.
func CGKeyCodeToHID(code uint16) KeyCode {
	if k, ok := cgKeyCodeToHID[code]; ok {
		return k
	}
	return Unknown
}
