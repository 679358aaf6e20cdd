package hid

// hidToKeysym is the HID → X11 KeySym translation table. Letter keys map to
// lowercase ASCII (XK_a-XK_z); most others are the XK_ constants from
// X11/keysymdef.h.
var hidToKeysym = map[KeyCode]uint32{
	KeyA: 0x0061, KeyB: 0x0062, KeyC: 0x0063, KeyD: 0x0064, KeyE: 0x0065,
	KeyF: 0x0066, KeyG: 0x0067, KeyH: 0x0068, KeyI: 0x0069, KeyJ: 0x006A,
	KeyK: 0x006B, KeyL: 0x006C, KeyM: 0x006D, KeyN: 0x006E, KeyO: 0x006F,
	KeyP: 0x0070, KeyQ: 0x0071, KeyR: 0x0072, KeyS: 0x0073, KeyT: 0x0074,
	KeyU: 0x0075, KeyV: 0x0076, KeyW: 0x0077, KeyX: 0x0078, KeyY: 0x0079,
	KeyZ: 0x007A,

	Digit0: 0x0030, Digit1: 0x0031, Digit2: 0x0032, Digit3: 0x0033, Digit4: 0x0034,
	Digit5: 0x0035, Digit6: 0x0036, Digit7: 0x0037, Digit8: 0x0038, Digit9: 0x0039,

	Enter:       0xFF0D, // XK_Return
	Escape:      0xFF1B, // XK_Escape
	Backspace:   0xFF08, // XK_BackSpace
	Tab:         0xFF09, // XK_Tab
	Space:       0x0020, // XK_space
	CapsLock:    0xFFE5, // XK_Caps_Lock
	ScrollLock:  0xFF14, // XK_Scroll_Lock
	Pause:       0xFF13, // XK_Pause
	Insert:      0xFF63, // XK_Insert
	Home:        0xFF50, // XK_Home
	PageUp:      0xFF55, // XK_Page_Up
	Delete:      0xFFFF, // XK_Delete
	End:         0xFF57, // XK_End
	PageDown:    0xFF56, // XK_Page_Down
	PrintScreen: 0xFF61, // XK_Print
	ContextMenu: 0xFF67, // XK_Menu

	ArrowLeft: 0xFF51, ArrowUp: 0xFF52, ArrowRight: 0xFF53, ArrowDown: 0xFF54,

	F1: 0xFFBE, F2: 0xFFBF, F3: 0xFFC0, F4: 0xFFC1, F5: 0xFFC2, F6: 0xFFC3,
	F7: 0xFFC4, F8: 0xFFC5, F9: 0xFFC6, F10: 0xFFC7, F11: 0xFFC8, F12: 0xFFC9,

	NumLock:        0xFF7F, // XK_Num_Lock
	NumpadDivide:   0xFFAF, // XK_KP_Divide
	NumpadMultiply: 0xFFAA, // XK_KP_Multiply
	NumpadSubtract: 0xFFAD, // XK_KP_Subtract
	NumpadAdd:      0xFFAB, // XK_KP_Add
	NumpadEnter:    0xFF8D, // XK_KP_Enter
	Numpad0:        0xFFB0,
	Numpad1:        0xFFB1,
	Numpad2:        0xFFB2,
	Numpad3:        0xFFB3,
	Numpad4:        0xFFB4,
	Numpad5:        0xFFB5,
	Numpad6:        0xFFB6,
	Numpad7:        0xFFB7,
	Numpad8:        0xFFB8,
	Numpad9:        0xFFB9,
	NumpadDecimal:  0xFFAE, // XK_KP_Decimal

	Minus:        0x002D, // XK_minus
	Equal:        0x003D, // XK_equal
	BracketLeft:  0x005B, // XK_bracketleft
	BracketRight: 0x005D, // XK_bracketright
	Backslash:    0x005C, // XK_backslash
	Semicolon:    0x003B, // XK_semicolon
	Quote:        0x0027, // XK_apostrophe
	Backquote:    0x0060, // XK_grave
	Comma:        0x002C, // XK_comma
	Period:       0x002E, // XK_period
	Slash:        0x002F, // XK_slash

	ControlLeft:  0xFFE3, // XK_Control_L
	ControlRight: 0xFFE4, // XK_Control_R
	ShiftLeft:    0xFFE1, // XK_Shift_L
	ShiftRight:   0xFFE2, // XK_Shift_R
	AltLeft:      0xFFE9, // XK_Alt_L
	AltRight:     0xFFEA, // XK_Alt_R
	MetaLeft:     0xFFEB, // XK_Super_L
	MetaRight:    0xFFEC, // XK_Super_R
}

var keysymToHID map[uint32]KeyCode

func init() {
	keysymToHID = make(map[uint32]KeyCode, len(hidToKeysym))
	for k, v := range hidToKeysym {
		keysymToHID[v] = k
	}
}

// HIDToX11Keysym converts a HID Usage ID to an X11 KeySym. Returns false for
// Unknown or any HID code with no X11 equivalent.
func HIDToX11Keysym(k KeyCode) (uint32, bool) {
	v, ok := hidToKeysym[k]
	return v, ok
}

// X11KeysymToHID converts an X11 KeySym back to a HID Usage ID. Returns
// Unknown for any keysym not present in the forward table.
func X11KeysymToHID(sym uint32) KeyCode {
	if k, ok := keysymToHID[sym]; ok {
		return k
	}
	return Unknown
}
