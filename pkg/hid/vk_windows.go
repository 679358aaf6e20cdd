package hid

// vkToHID is the Windows Virtual-Key → HID translation table, indexed by VK
// code (0x00-0xFF). Entries left at Unknown have no keyboard HID equivalent
// (mouse VKs, browser keys, etc). Reference: winuser.h VK_* constants.
var vkToHID = [256]KeyCode{
	0x41: KeyA, 0x42: KeyB, 0x43: KeyC, 0x44: KeyD, 0x45: KeyE,
	0x46: KeyF, 0x47: KeyG, 0x48: KeyH, 0x49: KeyI, 0x4A: KeyJ,
	0x4B: KeyK, 0x4C: KeyL, 0x4D: KeyM, 0x4E: KeyN, 0x4F: KeyO,
	0x50: KeyP, 0x51: KeyQ, 0x52: KeyR, 0x53: KeyS, 0x54: KeyT,
	0x55: KeyU, 0x56: KeyV, 0x57: KeyW, 0x58: KeyX, 0x59: KeyY,
	0x5A: KeyZ,

	0x30: Digit0, 0x31: Digit1, 0x32: Digit2, 0x33: Digit3, 0x34: Digit4,
	0x35: Digit5, 0x36: Digit6, 0x37: Digit7, 0x38: Digit8, 0x39: Digit9,

	0x0D: Enter,       // VK_RETURN
	0x1B: Escape,      // VK_ESCAPE
	0x08: Backspace,   // VK_BACK
	0x09: Tab,         // VK_TAB
	0x20: Space,       // VK_SPACE
	0x14: CapsLock,    // VK_CAPITAL
	0x91: ScrollLock,  // VK_SCROLL
	0x13: Pause,       // VK_PAUSE
	0x2D: Insert,      // VK_INSERT
	0x24: Home,        // VK_HOME
	0x21: PageUp,      // VK_PRIOR
	0x2E: Delete,      // VK_DELETE
	0x23: End,         // VK_END
	0x22: PageDown,    // VK_NEXT
	0x2C: PrintScreen, // VK_SNAPSHOT
	0x5D: ContextMenu, // VK_APPS

	0x25: ArrowLeft, 0x26: ArrowUp, 0x27: ArrowRight, 0x28: ArrowDown,

	0x70: F1, 0x71: F2, 0x72: F3, 0x73: F4, 0x74: F5, 0x75: F6,
	0x76: F7, 0x77: F8, 0x78: F9, 0x79: F10, 0x7A: F11, 0x7B: F12,

	0x60: Numpad0, 0x61: Numpad1, 0x62: Numpad2, 0x63: Numpad3, 0x64: Numpad4,
	0x65: Numpad5, 0x66: Numpad6, 0x67: Numpad7, 0x68: Numpad8, 0x69: Numpad9,
	0x6A: NumpadMultiply, // VK_MULTIPLY
	0x6B: NumpadAdd,      // VK_ADD
	0x6D: NumpadSubtract, // VK_SUBTRACT
	0x6E: NumpadDecimal,  // VK_DECIMAL
	0x6F: NumpadDivide,   // VK_DIVIDE
	0x90: NumLock,        // VK_NUMLOCK

	0xBD: Minus,        // VK_OEM_MINUS  (- _)
	0xBB: Equal,        // VK_OEM_PLUS   (= +)
	0xDB: BracketLeft,  // VK_OEM_4      ([ {)
	0xDD: BracketRight, // VK_OEM_6      (] })
	0xDC: Backslash,    // VK_OEM_5      (\ |)
	0xBA: Semicolon,    // VK_OEM_1      (; :)
	0xDE: Quote,        // VK_OEM_7      (' ")
	0xC0: Backquote,    // VK_OEM_3      (` ~)
	0xBC: Comma,        // VK_OEM_COMMA  (, <)
	0xBE: Period,       // VK_OEM_PERIOD (. >)
	0xBF: Slash,        // VK_OEM_2      (/ ?)

	0xA2: ControlLeft,  // VK_LCONTROL
	0xA3: ControlRight, // VK_RCONTROL
	0xA0: ShiftLeft,    // VK_LSHIFT
	0xA1: ShiftRight,   // VK_RSHIFT
	0xA4: AltLeft,      // VK_LMENU
	0xA5: AltRight,     // VK_RMENU
	0x5B: MetaLeft,     // VK_LWIN
	0x5C: MetaRight,    // VK_RWIN
}

// VKToHID converts a Windows Virtual-Key code to a HID Usage ID. It never
// fails: VK codes with no keyboard HID equivalent return Unknown.
func VKToHID(vk uint8) KeyCode {
	return vkToHID[vk]
}

// HIDToVK converts a HID Usage ID back to a Windows Virtual-Key code.
// Returns false for Unknown or any HID code with no VK equivalent. The
// reverse direction is infrequent (keyed off outbound client events) so a
// linear scan over the 256-entry table is acceptable.
func HIDToVK(k KeyCode) (uint8, bool) {
	if k == Unknown {
		return 0, false
	}
	for vk, mapped := range vkToHID {
		if mapped == k {
			return uint8(vk), true
		}
	}
	return 0, false
}
