package hid

// hidToDOMCode is the HID → DOM UI Events `KeyboardEvent.code` translation
// table. Browser code strings are identical to this package's KeyCode names
// for every key the spec names, so each entry here repeats the matching
// string from names.
var hidToDOMCode = map[KeyCode]string{
	KeyA: "KeyA", KeyB: "KeyB", KeyC: "KeyC", KeyD: "KeyD", KeyE: "KeyE",
	KeyF: "KeyF", KeyG: "KeyG", KeyH: "KeyH", KeyI: "KeyI", KeyJ: "KeyJ",
	KeyK: "KeyK", KeyL: "KeyL", KeyM: "KeyM", KeyN: "KeyN", KeyO: "KeyO",
	KeyP: "KeyP", KeyQ: "KeyQ", KeyR: "KeyR", KeyS: "KeyS", KeyT: "KeyT",
	KeyU: "KeyU", KeyV: "KeyV", KeyW: "KeyW", KeyX: "KeyX", KeyY: "KeyY",
	KeyZ: "KeyZ",

	Digit0: "Digit0", Digit1: "Digit1", Digit2: "Digit2", Digit3: "Digit3",
	Digit4: "Digit4", Digit5: "Digit5", Digit6: "Digit6", Digit7: "Digit7",
	Digit8: "Digit8", Digit9: "Digit9",

	Enter: "Enter", Escape: "Escape", Backspace: "Backspace", Tab: "Tab",
	Space: "Space", Minus: "Minus", Equal: "Equal", BracketLeft: "BracketLeft",
	BracketRight: "BracketRight", Backslash: "Backslash", Semicolon: "Semicolon",
	Quote: "Quote", Backquote: "Backquote", Comma: "Comma", Period: "Period",
	Slash: "Slash", CapsLock: "CapsLock",

	F1: "F1", F2: "F2", F3: "F3", F4: "F4", F5: "F5", F6: "F6", F7: "F7",
	F8: "F8", F9: "F9", F10: "F10", F11: "F11", F12: "F12",

	PrintScreen: "PrintScreen", ScrollLock: "ScrollLock", Pause: "Pause",
	Insert: "Insert", Home: "Home", PageUp: "PageUp", Delete: "Delete",
	End: "End", PageDown: "PageDown", ArrowRight: "ArrowRight",
	ArrowLeft: "ArrowLeft", ArrowDown: "ArrowDown", ArrowUp: "ArrowUp",

	NumLock: "NumLock", NumpadDivide: "NumpadDivide", NumpadMultiply: "NumpadMultiply",
	NumpadSubtract: "NumpadSubtract", NumpadAdd: "NumpadAdd", NumpadEnter: "NumpadEnter",
	Numpad0: "Numpad0", Numpad1: "Numpad1", Numpad2: "Numpad2", Numpad3: "Numpad3",
	Numpad4: "Numpad4", Numpad5: "Numpad5", Numpad6: "Numpad6", Numpad7: "Numpad7",
	Numpad8: "Numpad8", Numpad9: "Numpad9", NumpadDecimal: "NumpadDecimal",

	ContextMenu: "ContextMenu",

	ControlLeft: "ControlLeft", ShiftLeft: "ShiftLeft", AltLeft: "AltLeft",
	MetaLeft: "MetaLeft", ControlRight: "ControlRight", ShiftRight: "ShiftRight",
	AltRight: "AltRight", MetaRight: "MetaRight",
}

var domCodeToHID map[string]KeyCode

func init() {
	domCodeToHID = make(map[string]KeyCode, len(hidToDOMCode))
	for k, v := range hidToDOMCode {
		domCodeToHID[v] = k
	}
}

// HIDToDOMCode converts a HID Usage ID to a DOM KeyboardEvent.code string.
// Returns false for Unknown or any HID code with no DOM equivalent.
func HIDToDOMCode(k KeyCode) (string, bool) {
	v, ok := hidToDOMCode[k]
	return v, ok
}

// DOMCodeToHID converts a DOM KeyboardEvent.code string back to a HID Usage
// ID. Returns Unknown for any string not present in the forward table.
func DOMCodeToHID(code string) KeyCode {
	if k, ok := domCodeToHID[code]; ok {
		return k
	}
	return Unknown
}
