package hid

// Modifiers is the packed 8-bit set of currently-held modifier keys, one bit
// per side/key combination. Bit layout is fixed by the wire protocol.
type Modifiers uint8

const (
	ModLeftCtrl Modifiers = 1 << iota
	ModRightCtrl
	ModLeftShift
	ModRightShift
	ModLeftAlt
	ModRightAlt
	ModLeftMeta
	ModRightMeta
)

func (m Modifiers) Has(flag Modifiers) bool { return m&flag != 0 }

func (m Modifiers) Set(flag Modifiers, on bool) Modifiers {
	if on {
		return m | flag
	}
	return m &^ flag
}

func (m Modifiers) AnyCtrl() bool  { return m.Has(ModLeftCtrl) || m.Has(ModRightCtrl) }
func (m Modifiers) AnyShift() bool { return m.Has(ModLeftShift) || m.Has(ModRightShift) }
func (m Modifiers) AnyAlt() bool   { return m.Has(ModLeftAlt) || m.Has(ModRightAlt) }
func (m Modifiers) AnyMeta() bool  { return m.Has(ModLeftMeta) || m.Has(ModRightMeta) }

// modifierKeyFlag maps a modifier KeyCode to its bit, used by a capture-side
// tracker that updates a Modifiers snapshot on every key event. Returns 0
// (no matching flag) for any non-modifier key.
func modifierKeyFlag(k KeyCode) Modifiers {
	switch k {
	case ControlLeft:
		return ModLeftCtrl
	case ControlRight:
		return ModRightCtrl
	case ShiftLeft:
		return ModLeftShift
	case ShiftRight:
		return ModRightShift
	case AltLeft:
		return ModLeftAlt
	case AltRight:
		return ModRightAlt
	case MetaLeft:
		return ModLeftMeta
	case MetaRight:
		return ModRightMeta
	default:
		return 0
	}
}

// Tracker maintains modifier state across a stream of key events, mirroring
// the 8-slot state table design note in §9: the OS may deliver only per-side
// press/release events, so each key event nudges one bit.
type Tracker struct {
	state Modifiers
}

// Update applies a key down/up transition for k and returns the resulting
// snapshot. Non-modifier keys leave the state unchanged.
func (t *Tracker) Update(k KeyCode, down bool) Modifiers {
	if flag := modifierKeyFlag(k); flag != 0 {
		t.state = t.state.Set(flag, down)
	}
	return t.state
}

// Snapshot returns the current modifier state without mutating it.
func (t *Tracker) Snapshot() Modifiers { return t.state }
