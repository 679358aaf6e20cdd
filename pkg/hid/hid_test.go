package hid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromUint16RoundTrip(t *testing.T) {
	require.Equal(t, KeyA, FromUint16(0x04))
	require.Equal(t, Unknown, FromUint16(0xDEAD))
	require.Equal(t, Unknown, FromUint16(0x0000))
}

func TestKeyCodeString(t *testing.T) {
	require.Equal(t, "KeyA", KeyA.String())
	require.Equal(t, "Unknown", KeyCode(0x9999).String())
}

func TestIsLetter(t *testing.T) {
	require.True(t, KeyA.IsLetter())
	require.True(t, KeyZ.IsLetter())
	require.False(t, Digit1.IsLetter())
	require.False(t, Unknown.IsLetter())
}

func TestModifierTracker(t *testing.T) {
	var tr Tracker
	snap := tr.Update(ControlLeft, true)
	require.True(t, snap.Has(ModLeftCtrl))
	require.True(t, snap.AnyCtrl())
	require.False(t, snap.AnyShift())

	snap = tr.Update(ShiftRight, true)
	require.True(t, snap.Has(ModLeftCtrl))
	require.True(t, snap.Has(ModRightShift))

	snap = tr.Update(ControlLeft, false)
	require.False(t, snap.Has(ModLeftCtrl))
	require.True(t, snap.Has(ModRightShift))

	// Non-modifier keys leave state untouched.
	before := tr.Snapshot()
	tr.Update(KeyA, true)
	require.Equal(t, before, tr.Snapshot())
}

func TestVKToHIDRoundTrip(t *testing.T) {
	require.Equal(t, KeyA, VKToHID(0x41))
	require.Equal(t, Unknown, VKToHID(0x01)) // VK_LBUTTON has no HID equivalent

	vk, ok := HIDToVK(KeyA)
	require.True(t, ok)
	require.Equal(t, uint8(0x41), vk)

	_, ok = HIDToVK(Unknown)
	require.False(t, ok)
}

func TestX11KeysymRoundTrip(t *testing.T) {
	sym, ok := HIDToX11Keysym(KeyA)
	require.True(t, ok)
	require.Equal(t, uint32(0x0061), sym)

	require.Equal(t, KeyA, X11KeysymToHID(0x0061))
	require.Equal(t, Unknown, X11KeysymToHID(0xFFFFFFFF))

	_, ok = HIDToX11Keysym(Unknown)
	require.False(t, ok)
}

func TestCGKeyCodeRoundTrip(t *testing.T) {
	code, ok := HIDToCGKeyCode(KeyA)
	require.True(t, ok)
	require.Equal(t, uint16(0x00), code)

	require.Equal(t, KeyA, CGKeyCodeToHID(0x00))
	require.Equal(t, Unknown, CGKeyCodeToHID(0xFFFF))
}

func TestDOMCodeRoundTrip(t *testing.T) {
	code, ok := HIDToDOMCode(KeyA)
	require.True(t, ok)
	require.Equal(t, "KeyA", code)

	require.Equal(t, KeyA, DOMCodeToHID("KeyA"))
	require.Equal(t, Unknown, DOMCodeToHID("NotAKey"))
}

func TestAllNamedKeysTranslateConsistently(t *testing.T) {
	for k := range names {
		if k == Unknown {
			continue
		}
		// Every named key must have a DOM code; the others are best-effort
		// per platform and checked individually above.
		_, ok := HIDToDOMCode(k)
		require.True(t, ok, "missing DOM code for %s", k)
	}
}
