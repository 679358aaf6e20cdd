package bridge

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/protocol"
)

func TestTranslateBrowserHelloForcesPlatformWeb(t *testing.T) {
	id := uuid.New()
	msg := Message{Type: "hello", Hello: &HelloFields{ClientID: id.String(), ClientName: "chrome", Capabilities: 3}}

	wire, err := TranslateBrowserToKVM(msg)
	require.NoError(t, err)
	require.Equal(t, protocol.MsgHello, wire.Type)
	require.Equal(t, protocol.PlatformWeb, wire.Hello.PlatformID)
	require.Equal(t, id, wire.Hello.ClientID)
	require.Equal(t, "chrome", wire.Hello.ClientName)
}

func TestTranslateBrowserScreenInfoIsSinglePrimaryMonitor(t *testing.T) {
	msg := Message{Type: "screen_info", ScreenInfo: &ScreenInfoFields{Width: 1920, Height: 1080, ScaleFactor: 100}}

	wire, err := TranslateBrowserToKVM(msg)
	require.NoError(t, err)
	require.Len(t, wire.ScreenInfo.Monitors, 1)
	m := wire.ScreenInfo.Monitors[0]
	require.True(t, m.IsPrimary)
	require.EqualValues(t, 0, m.XOffset)
	require.EqualValues(t, 0, m.YOffset)
	require.EqualValues(t, 1920, m.Width)
}

func TestTranslateBrowserClipboardAlwaysText(t *testing.T) {
	msg := Message{Type: "clipboard_data", ClipboardData: &ClipboardDataFields{Format: "image", Data: "hello"}}

	wire, err := TranslateBrowserToKVM(msg)
	require.NoError(t, err)
	require.Equal(t, protocol.ClipboardUTF8Text, wire.ClipboardData.Format)
	require.Equal(t, "hello", string(wire.ClipboardData.Data))
}

func TestTranslateBrowserDisconnectAlwaysUserInitiated(t *testing.T) {
	msg := Message{Type: "disconnect", Disconnect: &DisconnectFields{Reason: "timeout"}}

	wire, err := TranslateBrowserToKVM(msg)
	require.NoError(t, err)
	require.Equal(t, protocol.DisconnectUserInitiated, wire.DisconnectReason)
}

func TestTranslateBrowserUnknownTypeErrors(t *testing.T) {
	_, err := TranslateBrowserToKVM(Message{Type: "not_a_real_type"})
	require.ErrorIs(t, err, ErrUntranslatable)
}

func TestTranslateBrowserInputBatchRoundTrips(t *testing.T) {
	msg := Message{
		Type: "input_batch",
		InputBatch: []InputEventFields{
			{Kind: "key", Key: &KeyEventFields{KeyCode: 4, EventType: "down"}},
			{Kind: "mouse_move", MouseMove: &MouseMoveFields{X: 10, Y: 20}},
		},
	}

	wire, err := TranslateBrowserToKVM(msg)
	require.NoError(t, err)
	require.Len(t, wire.InputBatch, 2)
	require.Equal(t, protocol.InputEventKey, wire.InputBatch[0].Kind)
	require.Equal(t, protocol.KeyCode(4), wire.InputBatch[0].Key.KeyCode)
	require.Equal(t, protocol.InputEventMouseMove, wire.InputBatch[1].Kind)
	require.EqualValues(t, 10, wire.InputBatch[1].MouseMove.X)
}

func TestTranslateKVMHelloDoesNotForward(t *testing.T) {
	_, forward, err := TranslateKVMToBrowser(protocol.Message{Type: protocol.MsgHello})
	require.NoError(t, err)
	require.False(t, forward)
}

func TestTranslateKVMScreenInfoDoesNotForward(t *testing.T) {
	_, forward, err := TranslateKVMToBrowser(protocol.Message{Type: protocol.MsgScreenInfo})
	require.NoError(t, err)
	require.False(t, forward)
}

func TestTranslateKVMPairingResponseDoesNotForward(t *testing.T) {
	_, forward, err := TranslateKVMToBrowser(protocol.Message{Type: protocol.MsgPairingResponse})
	require.NoError(t, err)
	require.False(t, forward)
}

func TestTranslateKVMAnnounceDoesNotForward(t *testing.T) {
	_, forward, err := TranslateKVMToBrowser(protocol.Message{Type: protocol.MsgAnnounce})
	require.NoError(t, err)
	require.False(t, forward)

	_, forward, err = TranslateKVMToBrowser(protocol.Message{Type: protocol.MsgAnnounceResponse})
	require.NoError(t, err)
	require.False(t, forward)
}

func TestTranslateKVMPongDoesNotForward(t *testing.T) {
	_, forward, err := TranslateKVMToBrowser(protocol.Message{Type: protocol.MsgPong})
	require.NoError(t, err)
	require.False(t, forward)
}

func TestTranslateKVMPairingRequestForwards(t *testing.T) {
	sessID := uuid.New()
	wire := protocol.Message{
		Type:           protocol.MsgPairingRequest,
		PairingRequest: &protocol.PairingRequestMessage{PairingSessionID: sessID, ExpiresAtSecs: 60},
	}

	msg, forward, err := TranslateKVMToBrowser(wire)
	require.NoError(t, err)
	require.True(t, forward)
	require.Equal(t, "pairing_request", msg.Type)
	require.Equal(t, sessID.String(), msg.PairingRequest.SessionID)
	require.EqualValues(t, 60, msg.PairingRequest.ExpiresAtSecs)
}

func TestTranslateKVMClipboardImageBase64Encoded(t *testing.T) {
	wire := protocol.Message{
		Type: protocol.MsgClipboardData,
		ClipboardData: &protocol.ClipboardDataMessage{
			Format: protocol.ClipboardImage,
			Data:   []byte{0xff, 0x00, 0x10},
		},
	}

	msg, forward, err := TranslateKVMToBrowser(wire)
	require.NoError(t, err)
	require.True(t, forward)
	require.Equal(t, "image", msg.ClipboardData.Format)
	require.Equal(t, "/wAQ", msg.ClipboardData.Data)
}

func TestTranslateKVMClipboardTextIsAlsoBase64Encoded(t *testing.T) {
	wire := protocol.Message{
		Type: protocol.MsgClipboardData,
		ClipboardData: &protocol.ClipboardDataMessage{
			Format: protocol.ClipboardUTF8Text,
			Data:   []byte("hello world"),
		},
	}

	msg, forward, err := TranslateKVMToBrowser(wire)
	require.NoError(t, err)
	require.True(t, forward)
	require.Equal(t, "aGVsbG8gd29ybGQ=", msg.ClipboardData.Data)
}

func TestTranslateKVMKeyEventRoundTrips(t *testing.T) {
	wire := protocol.Message{
		Type: protocol.MsgKeyEvent,
		KeyEvent: &protocol.KeyEventMessage{
			KeyCode:   protocol.KeyCode(4),
			ScanCode:  30,
			EventType: protocol.KeyDown,
			Modifiers: protocol.ModifierFlags(1),
		},
	}

	msg, forward, err := TranslateKVMToBrowser(wire)
	require.NoError(t, err)
	require.True(t, forward)
	require.Equal(t, "key_event", msg.Type)
	require.Equal(t, "down", msg.KeyEvent.EventType)

	back, err := TranslateBrowserToKVM(msg)
	require.NoError(t, err)
	require.Equal(t, *wire.KeyEvent, *back.KeyEvent)
}

func TestTranslateKVMUnknownWireTypeErrors(t *testing.T) {
	_, _, err := TranslateKVMToBrowser(protocol.Message{Type: protocol.MessageType(0xEE)})
	require.ErrorIs(t, err, ErrUntranslatable)
}
