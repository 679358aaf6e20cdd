package bridge

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/protocol"
)

// ErrUntranslatable is returned by TranslateBrowserToKVM for a Message whose
// Type names no known variant, or whose required sub-object is missing.
var ErrUntranslatable = fmt.Errorf("bridge: message cannot be translated")

func keyEventTypeToString(t protocol.KeyEventType) string {
	if t == protocol.KeyDown {
		return "down"
	}
	return "up"
}

func keyEventTypeFromString(s string) protocol.KeyEventType {
	if s == "down" {
		return protocol.KeyDown
	}
	return protocol.KeyUp
}

func buttonEventTypeToString(t protocol.ButtonEventType) string {
	if t == protocol.ButtonPress {
		return "press"
	}
	return "release"
}

func buttonEventTypeFromString(s string) protocol.ButtonEventType {
	if s == "press" {
		return protocol.ButtonPress
	}
	return protocol.ButtonRelease
}

func disconnectReasonToString(r protocol.DisconnectReason) string {
	switch r {
	case protocol.DisconnectUserInitiated:
		return "user"
	case protocol.DisconnectServerShutdown:
		return "shutdown"
	case protocol.DisconnectProtocolError:
		return "protocol_error"
	case protocol.DisconnectTimeout:
		return "timeout"
	default:
		return "user"
	}
}

func clipboardFormatToString(f protocol.ClipboardFormat) string {
	switch f {
	case protocol.ClipboardHTML:
		return "html"
	case protocol.ClipboardImage:
		return "image"
	default:
		return "text"
	}
}

func clipboardFormatFromString(s string) protocol.ClipboardFormat {
	switch s {
	case "html":
		return protocol.ClipboardHTML
	case "image":
		return protocol.ClipboardImage
	default:
		return protocol.ClipboardUTF8Text
	}
}

func keyEventToFields(m protocol.KeyEventMessage) KeyEventFields {
	return KeyEventFields{
		KeyCode:   uint16(m.KeyCode),
		ScanCode:  m.ScanCode,
		EventType: keyEventTypeToString(m.EventType),
		Modifiers: uint8(m.Modifiers),
	}
}

func keyEventFromFields(f KeyEventFields) protocol.KeyEventMessage {
	return protocol.KeyEventMessage{
		KeyCode:   protocol.KeyCode(f.KeyCode),
		ScanCode:  f.ScanCode,
		EventType: keyEventTypeFromString(f.EventType),
		Modifiers: protocol.ModifierFlags(f.Modifiers),
	}
}

func mouseMoveToFields(m protocol.MouseMoveMessage) MouseMoveFields {
	return MouseMoveFields{X: m.X, Y: m.Y, DeltaX: m.DeltaX, DeltaY: m.DeltaY}
}

func mouseMoveFromFields(f MouseMoveFields) protocol.MouseMoveMessage {
	return protocol.MouseMoveMessage{X: f.X, Y: f.Y, DeltaX: f.DeltaX, DeltaY: f.DeltaY}
}

func mouseButtonToFields(m protocol.MouseButtonMessage) MouseButtonFields {
	return MouseButtonFields{
		Button:    uint8(m.Button),
		EventType: buttonEventTypeToString(m.EventType),
		X:         m.X,
		Y:         m.Y,
	}
}

func mouseButtonFromFields(f MouseButtonFields) protocol.MouseButtonMessage {
	return protocol.MouseButtonMessage{
		Button:    protocol.MouseButtonID(f.Button),
		EventType: buttonEventTypeFromString(f.EventType),
		X:         f.X,
		Y:         f.Y,
	}
}

func mouseScrollToFields(m protocol.MouseScrollMessage) MouseScrollFields {
	return MouseScrollFields{DeltaX: m.DeltaX, DeltaY: m.DeltaY, X: m.X, Y: m.Y}
}

func mouseScrollFromFields(f MouseScrollFields) protocol.MouseScrollMessage {
	return protocol.MouseScrollMessage{DeltaX: f.DeltaX, DeltaY: f.DeltaY, X: f.X, Y: f.Y}
}

func inputEventToFields(e protocol.InputEvent) InputEventFields {
	out := InputEventFields{}
	switch e.Kind {
	case protocol.InputEventKey:
		out.Kind = "key"
		if e.Key != nil {
			f := keyEventToFields(*e.Key)
			out.Key = &f
		}
	case protocol.InputEventMouseMove:
		out.Kind = "mouse_move"
		if e.MouseMove != nil {
			f := mouseMoveToFields(*e.MouseMove)
			out.MouseMove = &f
		}
	case protocol.InputEventMouseButton:
		out.Kind = "mouse_button"
		if e.MouseButton != nil {
			f := mouseButtonToFields(*e.MouseButton)
			out.MouseButton = &f
		}
	case protocol.InputEventMouseScroll:
		out.Kind = "mouse_scroll"
		if e.MouseScroll != nil {
			f := mouseScrollToFields(*e.MouseScroll)
			out.MouseScroll = &f
		}
	}
	return out
}

func inputEventFromFields(f InputEventFields) (protocol.InputEvent, error) {
	switch f.Kind {
	case "key":
		if f.Key == nil {
			return protocol.InputEvent{}, ErrUntranslatable
		}
		ev := keyEventFromFields(*f.Key)
		return protocol.InputEvent{Kind: protocol.InputEventKey, Key: &ev}, nil
	case "mouse_move":
		if f.MouseMove == nil {
			return protocol.InputEvent{}, ErrUntranslatable
		}
		ev := mouseMoveFromFields(*f.MouseMove)
		return protocol.InputEvent{Kind: protocol.InputEventMouseMove, MouseMove: &ev}, nil
	case "mouse_button":
		if f.MouseButton == nil {
			return protocol.InputEvent{}, ErrUntranslatable
		}
		ev := mouseButtonFromFields(*f.MouseButton)
		return protocol.InputEvent{Kind: protocol.InputEventMouseButton, MouseButton: &ev}, nil
	case "mouse_scroll":
		if f.MouseScroll == nil {
			return protocol.InputEvent{}, ErrUntranslatable
		}
		ev := mouseScrollFromFields(*f.MouseScroll)
		return protocol.InputEvent{Kind: protocol.InputEventMouseScroll, MouseScroll: &ev}, nil
	default:
		return protocol.InputEvent{}, fmt.Errorf("%w: unknown input event kind %q", ErrUntranslatable, f.Kind)
	}
}

// TranslateBrowserToKVM converts one browser-originated JSON Message into
// its equivalent wire protocol.Message. Every Message this bridge accepts
// from a browser translates to exactly one wire message; an unrecognized
// Type or a missing required sub-object is reported as ErrUntranslatable.
func TranslateBrowserToKVM(msg Message) (protocol.Message, error) {
	switch msg.Type {
	case "hello":
		if msg.Hello == nil {
			return protocol.Message{}, ErrUntranslatable
		}
		clientID, err := uuid.Parse(msg.Hello.ClientID)
		if err != nil {
			return protocol.Message{}, fmt.Errorf("%w: client_id: %s", ErrUntranslatable, err)
		}
		return protocol.Message{
			Type: protocol.MsgHello,
			Hello: &protocol.HelloMessage{
				ClientID:        clientID,
				ProtocolVersion: protocol.ProtocolVersion,
				PlatformID:      protocol.PlatformWeb,
				ClientName:      msg.Hello.ClientName,
				Capabilities:    msg.Hello.Capabilities,
			},
		}, nil

	case "screen_info":
		if msg.ScreenInfo == nil {
			return protocol.Message{}, ErrUntranslatable
		}
		return protocol.Message{
			Type: protocol.MsgScreenInfo,
			ScreenInfo: &protocol.ScreenInfoMessage{
				Monitors: []protocol.MonitorInfo{{
					MonitorID:   0,
					XOffset:     0,
					YOffset:     0,
					Width:       msg.ScreenInfo.Width,
					Height:      msg.ScreenInfo.Height,
					ScaleFactor: msg.ScreenInfo.ScaleFactor,
					IsPrimary:   true,
				}},
			},
		}, nil

	case "pairing_response":
		if msg.PairingResponse == nil {
			return protocol.Message{}, ErrUntranslatable
		}
		sessionID, err := uuid.Parse(msg.PairingResponse.SessionID)
		if err != nil {
			return protocol.Message{}, fmt.Errorf("%w: session_id: %s", ErrUntranslatable, err)
		}
		return protocol.Message{
			Type: protocol.MsgPairingResponse,
			PairingResponse: &protocol.PairingResponseMessage{
				PairingSessionID: sessionID,
				PinHash:          msg.PairingResponse.PinHash,
				Accepted:         msg.PairingResponse.Accepted,
			},
		}, nil

	case "clipboard_data":
		if msg.ClipboardData == nil {
			return protocol.Message{}, ErrUntranslatable
		}
		return protocol.Message{
			Type: protocol.MsgClipboardData,
			ClipboardData: &protocol.ClipboardDataMessage{
				Format:           protocol.ClipboardUTF8Text,
				Data:             []byte(msg.ClipboardData.Data),
				HasMoreFragments: msg.ClipboardData.HasMoreFragments,
			},
		}, nil

	case "config_update":
		if msg.ConfigUpdate == nil {
			return protocol.Message{}, ErrUntranslatable
		}
		return protocol.Message{
			Type: protocol.MsgConfigUpdate,
			ConfigUpdate: &protocol.ConfigUpdateMessage{
				LogLevel:      msg.ConfigUpdate.LogLevel,
				DisableHotkey: msg.ConfigUpdate.DisableHotkey,
				Flags:         msg.ConfigUpdate.Flags,
			},
		}, nil

	case "disconnect":
		return protocol.Message{
			Type:             protocol.MsgDisconnect,
			DisconnectReason: protocol.DisconnectUserInitiated,
		}, nil

	case "key_event":
		if msg.KeyEvent == nil {
			return protocol.Message{}, ErrUntranslatable
		}
		ev := keyEventFromFields(*msg.KeyEvent)
		return protocol.Message{Type: protocol.MsgKeyEvent, KeyEvent: &ev}, nil

	case "mouse_move":
		if msg.MouseMove == nil {
			return protocol.Message{}, ErrUntranslatable
		}
		ev := mouseMoveFromFields(*msg.MouseMove)
		return protocol.Message{Type: protocol.MsgMouseMove, MouseMove: &ev}, nil

	case "mouse_button":
		if msg.MouseButton == nil {
			return protocol.Message{}, ErrUntranslatable
		}
		ev := mouseButtonFromFields(*msg.MouseButton)
		return protocol.Message{Type: protocol.MsgMouseButton, MouseButton: &ev}, nil

	case "mouse_scroll":
		if msg.MouseScroll == nil {
			return protocol.Message{}, ErrUntranslatable
		}
		ev := mouseScrollFromFields(*msg.MouseScroll)
		return protocol.Message{Type: protocol.MsgMouseScroll, MouseScroll: &ev}, nil

	case "input_batch":
		events := make([]protocol.InputEvent, 0, len(msg.InputBatch))
		for _, f := range msg.InputBatch {
			ev, err := inputEventFromFields(f)
			if err != nil {
				return protocol.Message{}, err
			}
			events = append(events, ev)
		}
		return protocol.Message{Type: protocol.MsgInputBatch, InputBatch: events}, nil

	default:
		return protocol.Message{}, fmt.Errorf("%w: unknown type %q", ErrUntranslatable, msg.Type)
	}
}

// TranslateKVMToBrowser converts one wire protocol.Message into its JSON
// Message for forwarding to the browser. The second return value is false
// for the variants not meaningful to a browser (Hello, ScreenInfo,
// ScreenInfoAck, PairingResponse, Announce, AnnounceResponse, Pong), in which case the
// caller must not forward anything.
func TranslateKVMToBrowser(msg protocol.Message) (Message, bool, error) {
	switch msg.Type {
	case protocol.MsgHello, protocol.MsgScreenInfo, protocol.MsgScreenInfoAck,
		protocol.MsgPairingResponse, protocol.MsgAnnounce, protocol.MsgAnnounceResponse,
		protocol.MsgPong:
		return Message{}, false, nil

	case protocol.MsgHelloAck:
		if msg.HelloAck == nil {
			return Message{}, false, ErrUntranslatable
		}
		return Message{
			Type: "hello_ack",
			HelloAck: &HelloAckFields{
				SessionToken:  hex.EncodeToString(msg.HelloAck.SessionToken[:]),
				ServerVersion: msg.HelloAck.ServerVersion,
				Accepted:      msg.HelloAck.Accepted,
				RejectReason:  msg.HelloAck.RejectReason,
			},
		}, true, nil

	case protocol.MsgPairingRequest:
		if msg.PairingRequest == nil {
			return Message{}, false, ErrUntranslatable
		}
		return Message{
			Type: "pairing_request",
			PairingRequest: &PairingRequestFields{
				SessionID:     msg.PairingRequest.PairingSessionID.String(),
				ExpiresAtSecs: msg.PairingRequest.ExpiresAtSecs,
			},
		}, true, nil

	case protocol.MsgPing:
		return Message{Type: "ping", Ping: &PingFields{Token: msg.PingToken}}, true, nil

	case protocol.MsgDisconnect:
		return Message{
			Type:       "disconnect",
			Disconnect: &DisconnectFields{Reason: disconnectReasonToString(msg.DisconnectReason)},
		}, true, nil

	case protocol.MsgError:
		if msg.Error == nil {
			return Message{}, false, ErrUntranslatable
		}
		return Message{
			Type: "error",
			Error: &ErrorFields{
				Code:        uint8(msg.Error.ErrorCode),
				Description: msg.Error.Description,
			},
		}, true, nil

	case protocol.MsgClipboardData:
		if msg.ClipboardData == nil {
			return Message{}, false, ErrUntranslatable
		}
		return Message{
			Type: "clipboard_data",
			ClipboardData: &ClipboardDataFields{
				Format:           clipboardFormatToString(msg.ClipboardData.Format),
				Data:             base64.StdEncoding.EncodeToString(msg.ClipboardData.Data),
				HasMoreFragments: msg.ClipboardData.HasMoreFragments,
			},
		}, true, nil

	case protocol.MsgConfigUpdate:
		if msg.ConfigUpdate == nil {
			return Message{}, false, ErrUntranslatable
		}
		return Message{
			Type: "config_update",
			ConfigUpdate: &ConfigUpdateFields{
				LogLevel:      msg.ConfigUpdate.LogLevel,
				DisableHotkey: msg.ConfigUpdate.DisableHotkey,
				Flags:         msg.ConfigUpdate.Flags,
			},
		}, true, nil

	case protocol.MsgKeyEvent:
		if msg.KeyEvent == nil {
			return Message{}, false, ErrUntranslatable
		}
		f := keyEventToFields(*msg.KeyEvent)
		return Message{Type: "key_event", KeyEvent: &f}, true, nil

	case protocol.MsgMouseMove:
		if msg.MouseMove == nil {
			return Message{}, false, ErrUntranslatable
		}
		f := mouseMoveToFields(*msg.MouseMove)
		return Message{Type: "mouse_move", MouseMove: &f}, true, nil

	case protocol.MsgMouseButton:
		if msg.MouseButton == nil {
			return Message{}, false, ErrUntranslatable
		}
		f := mouseButtonToFields(*msg.MouseButton)
		return Message{Type: "mouse_button", MouseButton: &f}, true, nil

	case protocol.MsgMouseScroll:
		if msg.MouseScroll == nil {
			return Message{}, false, ErrUntranslatable
		}
		f := mouseScrollToFields(*msg.MouseScroll)
		return Message{Type: "mouse_scroll", MouseScroll: &f}, true, nil

	case protocol.MsgInputBatch:
		fields := make([]InputEventFields, 0, len(msg.InputBatch))
		for _, ev := range msg.InputBatch {
			fields = append(fields, inputEventToFields(ev))
		}
		return Message{Type: "input_batch", InputBatch: fields}, true, nil

	default:
		return Message{}, false, fmt.Errorf("%w: unknown wire type 0x%02X", ErrUntranslatable, uint8(msg.Type))
	}
}
