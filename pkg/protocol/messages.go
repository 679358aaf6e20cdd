// Package protocol implements the KVM-over-IP binary wire protocol: a
// 24-byte fixed header followed by a type-specific payload. All multi-byte
// integers are big-endian. The canonical key representation carried in
// KeyEvent payloads is the hid.KeyCode from pkg/hid.
package protocol

import (
	"github.com/google/uuid"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/hid"
)

// KeyCode re-exports hid.KeyCode so callers outside pkg/hid don't need a
// second import to name the type carried in KeyEventMessage.
type KeyCode = hid.KeyCode

// ProtocolVersion is written into byte 0 of every message header. A receiver
// that sees a different value rejects the message as ErrUnsupportedVersion.
const ProtocolVersion uint8 = 0x01

// HeaderSize is the number of bytes that precede every payload on the wire.
//
//	offset  size  field
//	0       1     version
//	1       1     message type
//	2       2     reserved (0x0000)
//	4       4     payload length (big-endian u32)
//	8       8     sequence number (big-endian u64)
//	16      8     timestamp_us (big-endian u64, microseconds since Unix epoch)
const HeaderSize = 24

// PlatformID identifies the OS of a client. Key events on the wire always
// carry HID codes; the master does not translate them per platform.
type PlatformID uint8

const (
	PlatformWindows PlatformID = 0x01
	PlatformLinux   PlatformID = 0x02
	PlatformMacOS   PlatformID = 0x03
	PlatformWeb     PlatformID = 0x04
)

func platformIDFromByte(b byte) (PlatformID, bool) {
	switch PlatformID(b) {
	case PlatformWindows, PlatformLinux, PlatformMacOS, PlatformWeb:
		return PlatformID(b), true
	default:
		return 0, false
	}
}

// MessageType discriminates the payload that follows the header. Values in
// 0x00-0x3F are control-channel messages, 0x40-0x7F are input-channel
// messages, and 0x80-0x8F are discovery messages.
type MessageType uint8

const (
	MsgHello            MessageType = 0x01
	MsgHelloAck         MessageType = 0x02
	MsgPairingRequest   MessageType = 0x03
	MsgPairingResponse  MessageType = 0x04
	MsgScreenInfo       MessageType = 0x05
	MsgScreenInfoAck    MessageType = 0x06
	MsgPing             MessageType = 0x07
	MsgPong             MessageType = 0x08
	MsgDisconnect       MessageType = 0x09
	MsgError            MessageType = 0x0A
	MsgClipboardData    MessageType = 0x0B
	MsgConfigUpdate     MessageType = 0x0C
	MsgKeyEvent         MessageType = 0x40
	MsgMouseMove        MessageType = 0x41
	MsgMouseButton      MessageType = 0x42
	MsgMouseScroll      MessageType = 0x43
	MsgInputBatch       MessageType = 0x44
	MsgAnnounce         MessageType = 0x80
	MsgAnnounceResponse MessageType = 0x81
)

func messageTypeFromByte(b byte) (MessageType, bool) {
	switch MessageType(b) {
	case MsgHello, MsgHelloAck, MsgPairingRequest, MsgPairingResponse,
		MsgScreenInfo, MsgScreenInfoAck, MsgPing, MsgPong, MsgDisconnect,
		MsgError, MsgClipboardData, MsgConfigUpdate, MsgKeyEvent, MsgMouseMove,
		MsgMouseButton, MsgMouseScroll, MsgInputBatch, MsgAnnounce,
		MsgAnnounceResponse:
		return MessageType(b), true
	default:
		return 0, false
	}
}

// Capability bitmask flags for HelloMessage.Capabilities.
const (
	CapKeyboardEmulation uint32 = 1 << 0
	CapMouseEmulation    uint32 = 1 << 1
	CapClipboardSharing  uint32 = 1 << 2
	CapMultiMonitor      uint32 = 1 << 3
)

// ConfigFlagAutostart is bit 0 of ConfigUpdateMessage.Flags.
const ConfigFlagAutostart uint32 = 1 << 0

// KeyEventType distinguishes a key press from a release.
type KeyEventType uint8

const (
	KeyDown KeyEventType = 0x01
	KeyUp   KeyEventType = 0x02
)

// MouseButtonID identifies which physical button changed state.
type MouseButtonID uint8

const (
	ButtonLeft    MouseButtonID = 0x01
	ButtonRight   MouseButtonID = 0x02
	ButtonMiddle  MouseButtonID = 0x03
	ButtonExtra1  MouseButtonID = 0x04
	ButtonExtra2  MouseButtonID = 0x05
)

// ButtonEventType distinguishes a button press from a release.
type ButtonEventType uint8

const (
	ButtonPress   ButtonEventType = 0x01
	ButtonRelease ButtonEventType = 0x02
)

// ClipboardFormat identifies how ClipboardDataMessage.Data is interpreted.
type ClipboardFormat uint8

const (
	ClipboardUTF8Text ClipboardFormat = 0x01
	ClipboardHTML     ClipboardFormat = 0x02
	ClipboardImage    ClipboardFormat = 0x03
)

// DisconnectReason explains why a peer is closing the connection.
type DisconnectReason uint8

const (
	DisconnectUserInitiated DisconnectReason = 0x01
	DisconnectServerShutdown DisconnectReason = 0x02
	DisconnectProtocolError DisconnectReason = 0x03
	DisconnectTimeout       DisconnectReason = 0x04
)

// ErrorCode accompanies an ErrorMessage to describe what went wrong.
type ErrorCode uint8

const (
	ErrCodeProtocolVersionMismatch ErrorCode = 0x01
	ErrCodeAuthenticationFailed    ErrorCode = 0x02
	ErrCodePairingRequired         ErrorCode = 0x03
	ErrCodePairingFailed           ErrorCode = 0x04
	ErrCodeTooManyClients          ErrorCode = 0x05
	ErrCodeRateLimited             ErrorCode = 0x06
	ErrCodeInternalError           ErrorCode = 0x07
	ErrCodeInvalidMessage          ErrorCode = 0x08
)

// Header is the 24-byte envelope prepended to every payload on the wire.
type Header struct {
	Version         uint8
	Type            MessageType
	PayloadLength   uint32
	SequenceNumber  uint64
	TimestampMicros uint64
}

// HelloMessage (0x01): sent by a client to initiate a control connection.
type HelloMessage struct {
	ClientID        uuid.UUID
	ProtocolVersion uint8
	PlatformID      PlatformID
	ClientName      string
	Capabilities    uint32
}

// HelloAckMessage (0x02): master's response to a Hello.
type HelloAckMessage struct {
	SessionToken [32]byte
	ServerVersion uint8
	Accepted      bool
	RejectReason  uint8
}

// PairingRequestMessage (0x03): master offers a PIN-based pairing session.
type PairingRequestMessage struct {
	PairingSessionID uuid.UUID
	ExpiresAtSecs    uint64
}

// PairingResponseMessage (0x04): client submits its PIN hash.
type PairingResponseMessage struct {
	PairingSessionID uuid.UUID
	PinHash          string
	Accepted         bool
}

// MonitorInfo describes one physical monitor attached to a client.
type MonitorInfo struct {
	MonitorID    uint8
	XOffset      int32
	YOffset      int32
	Width        uint32
	Height       uint32
	ScaleFactor  uint16
	IsPrimary    bool
}

// ScreenInfoMessage (0x05): client reports its monitor configuration.
type ScreenInfoMessage struct {
	Monitors []MonitorInfo
}

// ModifierFlags packs the 8 modifier-key positions into a single byte;
// interpretation is identical to hid.Modifiers.
type ModifierFlags = hid.Modifiers

// KeyEventMessage (0x40): a single keyboard press or release.
type KeyEventMessage struct {
	KeyCode   hid.KeyCode
	ScanCode  uint16
	EventType KeyEventType
	Modifiers ModifierFlags
}

// MouseMoveMessage (0x41): absolute cursor position plus a relative delta.
type MouseMoveMessage struct {
	X      int32
	Y      int32
	DeltaX int16
	DeltaY int16
}

// MouseButtonMessage (0x42): a mouse button press or release.
type MouseButtonMessage struct {
	Button    MouseButtonID
	EventType ButtonEventType
	X         int32
	Y         int32
}

// MouseScrollMessage (0x43): a mouse wheel scroll. One unit equals 1/120th
// of a notch, matching the Windows WHEEL_DELTA convention.
type MouseScrollMessage struct {
	DeltaX int16
	DeltaY int16
	X      int32
	Y      int32
}

// InputEventKind discriminates the variants packed into an InputBatch.
type InputEventKind uint8

const (
	InputEventKey         InputEventKind = 0x01
	InputEventMouseMove   InputEventKind = 0x02
	InputEventMouseButton InputEventKind = 0x03
	InputEventMouseScroll InputEventKind = 0x04
)

// InputEvent is one event inside an InputBatch; exactly one field other than
// Kind is populated depending on Kind's value.
type InputEvent struct {
	Kind        InputEventKind
	Key         *KeyEventMessage
	MouseMove   *MouseMoveMessage
	MouseButton *MouseButtonMessage
	MouseScroll *MouseScrollMessage
}

// AnnounceMessage (0x80): a client's UDP broadcast presence beacon. The
// codec can encode/decode this variant but this repo does not implement a
// broadcast responder (out of scope).
type AnnounceMessage struct {
	ClientID    uuid.UUID
	PlatformID  PlatformID
	ControlPort uint16
	ClientName  string
}

// AnnounceResponseMessage (0x81): a master's reply to an Announce.
type AnnounceResponseMessage struct {
	MasterControlPort uint16
	AlreadyPaired     bool
}

// ErrorMessage (0x0A): a protocol-level error notification.
type ErrorMessage struct {
	ErrorCode   ErrorCode
	Description string
}

// ClipboardDataMessage (0x0B): a clipboard content fragment.
type ClipboardDataMessage struct {
	Format           ClipboardFormat
	Data             []byte
	HasMoreFragments bool
}

// ConfigUpdateMessage (0x0C): master-pushed live configuration change.
type ConfigUpdateMessage struct {
	LogLevel       string
	DisableHotkey  string
	Flags          uint32
}

// Message is the envelope for every decoded payload, tagged by Type.
// Exactly one payload field other than Type is populated (none for
// ScreenInfoAck; Ping, Pong and Disconnect use the scalar PingToken,
// PongToken and DisconnectReason fields).
type Message struct {
	Type MessageType

	Hello            *HelloMessage
	HelloAck         *HelloAckMessage
	PairingRequest   *PairingRequestMessage
	PairingResponse  *PairingResponseMessage
	ScreenInfo       *ScreenInfoMessage
	PingToken        uint64
	PongToken        uint64
	DisconnectReason DisconnectReason
	Error            *ErrorMessage
	ClipboardData    *ClipboardDataMessage
	ConfigUpdate     *ConfigUpdateMessage
	KeyEvent         *KeyEventMessage
	MouseMove        *MouseMoveMessage
	MouseButton      *MouseButtonMessage
	MouseScroll      *MouseScrollMessage
	InputBatch       []InputEvent
	Announce         *AnnounceMessage
	AnnounceResponse *AnnounceResponseMessage
}
