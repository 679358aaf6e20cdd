// Package bridge is the WebSocket-to-wire-protocol gateway (C9): it accepts
// browser WebSocket connections, opens a dedicated TCP connection to the
// master for each one, and translates between the wire codec's binary
// messages and a JSON representation browsers can consume directly. It
// mirrors the teacher's api/pkg/desktop/ws_input.go in structure — a
// gorilla/websocket upgrader, a per-connection read loop, binary/JSON framing
// — generalized from raw input bytes to the full wire protocol.
package bridge

// Message is the JSON envelope used in both directions over the browser
// WebSocket. Type names the variant; exactly one of the pointer/slice
// fields below is populated, selected by Type, mirroring how
// pkg/protocol.Message tags its own payload fields.
type Message struct {
	Type string `json:"type"`

	Hello           *HelloFields           `json:"hello,omitempty"`
	HelloAck        *HelloAckFields        `json:"hello_ack,omitempty"`
	PairingRequest  *PairingRequestFields  `json:"pairing_request,omitempty"`
	PairingResponse *PairingResponseFields `json:"pairing_response,omitempty"`
	ScreenInfo      *ScreenInfoFields      `json:"screen_info,omitempty"`
	Ping            *PingFields            `json:"ping,omitempty"`
	Disconnect      *DisconnectFields      `json:"disconnect,omitempty"`
	Error           *ErrorFields           `json:"error,omitempty"`
	ClipboardData   *ClipboardDataFields   `json:"clipboard_data,omitempty"`
	ConfigUpdate    *ConfigUpdateFields    `json:"config_update,omitempty"`
	KeyEvent        *KeyEventFields        `json:"key_event,omitempty"`
	MouseMove       *MouseMoveFields       `json:"mouse_move,omitempty"`
	MouseButton     *MouseButtonFields     `json:"mouse_button,omitempty"`
	MouseScroll     *MouseScrollFields     `json:"mouse_scroll,omitempty"`
	InputBatch      []InputEventFields     `json:"input_batch,omitempty"`
}

// HelloFields backs the "hello" variant. The browser never sends a
// platform id; the bridge always fills in PlatformWeb on translation.
type HelloFields struct {
	ClientID     string `json:"client_id"`
	ClientName   string `json:"client_name"`
	Capabilities uint32 `json:"capabilities"`
}

// HelloAckFields backs the "hello_ack" variant (master -> browser only).
type HelloAckFields struct {
	SessionToken string `json:"session_token"` // hex-encoded 32 bytes
	ServerVersion uint8  `json:"server_version"`
	Accepted      bool   `json:"accepted"`
	RejectReason  uint8  `json:"reject_reason"`
}

// PairingRequestFields backs the "pairing_request" variant (master ->
// browser only).
type PairingRequestFields struct {
	SessionID     string `json:"session_id"`
	ExpiresAtSecs uint64 `json:"expires_at_secs"`
}

// PairingResponseFields backs the "pairing_response" variant (browser ->
// master only).
type PairingResponseFields struct {
	SessionID string `json:"session_id"`
	PinHash   string `json:"pin_hash"`
	Accepted  bool   `json:"accepted"`
}

// ScreenInfoFields backs the "screen_info" variant (browser -> master
// only). A browser always reports exactly one, primary monitor at (0, 0).
type ScreenInfoFields struct {
	Width       uint32 `json:"width"`
	Height      uint32 `json:"height"`
	ScaleFactor uint16 `json:"scale_factor"`
}

// PingFields backs the "ping" variant (master -> browser only; the
// bridge's own keepalive Pings to the master are never forwarded).
type PingFields struct {
	Token uint64 `json:"token"`
}

// DisconnectFields backs the "disconnect" variant. Reason is one of
// "user", "shutdown", "protocol_error", "timeout". A browser-originated
// Disconnect always translates to the wire "user" reason regardless of
// what it sends here.
type DisconnectFields struct {
	Reason string `json:"reason"`
}

// ErrorFields backs the "error" variant (master -> browser only).
type ErrorFields struct {
	Code        uint8  `json:"code"`
	Description string `json:"description"`
}

// ClipboardDataFields backs the "clipboard_data" variant. Format is one of
// "text", "html", "image". On master -> browser messages Data is RFC 4648
// base64, regardless of format, so arbitrary wire bytes survive the JSON hop
// intact. A browser-originated clipboard message is taken as UTF-8 text: its
// Data is used as-is (it is not base64-decoded) and it always translates to
// the wire Text format.
type ClipboardDataFields struct {
	Format           string `json:"format"`
	Data             string `json:"data"`
	HasMoreFragments bool   `json:"has_more_fragments"`
}

// ConfigUpdateFields backs the "config_update" variant.
type ConfigUpdateFields struct {
	LogLevel      string `json:"log_level"`
	DisableHotkey string `json:"disable_hotkey"`
	Flags         uint32 `json:"flags"`
}

// KeyEventFields backs the "key_event" variant, standalone or nested inside
// an InputEventFields. EventType is "down" or "up".
type KeyEventFields struct {
	KeyCode   uint16 `json:"key_code"`
	ScanCode  uint16 `json:"scan_code"`
	EventType string `json:"event_type"`
	Modifiers uint8  `json:"modifiers"`
}

// MouseMoveFields backs the "mouse_move" variant.
type MouseMoveFields struct {
	X      int32 `json:"x"`
	Y      int32 `json:"y"`
	DeltaX int16 `json:"delta_x"`
	DeltaY int16 `json:"delta_y"`
}

// MouseButtonFields backs the "mouse_button" variant. EventType is "press"
// or "release"; Button is the wire MouseButtonID (1=Left..5=X2).
type MouseButtonFields struct {
	Button    uint8  `json:"button"`
	EventType string `json:"event_type"`
	X         int32  `json:"x"`
	Y         int32  `json:"y"`
}

// MouseScrollFields backs the "mouse_scroll" variant.
type MouseScrollFields struct {
	DeltaX int16 `json:"delta_x"`
	DeltaY int16 `json:"delta_y"`
	X      int32 `json:"x"`
	Y      int32 `json:"y"`
}

// InputEventFields is one event nested inside an InputBatch. Kind selects
// exactly one of the pointer fields, mirroring pkg/protocol.InputEvent.
type InputEventFields struct {
	Kind        string             `json:"kind"`
	Key         *KeyEventFields    `json:"key,omitempty"`
	MouseMove   *MouseMoveFields   `json:"mouse_move,omitempty"`
	MouseButton *MouseButtonFields `json:"mouse_button,omitempty"`
	MouseScroll *MouseScrollFields `json:"mouse_scroll,omitempty"`
}
