package protocol

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jerryyoon-qcells/kvm-over-ip-sub000/pkg/hid"
)

// Encode serializes msg into a 24-byte header followed by its type-specific
// payload. sequenceNumber and timestampMicros are supplied by the caller
// (typically a SequenceCounter and time.Now(), respectively) rather than
// computed here, so encoding stays deterministic and testable.
func Encode(msg Message, sequenceNumber, timestampMicros uint64) ([]byte, error) {
	payload, err := encodePayload(msg)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = ProtocolVersion
	buf[1] = byte(msg.Type)
	// buf[2:4] reserved, left zero
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	binary.BigEndian.PutUint64(buf[8:16], sequenceNumber)
	binary.BigEndian.PutUint64(buf[16:24], timestampMicros)
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

// Decode reads one Message from the start of b and returns it along with the
// total number of bytes consumed (header + payload), so a streaming reader
// can advance its cursor by that amount and call Decode again.
func Decode(b []byte) (Message, int, error) {
	if len(b) < HeaderSize {
		return Message{}, 0, fmt.Errorf("%w: need %d header bytes, got %d", ErrInsufficientData, HeaderSize, len(b))
	}

	version := b[0]
	if version != ProtocolVersion {
		return Message{}, 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	msgType, ok := messageTypeFromByte(b[1])
	if !ok {
		return Message{}, 0, fmt.Errorf("%w: 0x%02X", ErrUnknownMessageType, b[1])
	}

	payloadLen := int(binary.BigEndian.Uint32(b[4:8]))
	total := HeaderSize + payloadLen
	if len(b) < total {
		return Message{}, 0, fmt.Errorf("%w: declared %d payload bytes, have %d", ErrInsufficientData, payloadLen, len(b)-HeaderSize)
	}

	msg, err := decodePayload(msgType, b[HeaderSize:total])
	if err != nil {
		return Message{}, 0, err
	}
	return msg, total, nil
}

// ── payload encode ──────────────────────────────────────────────────────────

func encodePayload(msg Message) ([]byte, error) {
	var buf []byte
	switch msg.Type {
	case MsgHello:
		buf = encodeHello(msg.Hello)
	case MsgHelloAck:
		buf = encodeHelloAck(msg.HelloAck)
	case MsgPairingRequest:
		buf = encodePairingRequest(msg.PairingRequest)
	case MsgPairingResponse:
		buf = encodePairingResponse(msg.PairingResponse)
	case MsgScreenInfo:
		buf = encodeScreenInfo(msg.ScreenInfo)
	case MsgScreenInfoAck:
		// empty payload
	case MsgPing:
		buf = make([]byte, 8)
		binary.BigEndian.PutUint64(buf, msg.PingToken)
	case MsgPong:
		buf = make([]byte, 8)
		binary.BigEndian.PutUint64(buf, msg.PongToken)
	case MsgDisconnect:
		buf = []byte{byte(msg.DisconnectReason)}
	case MsgError:
		buf = encodeError(msg.Error)
	case MsgClipboardData:
		buf = encodeClipboardData(msg.ClipboardData)
	case MsgConfigUpdate:
		buf = encodeConfigUpdate(msg.ConfigUpdate)
	case MsgKeyEvent:
		buf = encodeKeyEvent(msg.KeyEvent)
	case MsgMouseMove:
		buf = encodeMouseMove(msg.MouseMove)
	case MsgMouseButton:
		buf = encodeMouseButton(msg.MouseButton)
	case MsgMouseScroll:
		buf = encodeMouseScroll(msg.MouseScroll)
	case MsgInputBatch:
		buf = encodeInputBatch(msg.InputBatch)
	case MsgAnnounce:
		buf = encodeAnnounce(msg.Announce)
	case MsgAnnounceResponse:
		buf = encodeAnnounceResponse(msg.AnnounceResponse)
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownMessageType, byte(msg.Type))
	}
	return buf, nil
}

func decodePayload(msgType MessageType, p []byte) (Message, error) {
	msg := Message{Type: msgType}
	var err error
	switch msgType {
	case MsgHello:
		msg.Hello, err = decodeHello(p)
	case MsgHelloAck:
		msg.HelloAck, err = decodeHelloAck(p)
	case MsgPairingRequest:
		msg.PairingRequest, err = decodePairingRequest(p)
	case MsgPairingResponse:
		msg.PairingResponse, err = decodePairingResponse(p)
	case MsgScreenInfo:
		msg.ScreenInfo, err = decodeScreenInfo(p)
	case MsgScreenInfoAck:
		// no payload
	case MsgPing:
		if e := requireLen(p, 8, "Ping"); e != nil {
			return Message{}, e
		}
		msg.PingToken = binary.BigEndian.Uint64(p)
	case MsgPong:
		if e := requireLen(p, 8, "Pong"); e != nil {
			return Message{}, e
		}
		msg.PongToken = binary.BigEndian.Uint64(p)
	case MsgDisconnect:
		if e := requireLen(p, 1, "Disconnect"); e != nil {
			return Message{}, e
		}
		reason, ok := disconnectReasonFromByte(p[0])
		if !ok {
			return Message{}, wrapMalformed("Disconnect", fmt.Errorf("unknown reason %d", p[0]))
		}
		msg.DisconnectReason = reason
	case MsgError:
		msg.Error, err = decodeError(p)
	case MsgClipboardData:
		msg.ClipboardData, err = decodeClipboardData(p)
	case MsgConfigUpdate:
		msg.ConfigUpdate, err = decodeConfigUpdate(p)
	case MsgKeyEvent:
		msg.KeyEvent, err = decodeKeyEvent(p)
	case MsgMouseMove:
		msg.MouseMove, err = decodeMouseMove(p)
	case MsgMouseButton:
		msg.MouseButton, err = decodeMouseButton(p)
	case MsgMouseScroll:
		msg.MouseScroll, err = decodeMouseScroll(p)
	case MsgInputBatch:
		msg.InputBatch, err = decodeInputBatch(p)
	case MsgAnnounce:
		msg.Announce, err = decodeAnnounce(p)
	case MsgAnnounceResponse:
		msg.AnnounceResponse, err = decodeAnnounceResponse(p)
	default:
		return Message{}, fmt.Errorf("%w: 0x%02X", ErrUnknownMessageType, byte(msgType))
	}
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

func disconnectReasonFromByte(b byte) (DisconnectReason, bool) {
	switch DisconnectReason(b) {
	case DisconnectUserInitiated, DisconnectServerShutdown, DisconnectProtocolError, DisconnectTimeout:
		return DisconnectReason(b), true
	default:
		return 0, false
	}
}

func errorCodeFromByte(b byte) (ErrorCode, bool) {
	switch ErrorCode(b) {
	case ErrCodeProtocolVersionMismatch, ErrCodeAuthenticationFailed, ErrCodePairingRequired,
		ErrCodePairingFailed, ErrCodeTooManyClients, ErrCodeRateLimited, ErrCodeInternalError,
		ErrCodeInvalidMessage:
		return ErrorCode(b), true
	default:
		return 0, false
	}
}

func clipboardFormatFromByte(b byte) (ClipboardFormat, bool) {
	switch ClipboardFormat(b) {
	case ClipboardUTF8Text, ClipboardHTML, ClipboardImage:
		return ClipboardFormat(b), true
	default:
		return 0, false
	}
}

func mouseButtonFromByte(b byte) (MouseButtonID, bool) {
	switch MouseButtonID(b) {
	case ButtonLeft, ButtonRight, ButtonMiddle, ButtonExtra1, ButtonExtra2:
		return MouseButtonID(b), true
	default:
		return 0, false
	}
}

func buttonEventFromByte(b byte) (ButtonEventType, bool) {
	switch ButtonEventType(b) {
	case ButtonPress, ButtonRelease:
		return ButtonEventType(b), true
	default:
		return 0, false
	}
}

func keyEventTypeFromByte(b byte) (KeyEventType, bool) {
	switch KeyEventType(b) {
	case KeyDown, KeyUp:
		return KeyEventType(b), true
	default:
		return 0, false
	}
}

// ── per-message encode helpers ──────────────────────────────────────────────

func encodeHello(m *HelloMessage) []byte {
	buf := make([]byte, 0, 24+len(m.ClientName))
	buf = append(buf, m.ClientID[:]...)
	buf = append(buf, m.ProtocolVersion, byte(m.PlatformID))
	buf = writeLengthPrefixedString(buf, m.ClientName)
	buf = appendUint32(buf, m.Capabilities)
	return buf
}

func decodeHello(p []byte) (*HelloMessage, error) {
	if err := requireLen(p, 18, "Hello"); err != nil {
		return nil, err
	}
	clientID, err := readUUID(p, 0)
	if err != nil {
		return nil, wrapMalformed("Hello.client_id", err)
	}
	protocolVersion := p[16]
	platformID, ok := platformIDFromByte(p[17])
	if !ok {
		return nil, wrapMalformed("Hello.platform_id", fmt.Errorf("unknown platform %d", p[17]))
	}
	name, nameEnd, err := readLengthPrefixedString(p, 18)
	if err != nil {
		return nil, wrapMalformed("Hello.client_name", err)
	}
	if err := requireLen(p, nameEnd+4, "Hello.capabilities"); err != nil {
		return nil, err
	}
	caps := binary.BigEndian.Uint32(p[nameEnd : nameEnd+4])
	return &HelloMessage{
		ClientID:        clientID,
		ProtocolVersion: protocolVersion,
		PlatformID:      platformID,
		ClientName:      name,
		Capabilities:    caps,
	}, nil
}

func encodeHelloAck(m *HelloAckMessage) []byte {
	buf := make([]byte, 0, 35)
	buf = append(buf, m.SessionToken[:]...)
	buf = append(buf, m.ServerVersion, boolByte(m.Accepted), m.RejectReason)
	return buf
}

func decodeHelloAck(p []byte) (*HelloAckMessage, error) {
	if err := requireLen(p, 35, "HelloAck"); err != nil {
		return nil, err
	}
	var token [32]byte
	copy(token[:], p[0:32])
	return &HelloAckMessage{
		SessionToken:  token,
		ServerVersion: p[32],
		Accepted:      p[33] != 0,
		RejectReason:  p[34],
	}, nil
}

func encodePairingRequest(m *PairingRequestMessage) []byte {
	buf := make([]byte, 0, 24)
	buf = append(buf, m.PairingSessionID[:]...)
	buf = appendUint64(buf, m.ExpiresAtSecs)
	return buf
}

func decodePairingRequest(p []byte) (*PairingRequestMessage, error) {
	if err := requireLen(p, 24, "PairingRequest"); err != nil {
		return nil, err
	}
	sessionID, err := readUUID(p, 0)
	if err != nil {
		return nil, wrapMalformed("PairingRequest.pairing_session_id", err)
	}
	return &PairingRequestMessage{
		PairingSessionID: sessionID,
		ExpiresAtSecs:    binary.BigEndian.Uint64(p[16:24]),
	}, nil
}

func encodePairingResponse(m *PairingResponseMessage) []byte {
	buf := make([]byte, 0, 17+len(m.PinHash))
	buf = append(buf, m.PairingSessionID[:]...)
	buf = writeLengthPrefixedString(buf, m.PinHash)
	buf = append(buf, boolByte(m.Accepted))
	return buf
}

func decodePairingResponse(p []byte) (*PairingResponseMessage, error) {
	if err := requireLen(p, 18, "PairingResponse"); err != nil {
		return nil, err
	}
	sessionID, err := readUUID(p, 0)
	if err != nil {
		return nil, wrapMalformed("PairingResponse.pairing_session_id", err)
	}
	pinHash, end, err := readLengthPrefixedString(p, 16)
	if err != nil {
		return nil, wrapMalformed("PairingResponse.pin_hash", err)
	}
	if err := requireLen(p, end+1, "PairingResponse.accepted"); err != nil {
		return nil, err
	}
	return &PairingResponseMessage{
		PairingSessionID: sessionID,
		PinHash:          pinHash,
		Accepted:         p[end] != 0,
	}, nil
}

func encodeScreenInfo(m *ScreenInfoMessage) []byte {
	buf := make([]byte, 0, 1+len(m.Monitors)*16)
	buf = append(buf, byte(len(m.Monitors)))
	for _, mon := range m.Monitors {
		buf = append(buf, mon.MonitorID)
		buf = appendInt32(buf, mon.XOffset)
		buf = appendInt32(buf, mon.YOffset)
		buf = appendUint32(buf, mon.Width)
		buf = appendUint32(buf, mon.Height)
		buf = appendUint16(buf, mon.ScaleFactor)
		buf = append(buf, boolByte(mon.IsPrimary))
	}
	return buf
}

// decodeScreenInfo implements the exact wire layout: monitor_id(1) +
// x_offset(4) + y_offset(4) + width(4) + height(4) + scale_factor(2) +
// is_primary(1) = 20 bytes per monitor.
func decodeScreenInfo(p []byte) (*ScreenInfoMessage, error) {
	if err := requireLen(p, 1, "ScreenInfo"); err != nil {
		return nil, err
	}
	count := int(p[0])
	offset := 1
	monitors := make([]MonitorInfo, 0, count)
	for i := 0; i < count; i++ {
		if err := requireLen(p, offset+20, "ScreenInfo.monitor"); err != nil {
			return nil, err
		}
		monitors = append(monitors, MonitorInfo{
			MonitorID:   p[offset],
			XOffset:     int32(binary.BigEndian.Uint32(p[offset+1 : offset+5])),
			YOffset:     int32(binary.BigEndian.Uint32(p[offset+5 : offset+9])),
			Width:       binary.BigEndian.Uint32(p[offset+9 : offset+13]),
			Height:      binary.BigEndian.Uint32(p[offset+13 : offset+17]),
			ScaleFactor: binary.BigEndian.Uint16(p[offset+17 : offset+19]),
			IsPrimary:   p[offset+19] != 0,
		})
		offset += 20
	}
	return &ScreenInfoMessage{Monitors: monitors}, nil
}

func encodeError(m *ErrorMessage) []byte {
	buf := make([]byte, 0, 3+len(m.Description))
	buf = append(buf, byte(m.ErrorCode))
	buf = writeLengthPrefixedString(buf, m.Description)
	return buf
}

func decodeError(p []byte) (*ErrorMessage, error) {
	if err := requireLen(p, 1, "Error"); err != nil {
		return nil, err
	}
	code, ok := errorCodeFromByte(p[0])
	if !ok {
		return nil, wrapMalformed("Error.error_code", fmt.Errorf("unknown code %d", p[0]))
	}
	desc, _, err := readLengthPrefixedString(p, 1)
	if err != nil {
		return nil, wrapMalformed("Error.description", err)
	}
	return &ErrorMessage{ErrorCode: code, Description: desc}, nil
}

func encodeClipboardData(m *ClipboardDataMessage) []byte {
	buf := make([]byte, 0, 6+len(m.Data))
	buf = append(buf, byte(m.Format))
	buf = appendUint32(buf, uint32(len(m.Data)))
	buf = append(buf, m.Data...)
	buf = append(buf, boolByte(m.HasMoreFragments))
	return buf
}

func decodeClipboardData(p []byte) (*ClipboardDataMessage, error) {
	if err := requireLen(p, 5, "ClipboardData"); err != nil {
		return nil, err
	}
	format, ok := clipboardFormatFromByte(p[0])
	if !ok {
		return nil, wrapMalformed("ClipboardData.format", fmt.Errorf("unknown format %d", p[0]))
	}
	dataLen := int(binary.BigEndian.Uint32(p[1:5]))
	if err := requireLen(p, 5+dataLen+1, "ClipboardData.data"); err != nil {
		return nil, err
	}
	data := make([]byte, dataLen)
	copy(data, p[5:5+dataLen])
	return &ClipboardDataMessage{
		Format:           format,
		Data:             data,
		HasMoreFragments: p[5+dataLen] != 0,
	}, nil
}

func encodeConfigUpdate(m *ConfigUpdateMessage) []byte {
	buf := make([]byte, 0, 8+len(m.LogLevel)+len(m.DisableHotkey))
	buf = writeLengthPrefixedString(buf, m.LogLevel)
	buf = writeLengthPrefixedString(buf, m.DisableHotkey)
	buf = appendUint32(buf, m.Flags)
	return buf
}

func decodeConfigUpdate(p []byte) (*ConfigUpdateMessage, error) {
	logLevel, off, err := readLengthPrefixedString(p, 0)
	if err != nil {
		return nil, wrapMalformed("ConfigUpdate.log_level", err)
	}
	hotkey, off2, err := readLengthPrefixedString(p, off)
	if err != nil {
		return nil, wrapMalformed("ConfigUpdate.disable_hotkey", err)
	}
	if err := requireLen(p, off2+4, "ConfigUpdate.flags"); err != nil {
		return nil, err
	}
	return &ConfigUpdateMessage{
		LogLevel:      logLevel,
		DisableHotkey: hotkey,
		Flags:         binary.BigEndian.Uint32(p[off2 : off2+4]),
	}, nil
}

func encodeKeyEvent(m *KeyEventMessage) []byte {
	buf := make([]byte, 6)
	binary.BigEndian.PutUint16(buf[0:2], m.KeyCode.Uint16())
	binary.BigEndian.PutUint16(buf[2:4], m.ScanCode)
	buf[4] = byte(m.EventType)
	buf[5] = byte(m.Modifiers)
	return buf
}

func decodeKeyEvent(p []byte) (*KeyEventMessage, error) {
	if err := requireLen(p, 6, "KeyEvent"); err != nil {
		return nil, err
	}
	eventType, ok := keyEventTypeFromByte(p[4])
	if !ok {
		return nil, wrapMalformed("KeyEvent.event_type", fmt.Errorf("unknown type %d", p[4]))
	}
	return &KeyEventMessage{
		KeyCode:   hid.FromUint16(binary.BigEndian.Uint16(p[0:2])),
		ScanCode:  binary.BigEndian.Uint16(p[2:4]),
		EventType: eventType,
		Modifiers: hid.Modifiers(p[5]),
	}, nil
}

func encodeMouseMove(m *MouseMoveMessage) []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint32(buf[0:4], uint32(m.X))
	binary.BigEndian.PutUint32(buf[4:8], uint32(m.Y))
	binary.BigEndian.PutUint16(buf[8:10], uint16(m.DeltaX))
	binary.BigEndian.PutUint16(buf[10:12], uint16(m.DeltaY))
	return buf
}

func decodeMouseMove(p []byte) (*MouseMoveMessage, error) {
	if err := requireLen(p, 12, "MouseMove"); err != nil {
		return nil, err
	}
	return &MouseMoveMessage{
		X:      int32(binary.BigEndian.Uint32(p[0:4])),
		Y:      int32(binary.BigEndian.Uint32(p[4:8])),
		DeltaX: int16(binary.BigEndian.Uint16(p[8:10])),
		DeltaY: int16(binary.BigEndian.Uint16(p[10:12])),
	}, nil
}

func encodeMouseButton(m *MouseButtonMessage) []byte {
	buf := make([]byte, 10)
	buf[0] = byte(m.Button)
	buf[1] = byte(m.EventType)
	binary.BigEndian.PutUint32(buf[2:6], uint32(m.X))
	binary.BigEndian.PutUint32(buf[6:10], uint32(m.Y))
	return buf
}

func decodeMouseButton(p []byte) (*MouseButtonMessage, error) {
	if err := requireLen(p, 10, "MouseButton"); err != nil {
		return nil, err
	}
	button, ok := mouseButtonFromByte(p[0])
	if !ok {
		return nil, wrapMalformed("MouseButton.button", fmt.Errorf("unknown button %d", p[0]))
	}
	eventType, ok := buttonEventFromByte(p[1])
	if !ok {
		return nil, wrapMalformed("MouseButton.event_type", fmt.Errorf("unknown event %d", p[1]))
	}
	return &MouseButtonMessage{
		Button:    button,
		EventType: eventType,
		X:         int32(binary.BigEndian.Uint32(p[2:6])),
		Y:         int32(binary.BigEndian.Uint32(p[6:10])),
	}, nil
}

func encodeMouseScroll(m *MouseScrollMessage) []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint16(buf[0:2], uint16(m.DeltaX))
	binary.BigEndian.PutUint16(buf[2:4], uint16(m.DeltaY))
	binary.BigEndian.PutUint32(buf[4:8], uint32(m.X))
	binary.BigEndian.PutUint32(buf[8:12], uint32(m.Y))
	return buf
}

func decodeMouseScroll(p []byte) (*MouseScrollMessage, error) {
	if err := requireLen(p, 12, "MouseScroll"); err != nil {
		return nil, err
	}
	return &MouseScrollMessage{
		DeltaX: int16(binary.BigEndian.Uint16(p[0:2])),
		DeltaY: int16(binary.BigEndian.Uint16(p[2:4])),
		X:      int32(binary.BigEndian.Uint32(p[4:8])),
		Y:      int32(binary.BigEndian.Uint32(p[8:12])),
	}, nil
}

func encodeInputBatch(events []InputEvent) []byte {
	buf := make([]byte, 0, 2+len(events)*8)
	buf = appendUint16(buf, uint16(len(events)))
	for _, ev := range events {
		switch ev.Kind {
		case InputEventKey:
			buf = append(buf, byte(InputEventKey))
			buf = append(buf, encodeKeyEvent(ev.Key)...)
		case InputEventMouseMove:
			buf = append(buf, byte(InputEventMouseMove))
			buf = append(buf, encodeMouseMove(ev.MouseMove)...)
		case InputEventMouseButton:
			buf = append(buf, byte(InputEventMouseButton))
			buf = append(buf, encodeMouseButton(ev.MouseButton)...)
		case InputEventMouseScroll:
			buf = append(buf, byte(InputEventMouseScroll))
			buf = append(buf, encodeMouseScroll(ev.MouseScroll)...)
		}
	}
	return buf
}

func decodeInputBatch(p []byte) ([]InputEvent, error) {
	if err := requireLen(p, 2, "InputBatch"); err != nil {
		return nil, err
	}
	count := int(binary.BigEndian.Uint16(p[0:2]))
	offset := 2
	events := make([]InputEvent, 0, count)
	for i := 0; i < count; i++ {
		if err := requireLen(p, offset+1, "InputBatch.event"); err != nil {
			return nil, err
		}
		kind := InputEventKind(p[offset])
		offset++
		switch kind {
		case InputEventKey:
			ev, err := decodeKeyEvent(p[offset:])
			if err != nil {
				return nil, err
			}
			events = append(events, InputEvent{Kind: kind, Key: ev})
			offset += 6
		case InputEventMouseMove:
			ev, err := decodeMouseMove(p[offset:])
			if err != nil {
				return nil, err
			}
			events = append(events, InputEvent{Kind: kind, MouseMove: ev})
			offset += 12
		case InputEventMouseButton:
			ev, err := decodeMouseButton(p[offset:])
			if err != nil {
				return nil, err
			}
			events = append(events, InputEvent{Kind: kind, MouseButton: ev})
			offset += 10
		case InputEventMouseScroll:
			ev, err := decodeMouseScroll(p[offset:])
			if err != nil {
				return nil, err
			}
			events = append(events, InputEvent{Kind: kind, MouseScroll: ev})
			offset += 12
		default:
			return nil, wrapMalformed("InputBatch.event", fmt.Errorf("unknown kind %d", kind))
		}
	}
	return events, nil
}

func encodeAnnounce(m *AnnounceMessage) []byte {
	buf := make([]byte, 0, 19+len(m.ClientName))
	buf = append(buf, m.ClientID[:]...)
	buf = append(buf, byte(m.PlatformID))
	buf = appendUint16(buf, m.ControlPort)
	buf = writeLengthPrefixedString(buf, m.ClientName)
	return buf
}

func decodeAnnounce(p []byte) (*AnnounceMessage, error) {
	if err := requireLen(p, 19, "Announce"); err != nil {
		return nil, err
	}
	clientID, err := readUUID(p, 0)
	if err != nil {
		return nil, wrapMalformed("Announce.client_id", err)
	}
	platformID, ok := platformIDFromByte(p[16])
	if !ok {
		return nil, wrapMalformed("Announce.platform_id", fmt.Errorf("unknown platform %d", p[16]))
	}
	controlPort := binary.BigEndian.Uint16(p[17:19])
	name, _, err := readLengthPrefixedString(p, 19)
	if err != nil {
		return nil, wrapMalformed("Announce.client_name", err)
	}
	return &AnnounceMessage{
		ClientID:    clientID,
		PlatformID:  platformID,
		ControlPort: controlPort,
		ClientName:  name,
	}, nil
}

func encodeAnnounceResponse(m *AnnounceResponseMessage) []byte {
	buf := make([]byte, 3)
	binary.BigEndian.PutUint16(buf[0:2], m.MasterControlPort)
	buf[2] = boolByte(m.AlreadyPaired)
	return buf
}

func decodeAnnounceResponse(p []byte) (*AnnounceResponseMessage, error) {
	if err := requireLen(p, 3, "AnnounceResponse"); err != nil {
		return nil, err
	}
	return &AnnounceResponseMessage{
		MasterControlPort: binary.BigEndian.Uint16(p[0:2]),
		AlreadyPaired:     p[2] != 0,
	}, nil
}

// ── shared byte-level helpers ────────────────────────────────────────────────

func requireLen(p []byte, n int, context string) error {
	if len(p) < n {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrInsufficientData, context, n, len(p))
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 0x01
	}
	return 0x00
}

func appendUint16(buf []byte, v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return append(buf, b...)
}

func appendUint32(buf []byte, v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return append(buf, b...)
}

func appendInt32(buf []byte, v int32) []byte {
	return appendUint32(buf, uint32(v))
}

func appendUint64(buf []byte, v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return append(buf, b...)
}

func readUUID(p []byte, offset int) (uuid.UUID, error) {
	if offset+16 > len(p) {
		return uuid.UUID{}, fmt.Errorf("not enough bytes for uuid at offset %d", offset)
	}
	var id uuid.UUID
	copy(id[:], p[offset:offset+16])
	return id, nil
}

// writeLengthPrefixedString appends a 2-byte big-endian length followed by
// the UTF-8 bytes of s. Strings longer than 65535 bytes are truncated so
// that encode never fails for an over-long field.
func writeLengthPrefixedString(buf []byte, s string) []byte {
	if len(s) > 0xFFFF {
		s = s[:0xFFFF]
	}
	buf = appendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

// readLengthPrefixedString reads a 2-byte length prefix followed by that
// many bytes, starting at offset. It returns the decoded string and the
// offset immediately following it.
func readLengthPrefixedString(p []byte, offset int) (string, int, error) {
	if offset+2 > len(p) {
		return "", 0, fmt.Errorf("not enough bytes for string length at offset %d", offset)
	}
	n := int(binary.BigEndian.Uint16(p[offset : offset+2]))
	start := offset + 2
	end := start + n
	if end > len(p) {
		return "", 0, fmt.Errorf("not enough bytes for string body: need %d, have %d", n, len(p)-start)
	}
	if !utf8.Valid(p[start:end]) {
		return "", 0, fmt.Errorf("invalid utf-8 in string body")
	}
	return string(p[start:end]), end, nil
}
