package protocol

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Decode. Callers match against these with
// errors.Is to decide whether to buffer more bytes, close the connection, or
// log and drop the message.
var (
	// ErrInsufficientData means fewer bytes are available than the header or
	// declared payload length requires. The caller should buffer more bytes
	// from the stream and retry; it does not mean the data is corrupt.
	ErrInsufficientData = errors.New("protocol: insufficient data")

	ErrUnknownMessageType = errors.New("protocol: unknown message type")
	ErrUnsupportedVersion = errors.New("protocol: unsupported version")
	ErrMalformedPayload   = errors.New("protocol: malformed payload")
)

func wrapMalformed(context string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, context, err)
}
