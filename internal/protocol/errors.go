package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrNilMessage                 = errors.New("protocol: nil message")
	ErrTruncated                  = errors.New("protocol: truncated payload")
	ErrTrailingData               = errors.New("protocol: trailing data after message fields")
	ErrUnsupportedMessage         = errors.New("protocol: unsupported message type")
	ErrNotPacketMessage           = errors.New("protocol: message is not carried in a binary packet")
	ErrBadVersionLine             = errors.New("protocol: malformed identification line")
	ErrUnsupportedProtocolVersion = errors.New("protocol: unsupported protocol version")
)

// UnsupportedMessageError carries the raw type byte of a payload nothing
// could decode.
type UnsupportedMessageError struct {
	Type byte
}

func (e *UnsupportedMessageError) Error() string {
	return fmt.Sprintf("protocol: unsupported message type %d", e.Type)
}

func (e *UnsupportedMessageError) Is(target error) bool {
	return target == ErrUnsupportedMessage
}
