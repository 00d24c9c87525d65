package packet

import (
	"errors"

	"github.com/danmuck/sshwire/internal/protocol"
)

var (
	// ErrMalformedPacket marks every data-derived framing or decoding failure.
	// The stream is no longer trustworthy and the connection should close.
	ErrMalformedPacket = errors.New("packet: malformed packet")

	// ErrUnsupportedMessage marks a well-framed packet whose type byte has no
	// decoder. The raw byte is available through *UnsupportedMessageError.
	ErrUnsupportedMessage = protocol.ErrUnsupportedMessage

	// ErrInvalidState marks a caller driving the state machine incorrectly,
	// such as serializing a packet message during version exchange.
	ErrInvalidState = errors.New("packet: invalid state use")

	ErrPacketTooLarge   = errors.New("packet: packet exceeds maximum size")
	ErrPacketLength     = errors.New("packet: invalid packet length")
	ErrPaddingLength    = errors.New("packet: invalid padding length")
	ErrAlignment        = errors.New("packet: packet not aligned to block size")
	ErrLineTooLong      = errors.New("packet: identification line too long")
	ErrBannerLimit      = errors.New("packet: too many lines before identification line")
	ErrRandom           = errors.New("packet: padding source failed")
	ErrUnknownState     = errors.New("packet: unknown framing state")
	ErrInvalidLimits    = errors.New("packet: invalid limits")
	ErrUnknownAlignment = errors.New("packet: unknown alignment")
	ErrTransform        = errors.New("packet: packet transform failed")
)

// UnsupportedMessageError is returned for a packet with an unknown type byte.
type UnsupportedMessageError = protocol.UnsupportedMessageError

func malformed(err error) error {
	return errors.Join(ErrMalformedPacket, err)
}
