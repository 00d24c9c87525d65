package packet

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Limits constrains decode memory use and the pre-identification banner.
type Limits struct {
	// MaxPacketSize bounds the length field plus the packet it declares.
	MaxPacketSize int
	// MaxStringLength bounds any length-prefixed field inside a payload.
	MaxStringLength int
	// MaxBannerLines bounds the lines skipped before the identification line.
	MaxBannerLines int
	// MaxLineLength bounds any line, terminator included, during version exchange.
	MaxLineLength int
}

func DefaultLimits() Limits {
	return Limits{
		MaxPacketSize:   256 * 1024,
		MaxStringLength: 256 * 1024,
		MaxBannerLines:  1024,
		MaxLineLength:   8 * 1024,
	}
}

func (l Limits) Validate() error {
	if l.MaxPacketSize < minPacketSize {
		return fmt.Errorf("%w: max packet size %d below %d", ErrInvalidLimits, l.MaxPacketSize, minPacketSize)
	}
	if l.MaxStringLength <= 0 {
		return fmt.Errorf("%w: max string length must be positive", ErrInvalidLimits)
	}
	if l.MaxBannerLines < 0 {
		return fmt.Errorf("%w: max banner lines must not be negative", ErrInvalidLimits)
	}
	if l.MaxLineLength < 3 {
		return fmt.Errorf("%w: max line length %d too small", ErrInvalidLimits, l.MaxLineLength)
	}
	return nil
}

// Alignment selects which bytes of a binary packet are block aligned.
type Alignment uint8

const (
	// AlignPayload aligns padding_length || payload || padding, leaving the
	// 4-byte length field out.
	AlignPayload Alignment = iota
	// AlignPacket aligns the whole packet including the length field, as in
	// RFC 4253 section 6. Use it against OpenSSH and x/crypto/ssh peers.
	AlignPacket
)

func (a Alignment) String() string {
	switch a {
	case AlignPayload:
		return "payload"
	case AlignPacket:
		return "packet"
	default:
		return fmt.Sprintf("alignment(%d)", uint8(a))
	}
}

// ParseAlignment accepts the names returned by Alignment.String, plus
// "rfc4253" for AlignPacket.
func ParseAlignment(raw string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "payload":
		return AlignPayload, nil
	case "packet", "rfc4253":
		return AlignPacket, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlignment, raw)
	}
}

// alignedBytes is the number of bytes covered by alignment for a packet
// whose length field holds packetLength.
func (a Alignment) alignedBytes(packetLength int) int {
	if a == AlignPacket {
		return packetLengthSize + packetLength
	}
	return packetLength
}

const (
	packetLengthSize = 4
	minPadding       = 4
	maxPadding       = 255
	// length field + padding_length + type byte + minimum padding
	minPacketSize = packetLengthSize + 1 + 1 + minPadding
)

type options struct {
	limits    Limits
	alignment Alignment
	rand      io.Reader
	logger    zerolog.Logger
	transform Transform
}

func defaultOptions() options {
	return options{
		limits:    DefaultLimits(),
		alignment: AlignPayload,
		rand:      rand.Reader,
		logger:    zerolog.Nop(),
	}
}

// Option configures a Serializer, Parser or Codec.
type Option func(*options)

// WithLimits replaces DefaultLimits. Invalid limits are ignored.
func WithLimits(l Limits) Option {
	return func(o *options) {
		if l.Validate() == nil {
			o.limits = l
		}
	}
}

func WithAlignment(a Alignment) Option {
	return func(o *options) {
		if a == AlignPayload || a == AlignPacket {
			o.alignment = a
		}
	}
}

// WithRand sets the source of padding bytes. Tests pass a deterministic
// reader; the default is crypto/rand.
func WithRand(r io.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.rand = r
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
