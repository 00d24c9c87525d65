package packet

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/danmuck/sshwire/internal/protocol"
)

// Serializer encodes messages under the current framing state. Apart from
// the state and the outbound sequence number it keeps nothing between calls.
type Serializer struct {
	state     State
	seq       uint32
	transform Transform
	opts      options
}

func NewSerializer(opts ...Option) *Serializer {
	o := applyOptions(opts)
	return &Serializer{state: StateVersionExchange, transform: o.transform, opts: o}
}

func (s *Serializer) State() State {
	return s.state
}

// SetState switches framing. The owning connection calls it once it has
// processed the handshake traffic that changes framing.
func (s *Serializer) SetState(st State) error {
	if !st.valid() {
		return fmt.Errorf("%w: %s", ErrUnknownState, st)
	}
	s.state = st
	return nil
}

// SetTransform replaces the outbound packet transform. It takes effect with
// the next packet; nil returns to cleartext.
func (s *Serializer) SetTransform(t Transform) {
	s.transform = t
}

// Sequence is the sequence number the next binary packet will carry.
func (s *Serializer) Sequence() uint32 {
	return s.seq
}

// Serialize appends the wire encoding of msg to dst. During version exchange
// only Version is accepted; in binary states Version is rejected. Both
// mismatches return ErrInvalidState. On error dst is returned unchanged.
func (s *Serializer) Serialize(dst []byte, msg protocol.Message) ([]byte, error) {
	if msg == nil {
		return dst, protocol.ErrNilMessage
	}
	text, isVersion := versionText(msg)

	if !s.state.Binary() {
		if !isVersion {
			return dst, fmt.Errorf("%w: cannot send %s during %s", ErrInvalidState, msg.Type(), s.state)
		}
		if _, err := protocol.ParseVersion(text); err != nil {
			return dst, err
		}
		out := append(dst, text...)
		return append(out, '\r', '\n'), nil
	}

	if isVersion {
		return dst, fmt.Errorf("%w: cannot send %s during %s", ErrInvalidState, msg.Type(), s.state)
	}
	return s.appendPacket(dst, msg)
}

func (s *Serializer) appendPacket(dst []byte, msg protocol.Message) ([]byte, error) {
	start := len(dst)
	out := append(dst, 0, 0, 0, 0, 0)
	out, err := protocol.AppendPayload(out, msg)
	if err != nil {
		return dst[:start], err
	}
	payloadLen := len(out) - start - packetLengthSize - 1
	padLen := s.paddingLength(payloadLen)

	packetLen := 1 + payloadLen + padLen
	if packetLengthSize+packetLen > s.opts.limits.MaxPacketSize {
		return dst[:start], fmt.Errorf("%w: %d bytes, limit %d", ErrPacketTooLarge, packetLengthSize+packetLen, s.opts.limits.MaxPacketSize)
	}

	out = append(out, make([]byte, padLen)...)
	if _, err := io.ReadFull(s.opts.rand, out[len(out)-padLen:]); err != nil {
		return dst[:start], fmt.Errorf("%w: %w", ErrRandom, err)
	}
	binary.BigEndian.PutUint32(out[start:], uint32(packetLen))
	out[start+packetLengthSize] = byte(padLen)

	if s.transform != nil {
		body := start + packetLengthSize
		sealed, err := s.transform.Seal(s.seq, out[body:])
		if err != nil {
			return dst[:start], fmt.Errorf("%w: seal packet %d: %w", ErrTransform, s.seq, err)
		}
		if want := packetLen + s.transform.Overhead(); len(sealed) != want {
			return dst[:start], fmt.Errorf("%w: sealed %d bytes, want %d", ErrTransform, len(sealed), want)
		}
		out = append(out[:body], sealed...)
	}
	s.seq++
	return out, nil
}

// paddingLength is the smallest value in [4, 255] that block-aligns the
// packet under the configured alignment.
func (s *Serializer) paddingLength(payloadLen int) int {
	bs := blockSize(s.state, s.transform)
	covered := s.opts.alignment.alignedBytes(1 + payloadLen)
	pad := bs - covered%bs
	for pad < minPadding {
		pad += bs
	}
	return pad
}

func versionText(msg protocol.Message) (string, bool) {
	switch m := msg.(type) {
	case protocol.Version:
		return m.Text, true
	case *protocol.Version:
		return m.Text, true
	default:
		return "", false
	}
}
