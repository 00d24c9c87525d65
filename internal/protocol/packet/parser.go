package packet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/danmuck/sshwire/internal/protocol"
)

// Parser accumulates inbound bytes and yields one message per Next call.
// It keeps no partial-decode state: everything it knows between calls is
// the buffered bytes, the framing state, the banner line count and the
// inbound sequence number.
type Parser struct {
	state       State
	buf         buffer
	bannerLines int
	seq         uint32
	transform   Transform
	opts        options
}

func NewParser(opts ...Option) *Parser {
	o := applyOptions(opts)
	return &Parser{state: StateVersionExchange, transform: o.transform, opts: o}
}

func (p *Parser) State() State {
	return p.state
}

// SetState switches framing. Bytes already buffered are interpreted under
// the new state on the next call to Next.
func (p *Parser) SetState(st State) error {
	if !st.valid() {
		return fmt.Errorf("%w: %s", ErrUnknownState, st)
	}
	p.state = st
	return nil
}

// SetTransform replaces the inbound packet transform. Packets still buffered
// are opened with t; nil returns to cleartext.
func (p *Parser) SetTransform(t Transform) {
	p.transform = t
}

// Append buffers b. The parser copies b, so the caller may reuse it.
func (p *Parser) Append(b []byte) {
	p.buf.append(b)
}

// Buffered is the number of bytes received but not yet consumed.
func (p *Parser) Buffered() int {
	return p.buf.len()
}

// Sequence is the sequence number of the next binary packet. After a decode
// error the rejected packet's number is Sequence()-1.
func (p *Parser) Sequence() uint32 {
	return p.seq
}

// Next extracts at most one message from the front of the buffer.
//
// It returns (msg, true, nil) for a decoded message and (nil, false, nil)
// when more data is needed. Errors match ErrMalformedPacket or
// ErrUnsupportedMessage. A framing error leaves the buffer untouched; a
// packet that framed correctly but failed to decode is consumed.
func (p *Parser) Next() (protocol.Message, bool, error) {
	if p.state.Binary() {
		return p.nextPacket()
	}
	return p.nextVersion()
}

func (p *Parser) nextVersion() (protocol.Message, bool, error) {
	limits := p.opts.limits
	for {
		data := p.buf.bytes()
		end := bytes.IndexByte(data, '\n')
		if end < 0 {
			if len(data) > limits.MaxLineLength {
				return nil, false, malformed(fmt.Errorf("%w: %d bytes without terminator", ErrLineTooLong, len(data)))
			}
			return nil, false, nil
		}
		if end+1 > limits.MaxLineLength {
			return nil, false, malformed(fmt.Errorf("%w: %d bytes", ErrLineTooLong, end+1))
		}

		line := bytes.TrimSuffix(data[:end], []byte{'\r'})
		if !bytes.HasPrefix(line, []byte(protocol.VersionPrefix)) {
			if p.bannerLines >= limits.MaxBannerLines {
				return nil, false, malformed(fmt.Errorf("%w: limit %d", ErrBannerLimit, limits.MaxBannerLines))
			}
			p.bannerLines++
			p.opts.logger.Debug().Int("line", p.bannerLines).Int("bytes", end+1).Msg("skipping banner line")
			p.buf.consume(end + 1)
			continue
		}

		text := string(line)
		if _, err := protocol.ParseVersion(text); err != nil {
			return nil, false, malformed(err)
		}
		p.buf.consume(end + 1)
		return protocol.Version{Text: text}, true, nil
	}
}

func (p *Parser) nextPacket() (protocol.Message, bool, error) {
	data := p.buf.bytes()
	if len(data) < packetLengthSize+1 {
		return nil, false, nil
	}
	packetLen := binary.BigEndian.Uint32(data)
	err := p.checkLength(packetLen)
	if err == nil && p.transform == nil {
		err = checkPadding(packetLen, data[packetLengthSize])
	}
	if err != nil {
		p.opts.logger.Debug().Err(err).Uint32("packet_length", packetLen).Msg("rejecting packet")
		return nil, false, malformed(err)
	}
	total := packetLengthSize + int(packetLen) + overhead(p.transform)
	if len(data) < total {
		return nil, false, nil
	}

	body := data[packetLengthSize:total]
	seq := p.seq
	if p.transform != nil {
		body, err = p.open(seq, packetLen, body)
	}
	var msg protocol.Message
	if err == nil {
		padLen := int(body[0])
		msg, err = protocol.DecodePayload(body[1:len(body)-padLen], p.opts.limits.MaxStringLength)
	}
	p.buf.consume(total)
	p.seq++
	if err != nil {
		if errors.Is(err, ErrUnsupportedMessage) {
			return nil, false, err
		}
		p.opts.logger.Debug().Err(err).Uint32("seq", seq).Msg("rejecting packet")
		return nil, false, malformed(err)
	}
	return msg, true, nil
}

// open reverses the inbound transform and checks the padding it uncovered.
func (p *Parser) open(seq, packetLen uint32, sealed []byte) ([]byte, error) {
	body, err := p.transform.Open(seq, sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: open packet %d: %w", ErrTransform, seq, err)
	}
	if len(body) != int(packetLen) {
		return nil, fmt.Errorf("%w: opened %d bytes, want %d", ErrTransform, len(body), packetLen)
	}
	if err := checkPadding(packetLen, body[0]); err != nil {
		return nil, err
	}
	return body, nil
}

// checkLength validates the length field before the rest of the packet is
// buffered, so a hostile length is rejected immediately.
func (p *Parser) checkLength(packetLen uint32) error {
	limits := p.opts.limits
	if uint64(packetLengthSize)+uint64(packetLen) > uint64(limits.MaxPacketSize) {
		return fmt.Errorf("%w: declared %d, limit %d", ErrPacketTooLarge, packetLengthSize+uint64(packetLen), limits.MaxPacketSize)
	}
	if packetLen < 1+1+minPadding {
		return fmt.Errorf("%w: %d", ErrPacketLength, packetLen)
	}
	if bs := blockSize(p.state, p.transform); p.opts.alignment.alignedBytes(int(packetLen))%bs != 0 {
		return fmt.Errorf("%w: length %d, block size %d, %s alignment", ErrAlignment, packetLen, bs, p.opts.alignment)
	}
	return nil
}

func checkPadding(packetLen uint32, padLen byte) error {
	if padLen < minPadding {
		return fmt.Errorf("%w: %d below %d", ErrPaddingLength, padLen, minPadding)
	}
	// the payload must keep at least its type byte
	if int(packetLen)-1-int(padLen) < 1 {
		return fmt.Errorf("%w: padding %d leaves no payload in packet of %d", ErrPaddingLength, padLen, packetLen)
	}
	return nil
}
