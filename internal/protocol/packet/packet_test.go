package packet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math/rand"
	"reflect"
	"testing"

	"github.com/danmuck/sshwire/internal/protocol"
	"github.com/danmuck/sshwire/internal/protocol/wire"
	"github.com/danmuck/sshwire/internal/testutil/testlog"
)

// constReader yields an endless run of one byte so padding is predictable.
type constReader byte

func (r constReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r)
	}
	return len(p), nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func newTestCodec(t *testing.T, opts ...Option) *Codec {
	t.Helper()
	logger := testlog.Start(t)
	base := []Option{WithRand(constReader(0xa5)), WithLogger(logger)}
	return NewCodec(append(base, opts...)...)
}

func cleartextCodec(t *testing.T, opts ...Option) *Codec {
	t.Helper()
	c := newTestCodec(t, opts...)
	if err := c.SetState(StateCleartext); err != nil {
		t.Fatalf("set state: %v", err)
	}
	return c
}

func binaryMessages() []protocol.Message {
	return []protocol.Message{
		protocol.Disconnect{ReasonCode: protocol.DisconnectProtocolError, Description: []byte("bad"), LanguageTag: []byte("en")},
		protocol.ServiceRequest{ServiceName: []byte("ssh-userauth")},
		protocol.ServiceAccept{ServiceName: []byte("ssh-userauth")},
		protocol.KexInit{
			Cookie:                  [16]byte{9, 8, 7, 6, 5, 4, 3, 2, 1},
			KexAlgorithms:           []string{"curve25519-sha256"},
			ServerHostKeyAlgorithms: []string{"ssh-ed25519", "rsa-sha2-512"},
			CiphersClientServer:     []string{"chacha20-poly1305@openssh.com"},
			CiphersServerClient:     []string{"chacha20-poly1305@openssh.com"},
			MACsClientServer:        []string{"hmac-sha2-256-etm@openssh.com"},
			MACsServerClient:        []string{"hmac-sha2-256-etm@openssh.com"},
			CompressionClientServer: []string{"none", "zlib@openssh.com"},
			CompressionServerClient: []string{"none"},
			LanguagesClientServer:   []string{"en-US"},
			Reserved:                7,
		},
		protocol.KexECDHInit{PublicKey: bytes.Repeat([]byte{0x42}, 32)},
		protocol.KexECDHReply{HostKey: []byte("hostkey"), PublicKey: bytes.Repeat([]byte{1}, 32), Signature: bytes.Repeat([]byte{2}, 83)},
		protocol.NewKeys{},
	}
}

// rawPacket frames payload by hand with the given padding length.
func rawPacket(payload []byte, padLen int) []byte {
	out := make([]byte, 5, 5+len(payload)+padLen)
	binary.BigEndian.PutUint32(out, uint32(1+len(payload)+padLen))
	out[4] = byte(padLen)
	out = append(out, payload...)
	return append(out, make([]byte, padLen)...)
}

func mustSerialize(t *testing.T, c *Codec, msgs ...protocol.Message) []byte {
	t.Helper()
	var out []byte
	for _, msg := range msgs {
		var err error
		out, err = c.Serialize(out, msg)
		if err != nil {
			t.Fatalf("serialize %s: %v", msg.Type(), err)
		}
	}
	return out
}

func mustNext(t *testing.T, c *Codec) protocol.Message {
	t.Helper()
	msg, ok, err := c.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !ok {
		t.Fatalf("next: expected a message, parser wants more data (buffered=%d)", c.Buffered())
	}
	return msg
}

func expectAwait(t *testing.T, c *Codec) {
	t.Helper()
	msg, ok, err := c.Next()
	if err != nil || ok || msg != nil {
		t.Fatalf("expected await-more-data, got msg=%v ok=%v err=%v", msg, ok, err)
	}
}

func TestVersionLineRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	out := mustSerialize(t, c, protocol.Version{Text: "SSH-2.0-Example_1.0"})
	if string(out) != "SSH-2.0-Example_1.0\r\n" {
		t.Fatalf("version bytes got=%q", out)
	}
	c.Append(out)
	msg := mustNext(t, c)
	if msg != (protocol.Version{Text: "SSH-2.0-Example_1.0"}) {
		t.Fatalf("parsed got=%+v", msg)
	}
	if c.Buffered() != 0 {
		t.Fatalf("terminator not consumed, buffered=%d", c.Buffered())
	}
	expectAwait(t, c)
}

func TestServiceRequestKnownVector(t *testing.T) {
	c := cleartextCodec(t)
	out := mustSerialize(t, c, protocol.ServiceRequest{ServiceName: []byte("ssh-userauth")})
	want := []byte{0, 0, 0, 24, 6, 5, 0, 0, 0, 12}
	want = append(want, "ssh-userauth"...)
	want = append(want, bytes.Repeat([]byte{0xa5}, 6)...)
	if !bytes.Equal(out, want) {
		t.Fatalf("service request:\n got=%v\nwant=%v", out, want)
	}

	accept := mustSerialize(t, c, protocol.ServiceAccept{ServiceName: []byte("ssh-userauth")})
	want[5] = 6
	if !bytes.Equal(accept, want) {
		t.Fatalf("service accept:\n got=%v\nwant=%v", accept, want)
	}
}

func TestRFCAlignmentKnownVector(t *testing.T) {
	c := cleartextCodec(t, WithAlignment(AlignPacket))
	out := mustSerialize(t, c, protocol.ServiceRequest{ServiceName: []byte("ssh-userauth")})
	if got := binary.BigEndian.Uint32(out); got != 28 {
		t.Fatalf("packet length got=%d want=28", got)
	}
	if out[4] != 10 {
		t.Fatalf("padding length got=%d want=10", out[4])
	}
	if len(out)%8 != 0 {
		t.Fatalf("packet of %d bytes not aligned", len(out))
	}
}

func TestPaddingAlignsToBlockSize(t *testing.T) {
	for _, align := range []Alignment{AlignPayload, AlignPacket} {
		t.Run(align.String(), func(t *testing.T) {
			c := cleartextCodec(t, WithAlignment(align))
			for _, msg := range binaryMessages() {
				out := mustSerialize(t, c, msg)
				packetLen := int(binary.BigEndian.Uint32(out))
				padLen := int(out[4])
				payloadLen := packetLen - 1 - padLen
				if packetLen+4 != len(out) {
					t.Fatalf("%s: length field %d does not match %d bytes", msg.Type(), packetLen, len(out))
				}
				if padLen < 4 || padLen > 255 {
					t.Fatalf("%s: padding length %d out of range", msg.Type(), padLen)
				}
				if padLen >= 4+8 {
					t.Fatalf("%s: padding length %d is not minimal", msg.Type(), padLen)
				}
				if align == AlignPayload && (1+payloadLen+padLen)%8 != 0 {
					t.Fatalf("%s: 1+%d+%d not a multiple of 8", msg.Type(), payloadLen, padLen)
				}
				if align == AlignPacket && (4+1+payloadLen+padLen)%8 != 0 {
					t.Fatalf("%s: 4+1+%d+%d not a multiple of 8", msg.Type(), payloadLen, padLen)
				}
			}
		})
	}
}

func TestRoundTripAllMessages(t *testing.T) {
	for _, align := range []Alignment{AlignPayload, AlignPacket} {
		t.Run(align.String(), func(t *testing.T) {
			c := cleartextCodec(t, WithAlignment(align))
			for _, msg := range binaryMessages() {
				c.Append(mustSerialize(t, c, msg))
				got := mustNext(t, c)
				if !reflect.DeepEqual(got, msg) {
					t.Fatalf("round-trip mismatch:\n got=%+v\nwant=%+v", got, msg)
				}
			}
			expectAwait(t, c)
			out, in := c.Sequences()
			if out != uint32(len(binaryMessages())) || in != out {
				t.Fatalf("sequences out=%d in=%d", out, in)
			}
		})
	}
}

func TestSerializeStateViolations(t *testing.T) {
	c := newTestCodec(t)
	if _, err := c.Serialize(nil, protocol.ServiceRequest{ServiceName: []byte("ssh-userauth")}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := c.SetState(StateCleartext); err != nil {
		t.Fatalf("set state: %v", err)
	}
	dst := []byte("keep")
	out, err := c.Serialize(dst, protocol.Version{Text: "SSH-2.0-Example_1.0"})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if string(out) != "keep" {
		t.Fatalf("dst modified on error: %q", out)
	}
	if errors.Is(err, ErrMalformedPacket) {
		t.Fatalf("state misuse must not look like a data error")
	}
}

func TestSerializeRejectsBadVersionText(t *testing.T) {
	c := newTestCodec(t)
	for _, text := range []string{"SSH-2.0-a\r\nSSH-2.0-b", "hello", "SSH-1.5-old"} {
		if _, err := c.Serialize(nil, protocol.Version{Text: text}); err == nil || errors.Is(err, ErrInvalidState) {
			t.Fatalf("text=%q expected version error, got %v", text, err)
		}
	}
}

func TestSerializeLimitsAndRandomFailure(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxPacketSize = 64
	c := cleartextCodec(t, WithLimits(limits))
	_, err := c.Serialize(nil, protocol.KexECDHInit{PublicKey: make([]byte, 64)})
	if !errors.Is(err, ErrPacketTooLarge) {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}

	s := NewSerializer(WithRand(failingReader{}))
	if err := s.SetState(StateCleartext); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if _, err := s.Serialize(nil, protocol.NewKeys{}); !errors.Is(err, ErrRandom) {
		t.Fatalf("expected ErrRandom, got %v", err)
	}
	if s.Sequence() != 0 {
		t.Fatalf("failed packet advanced sequence to %d", s.Sequence())
	}
}

func TestTruncationSafety(t *testing.T) {
	c := cleartextCodec(t)
	msg := binaryMessages()[3]
	out := mustSerialize(t, c, msg)
	for i := 0; i < len(out)-1; i++ {
		c.Append(out[i : i+1])
		expectAwait(t, c)
		expectAwait(t, c)
	}
	c.Append(out[len(out)-1:])
	if got := mustNext(t, c); !reflect.DeepEqual(got, msg) {
		t.Fatalf("got=%+v", got)
	}
	expectAwait(t, c)
	if c.Buffered() != 0 {
		t.Fatalf("buffered=%d after full packet", c.Buffered())
	}
}

func TestFragmentationIndependenceEverySplit(t *testing.T) {
	src := cleartextCodec(t)
	want := binaryMessages()[5]
	out := mustSerialize(t, src, want)
	for split := 0; split <= len(out); split++ {
		c := cleartextCodec(t)
		c.Append(out[:split])
		if split < len(out) {
			expectAwait(t, c)
		}
		c.Append(out[split:])
		if got := mustNext(t, c); !reflect.DeepEqual(got, want) {
			t.Fatalf("split=%d got=%+v", split, got)
		}
	}
}

func TestFragmentationRandomChunksWholeHandshake(t *testing.T) {
	src := newTestCodec(t)
	stream := []byte("Welcome to the test server\r\nsecond banner line\n")
	stream = append(stream, mustSerialize(t, src, protocol.Version{Text: "SSH-2.0-Example_1.0 comment"})...)
	if err := src.SetState(StateCleartext); err != nil {
		t.Fatalf("set state: %v", err)
	}
	stream = append(stream, mustSerialize(t, src, binaryMessages()...)...)

	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 50; round++ {
		c := newTestCodec(t)
		var got []protocol.Message
		rest := stream
		for len(rest) > 0 {
			n := 1 + rng.Intn(40)
			if n > len(rest) {
				n = len(rest)
			}
			c.Append(rest[:n])
			rest = rest[n:]
			for {
				msg, ok, err := c.Next()
				if err != nil {
					t.Fatalf("round=%d next: %v", round, err)
				}
				if !ok {
					break
				}
				got = append(got, msg)
				// act as the owning connection: binary framing starts after the version line
				if _, isVersion := msg.(protocol.Version); isVersion {
					if err := c.SetState(StateCleartext); err != nil {
						t.Fatalf("set state: %v", err)
					}
				}
			}
		}
		want := append([]protocol.Message{protocol.Version{Text: "SSH-2.0-Example_1.0 comment"}}, binaryMessages()...)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round=%d decoded stream mismatch:\n got=%+v\nwant=%+v", round, got, want)
		}
	}
}

func TestVersionLeavesPacketBytesBuffered(t *testing.T) {
	src := cleartextCodec(t)
	packet := mustSerialize(t, src, protocol.NewKeys{})

	c := newTestCodec(t)
	c.Append(append([]byte("SSH-2.0-peer\r\n"), packet...))
	mustNext(t, c)
	if c.Buffered() != len(packet) {
		t.Fatalf("buffered=%d want=%d", c.Buffered(), len(packet))
	}
	if err := c.SetState(StateCleartext); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if got := mustNext(t, c); got != (protocol.NewKeys{}) {
		t.Fatalf("got=%+v", got)
	}
}

func TestBannerLinesSkippedAndLFOnly(t *testing.T) {
	c := newTestCodec(t)
	c.Append([]byte("hello\r\n\nthis is a banner\nSSH-2.0-OpenSSH_9.6\n"))
	msg := mustNext(t, c)
	if msg != (protocol.Version{Text: "SSH-2.0-OpenSSH_9.6"}) {
		t.Fatalf("got=%+v", msg)
	}
	expectAwait(t, c)
}

func TestBannerLimit(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxBannerLines = 2
	c := newTestCodec(t, WithLimits(limits))
	c.Append([]byte("one\r\ntwo\r\nthree\r\nSSH-2.0-x\r\n"))
	_, _, err := c.Next()
	if !errors.Is(err, ErrMalformedPacket) || !errors.Is(err, ErrBannerLimit) {
		t.Fatalf("expected banner limit, got %v", err)
	}
}

func TestLineTooLong(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxLineLength = 64
	c := newTestCodec(t, WithLimits(limits))
	c.Append(bytes.Repeat([]byte{'x'}, 60))
	expectAwait(t, c)
	c.Append(bytes.Repeat([]byte{'x'}, 10))
	_, _, err := c.Next()
	if !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("expected ErrLineTooLong without terminator, got %v", err)
	}

	c = newTestCodec(t, WithLimits(limits))
	c.Append(append(bytes.Repeat([]byte{'y'}, 63), '\r', '\n'))
	if _, _, err := c.Next(); !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("expected ErrLineTooLong for terminated line, got %v", err)
	}
}

func TestBadVersionLineIsMalformed(t *testing.T) {
	c := newTestCodec(t)
	c.Append([]byte("SSH-1.5-old\r\n"))
	_, _, err := c.Next()
	if !errors.Is(err, ErrMalformedPacket) || !errors.Is(err, protocol.ErrUnsupportedProtocolVersion) {
		t.Fatalf("expected unsupported protocol version, got %v", err)
	}
}

func TestMultiplePacketsOneAppend(t *testing.T) {
	c := cleartextCodec(t)
	msgs := binaryMessages()
	c.Append(mustSerialize(t, c, msgs...))
	for i, want := range msgs {
		if got := mustNext(t, c); !reflect.DeepEqual(got, want) {
			t.Fatalf("packet %d got=%+v", i, got)
		}
	}
	expectAwait(t, c)
}

func TestMalformedFraming(t *testing.T) {
	newKeys := []byte{byte(protocol.MsgNewKeys)}
	oversized := []byte{0x7f, 0xff, 0xff, 0xff, 4}
	shortLen := []byte{0, 0, 0, 5, 4}
	misaligned := rawPacket(append(newKeys, 0, 0, 0, 0, 0, 0, 0), 5)[:16]
	smallPad := rawPacket(append(newKeys, 0, 0, 0), 3)
	noPayload := append([]byte{0, 0, 0, 8, 7}, make([]byte, 7)...)

	cases := []struct {
		name string
		raw  []byte
		want error
	}{
		{"oversized length", oversized, ErrPacketTooLarge},
		{"length below minimum", shortLen, ErrPacketLength},
		{"misaligned", misaligned, ErrAlignment},
		{"padding below four", smallPad, ErrPaddingLength},
		{"padding swallows payload", noPayload, ErrPaddingLength},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := cleartextCodec(t)
			c.Append(tc.raw)
			_, ok, err := c.Next()
			if ok || !errors.Is(err, ErrMalformedPacket) || !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got ok=%v err=%v", tc.want, ok, err)
			}
			if c.Buffered() != len(tc.raw) {
				t.Fatalf("framing error consumed bytes: buffered=%d", c.Buffered())
			}
		})
	}
}

func TestOversizedLengthRejectedBeforeBody(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxPacketSize = 1024
	c := cleartextCodec(t, WithLimits(limits))
	c.Append([]byte{0, 0, 0x10, 0, 6})
	if _, _, err := c.Next(); !errors.Is(err, ErrPacketTooLarge) {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}
}

func TestTrailingPayloadIsMalformed(t *testing.T) {
	// NEWKEYS followed by one stray byte, padded to 8
	raw := rawPacket([]byte{byte(protocol.MsgNewKeys), 0xff}, 5)
	c := cleartextCodec(t)
	c.Append(raw)
	_, _, err := c.Next()
	if !errors.Is(err, ErrMalformedPacket) || !errors.Is(err, protocol.ErrTrailingData) {
		t.Fatalf("expected trailing data, got %v", err)
	}
	if c.Buffered() != 0 {
		t.Fatalf("well-framed packet should be consumed, buffered=%d", c.Buffered())
	}
}

func TestTruncatedFieldIsMalformedNotAwait(t *testing.T) {
	// SERVICE_REQUEST declaring a 100-byte name inside a 16-byte packet
	raw := rawPacket([]byte{byte(protocol.MsgServiceRequest), 0, 0, 0, 100, 'x', 'y'}, 8)
	c := cleartextCodec(t)
	c.Append(raw)
	_, ok, err := c.Next()
	if ok || !errors.Is(err, ErrMalformedPacket) || !errors.Is(err, protocol.ErrTruncated) {
		t.Fatalf("expected truncated payload, got ok=%v err=%v", ok, err)
	}
}

func TestStringLimitInsidePacket(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxStringLength = 16
	c := cleartextCodec(t, WithLimits(limits))
	c.Append(mustSerialize(t, c, protocol.KexECDHInit{PublicKey: make([]byte, 32)}))
	if _, _, err := c.Next(); !errors.Is(err, ErrMalformedPacket) || !errors.Is(err, wire.ErrStringTooLong) {
		t.Fatalf("expected string limit error, got %v", err)
	}
}

func TestUnsupportedMessageType(t *testing.T) {
	c := cleartextCodec(t)
	// SSH_MSG_IGNORE with an empty string, then a NEWKEYS that must still parse
	raw := rawPacket([]byte{2, 0, 0, 0, 0}, 10)
	c.Append(raw)
	c.Append(mustSerialize(t, c, protocol.NewKeys{}))

	_, ok, err := c.Next()
	if ok || !errors.Is(err, ErrUnsupportedMessage) {
		t.Fatalf("expected ErrUnsupportedMessage, got ok=%v err=%v", ok, err)
	}
	var unsupported *UnsupportedMessageError
	if !errors.As(err, &unsupported) || unsupported.Type != 2 {
		t.Fatalf("raw type not preserved: %v", err)
	}
	if errors.Is(err, ErrMalformedPacket) {
		t.Fatalf("unsupported type must be distinct from malformed")
	}
	if _, in := c.Sequences(); in != 1 {
		t.Fatalf("inbound sequence got=%d want=1", in)
	}
	if got := mustNext(t, c); got != (protocol.NewKeys{}) {
		t.Fatalf("got=%+v", got)
	}
}

func TestSetStateRejectsUnknown(t *testing.T) {
	c := newTestCodec(t)
	if err := c.SetState(State(9)); !errors.Is(err, ErrUnknownState) {
		t.Fatalf("expected ErrUnknownState, got %v", err)
	}
	if c.State() != StateVersionExchange {
		t.Fatalf("state changed to %s", c.State())
	}
	p := NewParser()
	if err := p.SetState(State(9)); !errors.Is(err, ErrUnknownState) {
		t.Fatalf("parser: expected ErrUnknownState, got %v", err)
	}
}

func TestLimitsAndAlignmentParsing(t *testing.T) {
	if err := DefaultLimits().Validate(); err != nil {
		t.Fatalf("default limits invalid: %v", err)
	}
	bad := DefaultLimits()
	bad.MaxPacketSize = 4
	if err := bad.Validate(); !errors.Is(err, ErrInvalidLimits) {
		t.Fatalf("expected ErrInvalidLimits, got %v", err)
	}
	o := applyOptions([]Option{WithLimits(bad)})
	if o.limits != DefaultLimits() {
		t.Fatalf("invalid limits were applied: %+v", o.limits)
	}
	for raw, want := range map[string]Alignment{"": AlignPayload, "payload": AlignPayload, "RFC4253": AlignPacket, "packet": AlignPacket} {
		got, err := ParseAlignment(raw)
		if err != nil || got != want {
			t.Fatalf("raw=%q got=%v err=%v", raw, got, err)
		}
	}
	if _, err := ParseAlignment("sideways"); !errors.Is(err, ErrUnknownAlignment) {
		t.Fatalf("expected ErrUnknownAlignment, got %v", err)
	}
}
