package packet

import (
	"fmt"

	"github.com/danmuck/sshwire/internal/protocol"
)

// Codec is one connection's Serializer and Parser. SetState flips both, so
// the two directions cannot drift apart.
type Codec struct {
	ser *Serializer
	par *Parser
}

func NewCodec(opts ...Option) *Codec {
	return &Codec{
		ser: NewSerializer(opts...),
		par: NewParser(opts...),
	}
}

func (c *Codec) State() State {
	return c.ser.State()
}

func (c *Codec) SetState(st State) error {
	if !st.valid() {
		return fmt.Errorf("%w: %s", ErrUnknownState, st)
	}
	c.ser.state = st
	c.par.state = st
	return nil
}

// SetTransforms installs the outbound and inbound packet transforms, for
// example once NEWKEYS has been sent and received. nil leaves a direction in
// cleartext.
func (c *Codec) SetTransforms(out, in Transform) {
	c.ser.SetTransform(out)
	c.par.SetTransform(in)
}

func (c *Codec) Serialize(dst []byte, msg protocol.Message) ([]byte, error) {
	return c.ser.Serialize(dst, msg)
}

func (c *Codec) Append(b []byte) {
	c.par.Append(b)
}

func (c *Codec) Next() (protocol.Message, bool, error) {
	return c.par.Next()
}

func (c *Codec) Buffered() int {
	return c.par.Buffered()
}

// Sequences returns the outbound and inbound sequence numbers.
func (c *Codec) Sequences() (out, in uint32) {
	return c.ser.Sequence(), c.par.Sequence()
}
