// Package transport drives a packet.Codec over a byte stream such as a
// net.Conn. It owns the I/O the codec deliberately leaves out: reading into
// the parser until a message is available, writing serialized bytes, and
// mapping context deadlines onto the connection.
//
// Framing state is still flipped explicitly with SetState.
package transport
