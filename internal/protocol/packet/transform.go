package packet

// Transform protects binary packets once keys are in use. It sees the bytes
// covered by the length field (padding_length || payload || padding); the
// 4-byte length field itself stays in the clear, as in the encrypt-then-MAC
// modes.
//
// Seal must return len(pkt)+Overhead() bytes and Open must return exactly
// len(sealed)-Overhead() bytes. Both may work in place. seq is the packet
// sequence number in the direction being processed.
type Transform interface {
	// BlockSize is the cipher block size. Packets align to the larger of it
	// and the framing state's block size.
	BlockSize() int
	// Overhead is the number of bytes Seal appends, such as a MAC.
	Overhead() int
	Seal(seq uint32, pkt []byte) ([]byte, error)
	Open(seq uint32, sealed []byte) ([]byte, error)
}

// WithTransform installs t for both directions from the start. A nil
// Transform leaves packets in cleartext.
func WithTransform(t Transform) Option {
	return func(o *options) {
		o.transform = t
	}
}

// blockSize is the alignment unit for binary packets under st and t.
func blockSize(st State, t Transform) int {
	bs := st.BlockSize()
	if t != nil && bs > 0 && t.BlockSize() > bs {
		bs = t.BlockSize()
	}
	return bs
}

func overhead(t Transform) int {
	if t == nil {
		return 0
	}
	return t.Overhead()
}
