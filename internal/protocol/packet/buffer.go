package packet

// compactThreshold is the consumed prefix size above which append moves
// unread bytes to the front instead of growing the arena.
const compactThreshold = 4 * 1024

// buffer is a growable byte arena with a read cursor. Consumed bytes stay in
// place until the cursor reaches the end or compaction reclaims them.
type buffer struct {
	data []byte
	off  int
}

func (b *buffer) append(p []byte) {
	if len(p) == 0 {
		return
	}
	if b.off > 0 && (b.off == len(b.data) || (b.off >= compactThreshold && b.off*2 >= len(b.data))) {
		n := copy(b.data, b.data[b.off:])
		b.data = b.data[:n]
		b.off = 0
	}
	b.data = append(b.data, p...)
}

// bytes returns the unread bytes. The slice is only valid until the next
// append or consume.
func (b *buffer) bytes() []byte {
	return b.data[b.off:]
}

func (b *buffer) len() int {
	return len(b.data) - b.off
}

func (b *buffer) consume(n int) {
	b.off += n
	if b.off >= len(b.data) {
		b.data = b.data[:0]
		b.off = 0
	}
}
