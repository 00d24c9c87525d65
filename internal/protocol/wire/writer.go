package wire

import (
	"golang.org/x/crypto/cryptobyte"
)

// Writer appends SSH wire encodings to a buffer. The first failure sticks
// and is reported by Bytes.
type Writer struct {
	b   *cryptobyte.Builder
	err error
}

// NewWriter returns a Writer that appends to dst.
func NewWriter(dst []byte) *Writer {
	return &Writer{b: cryptobyte.NewBuilder(dst)}
}

func (w *Writer) PutByte(v byte) {
	w.b.AddUint8(v)
}

func (w *Writer) PutUint32(v uint32) {
	w.b.AddUint32(v)
}

func (w *Writer) PutBool(v bool) {
	if v {
		w.b.AddUint8(1)
		return
	}
	w.b.AddUint8(0)
}

// PutFixed writes v with no length prefix.
func (w *Writer) PutFixed(v []byte) {
	w.b.AddBytes(v)
}

// PutString writes v as a uint32 length-prefixed string.
func (w *Writer) PutString(v []byte) {
	w.b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(v)
	})
}

func (w *Writer) PutNameList(names []string) {
	raw, err := JoinNameList(names)
	if err != nil {
		if w.err == nil {
			w.err = err
		}
		return
	}
	w.PutString(raw)
}

// Bytes returns dst with everything written so far appended.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.b.Bytes()
}
