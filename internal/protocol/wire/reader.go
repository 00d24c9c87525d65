package wire

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/crypto/cryptobyte"
)

// Reader is a cursor over SSH wire data (RFC 4251 section 5).
//
// Every read either succeeds and advances, fails with a *ShortBufferError
// without consuming anything, or fails with a decode error for data that
// can never become valid.
type Reader struct {
	s   cryptobyte.String
	max uint64
}

// NewReader returns a Reader over b. maxString bounds the declared length of
// length-prefixed strings; zero means no bound beyond the data itself.
func NewReader(b []byte, maxString int) *Reader {
	r := &Reader{s: cryptobyte.String(b)}
	if maxString > 0 {
		r.max = uint64(maxString)
	}
	return r
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.s)
}

func (r *Reader) need(n int) error {
	if len(r.s) < n {
		return &ShortBufferError{Need: n - len(r.s)}
	}
	return nil
}

func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	var v uint8
	r.s.ReadUint8(&v)
	return v, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	var v uint32
	r.s.ReadUint32(&v)
	return v, nil
}

// ReadBool treats any non-zero byte as true.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReadFixed returns a copy of the next n bytes.
func (r *Reader) ReadFixed(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("wire: negative fixed length %d", n)
	}
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	r.s.CopyBytes(out)
	return out, nil
}

// ReadString reads a uint32 length-prefixed byte string and returns a copy.
func (r *Reader) ReadString() ([]byte, error) {
	if err := r.need(4); err != nil {
		return nil, err
	}
	peek := r.s
	var n uint32
	peek.ReadUint32(&n)
	if r.max > 0 && uint64(n) > r.max {
		return nil, fmt.Errorf("%w: declared %d, limit %d", ErrStringTooLong, n, r.max)
	}
	if uint64(len(peek)) < uint64(n) {
		return nil, &ShortBufferError{Need: int(uint64(n) - uint64(len(peek)))}
	}
	out := make([]byte, n)
	peek.CopyBytes(out)
	r.s = peek
	return out, nil
}

// ReadNameList reads a comma-separated list of ASCII names. An empty string
// decodes to a nil list.
func (r *Reader) ReadNameList() ([]string, error) {
	peek := *r
	raw, err := peek.ReadString()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		*r = peek
		return nil, nil
	}
	names := strings.Split(string(raw), ",")
	for _, name := range names {
		if err := validateName(name); err != nil {
			return nil, err
		}
	}
	*r = peek
	return names, nil
}

// Skip discards n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.s.Skip(n)
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidNameList)
	}
	if strings.IndexByte(name, ',') >= 0 {
		return fmt.Errorf("%w: name %q contains a comma", ErrInvalidNameList, name)
	}
	for i := 0; i < len(name); i++ {
		if name[i] <= ' ' || name[i] > '~' {
			return fmt.Errorf("%w: name %q has non-printable byte 0x%02x", ErrInvalidNameList, name, name[i])
		}
	}
	return nil
}

// JoinNameList validates names and joins them the way they appear on the wire.
func JoinNameList(names []string) ([]byte, error) {
	var buf bytes.Buffer
	for i, name := range names {
		if err := validateName(name); err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(name)
	}
	return buf.Bytes(), nil
}
