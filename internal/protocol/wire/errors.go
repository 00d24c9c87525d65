package wire

import (
	"errors"
	"fmt"
)

var (
	ErrShortBuffer     = errors.New("wire: short buffer")
	ErrStringTooLong   = errors.New("wire: string exceeds maximum length")
	ErrInvalidNameList = errors.New("wire: invalid name-list")
)

// ShortBufferError reports how many more bytes a read needs. The cursor is
// left where it was, so the same read can be retried once more data exists.
type ShortBufferError struct {
	Need int
}

func (e *ShortBufferError) Error() string {
	return fmt.Sprintf("wire: short buffer: need %d more bytes", e.Need)
}

func (e *ShortBufferError) Is(target error) bool {
	return target == ErrShortBuffer
}

// NeedMore returns the missing byte count if err is a short buffer signal.
func NeedMore(err error) (int, bool) {
	var short *ShortBufferError
	if errors.As(err, &short) {
		return short.Need, true
	}
	return 0, false
}
