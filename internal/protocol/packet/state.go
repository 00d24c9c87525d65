package packet

import "fmt"

// State is the framing state shared by Serializer and Parser.
type State uint8

const (
	// StateVersionExchange frames CR LF terminated identification lines.
	StateVersionExchange State = iota
	// StateCleartext frames binary packets with no cipher or MAC applied.
	StateCleartext
)

const cleartextBlockSize = 8

func (s State) String() string {
	switch s {
	case StateVersionExchange:
		return "version-exchange"
	case StateCleartext:
		return "cleartext"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// BlockSize is the alignment unit for binary packets in s. It is zero for
// line-framed states.
func (s State) BlockSize() int {
	switch s {
	case StateCleartext:
		return cleartextBlockSize
	default:
		return 0
	}
}

// Binary reports whether s frames binary packets.
func (s State) Binary() bool {
	return s.BlockSize() > 0
}

func (s State) valid() bool {
	return s == StateVersionExchange || s == StateCleartext
}
