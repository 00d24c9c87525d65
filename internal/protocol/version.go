package protocol

import (
	"fmt"
	"strings"
)

// MaxVersionLineLength bounds an identification line, CR LF included
// (RFC 4253 section 4.2).
const MaxVersionLineLength = 255

// VersionPrefix starts every identification line. Lines without it that
// arrive before the identification line are banner text.
const VersionPrefix = "SSH-"

// VersionInfo is an identification line split into its parts:
// SSH-protoversion-softwareversion SP comments.
type VersionInfo struct {
	ProtoVersion    string
	SoftwareVersion string
	Comments        string
}

// ParseVersion validates an identification line (without CR LF). Protocol
// versions 2.0 and 1.99 are accepted.
func ParseVersion(text string) (VersionInfo, error) {
	if len(text)+2 > MaxVersionLineLength {
		return VersionInfo{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrBadVersionLine, len(text)+2, MaxVersionLineLength)
	}
	for i := 0; i < len(text); i++ {
		if text[i] < ' ' || text[i] > '~' {
			return VersionInfo{}, fmt.Errorf("%w: byte 0x%02x at offset %d", ErrBadVersionLine, text[i], i)
		}
	}
	rest, ok := strings.CutPrefix(text, VersionPrefix)
	if !ok {
		return VersionInfo{}, fmt.Errorf("%w: missing %q prefix", ErrBadVersionLine, VersionPrefix)
	}
	proto, software, ok := strings.Cut(rest, "-")
	if !ok {
		return VersionInfo{}, fmt.Errorf("%w: missing software version", ErrBadVersionLine)
	}
	switch proto {
	case "2.0", "1.99":
	default:
		return VersionInfo{}, fmt.Errorf("%w: %q", ErrUnsupportedProtocolVersion, proto)
	}
	software, comments, _ := strings.Cut(software, " ")
	if software == "" {
		return VersionInfo{}, fmt.Errorf("%w: empty software version", ErrBadVersionLine)
	}
	return VersionInfo{
		ProtoVersion:    proto,
		SoftwareVersion: software,
		Comments:        comments,
	}, nil
}

// Info parses the identification line carried by v.
func (v Version) Info() (VersionInfo, error) {
	return ParseVersion(v.Text)
}
