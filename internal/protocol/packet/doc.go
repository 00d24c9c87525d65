// Package packet implements the SSH binary packet protocol framing
// (RFC 4253 section 6) and the identification line framing that precedes it.
//
// A Serializer turns messages into wire bytes and a Parser turns an
// arbitrarily fragmented byte stream back into messages. Both carry a framing
// State that only the owning connection changes; Codec pairs them so a single
// SetState keeps both sides in lock-step.
//
// Nothing in this package performs I/O, blocks, or locks. One instance
// belongs to one connection and is driven from one goroutine.
package packet
