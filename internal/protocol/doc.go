// Package protocol owns the SSH transport message model and payload codec.
//
// Ownership boundary:
// - message type identifiers and the closed set of transport messages
// - payload encoders and decoders (type byte + type-specific fields)
// - identification (version) line rules
//
// Packet framing lives in protocol/packet; primitive field encodings live in
// protocol/wire.
//
// References:
// - RFC 4251 section 5 (data type representations)
// - RFC 4253 (transport layer protocol)
// - RFC 5656 section 4 (ECDH key exchange messages)
package protocol
