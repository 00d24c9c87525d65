package protocol

import "fmt"

// MessageType is the one-byte message identifier at the start of every
// binary packet payload.
type MessageType byte

// Identifiers from RFC 4250 section 4.1.2 and RFC 5656 section 7.1.
const (
	// MsgVersion never appears on the wire; the identification line is
	// framed by CR LF instead of a packet.
	MsgVersion MessageType = 0

	MsgDisconnect     MessageType = 1
	MsgServiceRequest MessageType = 5
	MsgServiceAccept  MessageType = 6
	MsgKexInit        MessageType = 20
	MsgNewKeys        MessageType = 21
	MsgKexECDHInit    MessageType = 30
	MsgKexECDHReply   MessageType = 31
)

func (t MessageType) String() string {
	switch t {
	case MsgVersion:
		return "VERSION"
	case MsgDisconnect:
		return "SSH_MSG_DISCONNECT"
	case MsgServiceRequest:
		return "SSH_MSG_SERVICE_REQUEST"
	case MsgServiceAccept:
		return "SSH_MSG_SERVICE_ACCEPT"
	case MsgKexInit:
		return "SSH_MSG_KEXINIT"
	case MsgNewKeys:
		return "SSH_MSG_NEWKEYS"
	case MsgKexECDHInit:
		return "SSH_MSG_KEX_ECDH_INIT"
	case MsgKexECDHReply:
		return "SSH_MSG_KEX_ECDH_REPLY"
	default:
		return fmt.Sprintf("SSH_MSG_%d", byte(t))
	}
}

// DisconnectReason is the reason code carried by SSH_MSG_DISCONNECT
// (RFC 4253 section 11.1). Peers may send values outside this table.
type DisconnectReason uint32

const (
	DisconnectHostNotAllowedToConnect     DisconnectReason = 1
	DisconnectProtocolError               DisconnectReason = 2
	DisconnectKeyExchangeFailed           DisconnectReason = 3
	DisconnectReserved                    DisconnectReason = 4
	DisconnectMACError                    DisconnectReason = 5
	DisconnectCompressionError            DisconnectReason = 6
	DisconnectServiceNotAvailable         DisconnectReason = 7
	DisconnectProtocolVersionNotSupported DisconnectReason = 8
	DisconnectHostKeyNotVerifiable        DisconnectReason = 9
	DisconnectConnectionLost              DisconnectReason = 10
	DisconnectByApplication               DisconnectReason = 11
	DisconnectTooManyConnections          DisconnectReason = 12
	DisconnectAuthCancelledByUser         DisconnectReason = 13
	DisconnectNoMoreAuthMethodsAvailable  DisconnectReason = 14
	DisconnectIllegalUserName             DisconnectReason = 15
)

var disconnectReasonNames = map[DisconnectReason]string{
	DisconnectHostNotAllowedToConnect:     "host not allowed to connect",
	DisconnectProtocolError:               "protocol error",
	DisconnectKeyExchangeFailed:           "key exchange failed",
	DisconnectReserved:                    "reserved",
	DisconnectMACError:                    "mac error",
	DisconnectCompressionError:            "compression error",
	DisconnectServiceNotAvailable:         "service not available",
	DisconnectProtocolVersionNotSupported: "protocol version not supported",
	DisconnectHostKeyNotVerifiable:        "host key not verifiable",
	DisconnectConnectionLost:              "connection lost",
	DisconnectByApplication:               "by application",
	DisconnectTooManyConnections:          "too many connections",
	DisconnectAuthCancelledByUser:         "auth cancelled by user",
	DisconnectNoMoreAuthMethodsAvailable:  "no more auth methods available",
	DisconnectIllegalUserName:             "illegal user name",
}

func (r DisconnectReason) String() string {
	if name, ok := disconnectReasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason %d", uint32(r))
}
