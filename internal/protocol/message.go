package protocol

// Message is one transport-layer message. The set of implementations is
// closed: Version, Disconnect, ServiceRequest, ServiceAccept, KexInit,
// KexECDHInit, KexECDHReply and NewKeys.
type Message interface {
	Type() MessageType
	message()
}

// Version is the identification line exchanged before any binary packet,
// without its CR LF terminator.
type Version struct {
	Text string
}

type Disconnect struct {
	ReasonCode  DisconnectReason
	Description []byte
	LanguageTag []byte
}

type ServiceRequest struct {
	ServiceName []byte
}

type ServiceAccept struct {
	ServiceName []byte
}

// KexInit is SSH_MSG_KEXINIT. The ten name-lists appear on the wire in field
// order. An empty name-list decodes as nil, so a non-nil empty slice does not
// survive a round trip unchanged.
type KexInit struct {
	Cookie                  [16]byte
	KexAlgorithms           []string
	ServerHostKeyAlgorithms []string
	CiphersClientServer     []string
	CiphersServerClient     []string
	MACsClientServer        []string
	MACsServerClient        []string
	CompressionClientServer []string
	CompressionServerClient []string
	LanguagesClientServer   []string
	LanguagesServerClient   []string
	FirstKexFollows         bool
	Reserved                uint32
}

// KexECDHInit carries the client's ephemeral public value.
type KexECDHInit struct {
	PublicKey []byte
}

type KexECDHReply struct {
	HostKey   []byte
	PublicKey []byte
	Signature []byte
}

type NewKeys struct{}

func (Version) Type() MessageType        { return MsgVersion }
func (Disconnect) Type() MessageType     { return MsgDisconnect }
func (ServiceRequest) Type() MessageType { return MsgServiceRequest }
func (ServiceAccept) Type() MessageType  { return MsgServiceAccept }
func (KexInit) Type() MessageType        { return MsgKexInit }
func (KexECDHInit) Type() MessageType    { return MsgKexECDHInit }
func (KexECDHReply) Type() MessageType   { return MsgKexECDHReply }
func (NewKeys) Type() MessageType        { return MsgNewKeys }

func (Version) message()        {}
func (Disconnect) message()     {}
func (ServiceRequest) message() {}
func (ServiceAccept) message()  {}
func (KexInit) message()        {}
func (KexECDHInit) message()    {}
func (KexECDHReply) message()   {}
func (NewKeys) message()        {}
