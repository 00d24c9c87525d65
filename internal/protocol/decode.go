package protocol

import (
	"errors"
	"fmt"

	"github.com/danmuck/sshwire/internal/protocol/wire"
)

type decoder func(r *wire.Reader) (Message, error)

// decoders is the single dispatch table for binary packet payloads. Adding a
// message type means adding its entry here and its case in AppendPayload.
var decoders = map[MessageType]decoder{
	MsgDisconnect:     decodeDisconnect,
	MsgServiceRequest: decodeServiceRequest,
	MsgServiceAccept:  decodeServiceAccept,
	MsgKexInit:        decodeKexInit,
	MsgNewKeys:        decodeNewKeys,
	MsgKexECDHInit:    decodeKexECDHInit,
	MsgKexECDHReply:   decodeKexECDHReply,
}

// DecodePayload decodes one packet payload. The payload must be consumed
// exactly; maxString bounds every length-prefixed field (zero for no bound).
// Decoded values never alias payload.
func DecodePayload(payload []byte, maxString int) (Message, error) {
	r := wire.NewReader(payload, maxString)
	typ, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: empty payload", ErrTruncated)
	}
	decode, ok := decoders[MessageType(typ)]
	if !ok {
		return nil, &UnsupportedMessageError{Type: typ}
	}
	msg, err := decode(r)
	if err != nil {
		if errors.Is(err, wire.ErrShortBuffer) {
			return nil, fmt.Errorf("%w: %s", ErrTruncated, MessageType(typ))
		}
		return nil, fmt.Errorf("protocol: decode %s: %w", MessageType(typ), err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %s has %d unread bytes", ErrTrailingData, MessageType(typ), r.Len())
	}
	return msg, nil
}

func decodeDisconnect(r *wire.Reader) (Message, error) {
	var m Disconnect
	code, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	m.ReasonCode = DisconnectReason(code)
	if m.Description, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.LanguageTag, err = r.ReadString(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeServiceRequest(r *wire.Reader) (Message, error) {
	name, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return ServiceRequest{ServiceName: name}, nil
}

func decodeServiceAccept(r *wire.Reader) (Message, error) {
	name, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return ServiceAccept{ServiceName: name}, nil
}

func decodeKexInit(r *wire.Reader) (Message, error) {
	var m KexInit
	cookie, err := r.ReadFixed(len(m.Cookie))
	if err != nil {
		return nil, err
	}
	copy(m.Cookie[:], cookie)

	var lists [KexInitNameLists][]string
	for i := range lists {
		if lists[i], err = r.ReadNameList(); err != nil {
			return nil, err
		}
	}
	m.SetNameLists(lists)

	if m.FirstKexFollows, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if m.Reserved, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeNewKeys(*wire.Reader) (Message, error) {
	return NewKeys{}, nil
}

func decodeKexECDHInit(r *wire.Reader) (Message, error) {
	key, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return KexECDHInit{PublicKey: key}, nil
}

func decodeKexECDHReply(r *wire.Reader) (Message, error) {
	var m KexECDHReply
	var err error
	if m.HostKey, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.PublicKey, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.Signature, err = r.ReadString(); err != nil {
		return nil, err
	}
	return m, nil
}
