package protocol

import (
	"fmt"

	"github.com/danmuck/sshwire/internal/protocol/wire"
)

// AppendPayload appends the packet payload of msg (type byte followed by its
// fields) to dst. Version has no packet payload.
func AppendPayload(dst []byte, msg Message) ([]byte, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	w := wire.NewWriter(dst)
	w.PutByte(byte(msg.Type()))

	switch m := msg.(type) {
	case Version, *Version:
		return nil, fmt.Errorf("%w: %s", ErrNotPacketMessage, MsgVersion)
	case Disconnect:
		writeDisconnect(w, &m)
	case *Disconnect:
		writeDisconnect(w, m)
	case ServiceRequest:
		w.PutString(m.ServiceName)
	case *ServiceRequest:
		w.PutString(m.ServiceName)
	case ServiceAccept:
		w.PutString(m.ServiceName)
	case *ServiceAccept:
		w.PutString(m.ServiceName)
	case KexInit:
		writeKexInit(w, &m)
	case *KexInit:
		writeKexInit(w, m)
	case KexECDHInit:
		w.PutString(m.PublicKey)
	case *KexECDHInit:
		w.PutString(m.PublicKey)
	case KexECDHReply:
		writeKexECDHReply(w, &m)
	case *KexECDHReply:
		writeKexECDHReply(w, m)
	case NewKeys, *NewKeys:
	default:
		return nil, &UnsupportedMessageError{Type: byte(msg.Type())}
	}

	out, err := w.Bytes()
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", msg.Type(), err)
	}
	return out, nil
}

func writeDisconnect(w *wire.Writer, m *Disconnect) {
	w.PutUint32(uint32(m.ReasonCode))
	w.PutString(m.Description)
	w.PutString(m.LanguageTag)
}

func writeKexInit(w *wire.Writer, m *KexInit) {
	w.PutFixed(m.Cookie[:])
	for _, list := range m.NameLists() {
		w.PutNameList(list)
	}
	w.PutBool(m.FirstKexFollows)
	w.PutUint32(m.Reserved)
}

func writeKexECDHReply(w *wire.Writer, m *KexECDHReply) {
	w.PutString(m.HostKey)
	w.PutString(m.PublicKey)
	w.PutString(m.Signature)
}
