package protocol

import (
	"fmt"
	"io"
)

// KexInitNameLists is the number of name-lists in SSH_MSG_KEXINIT.
const KexInitNameLists = 10

// NameLists returns the ten name-lists in wire order.
func (m *KexInit) NameLists() [KexInitNameLists][]string {
	return [KexInitNameLists][]string{
		m.KexAlgorithms,
		m.ServerHostKeyAlgorithms,
		m.CiphersClientServer,
		m.CiphersServerClient,
		m.MACsClientServer,
		m.MACsServerClient,
		m.CompressionClientServer,
		m.CompressionServerClient,
		m.LanguagesClientServer,
		m.LanguagesServerClient,
	}
}

// SetNameLists assigns the ten name-lists from wire order.
func (m *KexInit) SetNameLists(lists [KexInitNameLists][]string) {
	m.KexAlgorithms = lists[0]
	m.ServerHostKeyAlgorithms = lists[1]
	m.CiphersClientServer = lists[2]
	m.CiphersServerClient = lists[3]
	m.MACsClientServer = lists[4]
	m.MACsServerClient = lists[5]
	m.CompressionClientServer = lists[6]
	m.CompressionServerClient = lists[7]
	m.LanguagesClientServer = lists[8]
	m.LanguagesServerClient = lists[9]
}

// NewKexInit builds a KEXINIT with a cookie read from rand.
func NewKexInit(rand io.Reader, lists [KexInitNameLists][]string) (KexInit, error) {
	var m KexInit
	if _, err := io.ReadFull(rand, m.Cookie[:]); err != nil {
		return KexInit{}, fmt.Errorf("protocol: kexinit cookie: %w", err)
	}
	m.SetNameLists(lists)
	return m, nil
}
