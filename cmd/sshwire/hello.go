package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/danmuck/sshwire/internal/logging"
	"github.com/danmuck/sshwire/internal/protocol"
	"github.com/danmuck/sshwire/internal/protocol/packet"
	"golang.org/x/crypto/curve25519"
)

// helloNameLists is the algorithm offer sent by hello.
var helloNameLists = [protocol.KexInitNameLists][]string{
	{"curve25519-sha256", "curve25519-sha256@libssh.org"},
	{"ssh-ed25519"},
	{"chacha20-poly1305@openssh.com", "aes128-ctr"},
	{"chacha20-poly1305@openssh.com", "aes128-ctr"},
	{"hmac-sha2-256"},
	{"hmac-sha2-256"},
	{"none"},
	{"none"},
	nil,
	nil,
}

func runHello(args []string, stdout io.Writer) error {
	var (
		configPath string
		ecdh       bool
	)
	fs := newFlagSet("hello")
	fs.StringVar(&configPath, "config", "", "TOML config file")
	fs.BoolVar(&ecdh, "ecdh", false, "also emit SSH_MSG_KEX_ECDH_INIT with a fresh curve25519 key")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := logging.Component("hello")
	out, err := helloTraffic(rand.Reader, cfg.Version, ecdh, append(cfg.PacketOptions(), packet.WithLogger(log))...)
	if err != nil {
		return err
	}
	for _, msg := range out {
		fmt.Fprintln(stdout, hex.EncodeToString(msg))
	}
	log.Info().Int("messages", len(out)).Str("version", cfg.Version).Msg("hello emitted")
	return nil
}

// helloTraffic returns the serialized client version line, KEXINIT and,
// when ecdh is set, KEX_ECDH_INIT.
func helloTraffic(rand io.Reader, version string, ecdh bool, opts ...packet.Option) ([][]byte, error) {
	codec := packet.NewCodec(append(opts, packet.WithRand(rand))...)

	var out [][]byte
	line, err := codec.Serialize(nil, protocol.Version{Text: version})
	if err != nil {
		return nil, err
	}
	out = append(out, line)
	if err := codec.SetState(packet.StateCleartext); err != nil {
		return nil, err
	}

	kex, err := protocol.NewKexInit(rand, helloNameLists)
	if err != nil {
		return nil, err
	}
	pkt, err := codec.Serialize(nil, kex)
	if err != nil {
		return nil, err
	}
	out = append(out, pkt)

	if !ecdh {
		return out, nil
	}
	var priv [curve25519.ScalarSize]byte
	if _, err := io.ReadFull(rand, priv[:]); err != nil {
		return nil, fmt.Errorf("curve25519 key: %w", err)
	}
	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("curve25519 key: %w", err)
	}
	pkt, err = codec.Serialize(nil, protocol.KexECDHInit{PublicKey: pub})
	if err != nil {
		return nil, err
	}
	return append(out, pkt), nil
}
