package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/sshwire/internal/logging"
	"github.com/danmuck/sshwire/internal/protocol"
	"github.com/danmuck/sshwire/internal/protocol/packet"
)

type decodeOptions struct {
	in         string
	hexInput   bool
	state      string
	chunk      int
	configPath string
}

func runDecode(args []string, stdin io.Reader, stdout io.Writer) error {
	var opts decodeOptions
	fs := newFlagSet("decode")
	fs.StringVar(&opts.in, "in", "-", "capture file to decode (- for stdin)")
	fs.BoolVar(&opts.hexInput, "hex", false, "input is hex text rather than raw bytes")
	fs.StringVar(&opts.state, "state", "version", "starting framing state (version|cleartext)")
	fs.IntVar(&opts.chunk, "chunk", 0, "feed the parser N bytes at a time (0 feeds everything at once)")
	fs.StringVar(&opts.configPath, "config", "", "TOML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if opts.chunk < 0 {
		return fmt.Errorf("--chunk must not be negative")
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	st, err := parseState(opts.state)
	if err != nil {
		return err
	}
	data, err := readInput(opts.in, opts.hexInput, stdin)
	if err != nil {
		return err
	}

	log := logging.Component("decode")
	codec := packet.NewCodec(append(cfg.PacketOptions(), packet.WithLogger(log))...)
	if err := codec.SetState(st); err != nil {
		return err
	}

	chunk := opts.chunk
	if chunk == 0 {
		chunk = len(data)
	}
	count := 0
	for off := 0; ; off += chunk {
		end := min(off+chunk, len(data))
		codec.Append(data[off:end])
		for {
			msg, ok, err := codec.Next()
			if err != nil {
				_, in := codec.Sequences()
				return fmt.Errorf("message %d (inbound seq %d): %w", count+1, in, err)
			}
			if !ok {
				break
			}
			count++
			_, in := codec.Sequences()
			fmt.Fprintf(stdout, "%d %s\n", count, describe(msg))
			log.Debug().Stringer("type", msg.Type()).Uint32("seq", in).Msg("decoded")
			if msg.Type() == protocol.MsgVersion {
				if err := codec.SetState(packet.StateCleartext); err != nil {
					return err
				}
			}
		}
		if end == len(data) {
			break
		}
	}
	if n := codec.Buffered(); n > 0 {
		return fmt.Errorf("%d trailing bytes do not form a complete message", n)
	}
	log.Info().Int("messages", count).Int("bytes", len(data)).Msg("decode complete")
	return nil
}

func parseState(raw string) (packet.State, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "version", "version-exchange":
		return packet.StateVersionExchange, nil
	case "cleartext":
		return packet.StateCleartext, nil
	default:
		return 0, fmt.Errorf("%w: %q", packet.ErrUnknownState, raw)
	}
}

func readInput(path string, hexInput bool, stdin io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if !hexInput {
		return data, nil
	}
	text := strings.Join(strings.Fields(string(data)), "")
	raw, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decode hex input: %w", err)
	}
	return raw, nil
}

func describe(msg protocol.Message) string {
	var b bytes.Buffer
	b.WriteString(msg.Type().String())
	switch m := msg.(type) {
	case protocol.Version:
		fmt.Fprintf(&b, " %q", m.Text)
	case protocol.Disconnect:
		fmt.Fprintf(&b, " reason=%q description=%q language=%q", m.ReasonCode, m.Description, m.LanguageTag)
	case protocol.ServiceRequest:
		fmt.Fprintf(&b, " service=%q", m.ServiceName)
	case protocol.ServiceAccept:
		fmt.Fprintf(&b, " service=%q", m.ServiceName)
	case protocol.KexInit:
		fmt.Fprintf(&b, " cookie=%x kex=%s hostkey=%s ciphers=%s macs=%s compression=%s first_kex_follows=%t",
			m.Cookie,
			strings.Join(m.KexAlgorithms, ","),
			strings.Join(m.ServerHostKeyAlgorithms, ","),
			strings.Join(m.CiphersClientServer, ","),
			strings.Join(m.MACsClientServer, ","),
			strings.Join(m.CompressionClientServer, ","),
			m.FirstKexFollows)
	case protocol.KexECDHInit:
		fmt.Fprintf(&b, " public_key=%x", m.PublicKey)
	case protocol.KexECDHReply:
		fmt.Fprintf(&b, " host_key=%d bytes public_key=%x signature=%d bytes", len(m.HostKey), m.PublicKey, len(m.Signature))
	}
	return b.String()
}
