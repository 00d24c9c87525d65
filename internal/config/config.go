// Package config loads codec settings from TOML files. Keys absent from the
// file keep their defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/sshwire/internal/protocol"
	"github.com/danmuck/sshwire/internal/protocol/packet"
)

// DefaultVersion is the identification line sent when none is configured.
const DefaultVersion = "SSH-2.0-sshwire_0.1"

type Config struct {
	Limits    packet.Limits
	Alignment packet.Alignment
	Version   string
}

type fileConfig struct {
	MaxPacketSize   int    `toml:"max_packet_size"`
	MaxStringLength int    `toml:"max_string_length"`
	MaxBannerLines  int    `toml:"max_banner_lines"`
	MaxLineLength   int    `toml:"max_line_length"`
	Alignment       string `toml:"alignment"`
	Version         string `toml:"version"`
}

func Default() Config {
	return Config{
		Limits:    packet.DefaultLimits(),
		Alignment: packet.AlignPayload,
		Version:   DefaultVersion,
	}
}

// Load reads path over Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load sshwire config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load sshwire config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("max_packet_size") {
		cfg.Limits.MaxPacketSize = raw.MaxPacketSize
	}
	if meta.IsDefined("max_string_length") {
		cfg.Limits.MaxStringLength = raw.MaxStringLength
	}
	if meta.IsDefined("max_banner_lines") {
		cfg.Limits.MaxBannerLines = raw.MaxBannerLines
	}
	if meta.IsDefined("max_line_length") {
		cfg.Limits.MaxLineLength = raw.MaxLineLength
	}
	if meta.IsDefined("alignment") {
		a, err := packet.ParseAlignment(strings.TrimSpace(raw.Alignment))
		if err != nil {
			return Config{}, fmt.Errorf("parse alignment: %w", err)
		}
		cfg.Alignment = a
	}
	if meta.IsDefined("version") {
		cfg.Version = strings.TrimSpace(raw.Version)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Limits.Validate(); err != nil {
		return fmt.Errorf("invalid limits: %w", err)
	}
	if _, err := protocol.ParseVersion(c.Version); err != nil {
		return fmt.Errorf("invalid version: %w", err)
	}
	return nil
}

// PacketOptions returns the codec options c describes.
func (c Config) PacketOptions() []packet.Option {
	return []packet.Option{
		packet.WithLimits(c.Limits),
		packet.WithAlignment(c.Alignment),
	}
}
