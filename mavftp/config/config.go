// Package config loads mavftpd's server configuration: JSON on disk,
// overridable by command-line flags, following the same layering the
// rest of the retrieved example pack uses (no viper/cobra/kingpin
// anywhere in it — stdlib encoding/json plus flag is the grounded
// choice here).
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is mavftpd's full runtime configuration.
type Config struct {
	// Root is the directory OSFS is confined to.
	Root string `json:"root"`

	// Transport selects which Channel implementation to bring up:
	// "udp", "serial", or "loopback". SSHChannel is not selectable here.
	Transport string `json:"transport"`

	// UDPListenAddr is used when Transport == "udp".
	UDPListenAddr string `json:"udp_listen_addr"`

	// SerialDevice/SerialBaud/SerialTxBuf are used when Transport == "serial".
	SerialDevice string `json:"serial_device"`
	SerialBaud   uint32 `json:"serial_baud"`
	SerialTxBuf  int    `json:"serial_tx_buf"`

	// LogFile is where the FileLogger writes; empty means no-op logging.
	LogFile string `json:"log_file"`
}

// Default returns the configuration mavftpd falls back to when no
// config file is given.
func Default() *Config {
	return &Config{
		Root:          ".",
		Transport:     "udp",
		UDPListenAddr: ":14550",
		SerialBaud:    57600,
		SerialTxBuf:   4096,
	}
}

// Load reads a JSON config file at path, falling back to Default()
// values for any field the file doesn't set.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}
