// Package config loads the two configuration surfaces this repo's
// Non-goals explicitly keep out of the core but whose loading still needs a
// typed home: the master/client TOML file (disable-hotkey, network ports,
// the saved virtual layout, and previously-paired clients) and the
// WebSocket bridge's small environment-variable surface. Both follow the
// teacher's config package split: a structured-file layer decoded with a
// third-party parser, and an env layer decoded with envconfig.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// MasterConfig is the root of the master/client TOML configuration file
// described in spec.md §6.
type MasterConfig struct {
	Master  MasterSection  `toml:"master"`
	Network NetworkSection `toml:"network"`
	Layout  LayoutSection  `toml:"layout"`
	Clients []PairedClient `toml:"clients"`
}

// MasterSection holds the [master] table.
type MasterSection struct {
	DisableHotkey string `toml:"disable_hotkey"`
	Autostart     bool   `toml:"autostart"`
	LogLevel      string `toml:"log_level"`
}

// NetworkSection holds the [network] table. Port defaults mirror spec.md §6.
type NetworkSection struct {
	ControlPort   uint16 `toml:"control_port"`
	InputPort     uint16 `toml:"input_port"`
	DiscoveryPort uint16 `toml:"discovery_port"`
	BindAddress   string `toml:"bind_address"`
}

// DefaultNetworkSection returns the ports named in spec.md §6.
func DefaultNetworkSection() NetworkSection {
	return NetworkSection{
		ControlPort:   24800,
		InputPort:     24801,
		DiscoveryPort: 24802,
		BindAddress:   "0.0.0.0",
	}
}

// LayoutSection holds the [layout] table: the master's own screen
// dimensions plus the saved arrangement of client screens.
type LayoutSection struct {
	MasterScreenWidth  uint32               `toml:"master_screen_width"`
	MasterScreenHeight uint32               `toml:"master_screen_height"`
	Clients            []LayoutClientEntry  `toml:"clients"`
}

// LayoutClientEntry is one [[layout.clients]] entry: a client's saved
// position in the virtual layout.
type LayoutClientEntry struct {
	ClientID string `toml:"client_id"`
	Name     string `toml:"name"`
	XOffset  int32  `toml:"x_offset"`
	YOffset  int32  `toml:"y_offset"`
	Width    uint32 `toml:"width"`
	Height   uint32 `toml:"height"`
}

// PairedClient is one top-level [[clients]] entry: a client the master has
// previously paired with. The entries are parsed but not consulted by the
// master command, which runs the PIN flow on every new connection.
type PairedClient struct {
	ClientID     string `toml:"client_id"`
	Name         string `toml:"name"`
	Host         string `toml:"host,omitempty"`
	PairingHash  string `toml:"pairing_hash,omitempty"`
}

// LoadMasterConfig reads and decodes the TOML file at path.
func LoadMasterConfig(path string) (MasterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MasterConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := MasterConfig{Network: DefaultNetworkSection()}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return MasterConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveMasterConfig encodes cfg as TOML and writes it to path, overwriting
// any existing file. Used after an interactive layout edit.
func SaveMasterConfig(path string, cfg MasterConfig) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// BridgeConfig holds the WebSocket bridge's environment-variable
// configuration (spec.md §6): the port it listens on for browser
// connections, and the master control address it dials out to.
type BridgeConfig struct {
	WSPort     string `envconfig:"KVM_WS_PORT" default:"24803"`
	MasterAddr string `envconfig:"KVM_MASTER_ADDR" default:"127.0.0.1:24800"`
}

// LoadBridgeConfig decodes BridgeConfig from the process environment.
func LoadBridgeConfig() (BridgeConfig, error) {
	var cfg BridgeConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return BridgeConfig{}, fmt.Errorf("config: load bridge env config: %w", err)
	}
	return cfg, nil
}
