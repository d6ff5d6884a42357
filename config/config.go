package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// RoleGrant seeds one genesis role membership.
type RoleGrant struct {
	Role    string `toml:"Role"`
	Address string `toml:"Address"`
}

type Config struct {
	RPCAddress     string      `toml:"RPCAddress"`
	MetricsAddress string      `toml:"MetricsAddress"`
	DataDir        string      `toml:"DataDir"`
	Environment    string      `toml:"Environment"`
	LogFile        string      `toml:"LogFile"`
	RPCAuthToken   string      `toml:"RPCAuthToken"`
	RewardRateBps  uint32      `toml:"RewardRateBps"`
	MarketFeeBps   uint32      `toml:"MarketFeeBps"`
	FeeRecipient   string      `toml:"FeeRecipient"`
	Roles          []RoleGrant `toml:"Roles"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(c.MetricsAddress) == "" {
		c.MetricsAddress = "127.0.0.1:9464"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./data"
	}
	if c.Roles == nil {
		c.Roles = []RoleGrant{}
	}
}

// Validate rejects malformed addresses and out-of-range parameters before
// the node boots with them.
func (c *Config) Validate() error {
	if c.RewardRateBps > 2_000 {
		return fmt.Errorf("config: RewardRateBps %d above cap 2000", c.RewardRateBps)
	}
	if c.MarketFeeBps > 1_000 {
		return fmt.Errorf("config: MarketFeeBps %d above cap 1000", c.MarketFeeBps)
	}
	if strings.TrimSpace(c.FeeRecipient) != "" {
		if _, err := ParseAddress(c.FeeRecipient); err != nil {
			return fmt.Errorf("config: FeeRecipient: %w", err)
		}
	}
	for i, grant := range c.Roles {
		if strings.TrimSpace(grant.Role) == "" {
			return fmt.Errorf("config: Roles[%d]: role required", i)
		}
		if _, err := ParseAddress(grant.Address); err != nil {
			return fmt.Errorf("config: Roles[%d]: %w", i, err)
		}
	}
	return nil
}

// ParseAddress decodes a 0x-prefixed 20-byte hex address.
func ParseAddress(s string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(raw) != 20 {
		return addr, fmt.Errorf("invalid address %q: want 20 bytes, got %d", s, len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
