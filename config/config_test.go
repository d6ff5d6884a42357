package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vidchain.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != "127.0.0.1:8645" {
		t.Fatalf("rpc default: %q", cfg.RPCAddress)
	}
	if cfg.DataDir != "./data" {
		t.Fatalf("data dir default: %q", cfg.DataDir)
	}
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vidchain.toml")
	if _, err := Load(path); err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default file not created: %v", err)
	}
}

func TestLoadParsesRolesAndParams(t *testing.T) {
	path := writeConfig(t, `
RPCAddress = "0.0.0.0:9000"
RewardRateBps = 500
MarketFeeBps = 250
FeeRecipient = "0x00000000000000000000000000000000000000ff"

[[Roles]]
Role = "ROLE_ADMIN"
Address = "0x0000000000000000000000000000000000000001"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RewardRateBps != 500 || cfg.MarketFeeBps != 250 {
		t.Fatalf("params: %d/%d", cfg.RewardRateBps, cfg.MarketFeeBps)
	}
	if len(cfg.Roles) != 1 || cfg.Roles[0].Role != "ROLE_ADMIN" {
		t.Fatalf("roles: %+v", cfg.Roles)
	}
	addr, err := ParseAddress(cfg.Roles[0].Address)
	if err != nil {
		t.Fatalf("parse address: %v", err)
	}
	if addr[19] != 1 {
		t.Fatalf("address bytes: %v", addr)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"rate cap":      "RewardRateBps = 2001",
		"fee cap":       "MarketFeeBps = 1001",
		"bad recipient": `FeeRecipient = "0x1234"`,
		"bad role addr": "[[Roles]]\nRole = \"ROLE_ADMIN\"\nAddress = \"zzzz\"",
	}
	for name, body := range cases {
		path := writeConfig(t, body)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
