package config

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

const contractHex = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BETPOOL_CONTRACT_ADDRESS", contractHex)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ContractAddress != common.HexToAddress(contractHex) {
		t.Errorf("Expected contract %s, got %s", contractHex, cfg.ContractAddress.Hex())
	}
	if cfg.PageSize != 100 {
		t.Errorf("Expected page size 100, got %d", cfg.PageSize)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.Wallet() != WalletNone {
		t.Errorf("Expected no wallet, got %s", cfg.Wallet())
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("Unexpected CORS origins: %v", cfg.CORSOrigins)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("BETPOOL_CONTRACT_ADDRESS", contractHex)
	t.Setenv("BETPOOL_PAGE_SIZE", "25")
	t.Setenv("BETPOOL_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load([]string{"-page-size", "10", "-http", ":9090"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.PageSize != 10 {
		t.Errorf("Expected flag page size 10, got %d", cfg.PageSize)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("Expected :9090, got %s", cfg.HTTPAddr)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected CORS origins: %v", cfg.CORSOrigins)
	}
}

func TestEnvPageSize(t *testing.T) {
	t.Setenv("BETPOOL_CONTRACT_ADDRESS", contractHex)
	t.Setenv("BETPOOL_PAGE_SIZE", "25")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PageSize != 25 {
		t.Errorf("Expected env page size 25, got %d", cfg.PageSize)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := map[string][]string{
		"missing contract": {"-contract", ""},
		"bad contract":     {"-contract", "0x1234"},
		"zero page":        {"-contract", contractHex, "-page-size", "0"},
		"key and keystore": {"-contract", contractHex, "-key", "0xabc", "-keystore", "/tmp/ks"},
		"zero rate":        {"-contract", contractHex, "-rpc-rate", "0"},
		"unknown flag":     {"-contract", contractHex, "-nope"},
	}

	for name, args := range tests {
		if _, err := Load(args); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestWallet(t *testing.T) {
	if got := (Config{PrivateKey: "0x01"}).Wallet(); got != WalletKey {
		t.Errorf("Expected key wallet, got %s", got)
	}
	if got := (Config{KeystoreDir: "/ks"}).Wallet(); got != WalletKeystore {
		t.Errorf("Expected keystore wallet, got %s", got)
	}
}
