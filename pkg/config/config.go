// Package config loads daemon settings from flags, the environment and an
// optional .env file. Flags win over the environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Wallet sources.
const (
	WalletNone     = "none"
	WalletKey      = "key"
	WalletKeystore = "keystore"
)

// Config holds daemon settings.
type Config struct {
	Env string // "local", "prod"

	RPCURL          string
	ContractAddress common.Address

	PrivateKey         string
	KeystoreDir        string
	KeystorePassphrase string

	HTTPAddr    string
	CORSOrigins []string

	PageSize uint64
	RPCRate  float64
	RPCBurst int
}

// Load reads .env (if present), then the environment, then args.
func Load(args []string) (Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("betpoold", flag.ContinueOnError)

	env := fs.String("env", getEnv("BETPOOL_ENV", "local"), "Environment: local or prod")
	rpcURL := fs.String("rpc", getEnv("BETPOOL_RPC_URL", "http://127.0.0.1:8545"), "JSON-RPC endpoint")
	contract := fs.String("contract", getEnv("BETPOOL_CONTRACT_ADDRESS", ""), "Betting contract address")
	key := fs.String("key", getEnv("BETPOOL_PRIVATE_KEY", ""), "Hex private key to sign with")
	ksDir := fs.String("keystore", getEnv("BETPOOL_KEYSTORE_DIR", ""), "Keystore directory to sign with")
	httpAddr := fs.String("http", getEnv("BETPOOL_HTTP_ADDR", ":8080"), "HTTP listen address")
	origins := fs.String("cors", getEnv("BETPOOL_CORS_ORIGINS", "http://localhost:3000"), "Comma-separated allowed origins")
	pageSize := fs.Uint64("page-size", getEnvUint("BETPOOL_PAGE_SIZE", 100), "Items per contract page")
	rpcRate := fs.Float64("rpc-rate", getEnvFloat("BETPOOL_RPC_RATE", 10), "Contract calls per second")
	rpcBurst := fs.Int("rpc-burst", int(getEnvUint("BETPOOL_RPC_BURST", 5)), "Contract call burst")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Env:                *env,
		RPCURL:             *rpcURL,
		PrivateKey:         strings.TrimSpace(*key),
		KeystoreDir:        strings.TrimSpace(*ksDir),
		KeystorePassphrase: getEnv("BETPOOL_KEYSTORE_PASSPHRASE", ""),
		HTTPAddr:           *httpAddr,
		CORSOrigins:        splitList(*origins),
		PageSize:           *pageSize,
		RPCRate:            *rpcRate,
		RPCBurst:           *rpcBurst,
	}

	if !common.IsHexAddress(*contract) {
		return Config{}, fmt.Errorf("contract address %q is not a hex address", *contract)
	}
	cfg.ContractAddress = common.HexToAddress(*contract)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that flags cannot express.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return errors.New("rpc url is required")
	}
	if c.ContractAddress == (common.Address{}) {
		return errors.New("contract address is required")
	}
	if c.PrivateKey != "" && c.KeystoreDir != "" {
		return errors.New("set either a private key or a keystore, not both")
	}
	if c.PageSize == 0 {
		return errors.New("page size must be positive")
	}
	if c.RPCRate <= 0 || c.RPCBurst <= 0 {
		return errors.New("rpc rate and burst must be positive")
	}
	return nil
}

// Wallet reports which wallet source is configured.
func (c Config) Wallet() string {
	switch {
	case c.PrivateKey != "":
		return WalletKey
	case c.KeystoreDir != "":
		return WalletKeystore
	default:
		return WalletNone
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvUint(key string, def uint64) uint64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
