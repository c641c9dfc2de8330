package gateway

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"

	"github.com/phenomenon0/betpool/pkg/betting"
)

const hardhatKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestNoProvider(t *testing.T) {
	var p NoProvider

	if _, err := p.RequestAccounts(context.Background()); !errors.Is(err, betting.ErrProviderUnavailable) {
		t.Errorf("Expected ErrProviderUnavailable, got %v", err)
	}
	if _, err := p.Transactor(context.Background(), testAccount, big.NewInt(1)); !errors.Is(err, betting.ErrProviderUnavailable) {
		t.Errorf("Expected ErrProviderUnavailable, got %v", err)
	}
}

func TestKeyProvider(t *testing.T) {
	p, err := NewKeyProvider(hardhatKey)
	if err != nil {
		t.Fatalf("NewKeyProvider failed: %v", err)
	}

	accts, err := p.RequestAccounts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(accts) != 1 || accts[0] != testAccount {
		t.Fatalf("Expected [%s], got %v", testAccount.Hex(), accts)
	}

	opts, err := p.Transactor(context.Background(), testAccount, big.NewInt(31337))
	if err != nil {
		t.Fatalf("Transactor failed: %v", err)
	}
	if opts.From != testAccount {
		t.Errorf("Expected From %s, got %s", testAccount.Hex(), opts.From.Hex())
	}

	other := common.HexToAddress("0x0000000000000000000000000000000000000002")
	if _, err := p.Transactor(context.Background(), other, big.NewInt(31337)); !errors.Is(err, betting.ErrUserRejected) {
		t.Errorf("Expected ErrUserRejected for unknown account, got %v", err)
	}
}

func TestKeystoreProvider(t *testing.T) {
	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	acct, err := ks.NewAccount("correct horse")
	if err != nil {
		t.Fatalf("NewAccount failed: %v", err)
	}

	good := NewKeystoreProviderFrom(ks, "correct horse")
	accts, err := good.RequestAccounts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(accts) != 1 || accts[0] != acct.Address {
		t.Fatalf("Expected [%s], got %v", acct.Address.Hex(), accts)
	}
	if _, err := good.Transactor(context.Background(), acct.Address, big.NewInt(31337)); err != nil {
		t.Errorf("Transactor failed: %v", err)
	}

	bad := NewKeystoreProviderFrom(ks, "wrong")
	if _, err := bad.Transactor(context.Background(), acct.Address, big.NewInt(31337)); !errors.Is(err, betting.ErrUserRejected) {
		t.Errorf("Expected ErrUserRejected for wrong passphrase, got %v", err)
	}
}

func TestEmptyKeystoreUnavailable(t *testing.T) {
	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	p := NewKeystoreProviderFrom(ks, "x")

	if _, err := p.RequestAccounts(context.Background()); !errors.Is(err, betting.ErrProviderUnavailable) {
		t.Errorf("Expected ErrProviderUnavailable, got %v", err)
	}
}

func TestRPCConnectorWithoutWallet(t *testing.T) {
	c := &RPCConnector{RPCURL: "http://127.0.0.1:0", Provider: NoProvider{}}
	g := New(c)

	_, err := g.Account(context.Background())
	if !errors.Is(err, betting.ErrNotInitialized) || !errors.Is(err, betting.ErrProviderUnavailable) {
		t.Errorf("Expected not-initialized caused by unavailable provider, got %v", err)
	}
}

func TestRPCConnectorNilProvider(t *testing.T) {
	c := &RPCConnector{RPCURL: "http://127.0.0.1:0"}

	_, err := c.Connect(context.Background())
	if !errors.Is(err, betting.ErrProviderUnavailable) {
		t.Errorf("Expected ErrProviderUnavailable, got %v", err)
	}
}
