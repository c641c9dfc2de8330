package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"

	"github.com/phenomenon0/betpool/pkg/betting"
	"github.com/phenomenon0/betpool/pkg/eth"
)

// Provider is the wallet the gateway signs with.
type Provider interface {
	// RequestAccounts returns the accounts the wallet exposes, first one active.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Transactor returns signing options for account on chainID.
	Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error)
}

// NoProvider is used when no wallet is configured.
type NoProvider struct{}

func (NoProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	return nil, betting.ErrProviderUnavailable
}

func (NoProvider) Transactor(context.Context, common.Address, *big.Int) (*bind.TransactOpts, error) {
	return nil, betting.ErrProviderUnavailable
}

// KeyProvider signs with a raw private key.
type KeyProvider struct {
	wallet *eth.Wallet
}

// NewKeyProvider creates a provider from a hex private key.
func NewKeyProvider(hexKey string) (*KeyProvider, error) {
	w, err := eth.NewWallet(hexKey)
	if err != nil {
		return nil, err
	}
	return &KeyProvider{wallet: w}, nil
}

func (p *KeyProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	return []common.Address{p.wallet.Address()}, nil
}

func (p *KeyProvider) Transactor(_ context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if account != p.wallet.Address() {
		return nil, fmt.Errorf("%w: unknown account %s", betting.ErrUserRejected, account.Hex())
	}
	return p.wallet.Transactor(chainID)
}

// KeystoreProvider signs with an encrypted go-ethereum keystore. A wrong
// passphrase is reported as ErrUserRejected.
type KeystoreProvider struct {
	ks         *keystore.KeyStore
	passphrase string
}

// NewKeystoreProvider opens the keystore in dir.
func NewKeystoreProvider(dir, passphrase string) *KeystoreProvider {
	return &KeystoreProvider{
		ks:         keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP),
		passphrase: passphrase,
	}
}

// NewKeystoreProviderFrom wraps an already opened keystore.
func NewKeystoreProviderFrom(ks *keystore.KeyStore, passphrase string) *KeystoreProvider {
	return &KeystoreProvider{ks: ks, passphrase: passphrase}
}

func (p *KeystoreProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	accts := p.ks.Accounts()
	if len(accts) == 0 {
		return nil, fmt.Errorf("%w: keystore has no accounts", betting.ErrProviderUnavailable)
	}

	addrs := make([]common.Address, len(accts))
	for i, a := range accts {
		addrs[i] = a.Address
	}
	return addrs, nil
}

func (p *KeystoreProvider) Transactor(_ context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	acct := accounts.Account{Address: account}
	if err := p.ks.Unlock(acct, p.passphrase); err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, fmt.Errorf("%w: %w", betting.ErrUserRejected, err)
		}
		return nil, fmt.Errorf("unlock %s: %w", account.Hex(), err)
	}
	return bind.NewKeyStoreTransactorWithChainID(p.ks, acct, chainID)
}
