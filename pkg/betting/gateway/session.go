package gateway

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/phenomenon0/betpool/pkg/betting"
)

// Contract is the bound contract surface. *bind.BoundContract satisfies it.
type Contract interface {
	Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
	Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
}

// ReceiptWaiter blocks until a transaction is mined.
type ReceiptWaiter interface {
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

type minedWaiter struct {
	backend bind.DeployBackend
}

func (w minedWaiter) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return bind.WaitMined(ctx, w.backend, tx)
}

// Session is an established connection: the active account, its signer and
// the bound contract.
type Session struct {
	Account common.Address
	ChainID *big.Int

	contract   Contract
	waiter     ReceiptWaiter
	transactor *bind.TransactOpts
}

// NewSession assembles a session from its parts.
func NewSession(account common.Address, chainID *big.Int, contract Contract, waiter ReceiptWaiter, transactor *bind.TransactOpts) *Session {
	return &Session{
		Account:    account,
		ChainID:    chainID,
		contract:   contract,
		waiter:     waiter,
		transactor: transactor,
	}
}

func (s *Session) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: s.Account}
}

func (s *Session) transactOpts(ctx context.Context, value *big.Int) *bind.TransactOpts {
	opts := *s.transactor
	opts.Context = ctx
	opts.Value = value
	return &opts
}

// Connector establishes a session.
type Connector interface {
	Connect(ctx context.Context) (*Session, error)
}

// RPCConnector dials a JSON-RPC node and binds the contract at Contract.
type RPCConnector struct {
	RPCURL   string
	Contract common.Address
	Provider Provider
}

func (c *RPCConnector) Connect(ctx context.Context) (*Session, error) {
	if c.Provider == nil {
		return nil, fmt.Errorf("%w: no wallet provider", betting.ErrProviderUnavailable)
	}

	accts, err := c.Provider.RequestAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("request accounts: %w", err)
	}
	if len(accts) == 0 {
		return nil, fmt.Errorf("%w: wallet returned no accounts", betting.ErrProviderUnavailable)
	}
	account := accts[0]

	client, err := ethclient.DialContext(ctx, c.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.RPCURL, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	}

	transactor, err := c.Provider.Transactor(ctx, account, chainID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("transactor: %w", err)
	}

	parsed, err := ParseABI()
	if err != nil {
		client.Close()
		return nil, err
	}

	bound := bind.NewBoundContract(c.Contract, parsed, client, client, client)
	return NewSession(account, chainID, bound, minedWaiter{backend: client}, transactor), nil
}
