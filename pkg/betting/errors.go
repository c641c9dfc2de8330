package betting

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/phenomenon0/betpool/pkg/eth"
)

// Error taxonomy shared by the gateway, the cursors and the API.
var (
	// ErrProviderUnavailable means no wallet is configured.
	ErrProviderUnavailable = errors.New("wallet provider unavailable")

	// ErrUserRejected means the wallet refused account access or signing.
	ErrUserRejected = errors.New("user rejected request")

	// ErrNotInitialized means the contract session could not be established.
	ErrNotInitialized = errors.New("contract not initialized")

	// ErrReverted means a transaction was mined with a failure status.
	ErrReverted = errors.New("transaction reverted")

	// ErrShapeMismatch means a contract response did not match its layout.
	ErrShapeMismatch = errors.New("response shape mismatch")

	// ErrNotAdmin means the connected account is not the contract owner.
	ErrNotAdmin = errors.New("account is not the contract owner")

	// ErrInvalidInput is returned for malformed identifiers or names.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidAmount is returned for unparseable monetary input.
	ErrInvalidAmount = eth.ErrInvalidAmount
)

// ShapeError describes a positional decode failure.
type ShapeError struct {
	Kind    string // record kind, e.g. "post"
	Version string // layout version
	Field   string // semantic field, empty for whole-tuple errors
	Index   int    // slot index, -1 for whole-tuple errors
	Want    string
	Got     string
}

func (e *ShapeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("decode %s (%s): want %s, got %s", e.Kind, e.Version, e.Want, e.Got)
	}
	return fmt.Sprintf("decode %s (%s): slot %d (%s): want %s, got %s",
		e.Kind, e.Version, e.Index, e.Field, e.Want, e.Got)
}

// Is makes errors.Is(err, ErrShapeMismatch) hold.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// RevertError reports a mined transaction whose status was not success.
type RevertError struct {
	Method string
	TxHash common.Hash
	Status uint64
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("%s: tx %s reverted (status %d)", e.Method, e.TxHash.Hex(), e.Status)
}

// Is makes errors.Is(err, ErrReverted) hold.
func (e *RevertError) Is(target error) bool {
	return target == ErrReverted
}
