package eth

import "github.com/ethereum/go-ethereum/core/types"

// Chain constants shared by the gateway and the unit conversions.
const (
	// EtherDecimals is the scale between wei and the display unit.
	EtherDecimals = 18

	// ReceiptSuccess is the receipt status the chain reports for a transaction
	// that executed without reverting.
	ReceiptSuccess = types.ReceiptStatusSuccessful

	// ChainIDSepolia is the Sepolia testnet.
	ChainIDSepolia = 11155111
)
