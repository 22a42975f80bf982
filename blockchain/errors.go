package blockchain

import "errors"

// Error taxonomy from spec.md §7, shared by the transaction model, the
// chain, and the UTXO set.
var (
	ErrInsufficientFunds = errors.New("blockchain: insufficient funds")
	ErrUnknownPrevTx     = errors.New("blockchain: unknown previous transaction")
	ErrBadSignature      = errors.New("blockchain: signature verification failed")
	ErrInvalidBlock      = errors.New("blockchain: invalid block")
	ErrAlreadyExists     = errors.New("blockchain: already exists")
	ErrNotInitialized    = errors.New("blockchain: not initialized")
	ErrDecode            = errors.New("blockchain: decode error")
	ErrEmptyOutputs      = errors.New("blockchain: transaction has no outputs")
)
