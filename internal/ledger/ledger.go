// Package ledger defines the wallet/ledger capability the revocation engine
// builds commitments and spends through.
package ledger

import (
	"context"
	"errors"
)

//go:generate mockgen -source=ledger.go -destination=mocks/mocks.go -package=mocks Ledger

var (
	// ErrInsufficientFunds means the wallet cannot fund the requested outputs.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrRejected means the ledger refused the transaction (bad script, double spend).
	ErrRejected = errors.New("transaction rejected")
)

// Output is a new ledger output.
type Output struct {
	LockingScript []byte
	Satoshis      uint64
	Description   string
	Basket        string
	Tags          []string
}

// Input spends an existing output identified by Outpoint ("txid.index").
type Input struct {
	Outpoint        string
	UnlockingScript []byte
	Description     string
	// SupportingTransaction is the raw transaction that created the output,
	// supplied because the ledger may not be able to resolve it by id alone.
	SupportingTransaction []byte
}

// CreateOptions controls transaction construction.
type CreateOptions struct {
	// StableOrdering keeps outputs in the order given so output indexes are predictable.
	StableOrdering bool
	Description    string
}

// CreateResult is returned when new outputs are committed.
type CreateResult struct {
	TxID             string
	TransactionBytes []byte
}

// SpendResult is returned when inputs are spent.
type SpendResult struct {
	TxID string
}

// Ledger builds and submits transactions.
type Ledger interface {
	CreateOutputs(ctx context.Context, outputs []Output, opts CreateOptions) (*CreateResult, error)
	SpendInputs(ctx context.Context, inputs []Input, outputs []Output) (*SpendResult, error)
}
