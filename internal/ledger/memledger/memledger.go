// Package memledger is an in-process ledger used for development and tests.
// It keeps an unspent output set, checks hash-lock unlocking scripts, and
// rejects double spends. Transactions are never broadcast anywhere.
package memledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"certifier/internal/ledger"
	"certifier/pkg/hashlock"
)

type utxo struct {
	output ledger.Output
	txid   string
}

// Ledger is a simulated ledger. It is safe for concurrent use.
type Ledger struct {
	mu        sync.Mutex
	unlimited bool
	balance   uint64
	nonce     uint64
	utxos     map[string]utxo
	spent     map[string]string
	txs       map[string][]byte
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithBalance limits the satoshis available for new outputs.
// Without it the ledger funds every request.
func WithBalance(satoshis uint64) Option {
	return func(l *Ledger) {
		l.unlimited = false
		l.balance = satoshis
	}
}

// New creates an empty simulated ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		unlimited: true,
		utxos:     make(map[string]utxo),
		spent:     make(map[string]string),
		txs:       make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fund adds satoshis to a limited balance.
func (l *Ledger) Fund(satoshis uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance += satoshis
}

// CreateOutputs commits outputs in a new transaction. Unless StableOrdering is
// set the outputs are shuffled, as a privacy-preserving wallet would.
func (l *Ledger) CreateOutputs(ctx context.Context, outputs []ledger.Output, opts ledger.CreateOptions) (*ledger.CreateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: no outputs", ledger.ErrRejected)
	}

	ordered := make([]ledger.Output, len(outputs))
	copy(ordered, outputs)
	if !opts.StableOrdering {
		rand.Shuffle(len(ordered), func(i, j int) { ordered[i], ordered[j] = ordered[j], ordered[i] })
	}

	var total uint64
	for _, out := range ordered {
		total += out.Satoshis
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.unlimited {
		if l.balance < total {
			return nil, ledger.ErrInsufficientFunds
		}
		l.balance -= total
	}

	l.nonce++
	raw := serialize(l.nonce, nil, ordered)
	txid := TxID(raw)
	l.txs[txid] = raw
	for i, out := range ordered {
		l.utxos[outpoint(txid, i)] = utxo{output: out, txid: txid}
	}

	return &ledger.CreateResult{TxID: txid, TransactionBytes: raw}, nil
}

// SpendInputs spends hash-locked outputs. Every input must reveal a preimage
// satisfying its output's locking script.
func (l *Ledger) SpendInputs(ctx context.Context, inputs []ledger.Input, outputs []ledger.Output) (*ledger.SpendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs", ledger.ErrRejected)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, in := range inputs {
		spendable, ok := l.utxos[in.Outpoint]
		if !ok {
			if by, spent := l.spent[in.Outpoint]; spent {
				return nil, fmt.Errorf("%w: %s already spent by %s", ledger.ErrRejected, in.Outpoint, by)
			}
			return nil, fmt.Errorf("%w: unknown output %s", ledger.ErrRejected, in.Outpoint)
		}
		if len(in.SupportingTransaction) > 0 && TxID(in.SupportingTransaction) != spendable.txid {
			return nil, fmt.Errorf("%w: supporting transaction does not match %s", ledger.ErrRejected, in.Outpoint)
		}
		if !hashlock.Satisfies(spendable.output.LockingScript, in.UnlockingScript) {
			return nil, fmt.Errorf("%w: unlocking script does not satisfy %s", ledger.ErrRejected, in.Outpoint)
		}
	}

	l.nonce++
	raw := serialize(l.nonce, inputs, outputs)
	txid := TxID(raw)
	l.txs[txid] = raw
	for _, in := range inputs {
		delete(l.utxos, in.Outpoint)
		l.spent[in.Outpoint] = txid
	}
	for i, out := range outputs {
		l.utxos[outpoint(txid, i)] = utxo{output: out, txid: txid}
	}

	return &ledger.SpendResult{TxID: txid}, nil
}

// IsUnspent reports whether the output at op exists and is unspent.
func (l *Ledger) IsUnspent(op string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.utxos[op]
	return ok
}

// SpentBy returns the id of the transaction that spent op.
func (l *Ledger) SpentBy(op string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	txid, ok := l.spent[op]
	return txid, ok
}

// Transaction returns the raw bytes of a known transaction.
func (l *Ledger) Transaction(txid string) ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	raw, ok := l.txs[txid]
	return raw, ok
}

// TxID is the byte-reversed double SHA-256 of raw, hex encoded.
func TxID(raw []byte) string {
	first := sha256.Sum256(raw)
	second := sha256.Sum256(first[:])
	for i, j := 0, len(second)-1; i < j; i, j = i+1, j-1 {
		second[i], second[j] = second[j], second[i]
	}
	return hex.EncodeToString(second[:])
}

func outpoint(txid string, index int) string {
	return txid + "." + strconv.Itoa(index)
}

// serialize produces a compact, deterministic encoding. It is not a consensus
// transaction format; it only has to be stable so txids are reproducible.
func serialize(nonce uint64, inputs []ledger.Input, outputs []ledger.Output) []byte {
	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint64(buf, nonce)
	buf = binary.AppendUvarint(buf, uint64(len(inputs)))
	for _, in := range inputs {
		txid, idx, _ := strings.Cut(in.Outpoint, ".")
		buf = appendBytes(buf, []byte(txid))
		n, _ := strconv.ParseUint(idx, 10, 32)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(n))
		buf = appendBytes(buf, in.UnlockingScript)
	}
	buf = binary.AppendUvarint(buf, uint64(len(outputs)))
	for _, out := range outputs {
		buf = binary.LittleEndian.AppendUint64(buf, out.Satoshis)
		buf = appendBytes(buf, out.LockingScript)
	}
	return buf
}

func appendBytes(buf, data []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(data)))
	return append(buf, data...)
}
