package memledger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"certifier/internal/ledger"
	"certifier/pkg/hashlock"
)

type MemLedgerSuite struct {
	suite.Suite
	ctx    context.Context
	ledger *Ledger
	secret []byte
}

func TestMemLedgerSuite(t *testing.T) {
	suite.Run(t, new(MemLedgerSuite))
}

func (s *MemLedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = New()
	s.secret = bytes.Repeat([]byte{0x42}, 32)
}

func (s *MemLedgerSuite) commit() *ledger.CreateResult {
	res, err := s.ledger.CreateOutputs(s.ctx, []ledger.Output{{
		LockingScript: hashlock.LockingScriptFor(s.secret),
		Satoshis:      1,
	}}, ledger.CreateOptions{StableOrdering: true})
	s.Require().NoError(err)
	return res
}

func (s *MemLedgerSuite) TestCreateAndSpendHashLock() {
	res := s.commit()
	op := res.TxID + ".0"
	s.True(s.ledger.IsUnspent(op))
	s.Equal(res.TxID, TxID(res.TransactionBytes))

	spend, err := s.ledger.SpendInputs(s.ctx, []ledger.Input{{
		Outpoint:              op,
		UnlockingScript:       hashlock.UnlockingScript(s.secret),
		SupportingTransaction: res.TransactionBytes,
	}}, nil)
	s.Require().NoError(err)
	s.NotEmpty(spend.TxID)

	s.False(s.ledger.IsUnspent(op))
	by, ok := s.ledger.SpentBy(op)
	s.True(ok)
	s.Equal(spend.TxID, by)
}

func (s *MemLedgerSuite) TestDoubleSpendRejected() {
	res := s.commit()
	in := []ledger.Input{{Outpoint: res.TxID + ".0", UnlockingScript: hashlock.UnlockingScript(s.secret)}}

	_, err := s.ledger.SpendInputs(s.ctx, in, nil)
	s.Require().NoError(err)

	_, err = s.ledger.SpendInputs(s.ctx, in, nil)
	s.ErrorIs(err, ledger.ErrRejected)
}

func (s *MemLedgerSuite) TestWrongPreimageRejected() {
	res := s.commit()
	_, err := s.ledger.SpendInputs(s.ctx, []ledger.Input{{
		Outpoint:        res.TxID + ".0",
		UnlockingScript: hashlock.UnlockingScript(bytes.Repeat([]byte{0x01}, 32)),
	}}, nil)
	s.ErrorIs(err, ledger.ErrRejected)
	s.True(s.ledger.IsUnspent(res.TxID + ".0"))
}

func (s *MemLedgerSuite) TestMismatchedSupportingTransactionRejected() {
	res := s.commit()
	_, err := s.ledger.SpendInputs(s.ctx, []ledger.Input{{
		Outpoint:              res.TxID + ".0",
		UnlockingScript:       hashlock.UnlockingScript(s.secret),
		SupportingTransaction: []byte("not the funding tx"),
	}}, nil)
	s.ErrorIs(err, ledger.ErrRejected)
}

func (s *MemLedgerSuite) TestUniqueTxIDs() {
	first := s.commit()
	second := s.commit()
	s.NotEqual(first.TxID, second.TxID)
}

func TestLimitedBalance(t *testing.T) {
	ctx := context.Background()
	l := New(WithBalance(1))
	out := []ledger.Output{{LockingScript: hashlock.LockingScriptFor([]byte("x")), Satoshis: 1}}

	_, err := l.CreateOutputs(ctx, out, ledger.CreateOptions{StableOrdering: true})
	require.NoError(t, err)

	_, err = l.CreateOutputs(ctx, out, ledger.CreateOptions{StableOrdering: true})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	l.Fund(5)
	_, err = l.CreateOutputs(ctx, out, ledger.CreateOptions{StableOrdering: true})
	assert.NoError(t, err)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().CreateOutputs(ctx, []ledger.Output{{Satoshis: 1}}, ledger.CreateOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
