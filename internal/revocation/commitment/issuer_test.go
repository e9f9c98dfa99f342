package commitment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"certifier/internal/ledger"
	"certifier/internal/ledger/memledger"
	"certifier/internal/ledger/mocks"
	"certifier/internal/revocation/models"
	dErrors "certifier/pkg/domain-errors"
	"certifier/pkg/hashlock"
)

type IssuerSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	mockLedger *mocks.MockLedger
	issuer     *Issuer
	logger     *slog.Logger
}

func TestIssuerSuite(t *testing.T) {
	suite.Run(t, new(IssuerSuite))
}

func (s *IssuerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockLedger = mocks.NewMockLedger(s.ctrl)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.issuer = New(s.mockLedger, WithLogger(s.logger))
}

func (s *IssuerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *IssuerSuite) TestCreateCommitment() {
	ctx := context.Background()

	s.Run("Given a funded ledger When committing Then one stable hash-lock output is created", func() {
		var captured []ledger.Output
		s.mockLedger.EXPECT().
			CreateOutputs(gomock.Any(), gomock.Any(), ledger.CreateOptions{StableOrdering: true, Description: outputDescription}).
			DoAndReturn(func(_ context.Context, outs []ledger.Output, _ ledger.CreateOptions) (*ledger.CreateResult, error) {
				captured = outs
				return &ledger.CreateResult{TxID: "tx1", TransactionBytes: []byte{0xbe, 0xef}}, nil
			})

		c, err := s.issuer.CreateCommitment(ctx)
		s.Require().NoError(err)
		s.Equal("tx1.0", c.Reference.String())
		s.Equal([]byte{0xbe, 0xef}, c.TransactionBytes)

		s.Require().Len(captured, 1)
		s.Equal(uint64(commitmentSatoshis), captured[0].Satoshis)
		digest, err := hashlock.ParseLockingScript(captured[0].LockingScript)
		s.Require().NoError(err)
		s.Equal(c.Secret.Digest(), digest)
		s.Equal([]string{outputTag}, captured[0].Tags)
	})

	s.Run("Given an unfunded wallet When committing Then an insufficient funds error is returned", func() {
		s.mockLedger.EXPECT().CreateOutputs(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, ledger.ErrInsufficientFunds)

		c, err := s.issuer.CreateCommitment(ctx)
		s.Nil(c)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
		s.Equal(FundsMessage, err.Error())
	})

	s.Run("Given the ledger returns no txid When committing Then a chain submission error is returned", func() {
		s.mockLedger.EXPECT().CreateOutputs(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&ledger.CreateResult{}, nil)

		_, err := s.issuer.CreateCommitment(ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeChainSubmission))
	})

	s.Run("Given the ledger fails When committing Then a chain submission error is returned", func() {
		s.mockLedger.EXPECT().CreateOutputs(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection reset"))

		_, err := s.issuer.CreateCommitment(ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeChainSubmission))
	})

	s.Run("Given secret generation fails When committing Then the ledger is not called", func() {
		issuer := New(s.mockLedger, WithLogger(s.logger), WithSecretSource(func() (models.Secret, error) {
			return models.Secret{}, errors.New("entropy exhausted")
		}))

		_, err := issuer.CreateCommitment(ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *IssuerSuite) TestSpend() {
	ctx := context.Background()
	secret, err := models.NewSecret()
	s.Require().NoError(err)
	ref := models.Outpoint{TxID: "tx1", Index: 0}

	s.Run("Given a valid secret When spending Then the unlocking script reveals it", func() {
		s.mockLedger.EXPECT().SpendInputs(gomock.Any(), gomock.Any(), gomock.Nil()).
			DoAndReturn(func(_ context.Context, ins []ledger.Input, _ []ledger.Output) (*ledger.SpendResult, error) {
				s.Require().Len(ins, 1)
				s.Equal("tx1.0", ins[0].Outpoint)
				s.Equal([]byte{0x01}, ins[0].SupportingTransaction)
				revealed, err := hashlock.ParseUnlockingScript(ins[0].UnlockingScript)
				s.Require().NoError(err)
				s.Equal(secret.Bytes(), revealed)
				return &ledger.SpendResult{TxID: "tx2"}, nil
			})

		txid, err := s.issuer.Spend(ctx, ref, secret, []byte{0x01}, "revoke")
		s.Require().NoError(err)
		s.Equal("tx2", txid)
	})

	s.Run("Given the ledger rejects the spend When spending Then a chain submission error is returned", func() {
		s.mockLedger.EXPECT().SpendInputs(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, ledger.ErrRejected)

		_, err := s.issuer.Spend(ctx, ref, secret, nil, "revoke")
		s.True(dErrors.HasCode(err, dErrors.CodeChainSubmission))
		s.ErrorIs(err, ledger.ErrRejected)
	})

	s.Run("Given an empty txid When spending Then a chain submission error is returned", func() {
		s.mockLedger.EXPECT().SpendInputs(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&ledger.SpendResult{}, nil)

		_, err := s.issuer.Spend(ctx, ref, secret, nil, "revoke")
		s.True(dErrors.HasCode(err, dErrors.CodeChainSubmission))
	})
}

func TestCommitmentsAreSpendableWithTheirSecret(t *testing.T) {
	ctx := context.Background()
	l := memledger.New()
	issuer := New(l, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	seen := make(map[models.Secret]bool)
	for range 20 {
		c, err := issuer.CreateCommitment(ctx)
		require.NoError(t, err)
		require.False(t, seen[c.Secret], "secret reused across commitments")
		seen[c.Secret] = true

		require.True(t, l.IsUnspent(c.Reference.String()))
		_, err = issuer.Spend(ctx, c.Reference, c.Secret, c.TransactionBytes, "test")
		require.NoError(t, err)
		require.False(t, l.IsUnspent(c.Reference.String()))
	}
}
