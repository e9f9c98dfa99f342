package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/mock/gomock"

	"certifier/internal/audit"
	"certifier/internal/revocation/commitment"
	"certifier/internal/revocation/models"
	"certifier/internal/signer"
	dErrors "certifier/pkg/domain-errors"
)

func (s *ServiceSuite) TestIssueCertificate() {
	s.Run("Given a funded issuer When a certificate is issued Then the secret is stored under its serial", func() {
		c := commitmentAt("tx1", 1)
		s.mockIssuer.EXPECT().CreateCommitment(gomock.Any()).Return(c, nil)
		s.mockSigner.EXPECT().Sign(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req signer.SignRequest) (*models.Certificate, error) {
				s.Equal(c.Reference, req.RevocationOutpoint)
				s.Equal("subject-key", req.Subject)
				s.Equal(models.Fields{"name": "Alice"}, req.Fields)
				return certificateFor("abc123", req.RevocationOutpoint), nil
			})

		result, err := s.service.IssueCertificate(s.ctx, issueRequest())
		s.Require().NoError(err)
		s.Equal("tx1", result.TxID)
		s.Equal("abc123", result.Certificate.SerialNumber)
		s.Equal("tx1.0", result.Certificate.RevocationOutpoint.String())

		rec := s.stored()["abc123"]
		s.Equal(c.Secret, rec.Secret)
		s.Equal(c.Reference, rec.CommitmentReference)
		s.Equal(models.ByteArray(c.TransactionBytes), rec.TransactionBytes)

		events := s.events.ByAction(audit.ActionCertificateIssued)
		s.Require().Len(events, 1)
		s.Equal("abc123", events[0].SerialNumber)
		s.Equal("tx1.0", events[0].Outpoint)
		s.Equal("tx1", events[0].TxID)
	})

	s.Run("Given an empty subject When issuing Then it is rejected before touching the ledger", func() {
		req := issueRequest()
		req.Subject = " "
		_, err := s.service.IssueCertificate(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		req = issueRequest()
		req.Type = ""
		_, err = s.service.IssueCertificate(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestIssueCertificateUnfunded() {
	saves := s.backend.Saves()
	s.mockIssuer.EXPECT().CreateCommitment(gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInsufficientFunds, commitment.FundsMessage))

	_, err := s.service.IssueCertificate(s.ctx, issueRequest())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	s.Equal(commitment.FundsMessage, err.Error())
	s.Equal(saves, s.backend.Saves())
}

func (s *ServiceSuite) TestIssueCertificateSigningFailure() {
	s.Run("Given the signer fails When issuing Then nothing is stored and the commitment is orphaned", func() {
		c := commitmentAt("tx1", 1)
		s.mockIssuer.EXPECT().CreateCommitment(gomock.Any()).Return(c, nil)
		s.mockSigner.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(nil, errors.New("signing key unavailable"))
		s.mockOrphans.EXPECT().Record(gomock.Any(), c.Reference, c.Secret, c.TransactionBytes, "signing failed").Return(nil)

		_, err := s.service.IssueCertificate(s.ctx, issueRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeSigningFailed))
		s.Equal(msgSigningFailed, err.Error())
		s.Empty(s.stored())
		s.Empty(s.events.ByAction(audit.ActionCertificateIssued))
	})

	s.Run("Given the signer returns a domain error When issuing Then the code is still signing_failed", func() {
		c := commitmentAt("tx2", 2)
		s.mockIssuer.EXPECT().CreateCommitment(gomock.Any()).Return(c, nil)
		s.mockSigner.EXPECT().Sign(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidInput, "bad field"))
		s.mockOrphans.EXPECT().Record(gomock.Any(), c.Reference, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.service.IssueCertificate(s.ctx, issueRequest())
		s.Equal(dErrors.CodeSigningFailed, dErrors.CodeOf(err))
	})

	s.Run("Given orphan tracking fails When the signer fails Then the signing error is returned", func() {
		c := commitmentAt("tx3", 3)
		s.mockIssuer.EXPECT().CreateCommitment(gomock.Any()).Return(c, nil)
		s.mockSigner.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))
		s.mockOrphans.EXPECT().Record(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("orphan store down"))

		_, err := s.service.IssueCertificate(s.ctx, issueRequest())
		s.Equal(dErrors.CodeSigningFailed, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestIssueCertificateUpperCaseLedgerTxID() {
	c := commitmentAt(strings.Repeat("AB", 32), 1)
	s.mockIssuer.EXPECT().CreateCommitment(gomock.Any()).Return(c, nil)
	s.mockSigner.EXPECT().Sign(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req signer.SignRequest) (*models.Certificate, error) {
			return certificateFor("abc123", req.RevocationOutpoint), nil
		})

	result, err := s.service.IssueCertificate(s.ctx, issueRequest())
	s.Require().NoError(err)
	s.False(s.service.IsRevoked(s.ctx, result.Certificate.RevocationOutpoint.String()))
	s.False(s.service.IsRevoked(s.ctx, strings.Repeat("ab", 32)+".0"))
}

func (s *ServiceSuite) TestIssueCertificateRequestCancelledAfterSigning() {
	c := commitmentAt("tx1", 1)
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	s.mockIssuer.EXPECT().CreateCommitment(gomock.Any()).Return(c, nil)
	s.mockSigner.EXPECT().Sign(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req signer.SignRequest) (*models.Certificate, error) {
			cancel()
			return certificateFor("abc123", req.RevocationOutpoint), nil
		})
	s.mockOrphans.EXPECT().
		Record(gomock.Any(), c.Reference, c.Secret, c.TransactionBytes, "completion failed: timeout").
		DoAndReturn(func(ctx context.Context, _ models.Outpoint, _ models.Secret, _ []byte, _ string) error {
			s.NoError(ctx.Err())
			return nil
		})

	_, err := s.service.IssueCertificate(ctx, issueRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	s.Empty(s.stored())
}

func (s *ServiceSuite) TestIssueCertificateDuplicateSerial() {
	existing := commitmentAt("tx0", 9)
	s.put("abc123", existing)

	c := commitmentAt("tx1", 1)
	s.mockIssuer.EXPECT().CreateCommitment(gomock.Any()).Return(c, nil)
	s.mockSigner.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(certificateFor("abc123", c.Reference), nil)
	s.mockOrphans.EXPECT().Record(gomock.Any(), c.Reference, c.Secret, gomock.Any(), "completion failed: conflict").Return(nil)

	_, err := s.service.IssueCertificate(s.ctx, issueRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	rec := s.stored()["abc123"]
	s.Equal(existing.Secret, rec.Secret)
	s.Equal(existing.Reference, rec.CommitmentReference)
}

func (s *ServiceSuite) TestIssueCertificateStoreUnavailable() {
	c := commitmentAt("tx1", 1)
	s.backend.FailSave(errors.New("disk full"))
	s.mockIssuer.EXPECT().CreateCommitment(gomock.Any()).Return(c, nil)
	s.mockSigner.EXPECT().Sign(gomock.Any(), gomock.Any()).Return(certificateFor("abc123", c.Reference), nil)
	s.mockOrphans.EXPECT().Record(gomock.Any(), c.Reference, gomock.Any(), gomock.Any(), "completion failed: store_unavailable").Return(nil)

	_, err := s.service.IssueCertificate(s.ctx, issueRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeStoreUnavailable))
	s.NotContains(err.Error(), "disk full")
}

func (s *ServiceSuite) TestTwoPhaseIssuance() {
	s.Run("Given a pending commitment When completed with a different outpoint Then nothing is persisted", func() {
		c := commitmentAt("tx1", 1)
		s.mockIssuer.EXPECT().CreateCommitment(gomock.Any()).Return(c, nil)

		pending, err := s.service.BeginIssuance(s.ctx)
		s.Require().NoError(err)
		s.Equal(c.Reference, pending.Reference())
		s.Equal("tx1", pending.TxID())

		wrong := certificateFor("abc123", models.Outpoint{TxID: "tx9", Index: 0})
		_, err = s.service.CompleteIssuance(s.ctx, pending, wrong)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Empty(s.stored())

		result, err := s.service.CompleteIssuance(s.ctx, pending, certificateFor("abc123", c.Reference))
		s.Require().NoError(err)
		s.Equal("tx1", result.TxID)
		s.Contains(s.stored(), "abc123")

		_, err = s.service.CompleteIssuance(s.ctx, pending, certificateFor("def456", c.Reference))
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.NotContains(s.stored(), "def456")

		s.True(dErrors.HasCode(s.service.Abandon(s.ctx, pending, "late"), dErrors.CodeInvariantViolation))
	})

	s.Run("Given a pending commitment When abandoned Then it is orphaned and cannot be completed", func() {
		c := commitmentAt("tx2", 2)
		s.mockIssuer.EXPECT().CreateCommitment(gomock.Any()).Return(c, nil)
		s.mockOrphans.EXPECT().Record(gomock.Any(), c.Reference, c.Secret, gomock.Any(), "caller gave up").Return(nil)

		pending, err := s.service.BeginIssuance(s.ctx)
		s.Require().NoError(err)
		s.Require().NoError(s.service.Abandon(s.ctx, pending, "caller gave up"))

		_, err = s.service.CompleteIssuance(s.ctx, pending, certificateFor("ghi789", c.Reference))
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("Given no pending commitment When completing Then it is an invariant violation", func() {
		_, err := s.service.CompleteIssuance(s.ctx, nil, certificateFor("x", models.Outpoint{}))
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("Given a certificate without serial When completing Then it is rejected", func() {
		c := commitmentAt("tx3", 3)
		s.mockIssuer.EXPECT().CreateCommitment(gomock.Any()).Return(c, nil)
		pending, err := s.service.BeginIssuance(s.ctx)
		s.Require().NoError(err)

		_, err = s.service.CompleteIssuance(s.ctx, pending, certificateFor("", c.Reference))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
