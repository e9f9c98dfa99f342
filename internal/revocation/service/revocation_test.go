package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.uber.org/mock/gomock"

	"certifier/internal/audit"
	"certifier/internal/revocation/models"
	"certifier/internal/revocation/service/mocks"
	dErrors "certifier/pkg/domain-errors"
	"certifier/pkg/testutil"
)

func (s *ServiceSuite) TestRevokeCertificate() {
	s.Run("Given an issued certificate When revoked Then the commitment is spent and the record removed", func() {
		c := commitmentAt("tx1", 1)
		s.put("abc123", c)
		s.mockIssuer.EXPECT().
			Spend(gomock.Any(), c.Reference, c.Secret, []byte(c.TransactionBytes), spendDescription).
			Return("tx2", nil)

		result, err := s.service.RevokeCertificate(s.ctx, "abc123")
		s.Require().NoError(err)
		s.Equal("tx2", result.TxID)
		s.NotContains(s.stored(), "abc123")

		events := s.events.ByAction(audit.ActionCertificateRevoked)
		s.Require().Len(events, 1)
		s.Equal("abc123", events[0].SerialNumber)
		s.Equal("tx1.0", events[0].Outpoint)
		s.Equal("tx2", events[0].TxID)
	})

	s.Run("Given an unknown serial When revoked Then NotFound is returned and the ledger is untouched", func() {
		s.put("other", commitmentAt("tx5", 5))
		before := s.backend.Raw()
		saves := s.backend.Saves()

		_, err := s.service.RevokeCertificate(s.ctx, "nonexistent")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal(msgNotFound, err.Error())
		s.Equal(before, s.backend.Raw())
		s.Equal(saves, s.backend.Saves())
	})

	s.Run("Given a blank serial When revoked Then it is rejected", func() {
		_, err := s.service.RevokeCertificate(s.ctx, "  ")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestRevokeCertificateChainFailure() {
	c := commitmentAt("tx1", 1)
	s.put("abc123", c)
	s.mockIssuer.EXPECT().Spend(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", dErrors.New(dErrors.CodeChainSubmission, "ledger did not accept the spend"))

	_, err := s.service.RevokeCertificate(s.ctx, "abc123")
	s.True(dErrors.HasCode(err, dErrors.CodeChainSubmission))
	s.Contains(s.stored(), "abc123")
	s.Empty(s.events.ByAction(audit.ActionCertificateRevoked))

	s.mockIssuer.EXPECT().Spend(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("tx2", nil)
	result, err := s.service.RevokeCertificate(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal("tx2", result.TxID)
}

func (s *ServiceSuite) TestRevokeCertificateRecordReplacedDuringSpend() {
	original := commitmentAt("tx1", 1)
	replacement := commitmentAt("tx9", 9)
	s.put("abc123", original)
	s.mockIssuer.EXPECT().Spend(gomock.Any(), original.Reference, gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.Outpoint, models.Secret, []byte, string) (string, error) {
			s.put("abc123", replacement)
			return "tx2", nil
		})

	result, err := s.service.RevokeCertificate(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal("tx2", result.TxID)
	s.Equal(replacement.Reference, s.stored()["abc123"].CommitmentReference)
}

func (s *ServiceSuite) TestRevokeCertificateDeleteFails() {
	c := commitmentAt("tx1", 1)
	s.put("abc123", c)
	s.mockIssuer.EXPECT().Spend(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.Outpoint, models.Secret, []byte, string) (string, error) {
			s.backend.FailSave(errors.New("disk full"))
			return "tx2", nil
		})

	_, err := s.service.RevokeCertificate(s.ctx, "abc123")
	s.True(dErrors.HasCode(err, dErrors.CodeStoreUnavailable))
}

func (s *ServiceSuite) TestRevokeCertificateCallerGoneAfterSpend() {
	c := commitmentAt("tx1", 1)
	s.put("abc123", c)
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	s.mockIssuer.EXPECT().Spend(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.Outpoint, models.Secret, []byte, string) (string, error) {
			cancel()
			return "tx2", nil
		})

	result, err := s.service.RevokeCertificate(ctx, "abc123")
	s.Require().NoError(err)
	s.Equal("tx2", result.TxID)
	s.NotContains(s.stored(), "abc123")
	s.True(s.service.IsRevoked(s.ctx, c.Reference.String()))
	s.Len(s.events.ByAction(audit.ActionCertificateRevoked), 1)
}

func (s *ServiceSuite) TestRevokeCertificateConcurrentSameSerial() {
	c := commitmentAt("tx1", 1)
	s.put("abc123", c)
	s.mockIssuer.EXPECT().Spend(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.Outpoint, models.Secret, []byte, string) (string, error) {
			time.Sleep(5 * time.Millisecond)
			return "tx2", nil
		}).Times(1)

	result := testutil.RunConcurrent(10, func(int) error {
		_, err := s.service.RevokeCertificate(s.ctx, "abc123")
		return err
	})
	s.EqualValues(1, result.Successes)
	s.EqualValues(9, result.NotFounds)
	s.EqualValues(0, result.Errors)
}

func (s *ServiceSuite) TestRevokeCertificateCancelledWhileWaiting() {
	c := commitmentAt("tx1", 1)
	s.put("abc123", c)

	release := make(chan struct{})
	started := make(chan struct{})
	s.mockIssuer.EXPECT().Spend(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.Outpoint, models.Secret, []byte, string) (string, error) {
			close(started)
			<-release
			return "tx2", nil
		})

	done := make(chan error, 1)
	go func() {
		_, err := s.service.RevokeCertificate(s.ctx, "abc123")
		done <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Millisecond)
	defer cancel()
	_, err := s.service.RevokeCertificate(ctx, "abc123")
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))

	close(release)
	s.NoError(<-done)
}

func (s *ServiceSuite) TestAuditFailureDoesNotFailRevocation() {
	mockAudit := mocks.NewMockAuditPublisher(s.ctrl)
	svc, err := New(s.secrets, s.mockIssuer, s.mockSigner,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(mockAudit),
	)
	s.Require().NoError(err)

	s.put("abc123", commitmentAt("tx1", 1))
	s.mockIssuer.EXPECT().Spend(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("tx2", nil)
	mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(audit.ActionCertificateRevoked, e.Action)
		return errors.New("broker unavailable")
	})

	result, err := svc.RevokeCertificate(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal("tx2", result.TxID)
}
