package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"go.uber.org/mock/gomock"

	"certifier/internal/audit"
	"certifier/internal/revocation/service/mocks"
)

func (s *ServiceSuite) TestCorruptionAuditor() {
	s.Run("Given a working publisher When corruption is reported Then an event is emitted", func() {
		hook := CorruptionAuditor(audit.NewPublisher(s.events), nil)
		hook(s.ctx, "secrets", errors.New("unexpected end of JSON input"))

		events := s.events.ByAction(audit.ActionStoreCorruption)
		s.Require().Len(events, 1)
		s.Equal("secrets: unexpected end of JSON input", events[0].Reason)
	})

	s.Run("Given a failing publisher When corruption is reported Then the failure is logged", func() {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		mockAudit := mocks.NewMockAuditPublisher(s.ctrl)
		mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e audit.Event) error {
				s.Equal(audit.ActionStoreCorruption, e.Action)
				return errors.New("broker unreachable")
			})

		CorruptionAuditor(mockAudit, logger)(s.ctx, "orphans", errors.New("bad json"))

		s.Contains(buf.String(), "failed to emit audit event")
		s.Contains(buf.String(), "store=orphans")
		s.Contains(buf.String(), "broker unreachable")
	})
}
