package service

import (
	"context"
	"log/slog"

	"certifier/internal/audit"
	"certifier/internal/revocation/store"
	dErrors "certifier/pkg/domain-errors"
)

// Operation labels used in logs and metrics.
const (
	opBegin    = "begin_issuance"
	opComplete = "complete_issuance"
	opIssue    = "issue_certificate"
	opRevoke   = "revoke_certificate"
	opAbandon  = "abandon_issuance"
)

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

// fail counts err against op and returns it unchanged.
func (s *Service) fail(op string, err error) error {
	s.metrics.IncError(op, string(dErrors.CodeOf(err)))
	return err
}

// CorruptionAuditor returns a store hook that publishes corruption events.
func CorruptionAuditor(publisher AuditPublisher, logger *slog.Logger) store.CorruptionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, name string, err error) {
		event := audit.Event{
			Action: audit.ActionStoreCorruption,
			Reason: name + ": " + err.Error(),
		}
		if emitErr := publisher.Emit(ctx, event); emitErr != nil {
			logger.ErrorContext(ctx, "failed to emit audit event",
				"action", event.Action,
				"store", name,
				"error", emitErr,
			)
		}
	}
}
