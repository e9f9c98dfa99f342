package service

import (
	"context"

	"certifier/internal/platform/tracer"
	"certifier/internal/revocation/models"
)

const (
	outcomeActive     = "active"
	outcomeRevoked    = "revoked"
	outcomeLegacy     = "legacy"
	outcomeUnreadable = "unreadable"
)

// IsRevoked reports whether the commitment at outpoint has been spent. It
// never fails: the legacy sentinel is never revoked, and an unreadable store
// makes every commitment appear revoked.
func (s *Service) IsRevoked(ctx context.Context, outpoint string) bool {
	ref := outpoint
	if parsed, err := models.ParseOutpoint(outpoint); err == nil {
		ref = parsed.String()
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanStatus, tracer.String(tracer.AttrOutpoint, ref))
	revoked, outcome := s.status(ctx, ref)
	span.SetAttributes(
		tracer.Bool(tracer.AttrRevoked, revoked),
		tracer.String(tracer.AttrOutcome, outcome),
	)
	span.End(nil)

	s.metrics.IncStatusCheck(outcome)
	return revoked
}

func (s *Service) status(ctx context.Context, ref string) (bool, string) {
	if ref == models.LegacyOutpoint.String() {
		return false, outcomeLegacy
	}

	snapshot, err := s.secrets.Snapshot(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "secret store unreadable, reporting revoked",
			"outpoint", ref,
			"error", err,
		)
		return true, outcomeUnreadable
	}
	if _, live := snapshot.FindByOutpoint(ref); live {
		return false, outcomeActive
	}
	return true, outcomeRevoked
}
