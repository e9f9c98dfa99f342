package service

import (
	"context"
	"strings"
	"sync"

	"certifier/internal/audit"
	"certifier/internal/platform/tracer"
	"certifier/internal/revocation/models"
	"certifier/internal/revocation/store"
	"certifier/internal/signer"
	dErrors "certifier/pkg/domain-errors"
	"certifier/pkg/platform/sentinel"
)

// PendingCommitment is a created but not yet persisted commitment. It is
// resolved exactly once, by CompleteIssuance or Abandon.
type PendingCommitment struct {
	reference models.Outpoint
	secret    models.Secret
	txBytes   []byte
	txid      string

	mu       sync.Mutex
	resolved bool
}

// Reference is the outpoint the certificate must embed.
func (p *PendingCommitment) Reference() models.Outpoint {
	return p.reference
}

// TxID is the id of the transaction that created the commitment.
func (p *PendingCommitment) TxID() string {
	return p.txid
}

// BeginIssuance creates a commitment on the ledger. The caller signs a
// certificate embedding Reference() and then calls CompleteIssuance, or
// Abandon if signing does not happen.
func (s *Service) BeginIssuance(ctx context.Context) (*PendingCommitment, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanBeginIssuance)
	c, err := s.issuer.CreateCommitment(ctx)
	if err != nil {
		span.End(err)
		s.logger.WarnContext(ctx, "commitment creation failed", "error", err)
		return nil, s.fail(opBegin, err)
	}
	span.SetAttributes(
		tracer.String(tracer.AttrOutpoint, c.Reference.String()),
		tracer.String(tracer.AttrTxID, c.Reference.TxID),
	)
	span.End(nil)

	return &PendingCommitment{
		reference: c.Reference,
		secret:    c.Secret,
		txBytes:   c.TransactionBytes,
		txid:      c.Reference.TxID,
	}, nil
}

// CompleteIssuance persists the secret for cert under its serial number.
// The certificate must embed the pending reference. A failed completion
// leaves the pending commitment unresolved so the caller can retry or
// Abandon it.
func (s *Service) CompleteIssuance(ctx context.Context, pending *PendingCommitment, cert *models.Certificate) (*models.IssuanceResult, error) {
	if pending == nil {
		return nil, s.fail(opComplete, dErrors.New(dErrors.CodeInvariantViolation, msgPendingMissing))
	}
	if cert == nil || cert.SerialNumber == "" {
		return nil, s.fail(opComplete, dErrors.New(dErrors.CodeInvalidInput, "certificate serial number is required"))
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanCompleteIssuance,
		tracer.String(tracer.AttrSerialNumber, cert.SerialNumber),
		tracer.String(tracer.AttrOutpoint, pending.reference.String()),
	)

	pending.mu.Lock()
	defer pending.mu.Unlock()

	if pending.resolved {
		err := dErrors.New(dErrors.CodeInvariantViolation, msgPendingUsed)
		span.End(err)
		return nil, s.fail(opComplete, err)
	}
	if cert.RevocationOutpoint != pending.reference {
		err := dErrors.New(dErrors.CodeInvariantViolation, msgOutpointDiffer)
		s.logger.ErrorContext(ctx, "certificate outpoint does not match pending commitment",
			"serial_number", cert.SerialNumber,
			"outpoint", pending.reference.String(),
			"certificate_outpoint", cert.RevocationOutpoint.String(),
		)
		span.End(err)
		return nil, s.fail(opComplete, err)
	}

	record := models.RevocationRecord{
		Secret:              pending.secret,
		CommitmentReference: pending.reference,
		TransactionBytes:    pending.txBytes,
	}
	_, err := store.WithExclusiveAccess(ctx, s.secrets, func(m models.Mapping) (struct{}, error) {
		if _, exists := m[cert.SerialNumber]; exists {
			return struct{}{}, sentinel.ErrConflict
		}
		m[cert.SerialNumber] = record
		return struct{}{}, nil
	})
	if err != nil {
		derr := storeError(err)
		s.logger.ErrorContext(ctx, "failed to persist revocation secret",
			"serial_number", cert.SerialNumber,
			"outpoint", pending.reference.String(),
			"error", err,
		)
		span.End(derr)
		return nil, s.fail(opComplete, derr)
	}
	pending.resolved = true
	span.End(nil)

	s.metrics.IncIssued()
	s.logger.InfoContext(ctx, "certificate issued",
		"serial_number", cert.SerialNumber,
		"outpoint", pending.reference.String(),
		"txid", pending.txid,
		"certificate_type", string(cert.Type),
	)
	s.emit(ctx, audit.Event{
		Action:          audit.ActionCertificateIssued,
		SerialNumber:    cert.SerialNumber,
		Outpoint:        pending.reference.String(),
		TxID:            pending.txid,
		CertificateType: string(cert.Type),
		Subject:         cert.Subject,
	})

	return &models.IssuanceResult{Certificate: cert, TxID: pending.txid}, nil
}

// Abandon resolves a pending commitment that will never be attached to a
// certificate and hands it to the orphan recorder.
func (s *Service) Abandon(ctx context.Context, pending *PendingCommitment, reason string) error {
	if pending == nil {
		return s.fail(opAbandon, dErrors.New(dErrors.CodeInvariantViolation, msgPendingMissing))
	}
	pending.mu.Lock()
	defer pending.mu.Unlock()

	if pending.resolved {
		return s.fail(opAbandon, dErrors.New(dErrors.CodeInvariantViolation, msgPendingUsed))
	}
	pending.resolved = true

	if s.orphans == nil {
		s.logger.WarnContext(ctx, "commitment abandoned without orphan tracking",
			"outpoint", pending.reference.String(),
			"reason", reason,
		)
		return nil
	}
	if err := s.orphans.Record(ctx, pending.reference, pending.secret, pending.txBytes, reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to record orphaned commitment",
			"outpoint", pending.reference.String(),
			"error", err,
		)
		return s.fail(opAbandon, storeError(err))
	}
	return nil
}

// IssueCertificate creates a commitment, has the signer produce a
// certificate embedding it, and persists the secret. When signing or
// persistence fails the commitment is abandoned.
func (s *Service) IssueCertificate(ctx context.Context, req models.IssueRequest) (*models.IssuanceResult, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, s.fail(opIssue, dErrors.New(dErrors.CodeInvalidInput, "subject is required"))
	}
	if strings.TrimSpace(string(req.Type)) == "" {
		return nil, s.fail(opIssue, dErrors.New(dErrors.CodeInvalidInput, "certificate type is required"))
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanIssueCertificate,
		tracer.String(tracer.AttrCertificateType, string(req.Type)),
	)

	pending, err := s.BeginIssuance(ctx)
	if err != nil {
		span.End(err)
		return nil, err
	}
	span.AddEvent(tracer.EventCommitmentCreated, tracer.String(tracer.AttrOutpoint, pending.reference.String()))

	cert, err := s.signer.Sign(ctx, signer.SignRequest{
		Subject:            req.Subject,
		Type:               req.Type,
		Fields:             req.Fields,
		RevocationOutpoint: pending.reference,
	})
	if err != nil {
		derr := signingError(err)
		s.logger.ErrorContext(ctx, "certificate signing failed",
			"outpoint", pending.reference.String(),
			"error", err,
		)
		s.abandon(ctx, span, pending, "signing failed")
		span.End(derr)
		return nil, s.fail(opIssue, derr)
	}
	span.AddEvent(tracer.EventCertificateSigned)
	span.SetAttributes(tracer.String(tracer.AttrSerialNumber, cert.SerialNumber))

	result, err := s.CompleteIssuance(ctx, pending, cert)
	if err != nil {
		s.abandon(ctx, span, pending, "completion failed: "+string(dErrors.CodeOf(err)))
		span.End(err)
		return nil, err
	}
	span.End(nil)
	return result, nil
}

// abandon is best effort; the original failure is what the caller sees. It
// runs detached from ctx so a timed-out request still records its orphan.
func (s *Service) abandon(ctx context.Context, span tracer.Span, pending *PendingCommitment, reason string) {
	settleCtx, cancel := settleContext(ctx)
	defer cancel()
	if err := s.Abandon(settleCtx, pending, reason); err != nil {
		return
	}
	span.AddEvent(tracer.EventOrphanRecorded, tracer.String(tracer.AttrOutpoint, pending.reference.String()))
}
