package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"certifier/internal/audit"
	"certifier/internal/platform/tracer"
	"certifier/internal/revocation/models"
	"certifier/internal/revocation/store"
	dErrors "certifier/pkg/domain-errors"
)

const spendDescription = "Revoke certificate"

// settleTimeout bounds store work that must finish after the ledger has
// already accepted a transaction, once the caller's context is gone.
const settleTimeout = 10 * time.Second

// settleContext keeps ctx values but drops its cancellation.
func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

// RevokeCertificate spends the commitment behind serial, revealing its
// secret. The record is removed only after the ledger returns a txid; a
// failed spend leaves it in place so the call can be retried.
//
// Revocations of the same serial run one at a time. A caller that loses the
// race sees CodeNotFound.
func (s *Service) RevokeCertificate(ctx context.Context, serial string) (*models.RevocationResult, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, s.fail(opRevoke, dErrors.New(dErrors.CodeInvalidInput, "serial number is required"))
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanRevoke, tracer.String(tracer.AttrSerialNumber, serial))
	result, err := s.revoke(ctx, span, serial)
	span.End(err)
	if err != nil {
		return nil, s.fail(opRevoke, err)
	}
	return result, nil
}

func (s *Service) revoke(ctx context.Context, span tracer.Span, serial string) (*models.RevocationResult, error) {
	unlock, err := s.locks.Lock(ctx, serial)
	if err != nil {
		return nil, storeError(err)
	}
	defer unlock()

	record, err := s.secrets.Get(ctx, serial)
	if err != nil {
		return nil, storeError(err)
	}
	ref := record.CommitmentReference
	span.SetAttributes(tracer.String(tracer.AttrOutpoint, ref.String()))

	txid, err := s.issuer.Spend(ctx, ref, record.Secret, record.TransactionBytes, spendDescription)
	if err != nil {
		s.logger.WarnContext(ctx, "revocation spend failed",
			"serial_number", serial,
			"outpoint", ref.String(),
			"error", err,
		)
		return nil, err
	}
	span.AddEvent(tracer.EventCommitmentSpent, tracer.String(tracer.AttrTxID, txid))

	// The spend is final. Removing the record must not depend on the caller
	// still waiting, or the certificate would read as live forever.
	settleCtx, cancel := settleContext(ctx)
	defer cancel()
	_, err = store.WithExclusiveAccess(settleCtx, s.secrets, func(m models.Mapping) (struct{}, error) {
		current, ok := m[serial]
		if !ok || current.CommitmentReference != ref {
			return struct{}{}, errRecordReplaced
		}
		delete(m, serial)
		return struct{}{}, nil
	})
	if err != nil && !errors.Is(err, errRecordReplaced) {
		// The commitment is spent but the record survived. Status checks
		// will keep reporting it live until the record is removed.
		s.logger.ErrorContext(ctx, "commitment spent but record not removed",
			"serial_number", serial,
			"outpoint", ref.String(),
			"txid", txid,
			"error", err,
		)
		return nil, storeError(err)
	}

	s.metrics.IncRevoked()
	s.logger.InfoContext(ctx, "certificate revoked",
		"serial_number", serial,
		"outpoint", ref.String(),
		"txid", txid,
	)
	s.emit(settleCtx, audit.Event{
		Action:       audit.ActionCertificateRevoked,
		SerialNumber: serial,
		Outpoint:     ref.String(),
		TxID:         txid,
	})
	return &models.RevocationResult{TxID: txid}, nil
}
