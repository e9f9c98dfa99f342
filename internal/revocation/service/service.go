// Package service runs the certificate revocation lifecycle: issuing a
// certificate bound to a fresh hash-lock commitment, revoking it by spending
// that commitment, and answering whether a commitment is still live.
package service

import (
	"errors"
	"log/slog"

	"certifier/internal/audit"
	"certifier/internal/platform/tracer"
	"certifier/internal/revocation/metrics"
	"certifier/internal/signer"
	psync "certifier/pkg/platform/sync"
)

type Service struct {
	secrets *SecretStore
	issuer  CommitmentIssuer
	signer  signer.Signer
	orphans OrphanRecorder
	locks   *psync.KeyedMutex
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
	tracer  tracer.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

// WithOrphanRecorder enables orphan tracking. Without it an abandoned
// commitment is only logged.
func WithOrphanRecorder(r OrphanRecorder) Option {
	return func(s *Service) {
		s.orphans = r
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(secrets *SecretStore, issuer CommitmentIssuer, sgn signer.Signer, opts ...Option) (*Service, error) {
	if secrets == nil {
		return nil, errors.New("secret store is required")
	}
	if issuer == nil {
		return nil, errors.New("commitment issuer is required")
	}
	if sgn == nil {
		return nil, errors.New("signer is required")
	}
	svc := &Service{
		secrets: secrets,
		issuer:  issuer,
		signer:  sgn,
		locks:   psync.NewKeyedMutex(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.audit == nil {
		svc.audit = audit.NopEmitter{}
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	return svc, nil
}
