package service

import (
	"context"

	"certifier/internal/audit"
	"certifier/internal/revocation/commitment"
	"certifier/internal/revocation/models"
	"certifier/internal/revocation/store"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks CommitmentIssuer,OrphanRecorder,AuditPublisher

// SecretStore is the serial-number keyed store of unspent commitments.
type SecretStore = store.Store[models.Mapping, models.RevocationRecord]

// CommitmentIssuer creates hash-locked commitments and spends them.
// Both methods return domain errors.
type CommitmentIssuer interface {
	CreateCommitment(ctx context.Context) (*commitment.Commitment, error)
	Spend(ctx context.Context, ref models.Outpoint, secret models.Secret, txBytes []byte, description string) (string, error)
}

// OrphanRecorder keeps commitments that will never be attached to a
// certificate so they can be reclaimed later.
type OrphanRecorder interface {
	Record(ctx context.Context, ref models.Outpoint, secret models.Secret, txBytes []byte, reason string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
