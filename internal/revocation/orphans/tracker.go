// Package orphans tracks commitments whose issuance failed after the ledger
// output was created, and reclaims them by spending the output.
package orphans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"certifier/internal/audit"
	"certifier/internal/revocation/metrics"
	"certifier/internal/revocation/models"
	"certifier/internal/revocation/store"
	"certifier/pkg/platform/sentinel"
	"certifier/pkg/requestcontext"
)

// Store is the orphan mapping store, keyed by outpoint.
type Store = store.Store[models.OrphanMapping, models.OrphanRecord]

// Tracker records and resolves orphaned commitments. It never touches the
// serial mapping used for revocation status.
type Tracker struct {
	store   *Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   audit.Emitter
}

type TrackerOption func(*Tracker)

func WithTrackerLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = logger }
}

func WithTrackerMetrics(m *metrics.Metrics) TrackerOption {
	return func(t *Tracker) { t.metrics = m }
}

func WithTrackerAudit(e audit.Emitter) TrackerOption {
	return func(t *Tracker) { t.audit = e }
}

func NewTracker(s *Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:  s,
		logger: slog.Default(),
		audit:  audit.NopEmitter{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record saves an orphan. Recording the same outpoint twice keeps the first entry.
func (t *Tracker) Record(ctx context.Context, ref models.Outpoint, secret models.Secret, txBytes []byte, reason string) error {
	key := ref.String()
	_, err := store.WithExclusiveAccess(ctx, t.store, func(m models.OrphanMapping) (struct{}, error) {
		if _, exists := m[key]; exists {
			return struct{}{}, nil
		}
		m[key] = models.OrphanRecord{
			Secret:           secret,
			TransactionBytes: txBytes,
			Reason:           reason,
			CreatedAt:        requestcontext.Now(ctx),
		}
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("record orphan %s: %w", key, err)
	}

	t.metrics.IncOrphanRecorded()
	t.logger.WarnContext(ctx, "commitment orphaned", "outpoint", key, "reason", reason)
	if err := t.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionCommitmentOrphaned,
		Outpoint: key,
		Reason:   reason,
	}); err != nil {
		t.logger.ErrorContext(ctx, "failed to emit audit event", "action", audit.ActionCommitmentOrphaned, "error", err)
	}
	return nil
}

// Pending returns every tracked orphan.
func (t *Tracker) Pending(ctx context.Context) (models.OrphanMapping, error) {
	return t.store.Snapshot(ctx)
}

// Resolve removes an orphan after its output has been spent.
func (t *Tracker) Resolve(ctx context.Context, key string) error {
	_, err := store.WithExclusiveAccess(ctx, t.store, func(m models.OrphanMapping) (struct{}, error) {
		if _, ok := m[key]; !ok {
			return struct{}{}, sentinel.ErrNotFound
		}
		delete(m, key)
		return struct{}{}, nil
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	return err
}

// Failed bumps the attempt counter of an orphan and returns the new count.
func (t *Tracker) Failed(ctx context.Context, key string, cause error) (int, error) {
	return store.WithExclusiveAccess(ctx, t.store, func(m models.OrphanMapping) (int, error) {
		rec, ok := m[key]
		if !ok {
			return 0, sentinel.ErrNotFound
		}
		rec.Attempts++
		rec.LastError = cause.Error()
		m[key] = rec
		return rec.Attempts, nil
	})
}
