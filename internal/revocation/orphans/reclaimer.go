package orphans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"certifier/internal/audit"
	"certifier/internal/revocation/metrics"
	"certifier/internal/revocation/models"
)

const reclaimDescription = "Reclaim orphaned revocation commitment"

// Spender spends a hash-locked commitment by revealing its secret.
type Spender interface {
	Spend(ctx context.Context, ref models.Outpoint, secret models.Secret, txBytes []byte, description string) (string, error)
}

// ReclaimResult summarizes one reclaim pass.
type ReclaimResult struct {
	Reclaimed int
	Failed    int
	Abandoned int
}

// Reclaimer periodically spends tracked orphans so their value returns to
// the wallet and the secrets can be discarded.
type Reclaimer struct {
	tracker     *Tracker
	spender     Spender
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger
	metrics     *metrics.Metrics
	audit       audit.Emitter
}

type ReclaimerOption func(*Reclaimer)

// WithInterval overrides the reclaim interval when greater than zero.
func WithInterval(d time.Duration) ReclaimerOption {
	return func(r *Reclaimer) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithMaxAttempts sets how many failed spends an orphan survives before it
// is dropped.
func WithMaxAttempts(n int) ReclaimerOption {
	return func(r *Reclaimer) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

func WithLogger(logger *slog.Logger) ReclaimerOption {
	return func(r *Reclaimer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) ReclaimerOption {
	return func(r *Reclaimer) { r.metrics = m }
}

func WithAudit(e audit.Emitter) ReclaimerOption {
	return func(r *Reclaimer) {
		if e != nil {
			r.audit = e
		}
	}
}

func NewReclaimer(tracker *Tracker, spender Spender, opts ...ReclaimerOption) (*Reclaimer, error) {
	if tracker == nil || spender == nil {
		return nil, fmt.Errorf("tracker and spender are required")
	}
	r := &Reclaimer{
		tracker:     tracker,
		spender:     spender,
		interval:    10 * time.Minute,
		maxAttempts: 5,
		logger:      slog.Default(),
		audit:       audit.NopEmitter{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start runs reclaim passes until ctx is cancelled.
func (r *Reclaimer) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "orphan reclaim failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce attempts to spend every tracked orphan once. Ledger calls run
// without holding the store token; each outcome is then recorded in its own
// short mutation.
func (r *Reclaimer) RunOnce(ctx context.Context) (ReclaimResult, error) {
	var res ReclaimResult

	pending, err := r.tracker.Pending(ctx)
	if err != nil {
		return res, fmt.Errorf("list orphans: %w", err)
	}

	var errs []error
	for key, rec := range pending {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		var ref models.Outpoint
		var txid string
		err := ref.UnmarshalText([]byte(key))
		if err == nil {
			txid, err = r.spender.Spend(ctx, ref, rec.Secret, rec.TransactionBytes, reclaimDescription)
		}
		if err == nil {
			if rerr := r.tracker.Resolve(ctx, key); rerr != nil {
				errs = append(errs, fmt.Errorf("resolve orphan %s: %w", key, rerr))
				continue
			}
			res.Reclaimed++
			r.metrics.IncOrphanReclaimed()
			r.logger.InfoContext(ctx, "orphan reclaimed", "outpoint", key, "txid", txid)
			r.emit(ctx, audit.Event{Action: audit.ActionOrphanReclaimed, Outpoint: key, TxID: txid})
			continue
		}

		res.Failed++
		attempts, ferr := r.tracker.Failed(ctx, key, err)
		if ferr != nil {
			errs = append(errs, fmt.Errorf("record reclaim failure for %s: %w", key, ferr))
			continue
		}
		if attempts < r.maxAttempts {
			r.logger.WarnContext(ctx, "orphan reclaim attempt failed", "outpoint", key, "attempts", attempts, "error", err)
			continue
		}
		if rerr := r.tracker.Resolve(ctx, key); rerr != nil {
			errs = append(errs, fmt.Errorf("abandon orphan %s: %w", key, rerr))
			continue
		}
		res.Abandoned++
		r.logger.ErrorContext(ctx, "orphan abandoned after repeated failures", "outpoint", key, "attempts", attempts, "error", err)
		r.emit(ctx, audit.Event{Action: audit.ActionOrphanAbandoned, Outpoint: key, Reason: err.Error()})
	}

	return res, errors.Join(errs...)
}

func (r *Reclaimer) emit(ctx context.Context, e audit.Event) {
	if err := r.audit.Emit(ctx, e); err != nil {
		r.logger.ErrorContext(ctx, "failed to emit audit event", "action", e.Action, "error", err)
	}
}
