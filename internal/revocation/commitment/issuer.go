// Package commitment creates hash-locked ledger outputs that anchor a
// certificate's revocation status.
package commitment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"certifier/internal/ledger"
	"certifier/internal/revocation/metrics"
	"certifier/internal/revocation/models"
	dErrors "certifier/pkg/domain-errors"
	"certifier/pkg/hashlock"
)

const (
	// commitmentSatoshis is the value locked in every commitment output.
	commitmentSatoshis = 1

	outputDescription = "Certificate revocation commitment"
	outputBasket      = "certificate-revocation"
	outputTag         = "certificate-revocation"

	// FundsMessage is shown to callers when the issuer wallet cannot fund a commitment.
	FundsMessage = "issuer wallet is not funded; fund the issuer and retry"
)

// Commitment is a freshly created, unspent hash-lock output and the secret
// that unlocks it.
type Commitment struct {
	Reference        models.Outpoint
	Secret           models.Secret
	TransactionBytes []byte
}

// Issuer creates commitments on a Ledger.
type Issuer struct {
	ledger    ledger.Ledger
	logger    *slog.Logger
	metrics   *metrics.Metrics
	newSecret func() (models.Secret, error)
}

type Option func(*Issuer)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Issuer) { i.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Issuer) { i.metrics = m }
}

// WithSecretSource replaces crypto/rand secret generation. Tests only.
func WithSecretSource(fn func() (models.Secret, error)) Option {
	return func(i *Issuer) { i.newSecret = fn }
}

func New(l ledger.Ledger, opts ...Option) *Issuer {
	i := &Issuer{
		ledger:    l,
		logger:    slog.Default(),
		newSecret: models.NewSecret,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// CreateCommitment generates a secret, locks one output to its SHA-256 digest
// and returns the reference of that output. Output ordering is kept stable
// so the commitment is always at index 0.
func (i *Issuer) CreateCommitment(ctx context.Context) (*Commitment, error) {
	secret, err := i.newSecret()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate revocation secret")
	}

	start := time.Now()
	res, err := i.ledger.CreateOutputs(ctx, []ledger.Output{{
		LockingScript: hashlock.LockingScript(secret.Digest()),
		Satoshis:      commitmentSatoshis,
		Description:   outputDescription,
		Basket:        outputBasket,
		Tags:          []string{outputTag},
	}}, ledger.CreateOptions{
		StableOrdering: true,
		Description:    outputDescription,
	})
	i.metrics.ObserveLedgerCall("create_outputs", err, time.Since(start))

	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			i.logger.WarnContext(ctx, "issuer wallet cannot fund commitment", "error", err)
			return nil, dErrors.Wrap(err, dErrors.CodeInsufficientFunds, FundsMessage)
		}
		i.logger.ErrorContext(ctx, "commitment submission failed", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeChainSubmission, "failed to create revocation commitment")
	}
	if res == nil || res.TxID == "" {
		i.logger.ErrorContext(ctx, "ledger returned no transaction id for commitment")
		return nil, dErrors.New(dErrors.CodeChainSubmission, "failed to create revocation commitment")
	}

	ref := models.Outpoint{TxID: res.TxID, Index: 0}
	i.logger.InfoContext(ctx, "revocation commitment created", "outpoint", ref.String())

	return &Commitment{
		Reference:        ref,
		Secret:           secret,
		TransactionBytes: res.TransactionBytes,
	}, nil
}

// Spend reveals secret to spend the commitment at ref and returns the id of
// the spending transaction. The spend has no outputs. txBytes, when present,
// is passed as the funding transaction so the ledger can validate the input.
func (i *Issuer) Spend(ctx context.Context, ref models.Outpoint, secret models.Secret, txBytes []byte, description string) (string, error) {
	start := time.Now()
	res, err := i.ledger.SpendInputs(ctx, []ledger.Input{{
		Outpoint:              ref.String(),
		UnlockingScript:       hashlock.UnlockingScript(secret.Bytes()),
		Description:           description,
		SupportingTransaction: txBytes,
	}}, nil)
	i.metrics.ObserveLedgerCall("spend_inputs", err, time.Since(start))

	if err != nil {
		i.logger.ErrorContext(ctx, "commitment spend failed", "outpoint", ref.String(), "error", err)
		return "", dErrors.Wrap(err, dErrors.CodeChainSubmission, "failed to submit revocation transaction")
	}
	if res == nil || res.TxID == "" {
		i.logger.ErrorContext(ctx, "ledger returned no transaction id for spend", "outpoint", ref.String())
		return "", dErrors.New(dErrors.CodeChainSubmission, "failed to submit revocation transaction")
	}
	return res.TxID, nil
}
