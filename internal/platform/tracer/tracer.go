// Package tracer is a small tracing abstraction over OpenTelemetry used by
// the revocation engine. Services depend on Tracer; production wires the
// OTel adapter and tests use Noop.
package tracer

import (
	"context"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span and marks it failed when err is non-nil.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanBeginIssuance    = "revocation.begin_issuance"
	SpanCompleteIssuance = "revocation.complete_issuance"
	SpanIssueCertificate = "revocation.issue_certificate"
	SpanRevoke           = "revocation.revoke"
	SpanStatus           = "revocation.status"
)

// Attribute keys. Secrets are never attached to spans.
const (
	AttrSerialNumber    = "certificate.serial_number"
	AttrCertificateType = "certificate.type"
	AttrOutpoint        = "commitment.outpoint"
	AttrTxID            = "ledger.txid"
	AttrRevoked         = "revocation.revoked"
	AttrOutcome         = "revocation.outcome"
)

// Event names.
const (
	EventCommitmentCreated = "commitment.created"
	EventCertificateSigned = "certificate.signed"
	EventCommitmentSpent   = "commitment.spent"
	EventOrphanRecorded    = "orphan.recorded"
)
