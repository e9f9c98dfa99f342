package service

import (
	"context"
	"errors"

	dErrors "certifier/pkg/domain-errors"
	"certifier/pkg/platform/sentinel"
)

const (
	msgNotFound       = "certificate already revoked or not found"
	msgSigningFailed  = "operation failed"
	msgStoreFailed    = "operation failed"
	msgDuplicate      = "certificate serial number already issued"
	msgPendingUsed    = "pending commitment already completed"
	msgPendingMissing = "pending commitment is required"
	msgOutpointDiffer = "certificate does not embed the pending commitment"
)

// errRecordReplaced aborts a delete when the stored record no longer names
// the spent commitment. The mutation is skipped and nothing is saved.
var errRecordReplaced = errors.New("record replaced")

// storeError translates store facts into domain errors.
func storeError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msgNotFound)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msgDuplicate)
	case errors.Is(err, sentinel.ErrCorrupt):
		return dErrors.Wrap(err, dErrors.CodeStoreCorrupted, msgStoreFailed)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "operation cancelled")
	default:
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, msgStoreFailed)
	}
}

// signingError always reports CodeSigningFailed, even when the signer
// returned its own domain error.
func signingError(err error) error {
	return &dErrors.Error{Code: dErrors.CodeSigningFailed, Message: msgSigningFailed, Err: err}
}
