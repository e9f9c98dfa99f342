package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "certifier/pkg/domain-errors"
	"certifier/pkg/requestcontext"
)

// DecodeJSON reads exactly one JSON value from the body into T. On failure
// it writes a 400 and returns false.
//
//	req, ok := httputil.DecodeJSON[IssueRequest](w, r, h.logger)
//	if !ok {
//	    return
//	}
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&req)
	if err == nil && dec.More() {
		err = errTrailingData
	}
	if err != nil {
		ctx := r.Context()
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, decodeMessage(err)))
		return nil, false
	}
	return &req, true
}

var errTrailingData = errors.New("unexpected data after JSON body")

func decodeMessage(err error) string {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return "request body too large"
	case errors.Is(err, io.EOF):
		return "request body is required"
	case errors.Is(err, errTrailingData):
		return "request body must be a single JSON object"
	default:
		return "invalid request body"
	}
}

type Validatable interface {
	Validate() error
}

// Normalizable is implemented by requests that trim or canonicalize input.
type Normalizable interface {
	Normalize()
}

// PrepareRequest normalizes then validates req when it supports either step.
func PrepareRequest(req any) error {
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// DecodeAndPrepare is DecodeJSON followed by PrepareRequest. Validation
// errors without a domain code are reported as CodeValidation.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger)
	if !ok {
		return nil, false
	}

	err := PrepareRequest(req)
	if err == nil {
		return req, true
	}
	ctx := r.Context()
	logger.WarnContext(ctx, "invalid request",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		err = dErrors.New(dErrors.CodeValidation, err.Error())
	}
	WriteError(w, err)
	return nil, false
}
