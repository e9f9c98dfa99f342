// Package handler exposes issuance, revocation and status checks over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"certifier/internal/revocation/models"
	"certifier/pkg/platform/httputil"
	"certifier/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the lifecycle engine as seen by the transport.
type Service interface {
	IssueCertificate(ctx context.Context, req models.IssueRequest) (*models.IssuanceResult, error)
	RevokeCertificate(ctx context.Context, serial string) (*models.RevocationResult, error)
	IsRevoked(ctx context.Context, outpoint string) bool
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the handler routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/certificates", h.HandleIssue)
	r.Post("/certificates/{serial}/revoke", h.HandleRevoke)
	r.Get("/revocations/{outpoint}", h.HandleStatus)
}

// HandleIssue handles POST /certificates.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.IssueCertificate(ctx, req.toModel())
	if err != nil {
		h.logger.ErrorContext(ctx, "issue certificate failed",
			"request_id", requestcontext.RequestID(ctx),
			"certificate_type", req.Type,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, IssueResponse{
		Certificate: result.Certificate,
		TxID:        result.TxID,
	})
}

// HandleRevoke handles POST /certificates/{serial}/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := RevokeRequest{SerialNumber: pathParam(r, "serial")}
	if err := httputil.PrepareRequest(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.RevokeCertificate(ctx, req.SerialNumber)
	if err != nil {
		h.logger.WarnContext(ctx, "revoke certificate failed",
			"request_id", requestcontext.RequestID(ctx),
			"serial_number", req.SerialNumber,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RevokeResponse{TxID: result.TxID})
}

// HandleStatus handles GET /revocations/{outpoint}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	outpoint, err := models.ParseOutpoint(pathParam(r, "outpoint"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Outpoint: outpoint.String(),
		Revoked:  h.service.IsRevoked(ctx, outpoint.String()),
	})
}

// pathParam returns the decoded path parameter. chi matches on the raw path
// when one is present, and base64 serial numbers arrive with "/" escaped.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
