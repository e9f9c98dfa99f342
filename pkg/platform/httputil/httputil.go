package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "certifier/pkg/domain-errors"
)

// genericMessage hides infrastructure detail from callers.
const genericMessage = "operation failed"

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, so an encoding error cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError translates a domain error into a status code and body. Codes
// that describe infrastructure failures get a generic description so signer,
// ledger and store detail never reaches the caller.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:            DomainCodeToHTTPCode(dErrors.CodeInternal),
			ErrorDescription: genericMessage,
		})
		return
	}

	response := ErrorResponse{
		Error:            DomainCodeToHTTPCode(domainErr.Code),
		ErrorDescription: domainErr.Message,
	}
	if !exposesDetail(domainErr.Code) {
		response.ErrorDescription = genericMessage
	}
	WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
}

func exposesDetail(code dErrors.Code) bool {
	switch code {
	case dErrors.CodeNotFound, dErrors.CodeBadRequest, dErrors.CodeInvalidInput,
		dErrors.CodeValidation, dErrors.CodeConflict, dErrors.CodeInsufficientFunds,
		dErrors.CodeTimeout:
		return true
	default:
		return false
	}
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the "error" field.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeInsufficientFunds:
		return "insufficient_funds"
	case dErrors.CodeTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}
