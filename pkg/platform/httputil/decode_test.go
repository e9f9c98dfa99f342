package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "certifier/pkg/domain-errors"
)

type namedRequest struct {
	Name string `json:"name"`
}

func (r *namedRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *namedRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type domainRequest struct{}

func (r *domainRequest) Validate() error {
	return dErrors.New(dErrors.CodeInvalidInput, "bad input")
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req, ok := DecodeJSON[namedRequest](rec, post(`{"name":"alice"}`), discard())
		require.True(t, ok)
		assert.Equal(t, "alice", req.Name)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req, ok := DecodeJSON[namedRequest](rec, post(`{"name":`), discard())
		require.False(t, ok)
		assert.Nil(t, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decodeBody(t, rec).Error)
		assert.Equal(t, "invalid request body", decodeBody(t, rec).ErrorDescription)
	})

	t.Run("empty body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := DecodeJSON[namedRequest](rec, post(``), discard())
		require.False(t, ok)
		assert.Equal(t, "request body is required", decodeBody(t, rec).ErrorDescription)
	})

	t.Run("trailing data", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := DecodeJSON[namedRequest](rec, post(`{"name":"a"}{"name":"b"}`), discard())
		require.False(t, ok)
		assert.Equal(t, "request body must be a single JSON object", decodeBody(t, rec).ErrorDescription)
	})

	t.Run("body over the limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := post(`{"name":"` + strings.Repeat("x", 64) + `"}`)
		r.Body = http.MaxBytesReader(rec, r.Body, 16)
		_, ok := DecodeJSON[namedRequest](rec, r, discard())
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "request body too large", decodeBody(t, rec).ErrorDescription)
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("normalizes before validating", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[namedRequest](rec, post(`{"name":"  bob  "}`), discard())
		require.True(t, ok)
		assert.Equal(t, "bob", req.Name)
	})

	t.Run("plain validation error becomes validation_error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[namedRequest](rec, post(`{"name":"   "}`), discard())
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeBody(t, rec)
		assert.Equal(t, "validation_error", resp.Error)
		assert.Equal(t, "name is required", resp.ErrorDescription)
	})

	t.Run("domain validation error keeps its code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[domainRequest](rec, post(`{}`), discard())
		require.False(t, ok)
		assert.Equal(t, "bad_request", decodeBody(t, rec).Error)
	})
}
