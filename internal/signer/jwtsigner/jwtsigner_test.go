package jwtsigner

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certifier/internal/revocation/models"
	"certifier/internal/signer"
	dErrors "certifier/pkg/domain-errors"
)

var outpoint = models.Outpoint{TxID: "aa11", Index: 0}

func newSigner(t *testing.T, opts ...Option) *Signer {
	t.Helper()
	s, err := New("test-signing-key", "certifier-test", opts...)
	require.NoError(t, err)
	return s
}

func signRequest() signer.SignRequest {
	return signer.SignRequest{
		Subject:            "subject-key",
		Type:               "email",
		Fields:             models.Fields{"email": "a@example.com"},
		RevocationOutpoint: outpoint,
	}
}

func TestNewRequiresKeyAndCertifier(t *testing.T) {
	_, err := New("", "certifier")
	require.Error(t, err)
	_, err = New("key", "")
	require.Error(t, err)
}

func TestSignEmbedsOutpointAndVerifies(t *testing.T) {
	s := newSigner(t)

	cert, err := s.Sign(context.Background(), signRequest())
	require.NoError(t, err)

	assert.Equal(t, outpoint, cert.RevocationOutpoint)
	assert.Equal(t, "certifier-test", cert.Certifier)
	raw, err := base64.StdEncoding.DecodeString(cert.SerialNumber)
	require.NoError(t, err)
	assert.Len(t, raw, serialNumberBytes)

	require.NoError(t, s.Verify(cert))
}

func TestSerialNumbersAreUnique(t *testing.T) {
	s := newSigner(t)
	seen := make(map[string]bool)
	for range 50 {
		cert, err := s.Sign(context.Background(), signRequest())
		require.NoError(t, err)
		require.False(t, seen[cert.SerialNumber])
		seen[cert.SerialNumber] = true
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	s := newSigner(t)
	cert, err := s.Sign(context.Background(), signRequest())
	require.NoError(t, err)

	tampered := *cert
	tampered.RevocationOutpoint = models.Outpoint{TxID: "bb22", Index: 1}
	assert.True(t, dErrors.HasCode(s.Verify(&tampered), dErrors.CodeInvalidInput))

	tampered = *cert
	tampered.Fields = models.Fields{"email": "b@example.com"}
	assert.Error(t, s.Verify(&tampered))

	other, err := New("another-key", "certifier-test")
	require.NoError(t, err)
	assert.Error(t, other.Verify(cert))
}

func TestSignValidatesRequest(t *testing.T) {
	s := newSigner(t)
	ctx := context.Background()

	req := signRequest()
	req.Subject = ""
	_, err := s.Sign(ctx, req)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	req = signRequest()
	req.RevocationOutpoint = models.Outpoint{}
	_, err = s.Sign(ctx, req)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestSerialSourceOverride(t *testing.T) {
	s := newSigner(t, WithSerialSource(func() (string, error) { return "abc123", nil }))
	cert, err := s.Sign(context.Background(), signRequest())
	require.NoError(t, err)
	assert.Equal(t, "abc123", cert.SerialNumber)
}
