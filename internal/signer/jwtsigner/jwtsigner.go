// Package jwtsigner signs certificates as compact HS256 JWS tokens.
package jwtsigner

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"certifier/internal/revocation/models"
	"certifier/internal/signer"
	dErrors "certifier/pkg/domain-errors"
	"certifier/pkg/requestcontext"
)

const serialNumberBytes = 32

// CertificateClaims is the signed payload. The registered subject, issuer
// and id claims carry the certificate subject, certifier and serial number.
type CertificateClaims struct {
	Type               string            `json:"type"`
	RevocationOutpoint string            `json:"revocation_outpoint"`
	Fields             map[string]string `json:"fields,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues certificates signed with a shared HMAC key.
type Signer struct {
	signingKey []byte
	certifier  string
	serials    func() (string, error)
}

type Option func(*Signer)

// WithSerialSource replaces random serial generation. Tests only.
func WithSerialSource(fn func() (string, error)) Option {
	return func(s *Signer) { s.serials = fn }
}

// New creates a signer identifying itself as certifier.
func New(signingKey, certifier string, opts ...Option) (*Signer, error) {
	if signingKey == "" {
		return nil, errors.New("signing key is required")
	}
	if certifier == "" {
		return nil, errors.New("certifier id is required")
	}
	s := &Signer{
		signingKey: []byte(signingKey),
		certifier:  certifier,
		serials:    randomSerial,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var _ signer.Signer = (*Signer)(nil)

func (s *Signer) Sign(ctx context.Context, req signer.SignRequest) (*models.Certificate, error) {
	if req.Subject == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "subject is required")
	}
	if req.Type == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "certificate type is required")
	}
	if req.RevocationOutpoint.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "revocation outpoint is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	serial, err := s.serials()
	if err != nil {
		return nil, fmt.Errorf("generate serial number: %w", err)
	}

	claims := CertificateClaims{
		Type:               string(req.Type),
		RevocationOutpoint: req.RevocationOutpoint.String(),
		Fields:             req.Fields,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       serial,
			Subject:  req.Subject,
			Issuer:   s.certifier,
			IssuedAt: jwt.NewNumericDate(requestcontext.Now(ctx)),
		},
	}
	signature, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return nil, fmt.Errorf("sign certificate: %w", err)
	}

	fields := make(models.Fields, len(req.Fields))
	for k, v := range req.Fields {
		fields[k] = v
	}
	return &models.Certificate{
		Type:               req.Type,
		SerialNumber:       serial,
		Subject:            req.Subject,
		Certifier:          s.certifier,
		RevocationOutpoint: req.RevocationOutpoint,
		Fields:             fields,
		Signature:          signature,
	}, nil
}

// Verify checks cert's signature and that every signed claim matches the
// certificate's visible fields.
func (s *Signer) Verify(cert *models.Certificate) error {
	if cert == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "certificate is required")
	}
	claims := new(CertificateClaims)
	token, err := jwt.ParseWithClaims(cert.Signature, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.certifier))
	if err != nil || !token.Valid {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid certificate signature")
	}

	switch {
	case claims.ID != cert.SerialNumber,
		claims.Subject != cert.Subject,
		claims.Type != string(cert.Type),
		claims.RevocationOutpoint != cert.RevocationOutpoint.String(),
		!sameFields(claims.Fields, cert.Fields):
		return dErrors.New(dErrors.CodeInvalidInput, "certificate does not match its signature")
	}
	return nil
}

func sameFields(a map[string]string, b models.Fields) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func randomSerial() (string, error) {
	b := make([]byte, serialNumberBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
