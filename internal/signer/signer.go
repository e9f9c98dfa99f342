// Package signer defines the certificate signing capability.
package signer

import (
	"context"

	"certifier/internal/revocation/models"
)

//go:generate mockgen -source=signer.go -destination=mocks/mocks.go -package=mocks Signer

// SignRequest carries everything the signer needs, including the revocation
// outpoint the certificate must embed.
type SignRequest struct {
	Subject            string
	Type               models.CertificateType
	Fields             models.Fields
	RevocationOutpoint models.Outpoint
}

// Signer assigns a serial number and signs a certificate.
type Signer interface {
	Sign(ctx context.Context, req SignRequest) (*models.Certificate, error)
}
