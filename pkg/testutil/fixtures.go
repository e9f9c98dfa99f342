package testutil

import (
	"crypto/sha256"
	"encoding/hex"

	"certifier/internal/revocation/models"
)

// TxID returns a deterministic 64 character transaction id derived from seed.
func TxID(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// Outpoint returns a well-formed outpoint whose txid is TxID(seed).
func Outpoint(seed string, index uint32) models.Outpoint {
	return models.Outpoint{TxID: TxID(seed), Index: index}
}

// Secret returns a secret filled with b.
func Secret(b byte) models.Secret {
	var s models.Secret
	for i := range s {
		s[i] = b
	}
	return s
}

// CertificateBuilder builds signed-looking certificates for tests.
type CertificateBuilder struct {
	cert models.Certificate
}

func NewCertificateBuilder() *CertificateBuilder {
	return &CertificateBuilder{cert: models.Certificate{
		Type:               "membership",
		SerialNumber:       "abc123",
		Subject:            "subject-1",
		Certifier:          "certifier-test",
		RevocationOutpoint: Outpoint("commitment", 0),
		Fields:             models.Fields{"name": "Alice"},
		Signature:          "sig",
	}}
}

func (b *CertificateBuilder) WithSerial(serial string) *CertificateBuilder {
	b.cert.SerialNumber = serial
	return b
}

func (b *CertificateBuilder) WithOutpoint(o models.Outpoint) *CertificateBuilder {
	b.cert.RevocationOutpoint = o
	return b
}

func (b *CertificateBuilder) WithSubject(subject string) *CertificateBuilder {
	b.cert.Subject = subject
	return b
}

func (b *CertificateBuilder) Build() *models.Certificate {
	cert := b.cert
	cert.Fields = make(models.Fields, len(b.cert.Fields))
	for k, v := range b.cert.Fields {
		cert.Fields[k] = v
	}
	return &cert
}

// Record returns a revocation record for outpoint o with a fixed secret.
func Record(o models.Outpoint) models.RevocationRecord {
	return models.RevocationRecord{
		Secret:              Secret(0x42),
		CommitmentReference: o,
		TransactionBytes:    models.ByteArray{0x01, 0x02, 0x03},
	}
}
