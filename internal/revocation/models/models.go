package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SecretSize is the length of a revocation secret in bytes.
const SecretSize = 32

// Secret is the preimage that unlocks a revocation commitment.
// It is hex encoded when persisted and never logged.
type Secret [SecretSize]byte

// NewSecret draws a fresh secret from crypto/rand.
func NewSecret() (Secret, error) {
	var s Secret
	if _, err := rand.Read(s[:]); err != nil {
		return Secret{}, fmt.Errorf("read random secret: %w", err)
	}
	return s, nil
}

// Digest returns SHA-256(secret), the value the commitment locks against.
func (s Secret) Digest() [sha256.Size]byte {
	return sha256.Sum256(s[:])
}

// Bytes returns a copy of the secret bytes.
func (s Secret) Bytes() []byte {
	out := make([]byte, SecretSize)
	copy(out, s[:])
	return out
}

// String redacts the secret so it cannot leak through %v or slog.
func (s Secret) String() string {
	return "[redacted]"
}

// MarshalText hex encodes the secret for persistence.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(s[:])), nil
}

// UnmarshalText decodes a 64 character hex secret.
func (s *Secret) UnmarshalText(text []byte) error {
	raw, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("decode secret: %w", err)
	}
	if len(raw) != SecretSize {
		return fmt.Errorf("secret must be %d bytes, got %d", SecretSize, len(raw))
	}
	copy(s[:], raw)
	return nil
}

// ByteArray persists raw bytes as a JSON array of numbers. Base64 strings
// are accepted on decode.
type ByteArray []byte

// MarshalJSON encodes the bytes as [n, n, ...].
func (b ByteArray) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

// UnmarshalJSON decodes either a number array or a base64 string.
func (b *ByteArray) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("decode transaction bytes: %w", err)
		}
		*b = raw
		return nil
	}
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 0xff {
			return fmt.Errorf("transaction byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// RevocationRecord is the live, unspent commitment behind one issued certificate.
type RevocationRecord struct {
	Secret              Secret    `json:"secret"`
	CommitmentReference Outpoint  `json:"commitmentReference"`
	TransactionBytes    ByteArray `json:"transactionBytes"`
}

// Mapping is the persisted secret store: serial number to record.
type Mapping map[string]RevocationRecord

// Clone returns a shallow copy so callers can mutate without aliasing.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// FindByOutpoint returns the serial holding a record for ref, if any. Hex
// txids compare without regard to case.
func (m Mapping) FindByOutpoint(ref string) (string, bool) {
	for serial, record := range m {
		if strings.EqualFold(record.CommitmentReference.String(), ref) {
			return serial, true
		}
	}
	return "", false
}

// CertificateType identifies the kind of attestation being issued.
type CertificateType string

// Fields are the certificate's attribute map. Encryption, if any, is the signer's concern.
type Fields map[string]string

// Certificate is produced by the signer and never mutated by the engine.
type Certificate struct {
	Type               CertificateType `json:"type"`
	SerialNumber       string          `json:"serialNumber"`
	Subject            string          `json:"subject"`
	Certifier          string          `json:"certifier"`
	RevocationOutpoint Outpoint        `json:"revocationOutpoint"`
	Fields             Fields          `json:"fields"`
	Signature          string          `json:"signature"`
}

// IssueRequest captures what a caller asks the engine to certify.
type IssueRequest struct {
	Subject string
	Type    CertificateType
	Fields  Fields
}

// IssuanceResult is returned after a certificate is signed and its secret persisted.
// TxID is the commitment transaction id, exposed separately for display.
type IssuanceResult struct {
	Certificate *Certificate
	TxID        string
}

// RevocationResult carries the id of the transaction that spent the commitment.
type RevocationResult struct {
	TxID string
}

// OrphanRecord is a commitment that was created but never attached to a
// signed certificate. Its secret is kept only so the output can be reclaimed.
type OrphanRecord struct {
	Secret           Secret    `json:"secret"`
	TransactionBytes ByteArray `json:"transactionBytes"`
	Reason           string    `json:"reason"`
	CreatedAt        time.Time `json:"createdAt"`
	Attempts         int       `json:"attempts"`
	LastError        string    `json:"lastError,omitempty"`
}

// OrphanMapping is keyed by the commitment outpoint string.
type OrphanMapping map[string]OrphanRecord
