package models

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	dErrors "certifier/pkg/domain-errors"
)

const txIDHexLen = 64

// LegacyOutpoint is carried by certificates issued before revocation
// commitments existed. It must never report as revoked.
var LegacyOutpoint = Outpoint{TxID: strings.Repeat("00", 32), Index: 0}

// Outpoint references a single ledger output: transaction id plus output index.
// String form is "<txid>.<index>".
type Outpoint struct {
	TxID  string
	Index uint32
}

// ParseOutpoint parses "<txid>.<index>". The txid must be 64 hex characters.
func ParseOutpoint(value string) (Outpoint, error) {
	txid, idx, ok := strings.Cut(strings.TrimSpace(value), ".")
	if !ok {
		return Outpoint{}, dErrors.New(dErrors.CodeInvalidInput, "outpoint must be formatted as txid.index")
	}
	if len(txid) != txIDHexLen {
		return Outpoint{}, dErrors.New(dErrors.CodeInvalidInput, "outpoint txid must be 64 hex characters")
	}
	if _, err := hex.DecodeString(txid); err != nil {
		return Outpoint{}, dErrors.New(dErrors.CodeInvalidInput, "outpoint txid must be hex encoded")
	}
	index, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return Outpoint{}, dErrors.New(dErrors.CodeInvalidInput, "outpoint index must be a non-negative integer")
	}
	return Outpoint{TxID: strings.ToLower(txid), Index: uint32(index)}, nil
}

// String returns "<txid>.<index>".
func (o Outpoint) String() string {
	return fmt.Sprintf("%s.%d", o.TxID, o.Index)
}

// IsZero reports whether the outpoint is unset.
func (o Outpoint) IsZero() bool {
	return o.TxID == "" && o.Index == 0
}

// IsLegacy reports whether o is the all-zero legacy sentinel.
func (o Outpoint) IsLegacy() bool {
	return o == LegacyOutpoint
}

// MarshalText encodes the outpoint in its string form.
func (o Outpoint) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes "<txid>.<index>". Unlike ParseOutpoint it accepts any
// non-empty txid so ledger references that are not 32-byte hashes survive a
// round trip through persisted state.
func (o *Outpoint) UnmarshalText(text []byte) error {
	txid, idx, ok := strings.Cut(string(text), ".")
	if !ok || txid == "" {
		return fmt.Errorf("invalid outpoint %q", string(text))
	}
	index, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid outpoint index %q: %w", idx, err)
	}
	o.TxID = txid
	o.Index = uint32(index)
	return nil
}
