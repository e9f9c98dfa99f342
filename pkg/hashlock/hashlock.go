// Package hashlock builds and checks SHA-256 hash-lock scripts.
//
// A hash-lock locking script is OP_SHA256 <32-byte digest> OP_EQUAL. It is
// satisfied by an unlocking script that pushes a preimage whose SHA-256
// equals the digest.
package hashlock

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
)

const (
	opSHA256    = 0xa8
	opEqual     = 0x87
	opPushData1 = 0x4c
	opPushData2 = 0x4d

	// DigestSize is the length of a SHA-256 digest.
	DigestSize = sha256.Size

	maxDirectPush = 0x4b
)

// ErrMalformedScript is returned when a script does not have the expected shape.
var ErrMalformedScript = errors.New("malformed hash-lock script")

// LockingScript returns OP_SHA256 <digest> OP_EQUAL.
func LockingScript(digest [DigestSize]byte) []byte {
	script := make([]byte, 0, DigestSize+3)
	script = append(script, opSHA256)
	script = append(script, pushData(digest[:])...)
	script = append(script, opEqual)
	return script
}

// LockingScriptFor hashes preimage and returns the locking script it satisfies.
func LockingScriptFor(preimage []byte) []byte {
	return LockingScript(sha256.Sum256(preimage))
}

// UnlockingScript returns a script that pushes preimage onto the stack.
func UnlockingScript(preimage []byte) []byte {
	return pushData(preimage)
}

// ParseLockingScript extracts the digest from a hash-lock locking script.
func ParseLockingScript(script []byte) ([DigestSize]byte, error) {
	var digest [DigestSize]byte
	if len(script) != DigestSize+3 || script[0] != opSHA256 || script[1] != DigestSize || script[len(script)-1] != opEqual {
		return digest, ErrMalformedScript
	}
	copy(digest[:], script[2:2+DigestSize])
	return digest, nil
}

// ParseUnlockingScript extracts the single data push from an unlocking script.
func ParseUnlockingScript(script []byte) ([]byte, error) {
	if len(script) == 0 {
		return nil, ErrMalformedScript
	}
	var (
		size   int
		offset int
	)
	switch op := script[0]; {
	case op >= 0x01 && op <= maxDirectPush:
		size, offset = int(op), 1
	case op == opPushData1:
		if len(script) < 2 {
			return nil, ErrMalformedScript
		}
		size, offset = int(script[1]), 2
	case op == opPushData2:
		if len(script) < 3 {
			return nil, ErrMalformedScript
		}
		size, offset = int(script[1])|int(script[2])<<8, 3
	default:
		return nil, fmt.Errorf("%w: unsupported opcode 0x%02x", ErrMalformedScript, op)
	}
	if len(script) != offset+size {
		return nil, ErrMalformedScript
	}
	return script[offset:], nil
}

// Satisfies reports whether unlocking reveals a preimage of the digest in locking.
func Satisfies(locking, unlocking []byte) bool {
	digest, err := ParseLockingScript(locking)
	if err != nil {
		return false
	}
	preimage, err := ParseUnlockingScript(unlocking)
	if err != nil {
		return false
	}
	sum := sha256.Sum256(preimage)
	return bytes.Equal(sum[:], digest[:])
}

func pushData(data []byte) []byte {
	n := len(data)
	var out []byte
	switch {
	case n <= maxDirectPush:
		out = append(out, byte(n))
	case n <= 0xff:
		out = append(out, opPushData1, byte(n))
	default:
		out = append(out, opPushData2, byte(n), byte(n>>8))
	}
	return append(out, data...)
}
