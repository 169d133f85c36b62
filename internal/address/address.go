// Package address validates Solana account addresses.
package address

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKeyLength is the decoded size of a Solana public key.
const PublicKeyLength = 32

// ErrInvalidAddress is returned for strings that are not a base58 32-byte key.
var ErrInvalidAddress = errors.New("invalid address")

// Validate returns nil if addr decodes to a 32-byte public key.
func Validate(addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	// 32 bytes never encode to more than 44 base58 characters.
	if len(addr) > 44 {
		return fmt.Errorf("%w: %d characters", ErrInvalidAddress, len(addr))
	}
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(decoded) != PublicKeyLength {
		return fmt.Errorf("%w: decoded length %d", ErrInvalidAddress, len(decoded))
	}
	return nil
}

// IsValid reports whether addr is a well-formed address.
func IsValid(addr string) bool {
	return Validate(addr) == nil
}

// IsOnCurve reports whether addr is a point on the ed25519 curve.
// Program derived addresses are off-curve. Invalid addresses return false.
func IsOnCurve(addr string) bool {
	decoded, err := base58.Decode(addr)
	if err != nil || len(decoded) != PublicKeyLength {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
