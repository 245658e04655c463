package inventory

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	ConfirmationCodeLength   = 10
	ConfirmationCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	DefaultCodeAttempts      = 5
)

// CodeGenerator produces candidate confirmation codes. Uniqueness is
// enforced by the store, which asks for a new code on collision.
type CodeGenerator func() (string, error)

var alphabetSize = big.NewInt(int64(len(ConfirmationCodeAlphabet)))

// NewConfirmationCode returns a random code drawn from an alphabet without
// easily confused characters (no I, O, 0 or 1).
func NewConfirmationCode() (string, error) {
	buf := make([]byte, ConfirmationCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate confirmation code: %w", err)
		}
		buf[i] = ConfirmationCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
