/*
Package randx generates random identifiers and codes from crypto/rand.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// OTPLength is the number of decimal digits in a one-time code.
const OTPLength = 6

// MessageID returns a new UUID v4 string used as a chat message identifier.
func MessageID() string {
	return uuid.New().String()
}

// ObjectName returns a random object name with the given extension, e.g. "3f2c....png".
func ObjectName(ext string) string {
	return uuid.New().String() + ext
}

// OTP returns a zero-padded decimal code of OTPLength digits.
func OTP() (string, error) {
	limit := big.NewInt(1)
	for range OTPLength {
		limit.Mul(limit, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate one-time code: %w", err)
	}

	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}
