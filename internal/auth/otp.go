package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// otpSpace is the size of the numeric code space (000000-999999).
var otpSpace = big.NewInt(1000000)

// generateCode draws a uniform random 6-digit code. Codes are never derived
// from account data or the clock, so one code tells an attacker nothing
// about the next.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
