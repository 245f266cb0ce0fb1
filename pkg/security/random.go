package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// UpperAlphanumeric is the alphabet used for customer-facing reference codes.
const UpperAlphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString draws length characters uniformly from alphabet.
func RandomString(alphabet string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	if alphabet == "" {
		return "", fmt.Errorf("alphabet is required")
	}

	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
