package registration

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	codeMin = 100000
	codeMax = 999999
)

var codeSpan = big.NewInt(codeMax - codeMin + 1)

// GenerateCode returns a six digit one-time approval code drawn uniformly
// from [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", fmt.Errorf("generate approval code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}

func hashCode(code string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return "", fmt.Errorf("hash approval code: %w", err)
	}
	return string(h), nil
}

// codeMatches compares the submitted code against the stored hash. A device
// without a stored hash never matches.
func codeMatches(hash *string, submitted string) bool {
	if hash == nil || submitted == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*hash), []byte(submitted)) == nil
}
