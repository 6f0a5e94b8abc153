package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/makkenzo/entitlement-service/internal/clock"
	"github.com/makkenzo/entitlement-service/internal/domain/card"
)

const (
	UppercaseLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Alphanumeric     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RandomString draws length characters uniformly from alphabet.
func RandomString(alphabet string, length int) (string, error) {
	if alphabet == "" {
		return "", fmt.Errorf("empty alphabet")
	}
	limit := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}

// NewCardNumber returns the issue day as YYYYMMDD followed by random
// uppercase letters.
func NewCardNumber(issuedAt time.Time) (string, error) {
	suffix, err := RandomString(UppercaseLetters, card.NumberSuffixLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate card number: %w", err)
	}
	return issuedAt.Format(clock.DayLayout) + suffix, nil
}

func NewCardPassword() (string, error) {
	pw, err := RandomString(UppercaseLetters, card.PasswordLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate card password: %w", err)
	}
	return pw, nil
}
