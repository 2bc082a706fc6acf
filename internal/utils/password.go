package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	lowerChars   = "abcdefghijkmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars   = "23456789"
	symbolChars  = "!@#$%*?"
	passwordPool = lowerChars + upperChars + digitChars + symbolChars
)

// GeneratePassword returns a random password of the given length containing at
// least one lowercase letter, uppercase letter, digit and symbol. Ambiguous
// characters such as l, O, 0 and 1 are excluded.
func GeneratePassword(length int) (string, error) {
	if length < 4 {
		return "", fmt.Errorf("password length must be at least 4, got %d", length)
	}

	buf := make([]byte, length)
	required := []string{lowerChars, upperChars, digitChars, symbolChars}
	for i, set := range required {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}
	for i := len(required); i < length; i++ {
		c, err := randomChar(passwordPool)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}

	// Fisher-Yates so the required classes are not always in front.
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("failed to shuffle password: %w", err)
		}
		buf[i], buf[j.Int64()] = buf[j.Int64()], buf[i]
	}

	return string(buf), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return set[n.Int64()], nil
}
