package booking

import (
	"crypto/rand"
	"fmt"
)

// excludes 0, 1, I and O
const referenceAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

func newReference() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reference: %w", err)
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return "RB-" + string(buf), nil
}
