package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 12

	result := make([]byte, length)
	for i := range result {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[num.Int64()]
	}

	return fmt.Sprintf("%s-%s", prefix, string(result))
}

// ValidAccountID reports whether id is non-empty and made only of ASCII
// letters, digits, '-', '.' and '@'.
func ValidAccountID(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '.', c == '@':
		default:
			return false
		}
	}
	return true
}

// ValidateInstructionID validates the instruction ID format
func ValidateInstructionID(id string) bool {
	return len(id) == len("pin-")+12 && id[:4] == "pin-"
}
