package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashAnswer digests a challenge answer for storage and comparison. Answers
// are normalized (trimmed, lowercased) so capitalization never fails an
// otherwise correct guess.
func HashAnswer(answer string) string {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// HashMatches compares a raw answer against a stored digest.
func HashMatches(answer, storedHash string) bool {
	return HashAnswer(answer) == storedHash
}
