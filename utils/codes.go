package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// randomUpper returns n random uppercase alphanumeric characters.
func randomUpper(n int) (string, error) {
	// base32 gives ~1.6 chars per byte; over-provision and trim.
	randomBytes := make([]byte, n)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	s := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	s = strings.ToUpper(s)
	if len(s) > n {
		s = s[:n]
	}
	for len(s) < n {
		s += "0"
	}
	return s, nil
}

// GenerateAgentCode generates a human-readable agent code.
// Format: AGT-XXXXXXXX where X is an uppercase alphanumeric character.
func GenerateAgentCode() (string, error) {
	random, err := randomUpper(8)
	if err != nil {
		return "", err
	}
	return "AGT-" + random, nil
}

// GenerateOrderReference generates a unique order reference.
// Format: ORD-XXXXXXXX derived from a fresh uuid.
func GenerateOrderReference() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "ORD-" + id[:8]
}
