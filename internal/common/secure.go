package common

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateSecureRandomString returns length URL-safe characters drawn from
// crypto/rand.
func GenerateSecureRandomString(length int) (string, error) {
	raw := make([]byte, (length*3+3)/4)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw)[:length], nil
}
