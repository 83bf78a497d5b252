package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const apiKeyPrefix = "discuss_ak_"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidKey   = errors.New("invalid api key")
)

// GenerateAPIKey returns a random shared key. Servers are configured with the
// key or its hash, never both.
func GenerateAPIKey() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(raw), nil
}

func HashAPIKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

// ConfiguredHash resolves the key settings of a server to the hash it checks
// against. A hash wins over a raw key; neither means authentication is off.
func ConfiguredHash(rawKey, keyHash string) string {
	if h := strings.ToLower(strings.TrimSpace(keyHash)); h != "" {
		return h
	}
	if k := strings.TrimSpace(rawKey); k != "" {
		return HashAPIKey(k)
	}
	return ""
}

func VerifyAPIKey(rawAPIKey, expectedHash string) bool {
	actual := HashAPIKey(rawAPIKey)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expectedHash)) == 1
}

// Authorize checks an Authorization header against expectedHash.
func Authorize(authHeader, expectedHash string) error {
	token := BearerToken(authHeader)
	if token == "" {
		return ErrMissingToken
	}
	if !VerifyAPIKey(token, expectedHash) {
		return ErrInvalidKey
	}
	return nil
}

// BearerToken extracts the token of an Authorization header, or "".
func BearerToken(authHeader string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
	if token == "" {
		return ""
	}
	return token
}
