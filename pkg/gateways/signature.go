package gateways

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

func mac(secret string, parts ...[]byte) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	for _, part := range parts {
		h.Write(part)
	}
	return h.Sum(nil)
}

// HMACHex returns hex(HMAC-SHA256(concat(parts), secret)).
func HMACHex(secret string, parts ...[]byte) string {
	return hex.EncodeToString(mac(secret, parts...))
}

// HMACBase64 returns base64(HMAC-SHA256(concat(parts), secret)).
func HMACBase64(secret string, parts ...[]byte) string {
	return base64.StdEncoding.EncodeToString(mac(secret, parts...))
}

// SignatureEqual compares signatures in constant time. An empty secret or
// signature never matches.
func SignatureEqual(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(got))
}
