package utils

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// GetMessageDigestOrSignature returns the hex encoded HMAC-SHA256 of msg.
func GetMessageDigestOrSignature(msg, key []byte) (string, error) {
	mac := hmac.New(sha256.New, key)
	if _, err := mac.Write(msg); err != nil {
		return "", err
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// GetSHA1Signature returns the hex encoded HMAC-SHA1 of msg, the scheme used
// by the Messenger X-Hub-Signature header.
func GetSHA1Signature(msg, key []byte) string {
	mac := hmac.New(sha1.New, key)
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignatureHeader checks a header of the form "<algo>=<hex>" against
// the raw body. Only sha1 and sha256 are accepted.
func VerifySignatureHeader(header string, body, key []byte) bool {
	algo, sig, ok := strings.Cut(header, "=")
	if !ok || sig == "" {
		return false
	}

	var expected string
	switch strings.ToLower(algo) {
	case "sha1":
		expected = GetSHA1Signature(body, key)
	case "sha256":
		digest, err := GetMessageDigestOrSignature(body, key)
		if err != nil {
			return false
		}
		expected = digest
	default:
		return false
	}

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(sig)))
}
