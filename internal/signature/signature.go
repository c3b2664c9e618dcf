// Package signature verifies GitHub webhook deliveries.
//
// Verification must run against the exact raw request bytes, before any JSON
// decoding. The header format is X-Hub-Signature-256: sha256=<64 hex chars>.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const prefix = "sha256="

// Compute returns the signature GitHub would attach for the given secret and
// raw body, in header form: "sha256=<hex>".
func Compute(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return prefix + hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether header is a valid signature of body under secret.
// It never returns true for an empty or whitespace-only secret, a missing or
// malformed header, or a digest that is not exactly 64 hex characters.
// The comparison is constant-time; hex case is ignored.
func Verify(secret string, body []byte, header string) bool {
	if strings.TrimSpace(secret) == "" {
		return false
	}
	if !strings.HasPrefix(header, prefix) {
		return false
	}

	provided := strings.TrimSpace(header[len(prefix):])
	if len(provided) != sha256.Size*2 {
		return false
	}
	providedMAC, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hmac.Equal(providedMAC, h.Sum(nil))
}
