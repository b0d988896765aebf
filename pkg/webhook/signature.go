package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Per-vendor webhook signature headers
var signatureHeaders = map[string]string{
	"retell":     "X-Retell-Signature",
	"vapi":       "X-Vapi-Signature",
	"elevenlabs": "ElevenLabs-Signature",
}

// SignatureHeader returns the header a vendor delivers its webhook
// signature in, empty for unknown vendors.
func SignatureHeader(provider string) string {
	return signatureHeaders[provider]
}

// VerifySignature verifies an HMAC-SHA256 signature over the raw request
// body. If secret is empty, verification is skipped (for development and
// testing).
func VerifySignature(secret string, body []byte, signature string) error {
	if secret == "" {
		return nil
	}

	if signature == "" {
		return fmt.Errorf("signature header missing")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("invalid signature")
	}

	return nil
}

// Sign computes the hex HMAC-SHA256 signature for a body; used by tests
// and local delivery tooling.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
