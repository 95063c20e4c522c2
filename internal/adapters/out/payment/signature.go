package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignBody computes the hex HMAC-SHA512 signature of a webhook body with the
// processor secret. Exposed for tests and for the sandbox webhook simulator.
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether the webhook signature header matches the
// body. Comparison is constant-time; an empty signature never matches.
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	expected, err := hex.DecodeString(SignBody(secret, body))
	if err != nil {
		return false
	}
	actual, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(expected, actual)
}
