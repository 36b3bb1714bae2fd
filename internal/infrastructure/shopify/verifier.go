package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

var (
	// ErrEmptyBody is returned when the raw request body is missing or
	// empty. Authentication fails closed: a re-serialized payload is not
	// guaranteed to match the bytes that were signed, so there is no
	// fallback input.
	ErrEmptyBody = errors.New("webhook body is empty, cannot verify signature")

	// ErrMissingSignature is returned when no signature header was supplied.
	ErrMissingSignature = errors.New("webhook signature header is missing")

	// ErrInvalidSignature is returned when the computed digest does not
	// match the supplied signature.
	ErrInvalidSignature = errors.New("webhook signature is invalid")
)

// WebhookVerifier decides the authenticity of an inbound webhook from the
// exact raw body bytes and a shared secret.
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier for one secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify computes base64(HMAC-SHA256(secret, body)) and compares it to the
// supplied signature in constant time. Differing lengths are rejected
// outright rather than falling back to a variable-time comparison.
func (v *WebhookVerifier) Verify(body []byte, signature string) error {
	if len(body) == 0 {
		return ErrEmptyBody
	}
	if signature == "" {
		return ErrMissingSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	// hmac.Equal is constant time and treats unequal lengths as a
	// definitive mismatch.
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
