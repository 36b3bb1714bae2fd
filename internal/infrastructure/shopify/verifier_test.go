package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookVerifier_Valid(t *testing.T) {
	secret := "shhh"
	body := []byte(`{"id":123,"email":"a@example.com"}`)

	v := NewWebhookVerifier(secret)
	require.NoError(t, v.Verify(body, sign(secret, body)))
}

func TestWebhookVerifier_MutatedBody(t *testing.T) {
	secret := "shhh"
	body := []byte(`{"id":123}`)
	signature := sign(secret, body)

	mutated := make([]byte, len(body))
	copy(mutated, body)
	mutated[2] ^= 0x01

	v := NewWebhookVerifier(secret)
	assert.ErrorIs(t, v.Verify(mutated, signature), ErrInvalidSignature)
}

func TestWebhookVerifier_MutatedSignature(t *testing.T) {
	secret := "shhh"
	body := []byte(`{"id":123}`)
	signature := []byte(sign(secret, body))
	signature[0] ^= 0x01

	v := NewWebhookVerifier(secret)
	assert.ErrorIs(t, v.Verify(body, string(signature)), ErrInvalidSignature)
}

func TestWebhookVerifier_WrongSecret(t *testing.T) {
	body := []byte(`{"id":123}`)
	signature := sign("secret-a", body)

	v := NewWebhookVerifier("secret-b")
	assert.ErrorIs(t, v.Verify(body, signature), ErrInvalidSignature)
}

func TestWebhookVerifier_LengthMismatch(t *testing.T) {
	body := []byte(`{"id":123}`)

	v := NewWebhookVerifier("shhh")
	assert.ErrorIs(t, v.Verify(body, "short"), ErrInvalidSignature)
}

func TestWebhookVerifier_EmptyBodyFailsClosed(t *testing.T) {
	v := NewWebhookVerifier("shhh")

	assert.ErrorIs(t, v.Verify(nil, sign("shhh", nil)), ErrEmptyBody)
	assert.ErrorIs(t, v.Verify([]byte{}, "anything"), ErrEmptyBody)
}

func TestWebhookVerifier_MissingSignature(t *testing.T) {
	v := NewWebhookVerifier("shhh")
	assert.ErrorIs(t, v.Verify([]byte("body"), ""), ErrMissingSignature)
}
