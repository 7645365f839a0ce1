package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// SigningSecret returns the secret used to authenticate webhook deliveries.
// Paystack signs webhooks with the account secret key unless a dedicated
// webhook secret is configured.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	if c.webhookSecret != "" {
		return c.webhookSecret
	}
	return c.secretKey
}

// ValidateSignature checks the X-Paystack-Signature header against the raw
// request body.
func (c *Client) ValidateSignature(payload []byte, signature string) bool {
	secret := c.SigningSecret()
	if secret == "" || strings.TrimSpace(signature) == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
