package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kwabenadarko/outlethub-backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.PaystackConfig{SecretKey: "sk_test_abc"}, WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestInitializeTransaction(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_abc" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Authorization URL created",
			"data": {
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code": "abc123",
				"reference": "OH-1725000000000-X9K2"
			}
		}`))
	}))

	resp, err := client.InitializeTransaction(context.Background(), InitializeRequest{
		Email:       "buyer@example.com",
		AmountCents: 125000,
		Reference:   "OH-1725000000000-X9K2",
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if resp.AuthorizationURL != "https://checkout.paystack.com/abc123" {
		t.Fatalf("unexpected authorization url %q", resp.AuthorizationURL)
	}
	if resp.Reference != "OH-1725000000000-X9K2" {
		t.Fatalf("unexpected reference %q", resp.Reference)
	}
}

func TestInitializeTransactionValidatesInput(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued for invalid input")
	}))

	if _, err := client.InitializeTransaction(context.Background(), InitializeRequest{AmountCents: 100}); err == nil {
		t.Fatal("expected error for missing email")
	}
	if _, err := client.InitializeTransaction(context.Background(), InitializeRequest{Email: "a@b.c"}); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestVerifyTransaction(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ref-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {
				"reference": "ref-1",
				"status": "success",
				"amount": 125000,
				"currency": "GHS",
				"channel": "card",
				"paid_at": "2025-09-01T10:00:00Z"
			}
		}`))
	}))

	txn, err := client.VerifyTransaction(context.Background(), "ref-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !txn.Succeeded() {
		t.Fatal("expected settled transaction")
	}
	if txn.AmountCents != 125000 {
		t.Fatalf("unexpected amount %d", txn.AmountCents)
	}
	if txn.PaidAt == nil {
		t.Fatal("expected paid_at to be parsed")
	}
}

func TestVerifyTransactionNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	if _, err := client.VerifyTransaction(context.Background(), "missing"); err == nil {
		t.Fatal("expected not found error")
	}
}

func TestValidateSignature(t *testing.T) {
	client, err := NewClient(config.PaystackConfig{SecretKey: "sk_test_abc"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	payload := []byte(`{"event":"charge.success"}`)
	mac := hmac.New(sha512.New, []byte("sk_test_abc"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	if !client.ValidateSignature(payload, signature) {
		t.Fatal("expected valid signature to pass")
	}
	if client.ValidateSignature(payload, "deadbeef") {
		t.Fatal("expected bogus signature to fail")
	}
	if client.ValidateSignature([]byte(`tampered`), signature) {
		t.Fatal("expected tampered payload to fail")
	}
	if client.ValidateSignature(payload, "") {
		t.Fatal("expected empty signature to fail")
	}
}

func TestSigningSecretPrefersWebhookSecret(t *testing.T) {
	client, err := NewClient(config.PaystackConfig{SecretKey: "sk", WebhookSecret: "whsec"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.SigningSecret() != "whsec" {
		t.Fatalf("unexpected signing secret %q", client.SigningSecret())
	}
}
