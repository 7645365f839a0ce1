package controllers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	paystackwebhook "github.com/kwabenadarko/outlethub-backend/internal/webhooks/paystack"
)

type stubWebhookService struct {
	err    error
	events []paystackwebhook.Event
}

func (s *stubWebhookService) HandleEvent(_ context.Context, event paystackwebhook.Event) error {
	s.events = append(s.events, event)
	return s.err
}

type stubSignatureVerifier struct {
	secret string
}

func (s stubSignatureVerifier) ValidateSignature(payload []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(s.secret))
	mac.Write(payload)
	return hmac.Equal([]byte(hex.EncodeToString(mac.Sum(nil))), []byte(signature))
}

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaystackWebhookDispatchesEvent(t *testing.T) {
	svc := &stubWebhookService{}
	verifier := stubSignatureVerifier{secret: "whsec"}
	handler := PaystackWebhook(svc, verifier, nil)

	payload := []byte(`{"event":"charge.success","data":{"reference":"ref_42","status":"success"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	req.Header.Set("X-Paystack-Signature", signPayload("whsec", payload))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.events) != 1 || svc.events[0].Event != "charge.success" {
		t.Fatalf("expected charge.success dispatched, got %+v", svc.events)
	}
}

func TestPaystackWebhookMissingSignature(t *testing.T) {
	svc := &stubWebhookService{}
	handler := PaystackWebhook(svc, stubSignatureVerifier{secret: "whsec"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatalf("expected no dispatch on missing signature")
	}
}

func TestPaystackWebhookBadSignature(t *testing.T) {
	svc := &stubWebhookService{}
	handler := PaystackWebhook(svc, stubSignatureVerifier{secret: "whsec"}, nil)

	payload := []byte(`{"event":"charge.success","data":{"reference":"ref_42"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	req.Header.Set("X-Paystack-Signature", "deadbeef")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Fatalf("expected no dispatch on bad signature")
	}
}

func TestPaystackWebhookAcksDespiteProcessingFailure(t *testing.T) {
	svc := &stubWebhookService{err: errors.New("database down")}
	verifier := stubSignatureVerifier{secret: "whsec"}
	handler := PaystackWebhook(svc, verifier, nil)

	payload := []byte(`{"event":"charge.success","data":{"reference":"ref_42","status":"success"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	req.Header.Set("X-Paystack-Signature", signPayload("whsec", payload))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack even on processing failure, got %d", rec.Code)
	}
}
