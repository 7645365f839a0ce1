package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/kwabenadarko/outlethub-backend/api/responses"
	paystackwebhook "github.com/kwabenadarko/outlethub-backend/internal/webhooks/paystack"
	pkgerrors "github.com/kwabenadarko/outlethub-backend/pkg/errors"
	"github.com/kwabenadarko/outlethub-backend/pkg/logger"
)

type PaystackWebhookService interface {
	HandleEvent(ctx context.Context, event paystackwebhook.Event) error
}

type paystackSignatureVerifier interface {
	ValidateSignature(payload []byte, signature string) bool
}

// PaystackWebhook receives gateway charge notifications. Paystack retries on
// non-2xx, so once the signature checks out the handler acknowledges with 200
// regardless of how reconciliation went; the webhook service keeps its own
// redelivery marker.
func PaystackWebhook(svc PaystackWebhookService, client paystackSignatureVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "paystack client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get("X-Paystack-Signature")
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "paystack signature missing"))
			return
		}
		if !client.ValidateSignature(payload, signature) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid paystack signature"))
			return
		}

		var event paystackwebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			if logg != nil {
				logg.Error(ctx, "paystack event processing failed", err)
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "received"})
	}
}
