package paystackwebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kwabenadarko/outlethub-backend/internal/orders"
	pkgerrors "github.com/kwabenadarko/outlethub-backend/pkg/errors"
	"github.com/kwabenadarko/outlethub-backend/pkg/logger"
)

const (
	eventChargeSuccess = "charge.success"
	eventChargeFailed  = "charge.failed"
)

// Event is the decoded Paystack webhook envelope.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type chargeData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

type paymentConfirmer interface {
	ConfirmPayment(ctx context.Context, reference string) (*orders.OrderDTO, error)
	VerifyPayment(ctx context.Context, reference string) (*orders.OrderDTO, error)
}

type idempotencyGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// ServiceParams bundles the webhook service dependencies.
type ServiceParams struct {
	Orders paymentConfirmer
	Guard  idempotencyGuard
	Logger *logger.Logger
}

// Service reconciles asynchronous gateway notifications into the order
// ledger. Signature verification happens at the transport layer before
// events reach it.
type Service struct {
	orders paymentConfirmer
	guard  idempotencyGuard
	log    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		orders: params.Orders,
		guard:  params.Guard,
		log:    params.Logger,
	}, nil
}

// HandleEvent processes one verified webhook delivery. Unknown event
// types are acknowledged without action so Paystack stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event Event) error {
	switch event.Event {
	case eventChargeSuccess, eventChargeFailed:
	default:
		return nil
	}

	var charge chargeData
	if err := json.Unmarshal(event.Data, &charge); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge event")
	}
	reference := strings.TrimSpace(charge.Reference)
	if reference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "charge reference missing")
	}

	eventID := fmt.Sprintf("%s:%s", event.Event, reference)
	seen, err := s.guard.CheckAndMark(ctx, eventID)
	if err != nil {
		// Redis being down must not drop payments; the order ledger's
		// conditional claim still dedupes.
		s.log.Error(ctx, "webhook idempotency check", err)
	} else if seen {
		return nil
	}

	if handleErr := s.dispatch(ctx, event.Event, reference); handleErr != nil {
		if err == nil {
			if delErr := s.guard.Delete(ctx, eventID); delErr != nil {
				s.log.Error(ctx, "clear webhook idempotency marker", delErr)
			}
		}
		return handleErr
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, eventType, reference string) error {
	switch eventType {
	case eventChargeSuccess:
		_, err := s.orders.ConfirmPayment(ctx, reference)
		return err
	case eventChargeFailed:
		// VerifyPayment re-checks with the gateway before marking the
		// order failed, so a stale failure event cannot clobber a
		// charge that later succeeded.
		_, err := s.orders.VerifyPayment(ctx, reference)
		return err
	default:
		return nil
	}
}
