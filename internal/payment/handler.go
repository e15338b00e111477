// Package payment implements the "points" payment method handler the host
// order-management framework plugs into its checkout flow.
package payment

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pbalakri/vendure-plugin-talonOne/internal/domain"
	"github.com/pbalakri/vendure-plugin-talonOne/internal/talon"
)

// MethodCode identifies this payment method on host payment records.
const MethodCode = "points"

// MetadataPointsToRedeem is the checkout metadata key carrying the requested
// point amount.
const MetadataPointsToRedeem = "pointsToRedeem"

type State string

const (
	StateAuthorized State = "Authorized"
	StateDeclined   State = "Declined"
	StateSettled    State = "Settled"
)

// Result is the outcome the host records for a payment transition. Failures
// are always expressed as a Declined result with an errorMessage metadata
// entry, never as a handler error.
type Result struct {
	Amount        float64
	State         State
	TransactionID string
	Metadata      map[string]string
}

// Gateway is the slice of the loyalty gateway the handler needs.
type Gateway interface {
	AuthorizePoints(ctx context.Context, points float64) error
	RedeemPoints(ctx context.Context, order domain.Order, points float64) (*talon.SessionResult, error)
}

type Handler struct {
	gateway Gateway
	log     *zap.Logger
}

func NewHandler(gateway Gateway, log *zap.Logger) *Handler {
	return &Handler{gateway: gateway, log: log}
}

// CreatePayment authorizes the point amount named in the checkout metadata
// against the acting user's active balance.
func (h *Handler) CreatePayment(ctx context.Context, order domain.Order, metadata map[string]any) Result {
	points, ok := metadata[MetadataPointsToRedeem].(float64)
	if !ok || points == 0 {
		return declined(order, "no points to redeem")
	}

	if err := h.gateway.AuthorizePoints(ctx, points); err != nil {
		h.log.Warn("points authorization declined",
			zap.String("order", order.Code),
			zap.Float64("points", points),
			zap.Error(err))
		return declined(order, err.Error())
	}

	return Result{
		Amount:        points,
		State:         StateAuthorized,
		TransactionID: uuid.NewString(),
		Metadata:      map[string]string{},
	}
}

// SettlePayment confirms an authorized points payment. The remote session is
// closed separately when the order is placed, so there is nothing to do.
func (h *Handler) SettlePayment(ctx context.Context, order domain.Order, paymentID string) error {
	return nil
}

// CreateRefund reverses a points payment through the gateway.
func (h *Handler) CreateRefund(ctx context.Context, order domain.Order, points float64) (Result, error) {
	if _, err := h.gateway.RedeemPoints(ctx, order, points); err != nil {
		return Result{}, err
	}
	return Result{
		Amount:        points,
		State:         StateSettled,
		TransactionID: uuid.NewString(),
		Metadata:      map[string]string{},
	}, nil
}

// CancelPayment releases an authorization. Nothing was committed remotely at
// authorization time, so the release is local.
func (h *Handler) CancelPayment(ctx context.Context, order domain.Order, paymentID string) error {
	return nil
}

func declined(order domain.Order, message string) Result {
	return Result{
		Amount: float64(order.Total),
		State:  StateDeclined,
		Metadata: map[string]string{
			"errorMessage": message,
		},
	}
}
