// Package plugin wires the loyalty gateway into the host framework's order
// lifecycle. The host owns the event bus; it calls these handlers from its
// own subscriptions (order line added or changed, order placed).
package plugin

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pbalakri/vendure-plugin-talonOne/internal/domain"
	"github.com/pbalakri/vendure-plugin-talonOne/internal/talon"
)

// Gateway is the slice of the loyalty gateway the lifecycle glue needs.
type Gateway interface {
	QuotePointsForOrder(ctx context.Context, order domain.Order) (float64, error)
	CloseOrder(ctx context.Context, order domain.Order) (*talon.SessionResult, error)
}

type Plugin struct {
	gateway       Gateway
	orders        domain.OrderUpdater
	payments      domain.PaymentSettler
	paymentMethod string
	log           *zap.Logger
}

func New(gateway Gateway, orders domain.OrderUpdater, payments domain.PaymentSettler, paymentMethod string, log *zap.Logger) *Plugin {
	return &Plugin{
		gateway:       gateway,
		orders:        orders,
		payments:      payments,
		paymentMethod: paymentMethod,
		log:           log,
	}
}

// HandleOrderLineChanged recomputes the order's point quote and writes it to
// the order's loyaltyPoints field.
func (p *Plugin) HandleOrderLineChanged(ctx context.Context, order domain.Order) error {
	points, err := p.gateway.QuotePointsForOrder(ctx, order)
	if err != nil {
		return fmt.Errorf("quoting points for order %s: %w", order.Code, err)
	}
	if err := p.orders.UpdateLoyaltyPoints(ctx, order.ID, points); err != nil {
		return fmt.Errorf("updating loyalty points on order %s: %w", order.Code, err)
	}
	return nil
}

// HandleOrderPlaced closes the remote session and settles the points payment,
// but only when the order carries an authorized payment of this plugin's
// method. Orders paid any other way are left alone.
func (p *Plugin) HandleOrderPlaced(ctx context.Context, order domain.Order) error {
	pointsPayment := p.findAuthorizedPayment(order)
	if pointsPayment == nil {
		return nil
	}

	if _, err := p.gateway.CloseOrder(ctx, order); err != nil {
		return fmt.Errorf("closing session for order %s: %w", order.Code, err)
	}
	if err := p.payments.SettlePayment(ctx, pointsPayment.ID); err != nil {
		return fmt.Errorf("settling payment %s: %w", pointsPayment.ID, err)
	}

	p.log.Info("points payment settled",
		zap.String("order", order.Code),
		zap.String("payment", pointsPayment.ID))
	return nil
}

func (p *Plugin) findAuthorizedPayment(order domain.Order) *domain.Payment {
	for i := range order.Payments {
		payment := &order.Payments[i]
		if payment.Method == p.paymentMethod && payment.State == domain.PaymentAuthorized {
			return payment
		}
	}
	return nil
}
