package talon

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pbalakri/vendure-plugin-talonOne/internal/domain"
	"github.com/pbalakri/vendure-plugin-talonOne/internal/session"
)

// activeUser resolves the acting user record from the context. Both a missing
// id and a failed lookup surface as ErrNoUser.
func (g *Gateway) activeUser(ctx context.Context) (*domain.User, error) {
	userID := domain.ActiveUserID(ctx)
	if userID == 0 {
		return nil, ErrNoUser
	}
	user, err := g.users.GetUserByID(ctx, userID)
	if err != nil || user == nil {
		return nil, ErrNoUser
	}
	return user, nil
}

// QuotePointsForProduct asks Talon.One how many points a single unit of the
// variant would earn. The session is a dry-run throwaway under a random
// profile id, so nothing is committed remotely.
func (g *Gateway) QuotePointsForProduct(ctx context.Context, variant domain.ProductVariant) (float64, error) {
	s := session.New(uuid.NewString())
	s.AddItem(variant.Name, variant.SKU, variant.Price, 1)

	result, err := g.updateSession(ctx, s, true)
	if err != nil {
		return 0, err
	}
	return g.rememberQuote(result.LoyaltyPoints()), nil
}

// QuotePointsForOrder computes the points the whole order would earn and
// commits the session under the user's profile. When no acting user can be
// resolved it returns the last computed total without a remote call.
func (g *Gateway) QuotePointsForOrder(ctx context.Context, order domain.Order) (float64, error) {
	user, err := g.activeUser(ctx)
	if err != nil {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.lastQuoted, nil
	}

	s := session.New(user.Identifier)
	for _, line := range order.Lines {
		s.AddItem(line.Variant.Name, line.Variant.SKU, line.UnitPrice, line.Quantity)
	}

	result, err := g.updateSession(ctx, s, false)
	if err != nil {
		return 0, err
	}
	return g.rememberQuote(result.LoyaltyPoints()), nil
}

func (g *Gateway) rememberQuote(points float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastQuoted = points
	return points
}

// GetPointsForUser returns the acting user's active and pending balances.
func (g *Gateway) GetPointsForUser(ctx context.Context) (domain.PointsBalance, error) {
	user, err := g.activeUser(ctx)
	if err != nil {
		return domain.PointsBalance{}, err
	}

	result, err := g.getUserPoints(ctx, user.Identifier)
	if err != nil {
		return domain.PointsBalance{}, err
	}
	return domain.PointsBalance{
		Active:  result.Balance.ActivePoints,
		Pending: result.Balance.PendingPoints,
	}, nil
}

// AuthorizePoints verifies the acting user holds at least the requested
// active balance. It never commits anything remotely.
func (g *Gateway) AuthorizePoints(ctx context.Context, points float64) error {
	balance, err := g.GetPointsForUser(ctx)
	if err != nil {
		return err
	}
	if points > balance.Active {
		return ErrInsufficientPoints
	}
	return nil
}

// RedeemPoints re-checks the balance, then commits a session carrying the
// whole order with the redemption marked. The raw remote result is returned.
func (g *Gateway) RedeemPoints(ctx context.Context, order domain.Order, points float64) (*SessionResult, error) {
	user, err := g.activeUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.AuthorizePoints(ctx, points); err != nil {
		return nil, err
	}

	s := session.New(user.Identifier)
	for _, line := range order.Lines {
		s.AddItem(line.Variant.Name, line.Variant.SKU, line.UnitPrice, line.Quantity)
	}
	s.MarkRedeemed(points)

	g.log.Info("redeeming loyalty points",
		zap.String("profile", user.Identifier),
		zap.Float64("points", points))

	return g.updateSession(ctx, s, false)
}

// CloseOrder closes the customer session keyed by the order's code, ending
// its lifecycle on the Talon.One side.
func (g *Gateway) CloseOrder(ctx context.Context, order domain.Order) (*SessionResult, error) {
	s := session.New(order.Code)
	s.Close()
	return g.updateSession(ctx, s, false)
}
