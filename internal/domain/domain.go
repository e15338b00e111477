package domain

import "context"

// ProductVariant is a purchasable variant as the storefront sees it.
// Price is in minor currency units (cents).
type ProductVariant struct {
	Name  string `json:"name"`
	SKU   string `json:"sku"`
	Price int64  `json:"price"`
}

// OrderLine is one priced line of an order.
type OrderLine struct {
	Variant   ProductVariant `json:"variant"`
	UnitPrice int64          `json:"unit_price"`
	Quantity  int            `json:"quantity"`
}

type Order struct {
	ID       int64       `json:"id"`
	Code     string      `json:"code"`
	Total    int64       `json:"total"`
	Lines    []OrderLine `json:"lines"`
	Payments []Payment   `json:"payments,omitempty"`
}

// Payment states as the host order-management framework reports them.
const (
	PaymentAuthorized = "Authorized"
	PaymentSettled    = "Settled"
	PaymentDeclined   = "Declined"
)

type Payment struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	State  string `json:"state"`
	Amount int64  `json:"amount"`
}

// User is a host user record. Identifier is the stable external identifier
// (typically the email address) used as the loyalty profile id.
type User struct {
	ID         int64
	Identifier string
}

// PointsBalance is a customer's loyalty point balance.
type PointsBalance struct {
	Active  float64 `json:"active"`
	Pending float64 `json:"pending"`
}

// UserService resolves user records. Implemented by the host framework.
type UserService interface {
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// OrderUpdater writes the computed loyalty points back onto an order record.
// Implemented by the host framework (custom order field).
type OrderUpdater interface {
	UpdateLoyaltyPoints(ctx context.Context, orderID int64, points float64) error
}

// PaymentSettler marks an authorized payment as settled.
// Implemented by the host framework.
type PaymentSettler interface {
	SettlePayment(ctx context.Context, paymentID string) error
}

type contextKey int

const activeUserKey contextKey = iota

// WithActiveUser returns a context carrying the acting user's id.
func WithActiveUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, activeUserKey, userID)
}

// ActiveUserID returns the acting user's id from the context, or 0 when the
// request is anonymous.
func ActiveUserID(ctx context.Context) int64 {
	if userID, ok := ctx.Value(activeUserKey).(int64); ok {
		return userID
	}
	return 0
}
