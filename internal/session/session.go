// Package session builds Talon.One customer session documents from
// storefront cart data.
package session

// State of a customer session. The lifecycle is one-way: open -> closed.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// CartItem is one priced line in the wire format Talon.One expects.
// ReturnedQuantity, RemainingQuantity, Category and Position are required by
// the remote schema but not computed here.
type CartItem struct {
	Name              string  `json:"name"`
	SKU               string  `json:"sku"`
	Quantity          int     `json:"quantity"`
	ReturnedQuantity  int     `json:"returnedQuantity"`
	RemainingQuantity int     `json:"remainingQuantity"`
	Price             float64 `json:"price"`
	Category          string  `json:"category"`
	Position          int     `json:"position"`
}

// Attributes are the custom session attributes sent while a session is open.
type Attributes struct {
	PaymentReceived       bool    `json:"payment_received"`
	RedeemPoints          bool    `json:"redeem_points"`
	RedeemedLoyaltyPoints float64 `json:"redeemed_loyalty_points"`
}

// CustomerSession is the state-dependent wire shape: a closed session carries
// only the profile id and state, an open one the full attribute and cart set.
type CustomerSession struct {
	ProfileID  string      `json:"profileId"`
	State      State       `json:"state"`
	Attributes *Attributes `json:"attributes,omitempty"`
	CartItems  []CartItem  `json:"cartItems,omitempty"`
}

// Payload is the request body for PUT /v2/customer_sessions/{profileId}.
type Payload struct {
	CustomerSession CustomerSession `json:"customerSession"`
}

// Session accumulates cart items and redemption state for a single remote
// call. It is built fresh per operation and never reused.
type Session struct {
	profileID       string
	state           State
	paymentReceived bool
	redeemPoints    bool
	redeemedPoints  float64
	items           []CartItem
}

// New returns an open session with an empty cart for the given profile id.
func New(profileID string) *Session {
	return &Session{
		profileID: profileID,
		state:     StateOpen,
	}
}

func (s *Session) ProfileID() string {
	return s.profileID
}

// AddItem appends a cart item. The price is given in minor currency units
// and stored in major units (divided by 100). Negative prices or quantities
// are the caller's problem.
func (s *Session) AddItem(name, sku string, minorUnitPrice int64, quantity int) {
	s.items = append(s.items, CartItem{
		Name:              name,
		SKU:               sku,
		Quantity:          quantity,
		RemainingQuantity: 1,
		Price:             float64(minorUnitPrice) / 100,
	})
}

// MarkRedeemed flags the session as a redemption of the given point count.
// The count is not checked against any balance here.
func (s *Session) MarkRedeemed(points float64) {
	s.redeemPoints = true
	s.redeemedPoints = points
}

// Close irreversibly ends the session lifecycle.
func (s *Session) Close() {
	s.state = StateClosed
}

// Payload produces the wire document. Closed sessions drop their cart items
// and attributes regardless of prior content.
func (s *Session) Payload() Payload {
	cs := CustomerSession{
		ProfileID: s.profileID,
		State:     s.state,
	}
	if s.state == StateOpen {
		cs.Attributes = &Attributes{
			PaymentReceived:       s.paymentReceived,
			RedeemPoints:          s.redeemPoints,
			RedeemedLoyaltyPoints: s.redeemedPoints,
		}
		cs.CartItems = s.items
	}
	return Payload{CustomerSession: cs}
}
