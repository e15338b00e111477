package talon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pbalakri/vendure-plugin-talonOne/internal/domain"
)

type mockUsers struct {
	user *domain.User
	err  error
}

func (m *mockUsers) GetUserByID(context.Context, int64) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// fakeTalon records every request and answers session updates and balance
// lookups with canned JSON.
type fakeTalon struct {
	mu              sync.Mutex
	requests        []recordedRequest
	sessionResponse string
	balanceResponse string
}

func (f *fakeTalon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   body,
	})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodPut {
		io.WriteString(w, f.sessionResponse)
		return
	}
	io.WriteString(w, f.balanceResponse)
}

func (f *fakeTalon) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeTalon) lastRequest() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeTalon) allRequests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestGateway(t *testing.T, fake *fakeTalon, users domain.UserService) *Gateway {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "test-key", ProgramID: 10}, users, zap.NewNop())
}

func userContext() context.Context {
	return domain.WithActiveUser(context.Background(), 1)
}

func TestQuotePointsForProduct_SumsLoyaltyEffects(t *testing.T) {
	fake := &fakeTalon{
		sessionResponse: `{"effects":[
			{"effectType":"addLoyaltyPoints","props":{"value":5}},
			{"effectType":"other","props":{"value":99}},
			{"effectType":"addLoyaltyPoints","props":{"value":3}}]}`,
	}
	g := newTestGateway(t, fake, &mockUsers{})

	points, err := g.QuotePointsForProduct(context.Background(), domain.ProductVariant{
		Name: "Sneaker", SKU: "SNK-01", Price: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, 8.0, points)

	req := fake.lastRequest()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "dry=true", req.Query)

	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &payload))
	items := payload["customerSession"]["cartItems"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, 5.0, item["price"])
	assert.Equal(t, 1.0, item["quantity"])
}

func TestQuotePointsForOrder_CommitsSessionForUser(t *testing.T) {
	fake := &fakeTalon{
		sessionResponse: `{"effects":[{"effectType":"addLoyaltyPoints","props":{"value":12}}]}`,
	}
	users := &mockUsers{user: &domain.User{ID: 1, Identifier: "u1"}}
	g := newTestGateway(t, fake, users)

	order := domain.Order{
		Code: "ORDER-1",
		Lines: []domain.OrderLine{
			{Variant: domain.ProductVariant{Name: "Sneaker", SKU: "SNK-01"}, UnitPrice: 500, Quantity: 2},
			{Variant: domain.ProductVariant{Name: "Cap", SKU: "CAP-01"}, UnitPrice: 1000, Quantity: 1},
		},
	}

	points, err := g.QuotePointsForOrder(userContext(), order)
	require.NoError(t, err)
	assert.Equal(t, 12.0, points)

	req := fake.lastRequest()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/v2/customer_sessions/u1", req.Path)
	assert.Empty(t, req.Query)

	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &payload))
	cs := payload["customerSession"]
	assert.Equal(t, "u1", cs["profileId"])
	assert.Equal(t, "open", cs["state"])

	items := cs["cartItems"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	second := items[1].(map[string]any)
	assert.Equal(t, 5.0, first["price"])
	assert.Equal(t, 2.0, first["quantity"])
	assert.Equal(t, 10.0, second["price"])
	assert.Equal(t, 1.0, second["quantity"])
}

func TestQuotePointsForOrder_NoUserReturnsLastQuote(t *testing.T) {
	fake := &fakeTalon{
		sessionResponse: `{"effects":[{"effectType":"addLoyaltyPoints","props":{"value":8}}]}`,
	}
	g := newTestGateway(t, fake, &mockUsers{})

	_, err := g.QuotePointsForProduct(context.Background(), domain.ProductVariant{Name: "Sneaker", SKU: "SNK-01", Price: 500})
	require.NoError(t, err)
	sent := fake.requestCount()

	// Anonymous context: no remote call, previous total comes back.
	points, err := g.QuotePointsForOrder(context.Background(), domain.Order{Code: "ORDER-1"})
	require.NoError(t, err)
	assert.Equal(t, 8.0, points)
	assert.Equal(t, sent, fake.requestCount())
}

func TestGetPointsForUser_DefaultsMissingPending(t *testing.T) {
	fake := &fakeTalon{balanceResponse: `{"balance":{"activePoints":120}}`}
	users := &mockUsers{user: &domain.User{ID: 1, Identifier: "u1"}}
	g := newTestGateway(t, fake, users)

	balance, err := g.GetPointsForUser(userContext())
	require.NoError(t, err)
	assert.Equal(t, 120.0, balance.Active)
	assert.Equal(t, 0.0, balance.Pending)

	req := fake.lastRequest()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/v1/loyalty_programs/10/profile/u1/balances", req.Path)
}

func TestGetPointsForUser_NoActingUser(t *testing.T) {
	fake := &fakeTalon{balanceResponse: `{"balance":{}}`}
	g := newTestGateway(t, fake, &mockUsers{})

	_, err := g.GetPointsForUser(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)
	assert.Zero(t, fake.requestCount())
}

func TestGetPointsForUser_LookupFailure(t *testing.T) {
	fake := &fakeTalon{balanceResponse: `{"balance":{}}`}
	g := newTestGateway(t, fake, &mockUsers{err: errors.New("db down")})

	_, err := g.GetPointsForUser(userContext())
	assert.ErrorIs(t, err, ErrNoUser)
	assert.Zero(t, fake.requestCount())
}

func TestAuthorizePoints(t *testing.T) {
	fake := &fakeTalon{balanceResponse: `{"balance":{"activePoints":100}}`}
	users := &mockUsers{user: &domain.User{ID: 1, Identifier: "u1"}}
	g := newTestGateway(t, fake, users)

	assert.NoError(t, g.AuthorizePoints(userContext(), 100))

	err := g.AuthorizePoints(userContext(), 101)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	// Authorization never issues a session commit.
	for _, req := range fake.allRequests() {
		assert.Equal(t, http.MethodGet, req.Method)
	}
}

func TestRedeemPoints_Success(t *testing.T) {
	fake := &fakeTalon{
		balanceResponse: `{"balance":{"activePoints":100}}`,
		sessionResponse: `{"effects":[]}`,
	}
	users := &mockUsers{user: &domain.User{ID: 1, Identifier: "u1"}}
	g := newTestGateway(t, fake, users)

	order := domain.Order{
		Code: "ORDER-1",
		Lines: []domain.OrderLine{
			{Variant: domain.ProductVariant{Name: "Sneaker", SKU: "SNK-01"}, UnitPrice: 500, Quantity: 2},
		},
	}

	result, err := g.RedeemPoints(userContext(), order, 50)
	require.NoError(t, err)
	require.NotNil(t, result)

	req := fake.lastRequest()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Empty(t, req.Query)

	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &payload))
	attrs := payload["customerSession"]["attributes"].(map[string]any)
	assert.Equal(t, true, attrs["redeem_points"])
	assert.Equal(t, 50.0, attrs["redeemed_loyalty_points"])
}

func TestRedeemPoints_InsufficientBalance(t *testing.T) {
	fake := &fakeTalon{balanceResponse: `{"balance":{"activePoints":40}}`}
	users := &mockUsers{user: &domain.User{ID: 1, Identifier: "u1"}}
	g := newTestGateway(t, fake, users)

	_, err := g.RedeemPoints(userContext(), domain.Order{Code: "ORDER-1"}, 50)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	// Balance checks only, no session was built or sent.
	for _, req := range fake.allRequests() {
		assert.Equal(t, http.MethodGet, req.Method)
	}
}

func TestCloseOrder_SendsClosedSession(t *testing.T) {
	fake := &fakeTalon{sessionResponse: `{"effects":[]}`}
	g := newTestGateway(t, fake, &mockUsers{})

	_, err := g.CloseOrder(context.Background(), domain.Order{Code: "ORDER-42"})
	require.NoError(t, err)

	req := fake.lastRequest()
	assert.Equal(t, "/v2/customer_sessions/ORDER-42", req.Path)

	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &payload))
	cs := payload["customerSession"]
	assert.Equal(t, "closed", cs["state"])
	assert.NotContains(t, cs, "cartItems")
	assert.NotContains(t, cs, "attributes")
}

func TestUpdateSession_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>gateway timeout</html>")
	}))
	t.Cleanup(srv.Close)
	g := New(Config{BaseURL: srv.URL, ProgramID: 10}, &mockUsers{}, zap.NewNop())

	_, err := g.QuotePointsForProduct(context.Background(), domain.ProductVariant{Name: "Sneaker", SKU: "SNK-01", Price: 500})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding talon.one response")
}

func TestUpdateSession_SendsAuthorizationHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `{"effects":[]}`)
	}))
	t.Cleanup(srv.Close)
	g := New(Config{BaseURL: srv.URL, APIKey: "ApiKey-v1 secret", ProgramID: 10}, &mockUsers{}, zap.NewNop())

	_, err := g.QuotePointsForProduct(context.Background(), domain.ProductVariant{Name: "Sneaker", SKU: "SNK-01", Price: 500})
	require.NoError(t, err)
	assert.Equal(t, "ApiKey-v1 secret", gotAuth)
}
