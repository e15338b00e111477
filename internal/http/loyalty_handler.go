package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/pbalakri/vendure-plugin-talonOne/internal/domain"
	"github.com/pbalakri/vendure-plugin-talonOne/internal/talon"
)

// LoyaltyGateway is the slice of the gateway the HTTP facade exposes.
type LoyaltyGateway interface {
	QuotePointsForProduct(ctx context.Context, variant domain.ProductVariant) (float64, error)
	QuotePointsForOrder(ctx context.Context, order domain.Order) (float64, error)
	GetPointsForUser(ctx context.Context) (domain.PointsBalance, error)
}

type LoyaltyHandler struct {
	gateway LoyaltyGateway
	log     *zap.Logger
}

func NewLoyaltyHandler(gateway LoyaltyGateway, log *zap.Logger) *LoyaltyHandler {
	return &LoyaltyHandler{gateway: gateway, log: log}
}

type PointsResponseDTO struct {
	Points float64 `json:"points"`
}

type OrderLineDTO struct {
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type OrderPointsRequestDTO struct {
	Code  string         `json:"code"`
	Lines []OrderLineDTO `json:"lines"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// GET /api/v1/loyalty/products/points?name=&sku=&price=
// Price is in minor currency units.
func (h *LoyaltyHandler) ProductPoints(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sku := query.Get("sku")
	if sku == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "sku is required")
		return
	}
	price, err := strconv.ParseInt(query.Get("price"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must be an integer in minor units")
		return
	}

	variant := domain.ProductVariant{
		Name:  query.Get("name"),
		SKU:   sku,
		Price: price,
	}
	points, err := h.gateway.QuotePointsForProduct(r.Context(), variant)
	if err != nil {
		h.respondGatewayError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, PointsResponseDTO{Points: points})
}

// GET /api/v1/loyalty/customers/points
func (h *LoyaltyHandler) CustomerPoints(w http.ResponseWriter, r *http.Request) {
	if domain.ActiveUserID(r.Context()) == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	balance, err := h.gateway.GetPointsForUser(r.Context())
	if err != nil {
		h.respondGatewayError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balance)
}

// POST /api/v1/loyalty/orders/points
func (h *LoyaltyHandler) OrderPoints(w http.ResponseWriter, r *http.Request) {
	var req OrderPointsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order := domain.Order{Code: req.Code}
	for _, line := range req.Lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			Variant:   domain.ProductVariant{Name: line.Name, SKU: line.SKU, Price: line.UnitPrice},
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	points, err := h.gateway.QuotePointsForOrder(r.Context(), order)
	if err != nil {
		h.respondGatewayError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, PointsResponseDTO{Points: points})
}

func (h *LoyaltyHandler) respondGatewayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, talon.ErrNoUser):
		respondError(w, http.StatusUnauthorized, "no_user", err.Error())
	case errors.Is(err, talon.ErrInsufficientPoints):
		respondError(w, http.StatusUnprocessableEntity, "insufficient_points", err.Error())
	default:
		h.log.Error("loyalty gateway call failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "upstream_error", "loyalty service unavailable")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already out; nothing useful left to do.
		return
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
