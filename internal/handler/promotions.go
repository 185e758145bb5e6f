package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/bersih-laundry/api/internal/database"
	"github.com/bersih-laundry/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// PromotionStore defines the database methods needed by promotion handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type PromotionStore interface {
	ListPromotions(ctx context.Context, outletID uuid.UUID) ([]database.Promotion, error)
	GetPromotion(ctx context.Context, arg database.GetPromotionParams) (database.Promotion, error)
	CreatePromotion(ctx context.Context, arg database.CreatePromotionParams) (database.Promotion, error)
	UpdatePromotion(ctx context.Context, arg database.UpdatePromotionParams) (database.Promotion, error)
}

// PromotionHandler handles promotion CRUD endpoints.
type PromotionHandler struct {
	store PromotionStore
}

// NewPromotionHandler creates a new PromotionHandler.
func NewPromotionHandler(store PromotionStore) *PromotionHandler {
	return &PromotionHandler{store: store}
}

// RegisterRoutes registers promotion endpoints on the given Chi router.
// Expected to be mounted inside an outlet-scoped subrouter: /outlets/{oid}/promotions
func (h *PromotionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
}

// --- Request / Response types ---

type createPromotionRequest struct {
	Name           string `json:"name"`
	PromoType      string `json:"promo_type"`
	Value          string `json:"value"`
	MinOrderAmount string `json:"min_order_amount"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at"`
}

type updatePromotionRequest struct {
	createPromotionRequest
	IsActive bool `json:"is_active"`
}

type promotionResponse struct {
	ID             uuid.UUID  `json:"id"`
	OutletID       uuid.UUID  `json:"outlet_id"`
	Name           string     `json:"name"`
	PromoType      string     `json:"promo_type"`
	Value          string     `json:"value"`
	MinOrderAmount string     `json:"min_order_amount"`
	IsActive       bool       `json:"is_active"`
	StartsAt       *time.Time `json:"starts_at"`
	EndsAt         *time.Time `json:"ends_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func dbPromotionToResponse(p database.Promotion) promotionResponse {
	resp := promotionResponse{
		ID:             p.ID,
		OutletID:       p.OutletID,
		Name:           p.Name,
		PromoType:      p.PromoType,
		Value:          numericToString(p.Value),
		MinOrderAmount: numericToString(p.MinOrderAmount),
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.StartsAt.Valid {
		resp.StartsAt = &p.StartsAt.Time
	}
	if p.EndsAt.Valid {
		resp.EndsAt = &p.EndsAt.Time
	}
	return resp
}

// promotionFields are the validated inputs shared by create and update.
type promotionFields struct {
	value    decimal.Decimal
	minOrder decimal.Decimal
	startsAt pgtype.Timestamptz
	endsAt   pgtype.Timestamptz
}

// parsePromotionFields validates the common promotion fields. The returned
// message is empty when everything checks out.
func parsePromotionFields(req createPromotionRequest) (promotionFields, string) {
	var f promotionFields

	if req.Name == "" || req.PromoType == "" || req.Value == "" {
		return f, "name, promo_type, and value are required"
	}

	if req.PromoType != enum.PromoTypePercentage && req.PromoType != enum.PromoTypeFixed {
		return f, "promo_type must be PERCENTAGE or FIXED_AMOUNT"
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil || value.IsNegative() {
		return f, "invalid value"
	}
	if req.PromoType == enum.PromoTypePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return f, "percentage value cannot exceed 100"
	}
	f.value = value

	f.minOrder = decimal.Zero
	if req.MinOrderAmount != "" {
		minOrder, err := decimal.NewFromString(req.MinOrderAmount)
		if err != nil || minOrder.IsNegative() {
			return f, "invalid min_order_amount"
		}
		f.minOrder = minOrder
	}

	if req.StartsAt != "" {
		t, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			return f, "invalid starts_at, use RFC 3339"
		}
		f.startsAt = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if req.EndsAt != "" {
		t, err := time.Parse(time.RFC3339, req.EndsAt)
		if err != nil {
			return f, "invalid ends_at, use RFC 3339"
		}
		f.endsAt = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if f.startsAt.Valid && f.endsAt.Valid && f.endsAt.Time.Before(f.startsAt.Time) {
		return f, "ends_at must be after starts_at"
	}

	return f, ""
}

// --- Handlers ---

// List returns all promotions for the outlet, newest first.
func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	promos, err := h.store.ListPromotions(r.Context(), outletID)
	if err != nil {
		log.Printf("ERROR: list promotions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]promotionResponse, len(promos))
	for i, p := range promos {
		resp[i] = dbPromotionToResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single promotion.
func (h *PromotionHandler) Get(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	promoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid promotion ID"})
		return
	}

	promo, err := h.store.GetPromotion(r.Context(), database.GetPromotionParams{
		ID:       promoID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "promotion not found"})
			return
		}
		log.Printf("ERROR: get promotion: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbPromotionToResponse(promo))
}

// Create adds a new promotion.
func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	var req createPromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	fields, msg := parsePromotionFields(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	promo, err := h.store.CreatePromotion(r.Context(), database.CreatePromotionParams{
		OutletID:       outletID,
		Name:           req.Name,
		PromoType:      req.PromoType,
		Value:          decimalToNumeric(fields.value),
		MinOrderAmount: decimalToNumeric(fields.minOrder),
		StartsAt:       fields.startsAt,
		EndsAt:         fields.endsAt,
	})
	if err != nil {
		log.Printf("ERROR: create promotion: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbPromotionToResponse(promo))
}

// Update modifies an existing promotion.
func (h *PromotionHandler) Update(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	promoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid promotion ID"})
		return
	}

	var req updatePromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	fields, msg := parsePromotionFields(req.createPromotionRequest)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	promo, err := h.store.UpdatePromotion(r.Context(), database.UpdatePromotionParams{
		ID:             promoID,
		OutletID:       outletID,
		Name:           req.Name,
		PromoType:      req.PromoType,
		Value:          decimalToNumeric(fields.value),
		MinOrderAmount: decimalToNumeric(fields.minOrder),
		IsActive:       req.IsActive,
		StartsAt:       fields.startsAt,
		EndsAt:         fields.endsAt,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "promotion not found"})
			return
		}
		log.Printf("ERROR: update promotion: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbPromotionToResponse(promo))
}
