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

// ServiceStore defines the database methods needed by catalog handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ServiceStore interface {
	ListServices(ctx context.Context, arg database.ListServicesParams) ([]database.Service, error)
	GetService(ctx context.Context, arg database.GetServiceParams) (database.Service, error)
	CreateService(ctx context.Context, arg database.CreateServiceParams) (database.Service, error)
	UpdateService(ctx context.Context, arg database.UpdateServiceParams) (database.Service, error)
}

// ServiceHandler handles service catalog endpoints.
type ServiceHandler struct {
	store ServiceStore
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(store ServiceStore) *ServiceHandler {
	return &ServiceHandler{store: store}
}

// RegisterRoutes registers catalog endpoints on the given Chi router.
// Expected to be mounted inside an outlet-scoped subrouter: /outlets/{oid}/services
func (h *ServiceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
}

// --- Request / Response types ---

type createServiceRequest struct {
	Name           string `json:"name"`
	UnitType       string `json:"unit_type"`
	Price          string `json:"price"`
	EstimatedHours int32  `json:"estimated_hours"`
}

type updateServiceRequest struct {
	Name           string `json:"name"`
	UnitType       string `json:"unit_type"`
	Price          string `json:"price"`
	EstimatedHours int32  `json:"estimated_hours"`
	IsActive       bool   `json:"is_active"`
}

type serviceResponse struct {
	ID             uuid.UUID `json:"id"`
	OutletID       uuid.UUID `json:"outlet_id"`
	Name           string    `json:"name"`
	UnitType       string    `json:"unit_type"`
	Price          string    `json:"price"`
	EstimatedHours int32     `json:"estimated_hours"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func dbServiceToResponse(s database.Service) serviceResponse {
	return serviceResponse{
		ID:             s.ID,
		OutletID:       s.OutletID,
		Name:           s.Name,
		UnitType:       s.UnitType,
		Price:          numericToString(s.Price),
		EstimatedHours: s.EstimatedHours,
		IsActive:       s.IsActive,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// --- Handlers ---

// List returns catalog entries for the outlet. By default only active
// services come back; ?include_inactive=true returns everything.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	isActive := pgtype.Bool{Bool: true, Valid: true}
	if r.URL.Query().Get("include_inactive") == "true" {
		isActive = pgtype.Bool{}
	}

	services, err := h.store.ListServices(r.Context(), database.ListServicesParams{
		OutletID: outletID,
		IsActive: isActive,
	})
	if err != nil {
		log.Printf("ERROR: list services: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]serviceResponse, len(services))
	for i, s := range services {
		resp[i] = dbServiceToResponse(s)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single catalog entry.
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	serviceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service ID"})
		return
	}

	service, err := h.store.GetService(r.Context(), database.GetServiceParams{
		ID:       serviceID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "service not found"})
			return
		}
		log.Printf("ERROR: get service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbServiceToResponse(service))
}

// Create adds a new catalog entry.
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" || req.UnitType == "" || req.Price == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, unit_type, and price are required"})
		return
	}

	if !isValidUnitType(req.UnitType) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unit_type must be kg or pcs"})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	hours := req.EstimatedHours
	if hours <= 0 {
		hours = 48
	}

	service, err := h.store.CreateService(r.Context(), database.CreateServiceParams{
		OutletID:       outletID,
		Name:           req.Name,
		UnitType:       req.UnitType,
		Price:          decimalToNumeric(price),
		EstimatedHours: hours,
	})
	if err != nil {
		log.Printf("ERROR: create service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbServiceToResponse(service))
}

// Update modifies an existing catalog entry. Deactivation hides it from new
// orders without touching historical order item snapshots.
func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	serviceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid service ID"})
		return
	}

	var req updateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" || req.UnitType == "" || req.Price == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, unit_type, and price are required"})
		return
	}

	if !isValidUnitType(req.UnitType) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unit_type must be kg or pcs"})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	hours := req.EstimatedHours
	if hours <= 0 {
		hours = 48
	}

	service, err := h.store.UpdateService(r.Context(), database.UpdateServiceParams{
		ID:             serviceID,
		OutletID:       outletID,
		Name:           req.Name,
		UnitType:       req.UnitType,
		Price:          decimalToNumeric(price),
		EstimatedHours: hours,
		IsActive:       req.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "service not found"})
			return
		}
		log.Printf("ERROR: update service: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbServiceToResponse(service))
}

func isValidUnitType(unitType string) bool {
	return unitType == enum.UnitTypeKg || unitType == enum.UnitTypePcs
}
