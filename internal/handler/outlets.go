package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/bersih-laundry/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// OutletStore defines the database methods needed by outlet handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OutletStore interface {
	ListOutlets(ctx context.Context) ([]database.Outlet, error)
	GetOutlet(ctx context.Context, id uuid.UUID) (database.Outlet, error)
	CreateOutlet(ctx context.Context, arg database.CreateOutletParams) (database.Outlet, error)
	UpdateOutlet(ctx context.Context, arg database.UpdateOutletParams) (database.Outlet, error)
}

// OutletHandler handles outlet management endpoints.
type OutletHandler struct {
	store OutletStore
}

// NewOutletHandler creates a new OutletHandler.
func NewOutletHandler(store OutletStore) *OutletHandler {
	return &OutletHandler{store: store}
}

// RegisterRoutes registers outlet endpoints on the given Chi router.
// Mounted at /outlets; write operations are owner-only via the router.
func (h *OutletHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{oid}", h.Get)
	r.Put("/{oid}", h.Update)
}

// --- Request / Response types ---

type outletRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type outletResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func dbOutletToResponse(o database.Outlet) outletResponse {
	resp := outletResponse{
		ID:        o.ID,
		Name:      o.Name,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	if o.Address.Valid {
		resp.Address = &o.Address.String
	}
	if o.Phone.Valid {
		resp.Phone = &o.Phone.String
	}
	return resp
}

// --- Handlers ---

// List returns all outlets.
func (h *OutletHandler) List(w http.ResponseWriter, r *http.Request) {
	outlets, err := h.store.ListOutlets(r.Context())
	if err != nil {
		log.Printf("ERROR: list outlets: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]outletResponse, len(outlets))
	for i, o := range outlets {
		resp[i] = dbOutletToResponse(o)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single outlet.
func (h *OutletHandler) Get(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	outlet, err := h.store.GetOutlet(r.Context(), outletID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "outlet not found"})
			return
		}
		log.Printf("ERROR: get outlet: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbOutletToResponse(outlet))
}

// Create adds a new outlet.
func (h *OutletHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req outletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	outlet, err := h.store.CreateOutlet(r.Context(), database.CreateOutletParams{
		Name:    req.Name,
		Address: textOrNull(req.Address),
		Phone:   textOrNull(req.Phone),
	})
	if err != nil {
		log.Printf("ERROR: create outlet: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbOutletToResponse(outlet))
}

// Update modifies an existing outlet.
func (h *OutletHandler) Update(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	var req outletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	outlet, err := h.store.UpdateOutlet(r.Context(), database.UpdateOutletParams{
		ID:      outletID,
		Name:    req.Name,
		Address: textOrNull(req.Address),
		Phone:   textOrNull(req.Phone),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "outlet not found"})
			return
		}
		log.Printf("ERROR: update outlet: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbOutletToResponse(outlet))
}

// textOrNull wraps a string in pgtype.Text, mapping "" to NULL.
func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
