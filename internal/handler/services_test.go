package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/bersih-laundry/api/internal/database"
	"github.com/bersih-laundry/api/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Mock store ---

type mockServiceStore struct {
	services map[uuid.UUID]database.Service
}

func newMockServiceStore() *mockServiceStore {
	return &mockServiceStore{services: make(map[uuid.UUID]database.Service)}
}

func (m *mockServiceStore) ListServices(_ context.Context, arg database.ListServicesParams) ([]database.Service, error) {
	var result []database.Service
	for _, s := range m.services {
		if s.OutletID != arg.OutletID {
			continue
		}
		if arg.IsActive.Valid && s.IsActive != arg.IsActive.Bool {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (m *mockServiceStore) GetService(_ context.Context, arg database.GetServiceParams) (database.Service, error) {
	s, ok := m.services[arg.ID]
	if !ok || s.OutletID != arg.OutletID {
		return database.Service{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockServiceStore) CreateService(_ context.Context, arg database.CreateServiceParams) (database.Service, error) {
	s := database.Service{
		ID:             uuid.New(),
		OutletID:       arg.OutletID,
		Name:           arg.Name,
		UnitType:       arg.UnitType,
		Price:          arg.Price,
		EstimatedHours: arg.EstimatedHours,
		IsActive:       true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	m.services[s.ID] = s
	return s, nil
}

func (m *mockServiceStore) UpdateService(_ context.Context, arg database.UpdateServiceParams) (database.Service, error) {
	s, ok := m.services[arg.ID]
	if !ok || s.OutletID != arg.OutletID {
		return database.Service{}, pgx.ErrNoRows
	}
	s.Name = arg.Name
	s.UnitType = arg.UnitType
	s.Price = arg.Price
	s.EstimatedHours = arg.EstimatedHours
	s.IsActive = arg.IsActive
	m.services[s.ID] = s
	return s, nil
}

func setupServiceRouter(store *mockServiceStore) *chi.Mux {
	h := handler.NewServiceHandler(store)
	r := chi.NewRouter()
	r.Route("/outlets/{oid}/services", h.RegisterRoutes)
	return r
}

func seedService(store *mockServiceStore, outletID uuid.UUID, name string, active bool) database.Service {
	s := database.Service{
		ID:             uuid.New(),
		OutletID:       outletID,
		Name:           name,
		UnitType:       "kg",
		Price:          testNumeric("7000.00"),
		EstimatedHours: 48,
		IsActive:       active,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	store.services[s.ID] = s
	return s
}

// --- Tests ---

func TestServiceCreate_Valid(t *testing.T) {
	store := newMockServiceStore()
	router := setupServiceRouter(store)
	outletID := uuid.New()

	rr := doRequest(t, router, "POST", "/outlets/"+outletID.String()+"/services", map[string]interface{}{
		"name":            "Cuci Kering Setrika",
		"unit_type":       "kg",
		"price":           "7000",
		"estimated_hours": 48,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeOrderResponse(t, rr)
	if resp["name"] != "Cuci Kering Setrika" {
		t.Errorf("name: got %v", resp["name"])
	}
	if resp["price"] != "7000.00" {
		t.Errorf("price: got %v, want 7000.00", resp["price"])
	}
	if resp["is_active"] != true {
		t.Errorf("is_active: got %v, want true", resp["is_active"])
	}
}

func TestServiceCreate_DefaultEstimatedHours(t *testing.T) {
	store := newMockServiceStore()
	router := setupServiceRouter(store)
	outletID := uuid.New()

	rr := doRequest(t, router, "POST", "/outlets/"+outletID.String()+"/services", map[string]interface{}{
		"name":      "Bed Cover",
		"unit_type": "pcs",
		"price":     "25000",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeOrderResponse(t, rr)
	if resp["estimated_hours"].(float64) != 48 {
		t.Errorf("estimated_hours: got %v, want 48", resp["estimated_hours"])
	}
}

func TestServiceCreate_Validation(t *testing.T) {
	router := setupServiceRouter(newMockServiceStore())
	path := "/outlets/" + uuid.New().String() + "/services"

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"unit_type": "kg", "price": "7000"}},
		{"bad unit type", map[string]interface{}{"name": "X", "unit_type": "liter", "price": "7000"}},
		{"unparseable price", map[string]interface{}{"name": "X", "unit_type": "kg", "price": "tujuh ribu"}},
		{"negative price", map[string]interface{}{"name": "X", "unit_type": "kg", "price": "-7000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, "POST", path, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
			}
		})
	}
}

func TestServiceList_HidesInactiveByDefault(t *testing.T) {
	store := newMockServiceStore()
	outletID := uuid.New()
	seedService(store, outletID, "Cuci Kering", true)
	seedService(store, outletID, "Layanan Lama", false)
	router := setupServiceRouter(store)

	rr := doRequest(t, router, "GET", "/outlets/"+outletID.String()+"/services", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp []map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 active service, got %d", len(resp))
	}

	rr = doRequest(t, router, "GET", "/outlets/"+outletID.String()+"/services?include_inactive=true", nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 services with include_inactive, got %d", len(resp))
	}
}

func TestServiceUpdate_Deactivate(t *testing.T) {
	store := newMockServiceStore()
	outletID := uuid.New()
	svc := seedService(store, outletID, "Cuci Kering", true)
	router := setupServiceRouter(store)

	rr := doRequest(t, router, "PUT", "/outlets/"+outletID.String()+"/services/"+svc.ID.String(), map[string]interface{}{
		"name":            svc.Name,
		"unit_type":       "kg",
		"price":           "7500",
		"estimated_hours": 48,
		"is_active":       false,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	if store.services[svc.ID].IsActive {
		t.Error("expected service to be deactivated")
	}
	if got := numericString(t, store.services[svc.ID].Price); got != "7500.00" {
		t.Errorf("price after update: got %s, want 7500.00", got)
	}
}

func TestServiceGet_NotFound(t *testing.T) {
	router := setupServiceRouter(newMockServiceStore())

	rr := doRequest(t, router, "GET", "/outlets/"+uuid.New().String()+"/services/"+uuid.New().String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// numericString renders a pgtype.Numeric for assertions.
func numericString(t *testing.T, n pgtype.Numeric) string {
	t.Helper()
	v, err := n.Value()
	if err != nil || v == nil {
		t.Fatalf("numeric value: %v", err)
	}
	return v.(string)
}
