package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bersih-laundry/api/internal/database"
	"github.com/bersih-laundry/api/internal/enum"
	"github.com/bersih-laundry/api/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"
)

// --- Mock store ---

type mockUserStore struct {
	users map[uuid.UUID]database.User // keyed by user ID
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[uuid.UUID]database.User)}
}

func (m *mockUserStore) ListUsers(_ context.Context, outletID pgtype.UUID) ([]database.User, error) {
	var result []database.User
	for _, u := range m.users {
		if outletID.Valid && u.OutletID != outletID {
			continue
		}
		result = append(result, u)
	}
	return result, nil
}

func (m *mockUserStore) GetUser(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUserStore) CreateUser(_ context.Context, arg database.CreateUserParams) (database.User, error) {
	for _, u := range m.users {
		if u.Username == arg.Username {
			return database.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
		}
	}
	u := database.User{
		ID:           uuid.New(),
		Username:     arg.Username,
		PasswordHash: arg.PasswordHash,
		FullName:     arg.FullName,
		Role:         arg.Role,
		OutletID:     arg.OutletID,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserStore) UpdateUser(_ context.Context, arg database.UpdateUserParams) (database.User, error) {
	u, ok := m.users[arg.ID]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	u.FullName = arg.FullName
	u.Role = arg.Role
	u.OutletID = arg.OutletID
	u.IsActive = arg.IsActive
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserStore) UpdateUserPassword(_ context.Context, arg database.UpdateUserPasswordParams) (database.User, error) {
	u, ok := m.users[arg.ID]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	u.PasswordHash = arg.PasswordHash
	m.users[u.ID] = u
	return u, nil
}

// --- Helpers ---

func setupUserRouter(store *mockUserStore) *chi.Mux {
	h := handler.NewUserHandler(store)
	r := chi.NewRouter()
	r.Route("/users", h.RegisterRoutes)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func seedUser(store *mockUserStore, username, role string, outletID pgtype.UUID) database.User {
	u := database.User{
		ID:        uuid.New(),
		Username:  username,
		FullName:  "Staff " + username,
		Role:      role,
		OutletID:  outletID,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	store.users[u.ID] = u
	return u
}

// --- Create tests ---

func TestUserCreate_Valid(t *testing.T) {
	store := newMockUserStore()
	router := setupUserRouter(store)
	outletID := uuid.New()

	rr := doRequest(t, router, "POST", "/users", map[string]interface{}{
		"username":  "kasir1",
		"password":  "rahasia123",
		"full_name": "Siti Kasir",
		"role":      "CASHIER",
		"outlet_id": outletID.String(),
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeOrderResponse(t, rr)
	if resp["username"] != "kasir1" {
		t.Errorf("username: got %v, want kasir1", resp["username"])
	}
	if resp["role"] != "CASHIER" {
		t.Errorf("role: got %v, want CASHIER", resp["role"])
	}
	if resp["is_active"] != true {
		t.Errorf("is_active: got %v, want true", resp["is_active"])
	}

	// Password is stored hashed, never verbatim.
	var created database.User
	for _, u := range store.users {
		created = u
	}
	if created.PasswordHash == "rahasia123" {
		t.Error("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("rahasia123")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	store := newMockUserStore()
	outletID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	seedUser(store, "kasir1", enum.UserRoleCashier, outletID)
	router := setupUserRouter(store)

	rr := doRequest(t, router, "POST", "/users", map[string]interface{}{
		"username":  "kasir1",
		"password":  "rahasia123",
		"full_name": "Duplikat",
		"role":      "CASHIER",
		"outlet_id": uuid.UUID(outletID.Bytes).String(),
	})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

func TestUserCreate_Validation(t *testing.T) {
	router := setupUserRouter(newMockUserStore())
	outletID := uuid.New().String()

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing username", map[string]interface{}{"password": "rahasia123", "full_name": "X", "role": "CASHIER", "outlet_id": outletID}},
		{"short password", map[string]interface{}{"username": "a", "password": "short", "full_name": "X", "role": "CASHIER", "outlet_id": outletID}},
		{"bad role", map[string]interface{}{"username": "a", "password": "rahasia123", "full_name": "X", "role": "MANAGER", "outlet_id": outletID}},
		{"cashier without outlet", map[string]interface{}{"username": "a", "password": "rahasia123", "full_name": "X", "role": "CASHIER"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, "POST", "/users", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
			}
		})
	}
}

func TestUserCreate_OwnerNeedsNoOutlet(t *testing.T) {
	store := newMockUserStore()
	router := setupUserRouter(store)

	rr := doRequest(t, router, "POST", "/users", map[string]interface{}{
		"username":  "owner2",
		"password":  "rahasia123",
		"full_name": "Pemilik",
		"role":      "OWNER",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeOrderResponse(t, rr)
	if resp["outlet_id"] != nil {
		t.Errorf("outlet_id: got %v, want null", resp["outlet_id"])
	}
}

// --- List tests ---

func TestUserList_FilterByOutlet(t *testing.T) {
	store := newMockUserStore()
	outletID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	otherOutletID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	seedUser(store, "kasir1", enum.UserRoleCashier, outletID)
	seedUser(store, "kasir2", enum.UserRoleCashier, otherOutletID)
	router := setupUserRouter(store)

	rr := doRequest(t, router, "GET", "/users?outlet_id="+uuid.UUID(outletID.Bytes).String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp []map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 user, got %d", len(resp))
	}
	if resp[0]["username"] != "kasir1" {
		t.Errorf("username: got %v, want kasir1", resp[0]["username"])
	}
}

// --- Update tests ---

func TestUserUpdate_Deactivate(t *testing.T) {
	store := newMockUserStore()
	outletID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	user := seedUser(store, "kasir1", enum.UserRoleCashier, outletID)
	router := setupUserRouter(store)

	rr := doRequest(t, router, "PUT", "/users/"+user.ID.String(), map[string]interface{}{
		"full_name": user.FullName,
		"role":      user.Role,
		"outlet_id": uuid.UUID(outletID.Bytes).String(),
		"is_active": false,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	if store.users[user.ID].IsActive {
		t.Error("expected user to be deactivated")
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	router := setupUserRouter(newMockUserStore())

	rr := doRequest(t, router, "PUT", "/users/"+uuid.New().String(), map[string]interface{}{
		"full_name": "Ghost",
		"role":      "OWNER",
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Password tests ---

func TestUserUpdatePassword_Valid(t *testing.T) {
	store := newMockUserStore()
	outletID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	user := seedUser(store, "kasir1", enum.UserRoleCashier, outletID)
	router := setupUserRouter(store)

	rr := doRequest(t, router, "PUT", "/users/"+user.ID.String()+"/password", map[string]interface{}{
		"password": "barurahasia",
	})

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}

	if err := bcrypt.CompareHashAndPassword([]byte(store.users[user.ID].PasswordHash), []byte("barurahasia")); err != nil {
		t.Errorf("stored hash does not match new password: %v", err)
	}
}

func TestUserUpdatePassword_TooShort(t *testing.T) {
	store := newMockUserStore()
	outletID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	user := seedUser(store, "kasir1", enum.UserRoleCashier, outletID)
	router := setupUserRouter(store)

	rr := doRequest(t, router, "PUT", "/users/"+user.ID.String()+"/password", map[string]interface{}{
		"password": "short",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
