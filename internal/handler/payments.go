package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/bersih-laundry/api/internal/database"
	"github.com/bersih-laundry/api/internal/enum"
	"github.com/bersih-laundry/api/internal/middleware"
	"github.com/bersih-laundry/api/internal/payment"
	"github.com/bersih-laundry/api/internal/service"
	"github.com/bersih-laundry/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// PaymentStore defines the database methods needed by payment handlers.
type PaymentStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, arg database.GetOrderForUpdateParams) (database.Order, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	SumPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error)
}

// NewPaymentStore creates a PaymentStore from a DBTX (pool or tx).
type NewPaymentStore func(db database.DBTX) PaymentStore

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	store    PaymentStore
	pool     service.TxBeginner
	newStore NewPaymentStore
	hub      Broadcaster
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(store PaymentStore, pool service.TxBeginner, newStore NewPaymentStore, hub Broadcaster) *PaymentHandler {
	return &PaymentHandler{store: store, pool: pool, newStore: newStore, hub: hub}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
// Expected to be mounted at /outlets/{oid}/orders/{id}/payments
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Add)
	r.Get("/", h.List)
}

// --- Request / Response types ---

type addPaymentRequest struct {
	PaymentMethod   string `json:"payment_method"`
	Amount          string `json:"amount"`
	ReferenceNumber string `json:"reference_number"`
}

// addPaymentResponse returns the recorded payment together with the order and
// its balance after the payment, so the cashier screen refreshes in one shot.
type addPaymentResponse struct {
	Payment   paymentResponse `json:"payment"`
	Order     orderResponse   `json:"order"`
	AmountDue string          `json:"amount_due"`
}

// paymentEventPayload is pushed over the websocket when a payment lands.
type paymentEventPayload struct {
	OrderID   uuid.UUID `json:"order_id"`
	OrderCode string    `json:"order_code"`
	Amount    string    `json:"amount"`
	AmountDue string    `json:"amount_due"`
}

// --- Handlers ---

// Add handles POST /outlets/{oid}/orders/{id}/payments.
// The amount in the request is what the customer tendered; the portion applied
// to the bill is capped at the outstanding balance, and for cash the excess
// comes back as change.
func (h *PaymentHandler) Add(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req addPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.PaymentMethod == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment_method is required"})
		return
	}
	method := enum.PaymentMethod(req.PaymentMethod)
	if !isValidPaymentMethod(method) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_method"})
		return
	}

	if req.Amount == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount is required"})
		return
	}
	tendered, err := decimal.NewFromString(req.Amount)
	if err != nil || tendered.LessThanOrEqual(decimal.Zero) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be positive"})
		return
	}
	if len(tendered.Truncate(0).String()) > payment.MaxAmountDigits {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount is too large"})
		return
	}

	var referenceNumber pgtype.Text
	if req.ReferenceNumber != "" {
		referenceNumber = pgtype.Text{String: req.ReferenceNumber, Valid: true}
	}

	// Begin transaction BEFORE reading order state to prevent TOCTOU races.
	// Two concurrent payments could both pass the balance check outside a tx.
	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		log.Printf("ERROR: begin tx for add payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(r.Context())

	txStore := h.newStore(tx)

	// Lock the order row (FOR NO KEY UPDATE) to serialize concurrent payment inserts
	order, err := txStore.GetOrderForUpdate(r.Context(), database.GetOrderForUpdateParams{
		ID:       orderID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for add payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	totalPaid, err := txStore.SumPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: sum payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	due := payment.RemainingDue(numericToDecimal(order.TotalAmount), numericToDecimal(totalPaid))
	if due.IsZero() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order is already fully paid"})
		return
	}

	preview := payment.ComputePreview(due, tendered, method)

	var amountReceived, changeAmount pgtype.Numeric
	if method == enum.PaymentMethodCash {
		amountReceived = decimalToNumeric(preview.Tendered)
		changeAmount = decimalToNumeric(preview.Change)
	}

	recorded, err := txStore.CreatePayment(r.Context(), database.CreatePaymentParams{
		OrderID:         orderID,
		PaymentMethod:   string(method),
		Amount:          decimalToNumeric(preview.Applied),
		AmountReceived:  amountReceived,
		ChangeAmount:    changeAmount,
		ReferenceNumber: referenceNumber,
		ProcessedBy:     claims.UserID,
	})
	if err != nil {
		log.Printf("ERROR: create payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		log.Printf("ERROR: commit tx for add payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	remaining := due.Sub(preview.Applied)

	h.hub.BroadcastToOutlet(outletID, ws.NewEvent(ws.EventOrderPayment, paymentEventPayload{
		OrderID:   order.ID,
		OrderCode: order.OrderCode,
		Amount:    preview.Applied.StringFixed(2),
		AmountDue: remaining.StringFixed(2),
	}))

	writeJSON(w, http.StatusCreated, addPaymentResponse{
		Payment:   dbPaymentToResponse(recorded),
		Order:     dbOrderToResponse(order),
		AmountDue: remaining.StringFixed(2),
	})
}

// List handles GET /outlets/{oid}/orders/{id}/payments.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	// Verify order exists and belongs to outlet
	_, err = h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:       orderID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for list payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	payments, err := h.store.ListPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = dbPaymentToResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func isValidPaymentMethod(pm enum.PaymentMethod) bool {
	switch pm {
	case enum.PaymentMethodCash,
		enum.PaymentMethodTransfer,
		enum.PaymentMethodOther:
		return true
	}
	return false
}
