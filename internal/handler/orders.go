package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bersih-laundry/api/internal/bucket"
	"github.com/bersih-laundry/api/internal/database"
	"github.com/bersih-laundry/api/internal/middleware"
	"github.com/bersih-laundry/api/internal/service"
	"github.com/bersih-laundry/api/internal/status"
	"github.com/bersih-laundry/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

// OrderStore defines the database methods needed by order read/update handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, arg database.GetOrderForUpdateParams) (database.Order, error)
	ListOrderSummaries(ctx context.Context, arg database.ListOrderSummariesParams) ([]database.OrderSummary, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
	SumPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error)
	UpdateLaundryStatus(ctx context.Context, arg database.UpdateLaundryStatusParams) (database.Order, error)
	UpdateCourierStatus(ctx context.Context, arg database.UpdateCourierStatusParams) (database.Order, error)
	UpdateOrderCourier(ctx context.Context, arg database.UpdateOrderCourierParams) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// Broadcaster pushes events to outlet dashboards. Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToOutlet(outletID uuid.UUID, event ws.Event)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc      OrderServicer
	store    OrderStore
	pool     service.TxBeginner
	newStore NewOrderStore
	hub      Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, pool service.TxBeginner, newStore NewOrderStore, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, pool: pool, newStore: newStore, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside an outlet-scoped subrouter: /outlets/{oid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status/laundry", h.UpdateLaundryStatus)
	r.Patch("/{id}/status/courier", h.UpdateCourierStatus)
	r.Post("/{id}/courier", h.AssignCourier)
}

// --- Request / Response types ---

type createOrderRequest struct {
	CustomerName     string                   `json:"customer_name"`
	CustomerPhone    string                   `json:"customer_phone"`
	CustomerAddress  string                   `json:"customer_address"`
	IsPickupDelivery bool                     `json:"is_pickup_delivery"`
	PickupAddress    string                   `json:"pickup_address"`
	DeliveryAddress  string                   `json:"delivery_address"`
	CourierID        string                   `json:"courier_id"`
	InvoiceNo        string                   `json:"invoice_no"`
	Notes            string                   `json:"notes"`
	ShippingFee      string                   `json:"shipping_fee"`
	PromotionID      string                   `json:"promotion_id"`
	Items            []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	ServiceID string `json:"service_id"`
	Quantity  string `json:"quantity"`
	Notes     string `json:"notes"`
}

type orderResponse struct {
	ID                    uuid.UUID           `json:"id"`
	OutletID              uuid.UUID           `json:"outlet_id"`
	OrderCode             string              `json:"order_code"`
	InvoiceNo             *string             `json:"invoice_no"`
	CustomerID            uuid.UUID           `json:"customer_id"`
	CourierID             *string             `json:"courier_id"`
	IsPickupDelivery      bool                `json:"is_pickup_delivery"`
	PickupAddress         *string             `json:"pickup_address"`
	DeliveryAddress       *string             `json:"delivery_address"`
	LaundryStatus         string              `json:"laundry_status"`
	LaundryStatusLabel    string              `json:"laundry_status_label"`
	CourierStatus         *string             `json:"courier_status"`
	CourierStatusLabel    *string             `json:"courier_status_label"`
	Notes                 *string             `json:"notes"`
	Subtotal              string              `json:"subtotal"`
	ShippingFee           string              `json:"shipping_fee"`
	PromotionID           *string             `json:"promotion_id"`
	DiscountAmount        string              `json:"discount_amount"`
	TotalAmount           string              `json:"total_amount"`
	EstimatedCompletionAt *time.Time          `json:"estimated_completion_at"`
	CreatedBy             uuid.UUID           `json:"created_by"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
	Items                 []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ServiceID   uuid.UUID `json:"service_id"`
	ServiceName string    `json:"service_name"`
	UnitType    string    `json:"unit_type"`
	Quantity    string    `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Subtotal    string    `json:"subtotal"`
	Notes       *string   `json:"notes"`
}

type paymentResponse struct {
	ID              uuid.UUID `json:"id"`
	OrderID         uuid.UUID `json:"order_id"`
	PaymentMethod   string    `json:"payment_method"`
	Amount          string    `json:"amount"`
	AmountReceived  *string   `json:"amount_received"`
	ChangeAmount    *string   `json:"change_amount"`
	ReferenceNumber *string   `json:"reference_number"`
	ProcessedBy     uuid.UUID `json:"processed_by"`
	ProcessedAt     time.Time `json:"processed_at"`
}

// orderDetailResponse extends orderResponse with payments and the balance.
type orderDetailResponse struct {
	orderResponse
	Payments  []paymentResponse `json:"payments"`
	AmountDue string            `json:"amount_due"`
}

// orderSummaryResponse is the list-view shape: the order plus its customer,
// outstanding balance, and resolved bucket.
type orderSummaryResponse struct {
	orderResponse
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	AmountDue     string `json:"amount_due"`
	Bucket        string `json:"bucket"`
}

// orderListResponse wraps a list of orders with bucket counts and pagination.
type orderListResponse struct {
	Orders []orderSummaryResponse `json:"orders"`
	Counts map[string]int         `json:"counts"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type assignCourierRequest struct {
	CourierID string `json:"courier_id"`
}

// statusEventPayload is what gets pushed over the websocket on status changes.
type statusEventPayload struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderCode     string    `json:"order_code"`
	LaundryStatus string    `json:"laundry_status"`
	CourierStatus *string   `json:"courier_status"`
}

// --- Handlers ---

// Create handles POST /outlets/{oid}/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.CustomerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_name is required"})
		return
	}
	if req.CustomerPhone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_phone is required"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	svcItems := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		svcItems[i] = service.CreateOrderItemRequest{
			ServiceID: item.ServiceID,
			Quantity:  item.Quantity,
			Notes:     item.Notes,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		OutletID:         outletID,
		CreatedBy:        claims.UserID,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CustomerAddress:  req.CustomerAddress,
		IsPickupDelivery: req.IsPickupDelivery,
		PickupAddress:    req.PickupAddress,
		DeliveryAddress:  req.DeliveryAddress,
		CourierID:        req.CourierID,
		InvoiceNo:        req.InvoiceNo,
		Notes:            req.Notes,
		ShippingFee:      req.ShippingFee,
		PromotionID:      req.PromotionID,
		Items:            svcItems,
	})
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if errors.Is(err, service.ErrDuplicateInvoiceNo) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.hub.BroadcastToOutlet(outletID, ws.NewEvent(ws.EventOrderCreated, statusEventPayload{
		OrderID:       result.Order.ID,
		OrderCode:     result.Order.OrderCode,
		LaundryStatus: result.Order.LaundryStatus,
		CourierStatus: textOrNil(result.Order.CourierStatus),
	}))

	resp := dbOrderToResponse(result.Order)
	resp.Items = make([]orderItemResponse, len(result.Items))
	for i, item := range result.Items {
		resp.Items[i] = dbOrderItemToResponse(item)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /outlets/{oid}/orders.
// Orders come back grouped into dashboard buckets: the bucket and search
// filters are applied after classification, and counts always cover the
// whole fetched window so the tab badges stay consistent with each other.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 200 {
		limit = 200
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrderSummariesParams{
		OutletID: outletID,
		Limit:    int32(limit),
		Offset:   int32(offset),
	}

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t, Valid: true}
	}

	summaries, err := h.store.ListOrderSummaries(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	bucketFilter := r.URL.Query().Get("bucket")
	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))

	counts := make(map[string]int, len(bucket.All()))
	for _, b := range bucket.All() {
		counts[string(b)] = 0
	}

	resp := make([]orderSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		b := bucket.Classify(bucket.Order{
			LaundryStatus:    s.LaundryStatus,
			CourierStatus:    s.CourierStatus.String,
			IsPickupDelivery: s.IsPickupDelivery,
		})
		counts[string(b)]++

		if bucketFilter != "" && b != bucket.Normalize(bucketFilter) {
			continue
		}
		if search != "" && !summaryMatches(s, search) {
			continue
		}

		resp = append(resp, orderSummaryResponse{
			orderResponse: dbOrderToResponse(s.Order),
			CustomerName:  s.CustomerName,
			CustomerPhone: s.CustomerPhone,
			AmountDue:     numericToString(s.AmountDue),
			Bucket:        string(b),
		})
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Counts: counts,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /outlets/{oid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:       orderID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	payments, err := h.store.ListPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	orderResp := dbOrderToResponse(order)
	orderResp.Items = make([]orderItemResponse, len(items))
	for i, item := range items {
		orderResp.Items[i] = dbOrderItemToResponse(item)
	}

	paymentResps := make([]paymentResponse, len(payments))
	paid := decimal.Zero
	for i, p := range payments {
		paymentResps[i] = dbPaymentToResponse(p)
		paid = paid.Add(numericToDecimal(p.Amount))
	}

	due := numericToDecimal(order.TotalAmount).Sub(paid)
	if due.IsNegative() {
		due = decimal.Zero
	}

	writeJSON(w, http.StatusOK, orderDetailResponse{
		orderResponse: orderResp,
		Payments:      paymentResps,
		AmountDue:     due.StringFixed(2),
	})
}

// UpdateLaundryStatus handles PATCH /outlets/{oid}/orders/{id}/status/laundry.
// The order row is locked for the duration so the settle check and the status
// write cannot interleave with a concurrent payment or advance.
func (h *OrderHandler) UpdateLaundryStatus(w http.ResponseWriter, r *http.Request) {
	outletID, orderID, next, ok := h.parseStatusUpdate(w, r)
	if !ok {
		return
	}

	nextStatus, err := status.ParseLaundryStatus(next)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		log.Printf("ERROR: begin tx for laundry status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(r.Context())

	txStore := h.newStore(tx)

	order, err := txStore.GetOrderForUpdate(r.Context(), database.GetOrderForUpdateParams{
		ID:       orderID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for laundry status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	current, err := status.ParseLaundryStatus(order.LaundryStatus)
	if err != nil {
		log.Printf("ERROR: order %s has invalid laundry status %q", order.ID, order.LaundryStatus)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := status.ValidateLaundryTransition(current, nextStatus); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	// Completing the laundry track hands the goods over, so the bill must be
	// settled first.
	if nextStatus == status.LaundryCompleted {
		settled, err := h.orderIsSettled(r.Context(), txStore, order)
		if err != nil {
			log.Printf("ERROR: check balance for laundry completion: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if !settled {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order has an outstanding balance"})
			return
		}
	}

	updated, err := txStore.UpdateLaundryStatus(r.Context(), database.UpdateLaundryStatusParams{
		ID:            orderID,
		OutletID:      outletID,
		LaundryStatus: string(nextStatus),
		PrevStatus:    string(current),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, please retry"})
			return
		}
		log.Printf("ERROR: update laundry status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		log.Printf("ERROR: commit laundry status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.hub.BroadcastToOutlet(outletID, ws.NewEvent(ws.EventLaundryStatus, statusEventPayload{
		OrderID:       updated.ID,
		OrderCode:     updated.OrderCode,
		LaundryStatus: updated.LaundryStatus,
		CourierStatus: textOrNil(updated.CourierStatus),
	}))

	writeJSON(w, http.StatusOK, dbOrderToResponse(updated))
}

// UpdateCourierStatus handles PATCH /outlets/{oid}/orders/{id}/status/courier.
func (h *OrderHandler) UpdateCourierStatus(w http.ResponseWriter, r *http.Request) {
	outletID, orderID, next, ok := h.parseStatusUpdate(w, r)
	if !ok {
		return
	}

	nextStatus, err := status.ParseCourierStatus(next)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		log.Printf("ERROR: begin tx for courier status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(r.Context())

	txStore := h.newStore(tx)

	order, err := txStore.GetOrderForUpdate(r.Context(), database.GetOrderForUpdateParams{
		ID:       orderID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for courier status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if !order.IsPickupDelivery || !order.CourierStatus.Valid {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order has no courier track"})
		return
	}

	current, err := status.ParseCourierStatus(order.CourierStatus.String)
	if err != nil {
		log.Printf("ERROR: order %s has invalid courier status %q", order.ID, order.CourierStatus.String)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	laundry, err := status.ParseLaundryStatus(order.LaundryStatus)
	if err != nil {
		log.Printf("ERROR: order %s has invalid laundry status %q", order.ID, order.LaundryStatus)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := status.ValidateCourierTransition(current, nextStatus, laundry); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	// Handing the laundry to the customer closes the order, so the bill must
	// be settled first.
	if nextStatus == status.CourierDelivered {
		settled, err := h.orderIsSettled(r.Context(), txStore, order)
		if err != nil {
			log.Printf("ERROR: check balance for delivery: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if !settled {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order has an outstanding balance"})
			return
		}
	}

	updated, err := txStore.UpdateCourierStatus(r.Context(), database.UpdateCourierStatusParams{
		ID:            orderID,
		OutletID:      outletID,
		CourierStatus: pgtype.Text{String: string(nextStatus), Valid: true},
		PrevStatus:    pgtype.Text{String: string(current), Valid: true},
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, please retry"})
			return
		}
		log.Printf("ERROR: update courier status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		log.Printf("ERROR: commit courier status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.hub.BroadcastToOutlet(outletID, ws.NewEvent(ws.EventCourierStatus, statusEventPayload{
		OrderID:       updated.ID,
		OrderCode:     updated.OrderCode,
		LaundryStatus: updated.LaundryStatus,
		CourierStatus: textOrNil(updated.CourierStatus),
	}))

	writeJSON(w, http.StatusOK, dbOrderToResponse(updated))
}

// AssignCourier handles POST /outlets/{oid}/orders/{id}/courier. It assigns
// (or clears) the courier responsible for a pickup/delivery order without
// touching the courier status track.
func (h *OrderHandler) AssignCourier(w http.ResponseWriter, r *http.Request) {
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

	var req assignCourierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	courierID := pgtype.UUID{}
	if req.CourierID != "" {
		cid, err := uuid.Parse(req.CourierID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid courier_id"})
			return
		}
		courierID = pgtype.UUID{Bytes: cid, Valid: true}
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:       orderID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for courier assignment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if !order.IsPickupDelivery {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order has no courier track"})
		return
	}

	updated, err := h.store.UpdateOrderCourier(r.Context(), database.UpdateOrderCourierParams{
		ID:        orderID,
		OutletID:  outletID,
		CourierID: courierID,
	})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid courier_id"})
			return
		}
		log.Printf("ERROR: assign courier: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbOrderToResponse(updated))
}

// --- Helpers ---

// parseStatusUpdate pulls the common pieces out of a status update request.
func (h *OrderHandler) parseStatusUpdate(w http.ResponseWriter, r *http.Request) (outletID, orderID uuid.UUID, next string, ok bool) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid outlet ID"})
		return uuid.Nil, uuid.Nil, "", false
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return uuid.Nil, uuid.Nil, "", false
	}

	orderID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.Nil, uuid.Nil, "", false
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return uuid.Nil, uuid.Nil, "", false
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return uuid.Nil, uuid.Nil, "", false
	}

	return outletID, orderID, req.Status, true
}

// orderIsSettled re-computes the outstanding balance inside the transaction.
func (h *OrderHandler) orderIsSettled(ctx context.Context, store OrderStore, order database.Order) (bool, error) {
	paid, err := store.SumPaymentsByOrder(ctx, order.ID)
	if err != nil {
		return false, err
	}
	return numericToDecimal(paid).GreaterThanOrEqual(numericToDecimal(order.TotalAmount)), nil
}

// summaryMatches reports whether the order matches a lowercased search term,
// checking the invoice number, order code, customer name and phone, and
// status labels.
func summaryMatches(s database.OrderSummary, search string) bool {
	if strings.Contains(strings.ToLower(s.OrderCode), search) {
		return true
	}
	if s.InvoiceNo.Valid && strings.Contains(strings.ToLower(s.InvoiceNo.String), search) {
		return true
	}
	if strings.Contains(strings.ToLower(s.CustomerName), search) {
		return true
	}
	if strings.Contains(s.CustomerPhone, search) {
		return true
	}
	if strings.Contains(strings.ToLower(status.FormatStatusLabel(s.LaundryStatus)), search) {
		return true
	}
	if s.CourierStatus.Valid &&
		strings.Contains(strings.ToLower(status.FormatStatusLabel(s.CourierStatus.String)), search) {
		return true
	}
	return false
}

// isValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidServiceID) ||
		errors.Is(err, service.ErrServiceNotFound) ||
		errors.Is(err, service.ErrCustomerName) ||
		errors.Is(err, service.ErrCustomerPhone) ||
		errors.Is(err, service.ErrInvalidShippingFee) ||
		errors.Is(err, service.ErrInvalidPromotionID) ||
		errors.Is(err, service.ErrPromotionNotFound) ||
		errors.Is(err, service.ErrPromotionMinimum) ||
		errors.Is(err, service.ErrPickupAddress) ||
		errors.Is(err, service.ErrInvalidCourierID)
}

func textOrNil(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func numericToString(n pgtype.Numeric) string {
	return numericToDecimal(n).StringFixed(2)
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

// dbOrderToResponse converts a database.Order to an orderResponse.
func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:                 o.ID,
		OutletID:           o.OutletID,
		OrderCode:          o.OrderCode,
		InvoiceNo:          textOrNil(o.InvoiceNo),
		CustomerID:         o.CustomerID,
		IsPickupDelivery:   o.IsPickupDelivery,
		LaundryStatus:      o.LaundryStatus,
		LaundryStatusLabel: status.FormatStatusLabel(o.LaundryStatus),
		Subtotal:           numericToString(o.Subtotal),
		ShippingFee:        numericToString(o.ShippingFee),
		DiscountAmount:     numericToString(o.DiscountAmount),
		TotalAmount:        numericToString(o.TotalAmount),
		CreatedBy:          o.CreatedBy,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}

	if o.CourierID.Valid {
		s := uuid.UUID(o.CourierID.Bytes).String()
		resp.CourierID = &s
	}
	if o.PickupAddress.Valid {
		resp.PickupAddress = &o.PickupAddress.String
	}
	if o.DeliveryAddress.Valid {
		resp.DeliveryAddress = &o.DeliveryAddress.String
	}
	if o.CourierStatus.Valid {
		resp.CourierStatus = &o.CourierStatus.String
		label := status.FormatStatusLabel(o.CourierStatus.String)
		resp.CourierStatusLabel = &label
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}
	if o.PromotionID.Valid {
		s := uuid.UUID(o.PromotionID.Bytes).String()
		resp.PromotionID = &s
	}
	if o.EstimatedCompletionAt.Valid {
		resp.EstimatedCompletionAt = &o.EstimatedCompletionAt.Time
	}

	return resp
}

// dbOrderItemToResponse converts a database.OrderItem to an orderItemResponse.
func dbOrderItemToResponse(item database.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:          item.ID,
		ServiceID:   item.ServiceID,
		ServiceName: item.ServiceName,
		UnitType:    item.UnitType,
		Quantity:    numericToString(item.Quantity),
		UnitPrice:   numericToString(item.UnitPrice),
		Subtotal:    numericToString(item.Subtotal),
	}
	if item.Notes.Valid {
		resp.Notes = &item.Notes.String
	}
	return resp
}

// dbPaymentToResponse converts a database.Payment to a paymentResponse.
func dbPaymentToResponse(p database.Payment) paymentResponse {
	resp := paymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		PaymentMethod: p.PaymentMethod,
		Amount:        numericToString(p.Amount),
		ProcessedBy:   p.ProcessedBy,
		ProcessedAt:   p.ProcessedAt,
	}
	if p.AmountReceived.Valid {
		s := numericToString(p.AmountReceived)
		resp.AmountReceived = &s
	}
	if p.ChangeAmount.Valid {
		s := numericToString(p.ChangeAmount)
		resp.ChangeAmount = &s
	}
	if p.ReferenceNumber.Valid {
		resp.ReferenceNumber = &p.ReferenceNumber.String
	}
	return resp
}
