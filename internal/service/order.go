package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bersih-laundry/api/internal/database"
	"github.com/bersih-laundry/api/internal/enum"
	"github.com/bersih-laundry/api/internal/status"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const (
	maxOrderCodeRetries = 3
	orderCodeFormat     = "BSH-%06d"

	// fallback when an item's service has no estimate configured
	defaultEstimatedHours = 48
)

// Errors returned by the order service.
var (
	ErrEmptyItems         = errors.New("items are required")
	ErrInvalidQuantity    = errors.New("quantity must be > 0")
	ErrInvalidServiceID   = errors.New("invalid service_id")
	ErrServiceNotFound    = errors.New("service not found in outlet")
	ErrCustomerName       = errors.New("customer name is required")
	ErrCustomerPhone      = errors.New("customer phone is required")
	ErrInvalidShippingFee = errors.New("invalid shipping_fee")
	ErrInvalidPromotionID = errors.New("invalid promotion_id")
	ErrPromotionNotFound  = errors.New("promotion not found or not active")
	ErrPromotionMinimum   = errors.New("order subtotal below promotion minimum")
	ErrPickupAddress      = errors.New("pickup_address is required for pickup-delivery orders")
	ErrInvalidCourierID   = errors.New("invalid courier_id")
	ErrDuplicateInvoiceNo = errors.New("invoice number already in use")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderSeq(ctx context.Context, outletID uuid.UUID) (int32, error)
	GetCustomerByPhone(ctx context.Context, arg database.GetCustomerByPhoneParams) (database.Customer, error)
	CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error)
	GetServiceForOrder(ctx context.Context, arg database.GetServiceParams) (database.Service, error)
	GetActivePromotion(ctx context.Context, arg database.GetPromotionParams) (database.Promotion, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	OutletID         uuid.UUID
	CreatedBy        uuid.UUID
	CustomerName     string
	CustomerPhone    string
	CustomerAddress  string
	IsPickupDelivery bool
	PickupAddress    string
	DeliveryAddress  string
	CourierID        string
	InvoiceNo        string
	Notes            string
	ShippingFee      string
	PromotionID      string
	Items            []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single service line. Quantity is a decimal
// string: kg services take fractional amounts ("3.5"), pcs take whole ones.
type CreateOrderItemRequest struct {
	ServiceID string
	Quantity  string
	Notes     string
}

// CreateOrderResult is the full created order with its customer and items.
type CreateOrderResult struct {
	Order    database.Order
	Customer database.Customer
	Items    []database.OrderItem
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// preparedItem holds a validated order item ready to insert.
type preparedItem struct {
	params         database.CreateOrderItemParams
	estimatedHours int32
}

// CreateOrder validates, prices, and creates an order atomically, upserting
// the customer by phone. Retries up to maxOrderCodeRetries times on
// order_code unique constraint violations (race condition where concurrent
// transactions read the same MAX).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, ErrCustomerName
	}
	if NormalizePhone(req.CustomerPhone) == "" {
		return nil, ErrCustomerPhone
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if req.IsPickupDelivery && strings.TrimSpace(req.PickupAddress) == "" {
		return nil, ErrPickupAddress
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderCodeRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if database.IsUniqueViolation(err, "orders_outlet_id_order_code_key") {
			lastErr = err
			continue
		}
		if database.IsUniqueViolation(err, "idx_orders_outlet_invoice") {
			return nil, ErrDuplicateInvoiceNo
		}
		return nil, err
	}
	return nil, lastErr
}

// createOrderTx executes the full order creation in a single transaction.
func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Generate order code ---
	seq, err := store.GetNextOrderSeq(ctx, req.OutletID)
	if err != nil {
		return nil, fmt.Errorf("get next order seq: %w", err)
	}
	orderCode := fmt.Sprintf(orderCodeFormat, seq)

	// --- Upsert customer by normalized phone ---
	customer, err := s.upsertCustomer(ctx, store, req)
	if err != nil {
		return nil, err
	}

	// --- Process items: validate + price snapshots ---
	subtotal := decimal.Zero
	maxHours := int32(0)
	var items []preparedItem

	for i, item := range req.Items {
		serviceID, err := uuid.Parse(item.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidServiceID)
		}

		qty, err := decimal.NewFromString(item.Quantity)
		if err != nil || qty.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}

		svc, err := store.GetServiceForOrder(ctx, database.GetServiceParams{
			ID:       serviceID,
			OutletID: req.OutletID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrServiceNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get service: %w", i, err)
		}

		// pcs services only take whole quantities
		if svc.UnitType == enum.UnitTypePcs && !qty.Equal(qty.Truncate(0)) {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}

		unitPrice := numericToDecimal(svc.Price)
		lineSubtotal := unitPrice.Mul(qty)
		subtotal = subtotal.Add(lineSubtotal)

		hours := svc.EstimatedHours
		if hours <= 0 {
			hours = defaultEstimatedHours
		}
		if hours > maxHours {
			maxHours = hours
		}

		itemNotes := pgtype.Text{}
		if item.Notes != "" {
			itemNotes = pgtype.Text{String: item.Notes, Valid: true}
		}

		items = append(items, preparedItem{
			params: database.CreateOrderItemParams{
				ServiceID:   serviceID,
				ServiceName: svc.Name,
				UnitType:    svc.UnitType,
				Quantity:    decimalToNumeric(qty),
				UnitPrice:   decimalToNumeric(unitPrice),
				Subtotal:    decimalToNumeric(lineSubtotal),
				Notes:       itemNotes,
			},
			estimatedHours: hours,
		})
	}

	// --- Shipping fee (pickup-delivery only) ---
	shippingFee := decimal.Zero
	if req.IsPickupDelivery && req.ShippingFee != "" {
		shippingFee, err = decimal.NewFromString(req.ShippingFee)
		if err != nil || shippingFee.IsNegative() {
			return nil, ErrInvalidShippingFee
		}
	}

	// --- Promotion discount ---
	promotionID := pgtype.UUID{}
	discount := decimal.Zero
	if req.PromotionID != "" {
		pid, err := uuid.Parse(req.PromotionID)
		if err != nil {
			return nil, ErrInvalidPromotionID
		}
		promo, err := store.GetActivePromotion(ctx, database.GetPromotionParams{
			ID:       pid,
			OutletID: req.OutletID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrPromotionNotFound
			}
			return nil, fmt.Errorf("get promotion: %w", err)
		}
		if promo.MinOrderAmount.Valid && subtotal.LessThan(numericToDecimal(promo.MinOrderAmount)) {
			return nil, ErrPromotionMinimum
		}
		value := numericToDecimal(promo.Value)
		if promo.PromoType == enum.PromoTypePercentage {
			discount = subtotal.Mul(value).Div(decimal.NewFromInt(100))
		} else {
			discount = value
		}
		promotionID = pgtype.UUID{Bytes: pid, Valid: true}
	}

	// total never goes negative, even when a fixed discount exceeds the bill
	total := subtotal.Add(shippingFee).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	// --- Courier track setup ---
	courierID := pgtype.UUID{}
	courierStatus := pgtype.Text{}
	pickupAddress := pgtype.Text{}
	deliveryAddress := pgtype.Text{}
	if req.IsPickupDelivery {
		courierStatus = pgtype.Text{String: string(status.CourierPickupPending), Valid: true}
		pickupAddress = pgtype.Text{String: req.PickupAddress, Valid: true}
		if req.DeliveryAddress != "" {
			deliveryAddress = pgtype.Text{String: req.DeliveryAddress, Valid: true}
		}
		if req.CourierID != "" {
			cid, err := uuid.Parse(req.CourierID)
			if err != nil {
				return nil, ErrInvalidCourierID
			}
			courierID = pgtype.UUID{Bytes: cid, Valid: true}
		}
	}

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	invoiceNo := pgtype.Text{}
	if no := strings.TrimSpace(req.InvoiceNo); no != "" {
		invoiceNo = pgtype.Text{String: no, Valid: true}
	}

	estimatedCompletion := pgtype.Timestamptz{
		Time:  time.Now().Add(time.Duration(maxHours) * time.Hour),
		Valid: true,
	}

	// --- Insert order ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OutletID:              req.OutletID,
		OrderCode:             orderCode,
		InvoiceNo:             invoiceNo,
		CustomerID:            customer.ID,
		CourierID:             courierID,
		IsPickupDelivery:      req.IsPickupDelivery,
		PickupAddress:         pickupAddress,
		DeliveryAddress:       deliveryAddress,
		LaundryStatus:         string(status.LaundryReceived),
		CourierStatus:         courierStatus,
		Notes:                 notes,
		Subtotal:              decimalToNumeric(subtotal),
		ShippingFee:           decimalToNumeric(shippingFee),
		PromotionID:           promotionID,
		DiscountAmount:        decimalToNumeric(discount),
		TotalAmount:           decimalToNumeric(total),
		EstimatedCompletionAt: estimatedCompletion,
		CreatedBy:             req.CreatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Insert items ---
	var created []database.OrderItem
	for _, pi := range items {
		pi.params.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, pi.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		created = append(created, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{
		Order:    order,
		Customer: customer,
		Items:    created,
	}, nil
}

// upsertCustomer finds the outlet's customer by normalized phone, creating a
// new record when none exists.
func (s *OrderService) upsertCustomer(ctx context.Context, store OrderStore, req CreateOrderRequest) (database.Customer, error) {
	phone := NormalizePhone(req.CustomerPhone)

	customer, err := store.GetCustomerByPhone(ctx, database.GetCustomerByPhoneParams{
		OutletID: req.OutletID,
		Phone:    phone,
	})
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Customer{}, fmt.Errorf("get customer by phone: %w", err)
	}

	address := pgtype.Text{}
	if req.CustomerAddress != "" {
		address = pgtype.Text{String: req.CustomerAddress, Valid: true}
	}
	customer, err = store.CreateCustomer(ctx, database.CreateCustomerParams{
		OutletID: req.OutletID,
		Name:     strings.TrimSpace(req.CustomerName),
		Phone:    phone,
		Address:  address,
	})
	if err != nil {
		return database.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return customer, nil
}

// NormalizePhone reduces a phone number to canonical digit form, folding the
// +62 country prefix into the local leading zero.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "62") && len(digits) > 4 {
		digits = "0" + digits[2:]
	}
	return digits
}

// --- Helpers ---

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
