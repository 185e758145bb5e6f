package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bersih-laundry/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	committed   bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = true
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockOrderStore implements OrderStore with configurable behavior.
type mockOrderStore struct {
	getNextOrderSeqFn    func(ctx context.Context, outletID uuid.UUID) (int32, error)
	getCustomerByPhoneFn func(ctx context.Context, arg database.GetCustomerByPhoneParams) (database.Customer, error)
	createCustomerFn     func(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error)
	getServiceForOrderFn func(ctx context.Context, arg database.GetServiceParams) (database.Service, error)
	getActivePromotionFn func(ctx context.Context, arg database.GetPromotionParams) (database.Promotion, error)
	createOrderFn        func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createOrderItemFn    func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

func (m *mockOrderStore) GetNextOrderSeq(ctx context.Context, outletID uuid.UUID) (int32, error) {
	return m.getNextOrderSeqFn(ctx, outletID)
}
func (m *mockOrderStore) GetCustomerByPhone(ctx context.Context, arg database.GetCustomerByPhoneParams) (database.Customer, error) {
	return m.getCustomerByPhoneFn(ctx, arg)
}
func (m *mockOrderStore) CreateCustomer(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error) {
	return m.createCustomerFn(ctx, arg)
}
func (m *mockOrderStore) GetServiceForOrder(ctx context.Context, arg database.GetServiceParams) (database.Service, error) {
	return m.getServiceForOrderFn(ctx, arg)
}
func (m *mockOrderStore) GetActivePromotion(ctx context.Context, arg database.GetPromotionParams) (database.Promotion, error) {
	return m.getActivePromotionFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	return m.createOrderItemFn(ctx, arg)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

// newTestService creates an OrderService with mocked dependencies.
func newTestService(store *mockOrderStore) (*OrderService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) OrderStore { return store }
	return NewOrderService(pool, newStore), tx
}

// defaultStore returns a mockOrderStore with sensible defaults for a basic
// walk-in kg order. Individual tests override the functions they care about.
func defaultStore(outletID, serviceID uuid.UUID) *mockOrderStore {
	return &mockOrderStore{
		getNextOrderSeqFn: func(ctx context.Context, oid uuid.UUID) (int32, error) {
			return 42, nil
		},
		getCustomerByPhoneFn: func(ctx context.Context, arg database.GetCustomerByPhoneParams) (database.Customer, error) {
			return database.Customer{}, pgx.ErrNoRows
		},
		createCustomerFn: func(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error) {
			return database.Customer{
				ID:       uuid.New(),
				OutletID: arg.OutletID,
				Name:     arg.Name,
				Phone:    arg.Phone,
			}, nil
		},
		getServiceForOrderFn: func(ctx context.Context, arg database.GetServiceParams) (database.Service, error) {
			return database.Service{
				ID:             serviceID,
				OutletID:       outletID,
				Name:           "Cuci Kering Setrika",
				UnitType:       "kg",
				Price:          makeNumeric("7000"),
				EstimatedHours: 48,
				IsActive:       true,
			}, nil
		},
		getActivePromotionFn: func(ctx context.Context, arg database.GetPromotionParams) (database.Promotion, error) {
			return database.Promotion{}, pgx.ErrNoRows
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			return database.Order{
				ID:               uuid.New(),
				OutletID:         arg.OutletID,
				OrderCode:        arg.OrderCode,
				CustomerID:       arg.CustomerID,
				IsPickupDelivery: arg.IsPickupDelivery,
				LaundryStatus:    arg.LaundryStatus,
				CourierStatus:    arg.CourierStatus,
				Subtotal:         arg.Subtotal,
				ShippingFee:      arg.ShippingFee,
				DiscountAmount:   arg.DiscountAmount,
				TotalAmount:      arg.TotalAmount,
				CreatedBy:        arg.CreatedBy,
				CreatedAt:        time.Now(),
				UpdatedAt:        time.Now(),
			}, nil
		},
		createOrderItemFn: func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
			return database.OrderItem{
				ID:          uuid.New(),
				OrderID:     arg.OrderID,
				ServiceID:   arg.ServiceID,
				ServiceName: arg.ServiceName,
				UnitType:    arg.UnitType,
				Quantity:    arg.Quantity,
				UnitPrice:   arg.UnitPrice,
				Subtotal:    arg.Subtotal,
			}, nil
		},
	}
}

func basicRequest(outletID, serviceID uuid.UUID) CreateOrderRequest {
	return CreateOrderRequest{
		OutletID:      outletID,
		CreatedBy:     uuid.New(),
		CustomerName:  "Budi Santoso",
		CustomerPhone: "0812-3456-7890",
		Items: []CreateOrderItemRequest{
			{ServiceID: serviceID.String(), Quantity: "3.5"},
		},
	}
}

// --- Tests ---

func TestCreateOrderWalkIn(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()
	store := defaultStore(outletID, serviceID)

	var createdOrder database.CreateOrderParams
	inner := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		createdOrder = arg
		return inner(ctx, arg)
	}

	svc, tx := newTestService(store)
	result, err := svc.CreateOrder(context.Background(), basicRequest(outletID, serviceID))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if !tx.committed {
		t.Error("transaction not committed")
	}
	if result.Order.OrderCode != "BSH-000042" {
		t.Errorf("order code: got %s, want BSH-000042", result.Order.OrderCode)
	}
	// 3.5 kg * 7000 = 24500
	if !numericEquals(createdOrder.Subtotal, "24500") {
		t.Errorf("subtotal: got %v, want 24500", numericToDecimal(createdOrder.Subtotal))
	}
	if !numericEquals(createdOrder.TotalAmount, "24500") {
		t.Errorf("total: got %v, want 24500", numericToDecimal(createdOrder.TotalAmount))
	}
	if createdOrder.LaundryStatus != "received" {
		t.Errorf("laundry status: got %s, want received", createdOrder.LaundryStatus)
	}
	if createdOrder.CourierStatus.Valid {
		t.Error("walk-in order must not carry a courier status")
	}
	if !createdOrder.EstimatedCompletionAt.Valid {
		t.Error("estimated completion not set")
	}
	if len(result.Items) != 1 {
		t.Fatalf("items: got %d, want 1", len(result.Items))
	}
}

func TestCreateOrderPickupDelivery(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()
	store := defaultStore(outletID, serviceID)

	var createdOrder database.CreateOrderParams
	inner := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		createdOrder = arg
		return inner(ctx, arg)
	}

	req := basicRequest(outletID, serviceID)
	req.IsPickupDelivery = true
	req.PickupAddress = "Jl. Melati 7"
	req.ShippingFee = "5000"

	svc, _ := newTestService(store)
	if _, err := svc.CreateOrder(context.Background(), req); err != nil {
		t.Fatalf("create order: %v", err)
	}

	if !createdOrder.CourierStatus.Valid || createdOrder.CourierStatus.String != "pickup_pending" {
		t.Errorf("courier status: got %+v, want pickup_pending", createdOrder.CourierStatus)
	}
	if !createdOrder.PickupAddress.Valid {
		t.Error("pickup address not set")
	}
	// 24500 + 5000 shipping
	if !numericEquals(createdOrder.TotalAmount, "29500") {
		t.Errorf("total: got %v, want 29500", numericToDecimal(createdOrder.TotalAmount))
	}
}

func TestCreateOrderPickupRequiresAddress(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()

	req := basicRequest(outletID, serviceID)
	req.IsPickupDelivery = true

	svc, _ := newTestService(defaultStore(outletID, serviceID))
	_, err := svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrPickupAddress) {
		t.Errorf("error: got %v, want ErrPickupAddress", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()

	tests := []struct {
		name    string
		mutate  func(*CreateOrderRequest)
		wantErr error
	}{
		{"empty items", func(r *CreateOrderRequest) { r.Items = nil }, ErrEmptyItems},
		{"blank customer name", func(r *CreateOrderRequest) { r.CustomerName = "  " }, ErrCustomerName},
		{"blank phone", func(r *CreateOrderRequest) { r.CustomerPhone = "abc" }, ErrCustomerPhone},
		{"zero quantity", func(r *CreateOrderRequest) { r.Items[0].Quantity = "0" }, ErrInvalidQuantity},
		{"negative quantity", func(r *CreateOrderRequest) { r.Items[0].Quantity = "-2" }, ErrInvalidQuantity},
		{"bad service id", func(r *CreateOrderRequest) { r.Items[0].ServiceID = "nope" }, ErrInvalidServiceID},
		{"bad promotion id", func(r *CreateOrderRequest) { r.PromotionID = "nope" }, ErrInvalidPromotionID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := basicRequest(outletID, serviceID)
			tt.mutate(&req)

			svc, _ := newTestService(defaultStore(outletID, serviceID))
			_, err := svc.CreateOrder(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateOrderServiceNotFound(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()
	store := defaultStore(outletID, serviceID)
	store.getServiceForOrderFn = func(ctx context.Context, arg database.GetServiceParams) (database.Service, error) {
		return database.Service{}, pgx.ErrNoRows
	}

	svc, _ := newTestService(store)
	_, err := svc.CreateOrder(context.Background(), basicRequest(outletID, serviceID))
	if !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("error: got %v, want ErrServiceNotFound", err)
	}
}

func TestCreateOrderPcsRejectsFraction(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()
	store := defaultStore(outletID, serviceID)
	store.getServiceForOrderFn = func(ctx context.Context, arg database.GetServiceParams) (database.Service, error) {
		return database.Service{
			ID:       serviceID,
			OutletID: outletID,
			Name:     "Cuci Sepatu",
			UnitType: "pcs",
			Price:    makeNumeric("25000"),
			IsActive: true,
		}, nil
	}

	req := basicRequest(outletID, serviceID)
	req.Items[0].Quantity = "1.5"

	svc, _ := newTestService(store)
	_, err := svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("error: got %v, want ErrInvalidQuantity", err)
	}
}

func TestCreateOrderExistingCustomerReused(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()
	existingID := uuid.New()

	store := defaultStore(outletID, serviceID)
	store.getCustomerByPhoneFn = func(ctx context.Context, arg database.GetCustomerByPhoneParams) (database.Customer, error) {
		if arg.Phone != "081234567890" {
			t.Errorf("lookup phone: got %s, want normalized 081234567890", arg.Phone)
		}
		return database.Customer{ID: existingID, OutletID: outletID, Name: "Budi Santoso", Phone: arg.Phone}, nil
	}
	store.createCustomerFn = func(ctx context.Context, arg database.CreateCustomerParams) (database.Customer, error) {
		t.Fatal("CreateCustomer must not be called when the phone already exists")
		return database.Customer{}, nil
	}

	var createdOrder database.CreateOrderParams
	inner := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		createdOrder = arg
		return inner(ctx, arg)
	}

	svc, _ := newTestService(store)
	if _, err := svc.CreateOrder(context.Background(), basicRequest(outletID, serviceID)); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if createdOrder.CustomerID != existingID {
		t.Errorf("customer ID: got %s, want %s", createdOrder.CustomerID, existingID)
	}
}

func TestCreateOrderPercentagePromotion(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()
	promoID := uuid.New()

	store := defaultStore(outletID, serviceID)
	store.getActivePromotionFn = func(ctx context.Context, arg database.GetPromotionParams) (database.Promotion, error) {
		return database.Promotion{
			ID:        promoID,
			OutletID:  outletID,
			PromoType: "PERCENTAGE",
			Value:     makeNumeric("10"),
			IsActive:  true,
		}, nil
	}

	var createdOrder database.CreateOrderParams
	inner := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		createdOrder = arg
		return inner(ctx, arg)
	}

	req := basicRequest(outletID, serviceID)
	req.PromotionID = promoID.String()

	svc, _ := newTestService(store)
	if _, err := svc.CreateOrder(context.Background(), req); err != nil {
		t.Fatalf("create order: %v", err)
	}

	// subtotal 24500, 10% off = 2450 -> total 22050
	if !numericEquals(createdOrder.DiscountAmount, "2450") {
		t.Errorf("discount: got %v, want 2450", numericToDecimal(createdOrder.DiscountAmount))
	}
	if !numericEquals(createdOrder.TotalAmount, "22050") {
		t.Errorf("total: got %v, want 22050", numericToDecimal(createdOrder.TotalAmount))
	}
}

func TestCreateOrderFixedPromotionClampsAtZero(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()
	promoID := uuid.New()

	store := defaultStore(outletID, serviceID)
	store.getActivePromotionFn = func(ctx context.Context, arg database.GetPromotionParams) (database.Promotion, error) {
		return database.Promotion{
			ID:        promoID,
			OutletID:  outletID,
			PromoType: "FIXED_AMOUNT",
			Value:     makeNumeric("50000"),
			IsActive:  true,
		}, nil
	}

	var createdOrder database.CreateOrderParams
	inner := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		createdOrder = arg
		return inner(ctx, arg)
	}

	req := basicRequest(outletID, serviceID)
	req.PromotionID = promoID.String()

	svc, _ := newTestService(store)
	if _, err := svc.CreateOrder(context.Background(), req); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if !numericEquals(createdOrder.TotalAmount, "0") {
		t.Errorf("total: got %v, want 0", numericToDecimal(createdOrder.TotalAmount))
	}
}

func TestCreateOrderPromotionBelowMinimum(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()
	promoID := uuid.New()

	store := defaultStore(outletID, serviceID)
	store.getActivePromotionFn = func(ctx context.Context, arg database.GetPromotionParams) (database.Promotion, error) {
		return database.Promotion{
			ID:             promoID,
			OutletID:       outletID,
			PromoType:      "PERCENTAGE",
			Value:          makeNumeric("10"),
			MinOrderAmount: makeNumeric("100000"),
			IsActive:       true,
		}, nil
	}

	req := basicRequest(outletID, serviceID)
	req.PromotionID = promoID.String()

	svc, _ := newTestService(store)
	_, err := svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrPromotionMinimum) {
		t.Errorf("error: got %v, want ErrPromotionMinimum", err)
	}
}

func TestCreateOrderRetriesOnCodeConflict(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()

	attempts := 0
	store := defaultStore(outletID, serviceID)
	inner := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		attempts++
		if attempts == 1 {
			return database.Order{}, &pgconn.PgError{
				Code:           "23505",
				ConstraintName: "orders_outlet_id_order_code_key",
			}
		}
		return inner(ctx, arg)
	}

	svc, _ := newTestService(store)
	if _, err := svc.CreateOrder(context.Background(), basicRequest(outletID, serviceID)); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts: got %d, want 2", attempts)
	}
}

func TestCreateOrderCarriesInvoiceNo(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()
	store := defaultStore(outletID, serviceID)

	var createdOrder database.CreateOrderParams
	inner := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		createdOrder = arg
		return inner(ctx, arg)
	}

	req := basicRequest(outletID, serviceID)
	req.InvoiceNo = "  INV/2026/08/0042  "

	svc, _ := newTestService(store)
	if _, err := svc.CreateOrder(context.Background(), req); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if !createdOrder.InvoiceNo.Valid || createdOrder.InvoiceNo.String != "INV/2026/08/0042" {
		t.Errorf("invoice_no: got %v, want INV/2026/08/0042", createdOrder.InvoiceNo)
	}
}

func TestCreateOrderDuplicateInvoiceNo(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()

	attempts := 0
	store := defaultStore(outletID, serviceID)
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		attempts++
		return database.Order{}, &pgconn.PgError{
			Code:           "23505",
			ConstraintName: "idx_orders_outlet_invoice",
		}
	}

	req := basicRequest(outletID, serviceID)
	req.InvoiceNo = "INV/2026/08/0042"

	svc, _ := newTestService(store)
	_, err := svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrDuplicateInvoiceNo) {
		t.Errorf("error: got %v, want ErrDuplicateInvoiceNo", err)
	}
	if attempts != 1 {
		t.Errorf("attempts: got %d, want 1 (duplicate invoice must not retry)", attempts)
	}
}

func TestCreateOrderDoesNotRetryOtherErrors(t *testing.T) {
	outletID := uuid.New()
	serviceID := uuid.New()

	attempts := 0
	store := defaultStore(outletID, serviceID)
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		attempts++
		return database.Order{}, errors.New("connection lost")
	}

	svc, _ := newTestService(store)
	_, err := svc.CreateOrder(context.Background(), basicRequest(outletID, serviceID))
	if err == nil || !strings.Contains(err.Error(), "connection lost") {
		t.Errorf("error: got %v, want connection lost", err)
	}
	if attempts != 1 {
		t.Errorf("attempts: got %d, want 1", attempts)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"0812-3456-7890", "081234567890"},
		{"+62 812 3456 7890", "081234567890"},
		{"62812345678", "0812345678"},
		{"abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.raw); got != tt.want {
			t.Errorf("NormalizePhone(%q): got %q, want %q", tt.raw, got, tt.want)
		}
	}
}
