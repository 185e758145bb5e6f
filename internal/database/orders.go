package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, outlet_id, order_code, invoice_no, customer_id, courier_id, is_pickup_delivery,
	pickup_address, delivery_address, laundry_status, courier_status, notes,
	subtotal, shipping_fee, promotion_id, discount_amount, total_amount,
	estimated_completion_at, created_by, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OutletID, &o.OrderCode, &o.InvoiceNo, &o.CustomerID, &o.CourierID, &o.IsPickupDelivery,
		&o.PickupAddress, &o.DeliveryAddress, &o.LaundryStatus, &o.CourierStatus, &o.Notes,
		&o.Subtotal, &o.ShippingFee, &o.PromotionID, &o.DiscountAmount, &o.TotalAmount,
		&o.EstimatedCompletionAt, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

const getNextOrderSeq = `
SELECT COALESCE(MAX(CAST(SUBSTRING(order_code FROM 5) AS INTEGER)), 0) + 1
FROM orders
WHERE outlet_id = $1
`

// GetNextOrderSeq returns the next per-outlet order sequence number. Raced
// readers can get the same value; callers retry on the unique violation.
func (q *Queries) GetNextOrderSeq(ctx context.Context, outletID uuid.UUID) (int32, error) {
	var n int32
	err := q.db.QueryRow(ctx, getNextOrderSeq, outletID).Scan(&n)
	return n, err
}

const createOrder = `
INSERT INTO orders (
	outlet_id, order_code, invoice_no, customer_id, courier_id, is_pickup_delivery,
	pickup_address, delivery_address, laundry_status, courier_status, notes,
	subtotal, shipping_fee, promotion_id, discount_amount, total_amount,
	estimated_completion_at, created_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
RETURNING ` + orderColumns

// CreateOrderParams are the inputs for CreateOrder.
type CreateOrderParams struct {
	OutletID              uuid.UUID
	OrderCode             string
	InvoiceNo             pgtype.Text
	CustomerID            uuid.UUID
	CourierID             pgtype.UUID
	IsPickupDelivery      bool
	PickupAddress         pgtype.Text
	DeliveryAddress       pgtype.Text
	LaundryStatus         string
	CourierStatus         pgtype.Text
	Notes                 pgtype.Text
	Subtotal              pgtype.Numeric
	ShippingFee           pgtype.Numeric
	PromotionID           pgtype.UUID
	DiscountAmount        pgtype.Numeric
	TotalAmount           pgtype.Numeric
	EstimatedCompletionAt pgtype.Timestamptz
	CreatedBy             uuid.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OutletID, arg.OrderCode, arg.InvoiceNo, arg.CustomerID, arg.CourierID, arg.IsPickupDelivery,
		arg.PickupAddress, arg.DeliveryAddress, arg.LaundryStatus, arg.CourierStatus, arg.Notes,
		arg.Subtotal, arg.ShippingFee, arg.PromotionID, arg.DiscountAmount, arg.TotalAmount,
		arg.EstimatedCompletionAt, arg.CreatedBy,
	)
	return scanOrder(row)
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND outlet_id = $2
`

// GetOrderParams are the inputs for GetOrder.
type GetOrderParams struct {
	ID       uuid.UUID
	OutletID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, arg.ID, arg.OutletID))
}

const getOrderForUpdate = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND outlet_id = $2
FOR NO KEY UPDATE
`

// GetOrderForUpdateParams are the inputs for GetOrderForUpdate.
type GetOrderForUpdateParams struct {
	ID       uuid.UUID
	OutletID uuid.UUID
}

// GetOrderForUpdate locks the order row to serialize concurrent writes
// (payments, status advances) against it.
func (q *Queries) GetOrderForUpdate(ctx context.Context, arg GetOrderForUpdateParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, arg.ID, arg.OutletID))
}

const listOrderSummaries = `
SELECT o.id, o.outlet_id, o.order_code, o.invoice_no, o.customer_id, o.courier_id, o.is_pickup_delivery,
	o.pickup_address, o.delivery_address, o.laundry_status, o.courier_status, o.notes,
	o.subtotal, o.shipping_fee, o.promotion_id, o.discount_amount, o.total_amount,
	o.estimated_completion_at, o.created_by, o.created_at, o.updated_at,
	c.name, c.phone,
	GREATEST(o.total_amount - COALESCE(p.paid, 0), 0) AS amount_due
FROM orders o
JOIN customers c ON c.id = o.customer_id
LEFT JOIN (
	SELECT order_id, SUM(amount) AS paid FROM payments GROUP BY order_id
) p ON p.order_id = o.id
WHERE o.outlet_id = $1
  AND ($2::timestamptz IS NULL OR o.created_at >= $2)
  AND ($3::timestamptz IS NULL OR o.created_at < $3)
ORDER BY o.created_at DESC
LIMIT $4 OFFSET $5
`

// OrderSummary is an order joined with its customer and outstanding balance,
// used by list views. AmountDue is computed in SQL so it can never drift from
// the recorded payments.
type OrderSummary struct {
	Order
	CustomerName  string
	CustomerPhone string
	AmountDue     pgtype.Numeric
}

// ListOrderSummariesParams are the inputs for ListOrderSummaries.
type ListOrderSummariesParams struct {
	OutletID  uuid.UUID
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrderSummaries(ctx context.Context, arg ListOrderSummariesParams) ([]OrderSummary, error) {
	rows, err := q.db.Query(ctx, listOrderSummaries,
		arg.OutletID, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []OrderSummary
	for rows.Next() {
		var s OrderSummary
		if err := rows.Scan(
			&s.ID, &s.OutletID, &s.OrderCode, &s.InvoiceNo, &s.CustomerID, &s.CourierID, &s.IsPickupDelivery,
			&s.PickupAddress, &s.DeliveryAddress, &s.LaundryStatus, &s.CourierStatus, &s.Notes,
			&s.Subtotal, &s.ShippingFee, &s.PromotionID, &s.DiscountAmount, &s.TotalAmount,
			&s.EstimatedCompletionAt, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
			&s.CustomerName, &s.CustomerPhone, &s.AmountDue,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

const updateLaundryStatus = `
UPDATE orders
SET laundry_status = $3, updated_at = now()
WHERE id = $1 AND outlet_id = $2 AND laundry_status = $4
RETURNING ` + orderColumns

// UpdateLaundryStatusParams are the inputs for UpdateLaundryStatus. The
// update is a compare-and-set on the previous status: zero rows means another
// writer advanced the order first.
type UpdateLaundryStatusParams struct {
	ID            uuid.UUID
	OutletID      uuid.UUID
	LaundryStatus string
	PrevStatus    string
}

func (q *Queries) UpdateLaundryStatus(ctx context.Context, arg UpdateLaundryStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateLaundryStatus, arg.ID, arg.OutletID, arg.LaundryStatus, arg.PrevStatus)
	return scanOrder(row)
}

const updateCourierStatus = `
UPDATE orders
SET courier_status = $3, updated_at = now()
WHERE id = $1 AND outlet_id = $2 AND courier_status = $4 AND is_pickup_delivery
RETURNING ` + orderColumns

// UpdateCourierStatusParams are the inputs for UpdateCourierStatus.
type UpdateCourierStatusParams struct {
	ID            uuid.UUID
	OutletID      uuid.UUID
	CourierStatus pgtype.Text
	PrevStatus    pgtype.Text
}

func (q *Queries) UpdateCourierStatus(ctx context.Context, arg UpdateCourierStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateCourierStatus, arg.ID, arg.OutletID, arg.CourierStatus, arg.PrevStatus)
	return scanOrder(row)
}

const updateOrderCourier = `
UPDATE orders
SET courier_id = $3, updated_at = now()
WHERE id = $1 AND outlet_id = $2 AND is_pickup_delivery
RETURNING ` + orderColumns

// UpdateOrderCourierParams are the inputs for UpdateOrderCourier.
type UpdateOrderCourierParams struct {
	ID        uuid.UUID
	OutletID  uuid.UUID
	CourierID pgtype.UUID
}

func (q *Queries) UpdateOrderCourier(ctx context.Context, arg UpdateOrderCourierParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderCourier, arg.ID, arg.OutletID, arg.CourierID)
	return scanOrder(row)
}

const createOrderItem = `
INSERT INTO order_items (
	order_id, service_id, service_name, unit_type, quantity, unit_price, subtotal, notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, order_id, service_id, service_name, unit_type, quantity, unit_price, subtotal, notes
`

// CreateOrderItemParams are the inputs for CreateOrderItem.
type CreateOrderItemParams struct {
	OrderID     uuid.UUID
	ServiceID   uuid.UUID
	ServiceName string
	UnitType    string
	Quantity    pgtype.Numeric
	UnitPrice   pgtype.Numeric
	Subtotal    pgtype.Numeric
	Notes       pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.ServiceID, arg.ServiceName, arg.UnitType,
		arg.Quantity, arg.UnitPrice, arg.Subtotal, arg.Notes,
	).Scan(
		&it.ID, &it.OrderID, &it.ServiceID, &it.ServiceName, &it.UnitType,
		&it.Quantity, &it.UnitPrice, &it.Subtotal, &it.Notes,
	)
	return it, err
}

const listOrderItemsByOrder = `
SELECT id, order_id, service_id, service_name, unit_type, quantity, unit_price, subtotal, notes
FROM order_items
WHERE order_id = $1
ORDER BY service_name
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ServiceID, &it.ServiceName, &it.UnitType,
			&it.Quantity, &it.UnitPrice, &it.Subtotal, &it.Notes,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
