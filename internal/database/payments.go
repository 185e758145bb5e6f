package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, order_id, payment_method, amount, amount_received, change_amount,
	reference_number, processed_by, processed_at`

const createPayment = `
INSERT INTO payments (
	order_id, payment_method, amount, amount_received, change_amount, reference_number, processed_by
) VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + paymentColumns

// CreatePaymentParams are the inputs for CreatePayment.
type CreatePaymentParams struct {
	OrderID         uuid.UUID
	PaymentMethod   string
	Amount          pgtype.Numeric
	AmountReceived  pgtype.Numeric
	ChangeAmount    pgtype.Numeric
	ReferenceNumber pgtype.Text
	ProcessedBy     uuid.UUID
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	var p Payment
	err := q.db.QueryRow(ctx, createPayment,
		arg.OrderID, arg.PaymentMethod, arg.Amount, arg.AmountReceived,
		arg.ChangeAmount, arg.ReferenceNumber, arg.ProcessedBy,
	).Scan(
		&p.ID, &p.OrderID, &p.PaymentMethod, &p.Amount, &p.AmountReceived,
		&p.ChangeAmount, &p.ReferenceNumber, &p.ProcessedBy, &p.ProcessedAt,
	)
	return p, err
}

const listPaymentsByOrder = `
SELECT ` + paymentColumns + `
FROM payments
WHERE order_id = $1
ORDER BY processed_at
`

func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(
			&p.ID, &p.OrderID, &p.PaymentMethod, &p.Amount, &p.AmountReceived,
			&p.ChangeAmount, &p.ReferenceNumber, &p.ProcessedBy, &p.ProcessedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

const sumPaymentsByOrder = `
SELECT COALESCE(SUM(amount), 0)
FROM payments
WHERE order_id = $1
`

// SumPaymentsByOrder returns the total applied to the order so far.
func (q *Queries) SumPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error) {
	var total pgtype.Numeric
	err := q.db.QueryRow(ctx, sumPaymentsByOrder, orderID).Scan(&total)
	return total, err
}
