package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getDailyRevenue = `
SELECT created_at::date AS day,
	COUNT(*) AS order_count,
	COALESCE(SUM(total_amount), 0) AS total_revenue,
	COALESCE(SUM(discount_amount), 0) AS total_discount
FROM orders
WHERE outlet_id = $1 AND created_at >= $2 AND created_at < $3
GROUP BY day
ORDER BY day
`

// GetDailyRevenueParams are the inputs for GetDailyRevenue.
type GetDailyRevenueParams struct {
	OutletID  uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}

// GetDailyRevenueRow is one day of order totals.
type GetDailyRevenueRow struct {
	Day           pgtype.Date
	OrderCount    int64
	TotalRevenue  pgtype.Numeric
	TotalDiscount pgtype.Numeric
}

func (q *Queries) GetDailyRevenue(ctx context.Context, arg GetDailyRevenueParams) ([]GetDailyRevenueRow, error) {
	rows, err := q.db.Query(ctx, getDailyRevenue, arg.OutletID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GetDailyRevenueRow
	for rows.Next() {
		var row GetDailyRevenueRow
		if err := rows.Scan(&row.Day, &row.OrderCount, &row.TotalRevenue, &row.TotalDiscount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

const getServiceSales = `
SELECT oi.service_id,
	oi.service_name,
	COALESCE(SUM(oi.quantity), 0) AS quantity_sold,
	COALESCE(SUM(oi.subtotal), 0) AS total_revenue
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.outlet_id = $1 AND o.created_at >= $2 AND o.created_at < $3
GROUP BY oi.service_id, oi.service_name
ORDER BY total_revenue DESC
LIMIT $4
`

// GetServiceSalesParams are the inputs for GetServiceSales.
type GetServiceSalesParams struct {
	OutletID  uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	Limit     int32
}

// GetServiceSalesRow aggregates one service's sold quantity and revenue.
// ServiceName is the order-time snapshot, so a renamed service shows up
// once per historical name.
type GetServiceSalesRow struct {
	ServiceID    uuid.UUID
	ServiceName  string
	QuantitySold pgtype.Numeric
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetServiceSales(ctx context.Context, arg GetServiceSalesParams) ([]GetServiceSalesRow, error) {
	rows, err := q.db.Query(ctx, getServiceSales, arg.OutletID, arg.StartDate, arg.EndDate, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GetServiceSalesRow
	for rows.Next() {
		var row GetServiceSalesRow
		if err := rows.Scan(&row.ServiceID, &row.ServiceName, &row.QuantitySold, &row.TotalRevenue); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

const getPaymentSummary = `
SELECT p.payment_method,
	COUNT(*) AS transaction_count,
	COALESCE(SUM(p.amount), 0) AS total_amount
FROM payments p
JOIN orders o ON o.id = p.order_id
WHERE o.outlet_id = $1 AND p.processed_at >= $2 AND p.processed_at < $3
GROUP BY p.payment_method
ORDER BY total_amount DESC
`

// GetPaymentSummaryParams are the inputs for GetPaymentSummary.
type GetPaymentSummaryParams struct {
	OutletID  uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}

// GetPaymentSummaryRow aggregates payments by method.
type GetPaymentSummaryRow struct {
	PaymentMethod    string
	TransactionCount int64
	TotalAmount      pgtype.Numeric
}

func (q *Queries) GetPaymentSummary(ctx context.Context, arg GetPaymentSummaryParams) ([]GetPaymentSummaryRow, error) {
	rows, err := q.db.Query(ctx, getPaymentSummary, arg.OutletID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GetPaymentSummaryRow
	for rows.Next() {
		var row GetPaymentSummaryRow
		if err := rows.Scan(&row.PaymentMethod, &row.TransactionCount, &row.TotalAmount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

const getOutletComparison = `
SELECT ou.id AS outlet_id,
	ou.name AS outlet_name,
	COUNT(o.id) AS order_count,
	COALESCE(SUM(o.total_amount), 0) AS total_revenue
FROM outlets ou
LEFT JOIN orders o ON o.outlet_id = ou.id AND o.created_at >= $1 AND o.created_at < $2
GROUP BY ou.id, ou.name
ORDER BY total_revenue DESC
`

// GetOutletComparisonParams are the inputs for GetOutletComparison.
type GetOutletComparisonParams struct {
	StartDate time.Time
	EndDate   time.Time
}

// GetOutletComparisonRow compares order volume and revenue across outlets.
type GetOutletComparisonRow struct {
	OutletID     uuid.UUID
	OutletName   string
	OrderCount   int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetOutletComparison(ctx context.Context, arg GetOutletComparisonParams) ([]GetOutletComparisonRow, error) {
	rows, err := q.db.Query(ctx, getOutletComparison, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GetOutletComparisonRow
	for rows.Next() {
		var row GetOutletComparisonRow
		if err := rows.Scan(&row.OutletID, &row.OutletName, &row.OrderCount, &row.TotalRevenue); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
