package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const customerColumns = `id, outlet_id, name, phone, address, created_at, updated_at`

const createCustomer = `
INSERT INTO customers (outlet_id, name, phone, address)
VALUES ($1, $2, $3, $4)
RETURNING ` + customerColumns

// CreateCustomerParams are the inputs for CreateCustomer. Phone must already
// be normalized to digits.
type CreateCustomerParams struct {
	OutletID uuid.UUID
	Name     string
	Phone    string
	Address  pgtype.Text
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	var c Customer
	err := q.db.QueryRow(ctx, createCustomer, arg.OutletID, arg.Name, arg.Phone, arg.Address).
		Scan(&c.ID, &c.OutletID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const getCustomer = `
SELECT ` + customerColumns + `
FROM customers
WHERE id = $1 AND outlet_id = $2
`

// GetCustomerParams are the inputs for GetCustomer.
type GetCustomerParams struct {
	ID       uuid.UUID
	OutletID uuid.UUID
}

func (q *Queries) GetCustomer(ctx context.Context, arg GetCustomerParams) (Customer, error) {
	var c Customer
	err := q.db.QueryRow(ctx, getCustomer, arg.ID, arg.OutletID).
		Scan(&c.ID, &c.OutletID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const getCustomerByPhone = `
SELECT ` + customerColumns + `
FROM customers
WHERE outlet_id = $1 AND phone = $2
`

// GetCustomerByPhoneParams are the inputs for GetCustomerByPhone.
type GetCustomerByPhoneParams struct {
	OutletID uuid.UUID
	Phone    string
}

func (q *Queries) GetCustomerByPhone(ctx context.Context, arg GetCustomerByPhoneParams) (Customer, error) {
	var c Customer
	err := q.db.QueryRow(ctx, getCustomerByPhone, arg.OutletID, arg.Phone).
		Scan(&c.ID, &c.OutletID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const listCustomers = `
SELECT ` + customerColumns + `
FROM customers
WHERE outlet_id = $1
  AND ($2::text IS NULL OR name ILIKE '%' || $2 || '%' OR phone LIKE '%' || $2 || '%')
ORDER BY name
LIMIT $3 OFFSET $4
`

// ListCustomersParams are the inputs for ListCustomers.
type ListCustomersParams struct {
	OutletID uuid.UUID
	Search   pgtype.Text
	Limit    int32
	Offset   int32
}

func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers, arg.OutletID, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.OutletID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

const updateCustomer = `
UPDATE customers
SET name = $3, phone = $4, address = $5, updated_at = now()
WHERE id = $1 AND outlet_id = $2
RETURNING ` + customerColumns

// UpdateCustomerParams are the inputs for UpdateCustomer.
type UpdateCustomerParams struct {
	ID       uuid.UUID
	OutletID uuid.UUID
	Name     string
	Phone    string
	Address  pgtype.Text
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	var c Customer
	err := q.db.QueryRow(ctx, updateCustomer, arg.ID, arg.OutletID, arg.Name, arg.Phone, arg.Address).
		Scan(&c.ID, &c.OutletID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
