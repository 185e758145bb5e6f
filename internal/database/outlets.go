package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const outletColumns = `id, name, address, phone, created_at, updated_at`

const createOutlet = `
INSERT INTO outlets (name, address, phone)
VALUES ($1, $2, $3)
RETURNING ` + outletColumns

// CreateOutletParams are the inputs for CreateOutlet.
type CreateOutletParams struct {
	Name    string
	Address pgtype.Text
	Phone   pgtype.Text
}

func (q *Queries) CreateOutlet(ctx context.Context, arg CreateOutletParams) (Outlet, error) {
	var o Outlet
	err := q.db.QueryRow(ctx, createOutlet, arg.Name, arg.Address, arg.Phone).
		Scan(&o.ID, &o.Name, &o.Address, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const getOutlet = `
SELECT ` + outletColumns + `
FROM outlets
WHERE id = $1
`

func (q *Queries) GetOutlet(ctx context.Context, id uuid.UUID) (Outlet, error) {
	var o Outlet
	err := q.db.QueryRow(ctx, getOutlet, id).
		Scan(&o.ID, &o.Name, &o.Address, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const listOutlets = `
SELECT ` + outletColumns + `
FROM outlets
ORDER BY name
`

func (q *Queries) ListOutlets(ctx context.Context) ([]Outlet, error) {
	rows, err := q.db.Query(ctx, listOutlets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outlets []Outlet
	for rows.Next() {
		var o Outlet
		if err := rows.Scan(&o.ID, &o.Name, &o.Address, &o.Phone, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		outlets = append(outlets, o)
	}
	return outlets, rows.Err()
}

const updateOutlet = `
UPDATE outlets
SET name = $2, address = $3, phone = $4, updated_at = now()
WHERE id = $1
RETURNING ` + outletColumns

// UpdateOutletParams are the inputs for UpdateOutlet.
type UpdateOutletParams struct {
	ID      uuid.UUID
	Name    string
	Address pgtype.Text
	Phone   pgtype.Text
}

func (q *Queries) UpdateOutlet(ctx context.Context, arg UpdateOutletParams) (Outlet, error) {
	var o Outlet
	err := q.db.QueryRow(ctx, updateOutlet, arg.ID, arg.Name, arg.Address, arg.Phone).
		Scan(&o.ID, &o.Name, &o.Address, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
