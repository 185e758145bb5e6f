package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const serviceColumns = `id, outlet_id, name, unit_type, price, estimated_hours, is_active, created_at, updated_at`

func scanService(row interface{ Scan(...interface{}) error }) (Service, error) {
	var s Service
	err := row.Scan(
		&s.ID, &s.OutletID, &s.Name, &s.UnitType, &s.Price,
		&s.EstimatedHours, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

const createService = `
INSERT INTO services (outlet_id, name, unit_type, price, estimated_hours)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + serviceColumns

// CreateServiceParams are the inputs for CreateService.
type CreateServiceParams struct {
	OutletID       uuid.UUID
	Name           string
	UnitType       string
	Price          pgtype.Numeric
	EstimatedHours int32
}

func (q *Queries) CreateService(ctx context.Context, arg CreateServiceParams) (Service, error) {
	row := q.db.QueryRow(ctx, createService, arg.OutletID, arg.Name, arg.UnitType, arg.Price, arg.EstimatedHours)
	return scanService(row)
}

const getService = `
SELECT ` + serviceColumns + `
FROM services
WHERE id = $1 AND outlet_id = $2
`

// GetServiceParams are the inputs for GetService.
type GetServiceParams struct {
	ID       uuid.UUID
	OutletID uuid.UUID
}

func (q *Queries) GetService(ctx context.Context, arg GetServiceParams) (Service, error) {
	return scanService(q.db.QueryRow(ctx, getService, arg.ID, arg.OutletID))
}

const getServiceForOrder = `
SELECT ` + serviceColumns + `
FROM services
WHERE id = $1 AND outlet_id = $2 AND is_active
`

// GetServiceForOrder returns the service only when it is active; inactive
// catalog entries cannot be ordered.
func (q *Queries) GetServiceForOrder(ctx context.Context, arg GetServiceParams) (Service, error) {
	return scanService(q.db.QueryRow(ctx, getServiceForOrder, arg.ID, arg.OutletID))
}

const listServices = `
SELECT ` + serviceColumns + `
FROM services
WHERE outlet_id = $1
  AND ($2::boolean IS NULL OR is_active = $2)
ORDER BY name
`

// ListServicesParams are the inputs for ListServices.
type ListServicesParams struct {
	OutletID uuid.UUID
	IsActive pgtype.Bool
}

func (q *Queries) ListServices(ctx context.Context, arg ListServicesParams) ([]Service, error) {
	rows, err := q.db.Query(ctx, listServices, arg.OutletID, arg.IsActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

const updateService = `
UPDATE services
SET name = $3, unit_type = $4, price = $5, estimated_hours = $6, is_active = $7, updated_at = now()
WHERE id = $1 AND outlet_id = $2
RETURNING ` + serviceColumns

// UpdateServiceParams are the inputs for UpdateService.
type UpdateServiceParams struct {
	ID             uuid.UUID
	OutletID       uuid.UUID
	Name           string
	UnitType       string
	Price          pgtype.Numeric
	EstimatedHours int32
	IsActive       bool
}

func (q *Queries) UpdateService(ctx context.Context, arg UpdateServiceParams) (Service, error) {
	row := q.db.QueryRow(ctx, updateService,
		arg.ID, arg.OutletID, arg.Name, arg.UnitType, arg.Price, arg.EstimatedHours, arg.IsActive,
	)
	return scanService(row)
}
