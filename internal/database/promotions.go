package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const promotionColumns = `id, outlet_id, name, promo_type, value, min_order_amount, is_active,
	starts_at, ends_at, created_at, updated_at`

func scanPromotion(row interface{ Scan(...interface{}) error }) (Promotion, error) {
	var p Promotion
	err := row.Scan(
		&p.ID, &p.OutletID, &p.Name, &p.PromoType, &p.Value, &p.MinOrderAmount,
		&p.IsActive, &p.StartsAt, &p.EndsAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

const createPromotion = `
INSERT INTO promotions (outlet_id, name, promo_type, value, min_order_amount, starts_at, ends_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + promotionColumns

// CreatePromotionParams are the inputs for CreatePromotion.
type CreatePromotionParams struct {
	OutletID       uuid.UUID
	Name           string
	PromoType      string
	Value          pgtype.Numeric
	MinOrderAmount pgtype.Numeric
	StartsAt       pgtype.Timestamptz
	EndsAt         pgtype.Timestamptz
}

func (q *Queries) CreatePromotion(ctx context.Context, arg CreatePromotionParams) (Promotion, error) {
	row := q.db.QueryRow(ctx, createPromotion,
		arg.OutletID, arg.Name, arg.PromoType, arg.Value, arg.MinOrderAmount, arg.StartsAt, arg.EndsAt,
	)
	return scanPromotion(row)
}

const getPromotion = `
SELECT ` + promotionColumns + `
FROM promotions
WHERE id = $1 AND outlet_id = $2
`

// GetPromotionParams are the inputs for GetPromotion.
type GetPromotionParams struct {
	ID       uuid.UUID
	OutletID uuid.UUID
}

func (q *Queries) GetPromotion(ctx context.Context, arg GetPromotionParams) (Promotion, error) {
	return scanPromotion(q.db.QueryRow(ctx, getPromotion, arg.ID, arg.OutletID))
}

const getActivePromotion = `
SELECT ` + promotionColumns + `
FROM promotions
WHERE id = $1 AND outlet_id = $2 AND is_active
  AND (starts_at IS NULL OR starts_at <= now())
  AND (ends_at IS NULL OR ends_at >= now())
`

// GetActivePromotion returns the promotion only when it is live right now.
func (q *Queries) GetActivePromotion(ctx context.Context, arg GetPromotionParams) (Promotion, error) {
	return scanPromotion(q.db.QueryRow(ctx, getActivePromotion, arg.ID, arg.OutletID))
}

const listPromotions = `
SELECT ` + promotionColumns + `
FROM promotions
WHERE outlet_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListPromotions(ctx context.Context, outletID uuid.UUID) ([]Promotion, error) {
	rows, err := q.db.Query(ctx, listPromotions, outletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var promos []Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		promos = append(promos, p)
	}
	return promos, rows.Err()
}

const updatePromotion = `
UPDATE promotions
SET name = $3, promo_type = $4, value = $5, min_order_amount = $6, is_active = $7,
    starts_at = $8, ends_at = $9, updated_at = now()
WHERE id = $1 AND outlet_id = $2
RETURNING ` + promotionColumns

// UpdatePromotionParams are the inputs for UpdatePromotion.
type UpdatePromotionParams struct {
	ID             uuid.UUID
	OutletID       uuid.UUID
	Name           string
	PromoType      string
	Value          pgtype.Numeric
	MinOrderAmount pgtype.Numeric
	IsActive       bool
	StartsAt       pgtype.Timestamptz
	EndsAt         pgtype.Timestamptz
}

func (q *Queries) UpdatePromotion(ctx context.Context, arg UpdatePromotionParams) (Promotion, error) {
	row := q.db.QueryRow(ctx, updatePromotion,
		arg.ID, arg.OutletID, arg.Name, arg.PromoType, arg.Value, arg.MinOrderAmount,
		arg.IsActive, arg.StartsAt, arg.EndsAt,
	)
	return scanPromotion(row)
}
