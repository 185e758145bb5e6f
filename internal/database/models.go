package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// User is a staff account. Role is one of the enum.UserRole values.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	FullName     string
	Role         string
	OutletID     pgtype.UUID
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Outlet is a physical laundry shop location.
type Outlet struct {
	ID        uuid.UUID
	Name      string
	Address   pgtype.Text
	Phone     pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Customer is a laundry customer. Phone is stored in normalized digit form
// and is unique per outlet.
type Customer struct {
	ID        uuid.UUID
	OutletID  uuid.UUID
	Name      string
	Phone     string
	Address   pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Service is a catalog entry (e.g. "Cuci Kering Setrika"), priced per kg or
// per piece depending on UnitType.
type Service struct {
	ID             uuid.UUID
	OutletID       uuid.UUID
	Name           string
	UnitType       string
	Price          pgtype.Numeric
	EstimatedHours int32
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Promotion is a discount applicable at order creation.
type Promotion struct {
	ID             uuid.UUID
	OutletID       uuid.UUID
	Name           string
	PromoType      string
	Value          pgtype.Numeric
	MinOrderAmount pgtype.Numeric
	IsActive       bool
	StartsAt       pgtype.Timestamptz
	EndsAt         pgtype.Timestamptz
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Order is a laundry order. CourierStatus and CourierID are only set for
// pickup-delivery orders; walk-in orders keep them NULL.
type Order struct {
	ID                    uuid.UUID
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
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// OrderItem is one service line on an order. ServiceName and UnitPrice are
// snapshots taken at order time so later catalog edits never rewrite history.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ServiceID   uuid.UUID
	ServiceName string
	UnitType    string
	Quantity    pgtype.Numeric
	UnitPrice   pgtype.Numeric
	Subtotal    pgtype.Numeric
	Notes       pgtype.Text
}

// Payment is a recorded payment against an order. Amount is the portion
// applied to the bill; AmountReceived and ChangeAmount are only set for cash.
type Payment struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	PaymentMethod   string
	Amount          pgtype.Numeric
	AmountReceived  pgtype.Numeric
	ChangeAmount    pgtype.Numeric
	ReferenceNumber pgtype.Text
	ProcessedBy     uuid.UUID
	ProcessedAt     time.Time
}
