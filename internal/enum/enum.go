// Package enum holds the string constants shared between the database layer
// and the API surface. Values with a CHECK constraint in the schema must stay
// in sync with the migrations.
package enum

const (
	LaundryStatusReceived  = "received"
	LaundryStatusWashing   = "washing"
	LaundryStatusDrying    = "drying"
	LaundryStatusIroning   = "ironing"
	LaundryStatusReady     = "ready"
	LaundryStatusCompleted = "completed"
)

const (
	CourierStatusPickupPending    = "pickup_pending"
	CourierStatusPickupOnTheWay   = "pickup_on_the_way"
	CourierStatusPickedUp         = "picked_up"
	CourierStatusAtOutlet         = "at_outlet"
	CourierStatusDeliveryPending  = "delivery_pending"
	CourierStatusDeliveryOnTheWay = "delivery_on_the_way"
	CourierStatusDelivered        = "delivered"
)

const (
	UserRoleOwner   = "OWNER"
	UserRoleAdmin   = "ADMIN"
	UserRoleCashier = "CASHIER"
	UserRoleCourier = "COURIER"
)

const (
	UnitTypeKg  = "kg"
	UnitTypePcs = "pcs"
)

// PaymentMethod is typed so the payment math cannot be handed an
// unvalidated request string.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodOther    PaymentMethod = "other"
)

const (
	PromoTypePercentage = "PERCENTAGE"
	PromoTypeFixed      = "FIXED_AMOUNT"
)
