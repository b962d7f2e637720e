package order

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DeliveryType is a shipping tier. The numeric values are the ones clients send.
type DeliveryType int

const (
	// DeliveryStandard costs 3.00.
	DeliveryStandard DeliveryType = iota
	// DeliveryExpress costs 7.50.
	DeliveryExpress
	// DeliveryCourier costs 12.00.
	DeliveryCourier
)

var deliveryFees = map[DeliveryType]decimal.Decimal{
	DeliveryStandard: decimal.RequireFromString("3.00"),
	DeliveryExpress:  decimal.RequireFromString("7.50"),
	DeliveryCourier:  decimal.RequireFromString("12.00"),
}

// ParseDeliveryType converts a client supplied code into a DeliveryType.
func ParseDeliveryType(code int) (DeliveryType, error) {
	t := DeliveryType(code)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownDeliveryType, code)
	}
	return t, nil
}

// Valid reports whether t is one of the known tiers.
func (t DeliveryType) Valid() bool {
	_, ok := deliveryFees[t]
	return ok
}

// String returns the tier name.
func (t DeliveryType) String() string {
	switch t {
	case DeliveryStandard:
		return "standard"
	case DeliveryExpress:
		return "express"
	case DeliveryCourier:
		return "courier"
	default:
		return fmt.Sprintf("delivery(%d)", int(t))
	}
}
