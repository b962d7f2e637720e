package order

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LineCost returns unitPrice * quantity.
func LineCost(unitPrice decimal.Decimal, quantity int) (decimal.Decimal, error) {
	if quantity < 1 {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if !unitPrice.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidPrice, unitPrice)
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))), nil
}

// DeliveryFee returns the fee of a delivery tier.
func DeliveryFee(t DeliveryType) (decimal.Decimal, error) {
	fee, ok := deliveryFees[t]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrUnknownDeliveryType, int(t))
	}
	return fee, nil
}

// Accumulate adds delta to total. Running totals never go negative.
func Accumulate(total, delta decimal.Decimal) (decimal.Decimal, error) {
	sum := total.Add(delta)
	if sum.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s + %s", ErrNegativeTotal, total, delta)
	}
	return sum, nil
}
