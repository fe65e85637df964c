// Package button derives the purchasability label shown per product.
package button

import "github.com/fairyhunter13/vending-machine-simulator/internal/model"

// Resolve returns the three-valued button state for a product given the
// current transaction context. Rules apply in order; out-of-stock always
// wins regardless of payment state. Card is assumed fundable here —
// authorization failures surface later through the payment flow.
func Resolve(p model.Product, balance int64, method model.PaymentMethod, changeAvailable bool) model.ButtonState {
	if p.Stock <= 0 {
		return model.ButtonDisabled
	}
	if method == model.PaymentCash && !changeAvailable {
		return model.ButtonActive
	}
	if method == model.PaymentCash && balance >= p.Price {
		return model.ButtonPurchasable
	}
	if method == model.PaymentCard {
		return model.ButtonPurchasable
	}
	return model.ButtonActive
}
