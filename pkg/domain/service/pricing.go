package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"storefront/pkg/domain/model"
)

type PromoKind int

const (
	PromoFlat PromoKind = iota
	PromoPercent
)

type PromoRule struct {
	Kind  PromoKind
	Value decimal.Decimal
}

type Rates struct {
	FreeDeliveryThreshold decimal.Decimal
	DeliveryCharge        decimal.Decimal
	ExpressSurcharge      decimal.Decimal
	HandlingCharge        decimal.Decimal
	GSTRate               decimal.Decimal
	Promos                map[string]PromoRule
}

func DefaultRates() Rates {
	return Rates{
		FreeDeliveryThreshold: decimal.NewFromInt(500),
		DeliveryCharge:        decimal.NewFromInt(30),
		ExpressSurcharge:      decimal.NewFromInt(25),
		HandlingCharge:        decimal.NewFromInt(5),
		GSTRate:               decimal.RequireFromString("0.18"),
		Promos: map[string]PromoRule{
			"SAVE10":  {Kind: PromoFlat, Value: decimal.NewFromInt(10)},
			"QUICK15": {Kind: PromoPercent, Value: decimal.NewFromInt(15)},
			"FREEDEL": {Kind: PromoFlat, Value: decimal.NewFromInt(30)},
		},
	}
}

func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r Rates) LookupPromo(code string) (PromoRule, bool) {
	rule, ok := r.Promos[NormalizePromoCode(code)]
	return rule, ok
}

// Calculate prices a cart subtotal. It reads nothing but its arguments, so every checkout
// stage can call it again whenever the cart or the shipping choice changes.
func Calculate(rates Rates, subtotal decimal.Decimal, method model.ShippingMethod, promoCode string) model.PriceSummary {
	summary := model.PriceSummary{
		Subtotal:       subtotal,
		DeliveryCharge: decimal.Zero,
		GSTAmount:      decimal.Zero,
		HandlingCharge: decimal.Zero,
		DiscountAmount: decimal.Zero,
		TotalAmount:    decimal.Zero,
		PromoCode:      NormalizePromoCode(promoCode),
	}
	if !subtotal.IsPositive() {
		return summary
	}

	summary.DeliveryCharge = deliveryCharge(rates, subtotal, method)
	summary.GSTAmount = subtotal.Mul(rates.GSTRate).Round(2)
	summary.HandlingCharge = rates.HandlingCharge

	if rule, ok := rates.LookupPromo(promoCode); ok {
		summary.PromoApplied = true
		summary.DiscountAmount = discount(rule, subtotal)
	}

	total := subtotal.
		Add(summary.GSTAmount).
		Add(summary.DeliveryCharge).
		Add(summary.HandlingCharge).
		Sub(summary.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	summary.TotalAmount = total
	return summary
}

func deliveryCharge(rates Rates, subtotal decimal.Decimal, method model.ShippingMethod) decimal.Decimal {
	if method == model.ShippingPickup {
		return decimal.Zero
	}
	charge := decimal.Zero
	if subtotal.LessThan(rates.FreeDeliveryThreshold) {
		charge = rates.DeliveryCharge
	}
	if method == model.ShippingExpress {
		charge = charge.Add(rates.ExpressSurcharge)
	}
	return charge
}

func discount(rule PromoRule, subtotal decimal.Decimal) decimal.Decimal {
	if rule.Kind == PromoPercent {
		return subtotal.Mul(rule.Value).Div(decimal.NewFromInt(100)).Round(2)
	}
	return rule.Value
}
