package tests

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront/pkg/domain/model"
	"storefront/pkg/domain/service"
)

func money(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertMoney(t *testing.T, expected string, actual decimal.Decimal, field string) {
	t.Helper()
	assert.Equal(t, expected, actual.StringFixed(2), field)
}

func TestCalculate(t *testing.T) {
	rates := service.DefaultRates()

	t.Run("Worked example with flat promo", func(t *testing.T) {
		summary := service.Calculate(rates, money("250"), model.ShippingStandard, "SAVE10")

		assertMoney(t, "250.00", summary.Subtotal, "subtotal")
		assertMoney(t, "45.00", summary.GSTAmount, "gst")
		assertMoney(t, "5.00", summary.HandlingCharge, "handling")
		assertMoney(t, "30.00", summary.DeliveryCharge, "delivery")
		assertMoney(t, "10.00", summary.DiscountAmount, "discount")
		assertMoney(t, "320.00", summary.TotalAmount, "total")
		assert.True(t, summary.PromoApplied)
		assert.Equal(t, "SAVE10", summary.PromoCode)
	})

	t.Run("Free delivery threshold is inclusive", func(t *testing.T) {
		at := service.Calculate(rates, money("500"), model.ShippingStandard, "")
		below := service.Calculate(rates, money("499"), model.ShippingStandard, "")
		justBelow := service.Calculate(rates, money("499.99"), model.ShippingStandard, "")

		assertMoney(t, "0.00", at.DeliveryCharge, "at threshold")
		assertMoney(t, "30.00", below.DeliveryCharge, "below threshold")
		assertMoney(t, "30.00", justBelow.DeliveryCharge, "just below threshold")
	})

	t.Run("Express adds a surcharge", func(t *testing.T) {
		small := service.Calculate(rates, money("100"), model.ShippingExpress, "")
		large := service.Calculate(rates, money("600"), model.ShippingExpress, "")

		assertMoney(t, "55.00", small.DeliveryCharge, "express below threshold")
		assertMoney(t, "25.00", large.DeliveryCharge, "express above threshold")
	})

	t.Run("Pickup has no delivery charge", func(t *testing.T) {
		summary := service.Calculate(rates, money("100"), model.ShippingPickup, "")
		assertMoney(t, "0.00", summary.DeliveryCharge, "pickup")
		assertMoney(t, "123.00", summary.TotalAmount, "total")
	})

	t.Run("Percentage promo", func(t *testing.T) {
		summary := service.Calculate(rates, money("250"), model.ShippingStandard, " quick15 ")
		assertMoney(t, "37.50", summary.DiscountAmount, "discount")
		assertMoney(t, "292.50", summary.TotalAmount, "total")
		assert.Equal(t, "QUICK15", summary.PromoCode)
	})

	t.Run("Unknown promo is not applied", func(t *testing.T) {
		summary := service.Calculate(rates, money("250"), model.ShippingStandard, "BOGUS")
		assert.False(t, summary.PromoApplied)
		assertMoney(t, "0.00", summary.DiscountAmount, "discount")
		assertMoney(t, "330.00", summary.TotalAmount, "total")
	})

	t.Run("GST is rounded to two places", func(t *testing.T) {
		summary := service.Calculate(rates, money("99.99"), model.ShippingStandard, "")
		assertMoney(t, "18.00", summary.GSTAmount, "gst")
		assertMoney(t, "152.99", summary.TotalAmount, "total")
	})

	for _, subtotal := range []string{"0", "-5"} {
		subtotal := subtotal
		t.Run("Non-positive subtotal prices to zero", func(t *testing.T) {
			summary := service.Calculate(rates, money(subtotal), model.ShippingExpress, "SAVE10")
			for name, amount := range map[string]decimal.Decimal{
				"delivery": summary.DeliveryCharge,
				"gst":      summary.GSTAmount,
				"handling": summary.HandlingCharge,
				"discount": summary.DiscountAmount,
				"total":    summary.TotalAmount,
			} {
				assert.True(t, amount.IsZero(), name)
			}
			assert.False(t, summary.PromoApplied)
		})
	}

	t.Run("Total never goes negative", func(t *testing.T) {
		generous := service.DefaultRates()
		generous.Promos = map[string]service.PromoRule{"HUGE": {Kind: service.PromoFlat, Value: money("1000")}}

		summary := service.Calculate(generous, money("10"), model.ShippingStandard, "HUGE")
		assertMoney(t, "0.00", summary.TotalAmount, "total")
	})

	t.Run("Same input gives the same summary", func(t *testing.T) {
		first := service.Calculate(rates, money("321.45"), model.ShippingExpress, "QUICK15")
		second := service.Calculate(rates, money("321.45"), model.ShippingExpress, "QUICK15")
		assert.Equal(t, first, second)
	})
}
