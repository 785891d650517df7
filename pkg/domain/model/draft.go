package model

import "fmt"

// Stage is a position in the checkout sequence. Stages are strictly ordered.
type Stage int

const (
	StageCart Stage = iota
	StageVerifyItems
	StageShipping
	StagePayment
	StageReview
	StagePlaced
)

var stageNames = [...]string{"cart", "verify-items", "shipping", "payment", "review", "placed"}

func (s Stage) String() string {
	if s < StageCart || s > StagePlaced {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

func ParseStage(name string) (Stage, bool) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), true
		}
	}
	return StageCart, false
}

type ShippingDetails struct {
	Address   AddressSnapshot `json:"address"`
	Method    ShippingMethod  `json:"method"`
	PromoCode string          `json:"promoCode,omitempty"`
}

// OrderDraft is the hand-off buffer threaded through checkout. Completed is the last stage
// whose contribution has been validated and merged.
type OrderDraft struct {
	Completed Stage             `json:"completed"`
	Items     []CartItem        `json:"items"`
	Shipping  *ShippingDetails  `json:"shipping,omitempty"`
	Payment   *PaymentSelection `json:"payment,omitempty"`
	Summary   PriceSummary      `json:"summary"`
}
