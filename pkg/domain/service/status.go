package service

import (
	"strings"
	"time"

	"storefront/pkg/domain/model"
)

var DeliverySteps = []model.OrderStatus{
	model.StatusPlaced,
	model.StatusConfirmed,
	model.StatusProcessing,
	model.StatusOutForDelivery,
	model.StatusDelivered,
}

const (
	stepPlaced = iota
	stepConfirmed
	stepProcessing
	stepOutForDelivery
	stepDelivered
)

type StepState string

const (
	StepComplete StepState = "complete"
	StepCurrent  StepState = "current"
	StepPending  StepState = "pending"
)

type Step struct {
	Label string    `json:"label"`
	State StepState `json:"state"`
}

// StatusTrack is the five-step progress display for a stored status string.
// Recognized is false when the string matched nothing and the track fell back to the first
// step. Halted marks cancelled or failed orders, which still resolve to a position.
type StatusTrack struct {
	Status     string `json:"status"`
	Index      int    `json:"index"`
	Steps      []Step `json:"steps"`
	Recognized bool   `json:"recognized"`
	Halted     bool   `json:"halted"`
}

type keywordRule struct {
	keywords []string
	index    int
	halted   bool
}

// Checked in order: "out for delivery" must win over "delivered", and failures over both.
var statusKeywordRules = []keywordRule{
	{keywords: []string{"cancel", "refund", "fail", "reject"}, index: stepPlaced, halted: true},
	{keywords: []string{"return"}, index: stepDelivered},
	{keywords: []string{"out for", "shipped", "ship", "dispatch", "transit", "on the way"}, index: stepOutForDelivery},
	{keywords: []string{"deliver", "complete", "fulfil"}, index: stepDelivered},
	{keywords: []string{"process", "pack", "prepar"}, index: stepProcessing},
	{keywords: []string{"confirm", "accept", "paid"}, index: stepConfirmed},
	{keywords: []string{"place", "pending", "new", "created"}, index: stepPlaced},
}

func normalizeStatus(status string) string {
	s := strings.ToLower(status)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// ResolveStatus maps any status string onto the delivery sequence. It never fails.
func ResolveStatus(status string) (index int, recognized, halted bool) {
	normalized := normalizeStatus(status)
	if normalized == "" {
		return stepPlaced, false, false
	}

	for i, step := range DeliverySteps {
		if normalized == strings.ToLower(string(step)) {
			return i, true, false
		}
	}

	for _, rule := range statusKeywordRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(normalized, keyword) {
				return rule.index, true, rule.halted
			}
		}
	}
	return stepPlaced, false, false
}

func Present(status string) StatusTrack {
	index, recognized, halted := ResolveStatus(status)

	steps := make([]Step, len(DeliverySteps))
	for i, label := range DeliverySteps {
		state := StepPending
		switch {
		case i < index:
			state = StepComplete
		case i == index && index == stepDelivered:
			state = StepComplete
		case i == index:
			state = StepCurrent
		}
		steps[i] = Step{Label: string(label), State: state}
	}

	return StatusTrack{
		Status:     status,
		Index:      index,
		Steps:      steps,
		Recognized: recognized,
		Halted:     halted,
	}
}

var deliveryWindows = map[model.ShippingMethod]time.Duration{
	model.ShippingStandard: 30 * time.Minute,
	model.ShippingExpress:  15 * time.Minute,
	model.ShippingPickup:   20 * time.Minute,
}

func DeliveryWindow(method model.ShippingMethod) time.Duration {
	if window, ok := deliveryWindows[method]; ok {
		return window
	}
	return deliveryWindows[model.ShippingStandard]
}

// DeliveryETA is the countdown shown on the tracking page, clamped at zero.
func DeliveryETA(order model.Order, now time.Time) time.Duration {
	index, _, halted := ResolveStatus(string(order.Status))
	if halted || index == stepDelivered {
		return 0
	}
	remaining := order.CreatedAt.Add(DeliveryWindow(order.ShippingMethod)).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
