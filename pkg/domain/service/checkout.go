package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"storefront/pkg/domain/model"
)

var (
	ErrUnknownStage       = errors.New("unknown checkout stage")
	ErrCheckoutInProgress = errors.New("order placement already in progress")
	errDraftMalformed     = errors.New("checkout draft is malformed")
)

var (
	cardLast4Pattern  = regexp.MustCompile(`^[0-9]{4}$`)
	postalCodePattern = regexp.MustCompile(`^[0-9A-Za-z -]{3,10}$`)
)

// RedirectError tells the caller which earlier stage to send the shopper back to.
type RedirectError struct {
	Target model.Stage
	Reason string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("checkout: go back to %s: %s", e.Target, e.Reason)
}

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type StageView struct {
	Stage   model.Stage        `json:"-"`
	Items   []model.CartItem   `json:"items"`
	Summary model.PriceSummary `json:"summary"`
	Draft   *model.OrderDraft  `json:"draft,omitempty"`
}

type CheckoutService interface {
	Enter(sessionID string, stage model.Stage) (*StageView, error)
	ConfirmItems(sessionID string) (*StageView, error)
	SubmitShipping(sessionID string, details model.ShippingDetails) (*StageView, error)
	SubmitPayment(sessionID string, payment model.PaymentSelection) (*StageView, error)
	PlaceOrder(sessionID string, userID uuid.UUID) (*model.Order, error)
	Abandon(sessionID string) error
}

type CheckoutConfig struct {
	Rates          Rates
	PlacementDelay time.Duration
}

func DraftKey(sessionID string) string {
	return "checkout:" + sessionID
}

func NewCheckoutService(
	carts CartService,
	orders OrderService,
	products model.ProductRepository,
	storage model.SessionStorage,
	config CheckoutConfig,
) CheckoutService {
	return &checkoutService{
		carts:    carts,
		orders:   orders,
		products: products,
		storage:  storage,
		config:   config,
		inFlight: make(map[string]bool),
	}
}

type checkoutService struct {
	carts    CartService
	orders   OrderService
	products model.ProductRepository
	storage  model.SessionStorage
	config   CheckoutConfig

	mu       sync.Mutex
	inFlight map[string]bool
}

func (s *checkoutService) Enter(sessionID string, stage model.Stage) (*StageView, error) {
	if stage < model.StageVerifyItems || stage > model.StageReview {
		return nil, ErrUnknownStage
	}

	cart, draft, err := s.prerequisites(sessionID, stage)
	if err != nil {
		return nil, err
	}
	return s.view(stage, cart, draft), nil
}

func (s *checkoutService) ConfirmItems(sessionID string) (*StageView, error) {
	cart, draft, err := s.prerequisites(sessionID, model.StageVerifyItems)
	if err != nil {
		return nil, err
	}
	if err := s.checkStock(cart); err != nil {
		return nil, err
	}
	if draft == nil {
		draft = &model.OrderDraft{}
	}

	draft.Items = cart.Items
	s.complete(draft, model.StageVerifyItems, cart)
	if err := s.saveDraft(sessionID, draft); err != nil {
		return nil, err
	}
	return s.view(model.StageShipping, cart, draft), nil
}

func (s *checkoutService) SubmitShipping(sessionID string, details model.ShippingDetails) (*StageView, error) {
	cart, draft, err := s.prerequisites(sessionID, model.StageShipping)
	if err != nil {
		return nil, err
	}
	if fields := s.validateShipping(details); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	details.PromoCode = NormalizePromoCode(details.PromoCode)
	draft.Shipping = &details
	s.complete(draft, model.StageShipping, cart)
	if err := s.saveDraft(sessionID, draft); err != nil {
		return nil, err
	}
	return s.view(model.StagePayment, cart, draft), nil
}

func (s *checkoutService) SubmitPayment(sessionID string, payment model.PaymentSelection) (*StageView, error) {
	cart, draft, err := s.prerequisites(sessionID, model.StagePayment)
	if err != nil {
		return nil, err
	}
	if fields := validatePayment(payment); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	draft.Payment = &payment
	s.complete(draft, model.StagePayment, cart)
	if err := s.saveDraft(sessionID, draft); err != nil {
		return nil, err
	}
	return s.view(model.StageReview, cart, draft), nil
}

func (s *checkoutService) PlaceOrder(sessionID string, userID uuid.UUID) (*model.Order, error) {
	if userID == uuid.Nil {
		return nil, ErrUserRequired
	}
	if !s.begin(sessionID) {
		return nil, ErrCheckoutInProgress
	}
	defer s.end(sessionID)

	cart, draft, err := s.prerequisites(sessionID, model.StageReview)
	if err != nil {
		return nil, err
	}
	if err := s.checkStock(cart); err != nil {
		return nil, err
	}

	// Placement is simulated; it always succeeds after the configured delay.
	if s.config.PlacementDelay > 0 {
		time.Sleep(s.config.PlacementDelay)
	}

	order, err := s.orders.PlaceOrder(PlaceOrderRequest{
		UserID:    userID,
		SessionID: sessionID,
		Items:     cart.Items,
		Shipping:  *draft.Shipping,
		Payment:   *draft.Payment,
		Summary:   s.price(cart, draft),
	})
	if err != nil {
		return nil, err
	}

	if err := s.carts.ClearCart(sessionID); err != nil {
		log.WithError(err).WithField("session", sessionID).Error("failed to clear cart after placing order")
	}
	if err := s.storage.Delete(DraftKey(sessionID)); err != nil {
		log.WithError(err).WithField("session", sessionID).Error("failed to clear checkout draft after placing order")
	}
	return order, nil
}

func (s *checkoutService) Abandon(sessionID string) error {
	if sessionID == "" {
		return model.ErrSessionRequired
	}
	return s.storage.Delete(DraftKey(sessionID))
}

// prerequisites loads the live cart and the draft a stage depends on, failing closed with a
// RedirectError naming the earliest stage that can still be rendered.
func (s *checkoutService) prerequisites(sessionID string, stage model.Stage) (*model.Cart, *model.OrderDraft, error) {
	cart, err := s.carts.GetCart(sessionID)
	if err != nil {
		return nil, nil, err
	}
	if cart.IsEmpty() {
		return nil, nil, &RedirectError{Target: model.StageCart, Reason: "cart is empty"}
	}

	draft, err := s.loadDraft(sessionID)
	switch {
	case errors.Is(err, errDraftMalformed):
		log.WithField("session", sessionID).Warn("resetting malformed checkout draft")
		if delErr := s.storage.Delete(DraftKey(sessionID)); delErr != nil {
			return nil, nil, delErr
		}
		draft = nil
	case err != nil:
		return nil, nil, err
	}

	if stage == model.StageVerifyItems {
		return cart, draft, nil
	}
	if draft == nil {
		return nil, nil, &RedirectError{Target: model.StageVerifyItems, Reason: "no checkout in progress"}
	}
	if draft.Completed < stage-1 {
		return nil, nil, &RedirectError{
			Target: draft.Completed + 1,
			Reason: fmt.Sprintf("%s has not been completed", draft.Completed+1),
		}
	}
	return cart, draft, nil
}

// checkStock compares every cart line against the live catalog. Quantities are not capped
// when items are added, so this is the only place an oversized line is caught.
func (s *checkoutService) checkStock(cart *model.Cart) error {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindMany(ids)
	if err != nil {
		return err
	}

	live := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		live[p.ID] = p
	}

	fields := make(map[string]string)
	for _, item := range cart.Items {
		field := "items." + item.ProductID.String()
		product, ok := live[item.ProductID]
		switch {
		case !ok:
			fields[field] = fmt.Sprintf("%s is no longer available", item.Name)
		case item.Quantity > product.Stock:
			fields[field] = fmt.Sprintf("only %d of %s left in stock", product.Stock, item.Name)
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *checkoutService) complete(draft *model.OrderDraft, stage model.Stage, cart *model.Cart) {
	if draft.Completed < stage {
		draft.Completed = stage
	}
	draft.Summary = s.price(cart, draft)
}

// price always works from the live cart so edits made mid-checkout flow into the totals.
func (s *checkoutService) price(cart *model.Cart, draft *model.OrderDraft) model.PriceSummary {
	method, promo := model.ShippingStandard, ""
	if draft != nil && draft.Shipping != nil {
		method, promo = draft.Shipping.Method, draft.Shipping.PromoCode
	}
	return Calculate(s.config.Rates, cart.Total(), method, promo)
}

func (s *checkoutService) view(stage model.Stage, cart *model.Cart, draft *model.OrderDraft) *StageView {
	return &StageView{
		Stage:   stage,
		Items:   cart.Items,
		Summary: s.price(cart, draft),
		Draft:   draft,
	}
}

func (s *checkoutService) loadDraft(sessionID string) (*model.OrderDraft, error) {
	data, found, err := s.storage.Load(DraftKey(sessionID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var draft model.OrderDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, errDraftMalformed
	}
	if !s.wellFormed(&draft) {
		return nil, errDraftMalformed
	}
	return &draft, nil
}

func (s *checkoutService) wellFormed(draft *model.OrderDraft) bool {
	if draft.Completed < model.StageVerifyItems || draft.Completed > model.StageReview {
		return false
	}
	if draft.Completed >= model.StageShipping && (draft.Shipping == nil || len(s.validateShipping(*draft.Shipping)) > 0) {
		return false
	}
	if draft.Completed >= model.StagePayment && (draft.Payment == nil || len(validatePayment(*draft.Payment)) > 0) {
		return false
	}
	return true
}

func (s *checkoutService) saveDraft(sessionID string, draft *model.OrderDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.storage.Save(DraftKey(sessionID), data)
}

func (s *checkoutService) begin(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[sessionID] {
		return false
	}
	s.inFlight[sessionID] = true
	return true
}

func (s *checkoutService) end(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, sessionID)
}

func (s *checkoutService) validateShipping(details model.ShippingDetails) map[string]string {
	fields := validateAddress(details.Address)
	if !details.Method.Valid() {
		fields["method"] = "choose standard, express or pickup"
	}
	if details.PromoCode != "" {
		if _, ok := s.config.Rates.LookupPromo(details.PromoCode); !ok {
			fields["promoCode"] = "promo code is not valid"
		}
	}
	return fields
}

func validateAddress(address model.AddressSnapshot) map[string]string {
	fields := make(map[string]string)
	required := map[string]string{
		"address.fullName": address.FullName,
		"address.phone":    address.Phone,
		"address.line1":    address.Line1,
		"address.city":     address.City,
		"address.state":    address.State,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			fields[name] = "is required"
		}
	}
	if !postalCodePattern.MatchString(strings.TrimSpace(address.PostalCode)) {
		fields["address.postalCode"] = "is not a valid postal code"
	}
	return fields
}

func validatePayment(payment model.PaymentSelection) map[string]string {
	fields := make(map[string]string)
	if !payment.Kind.Valid() {
		fields["kind"] = "choose card, upi, wallet or cod"
		return fields
	}
	switch payment.Kind {
	case model.PaymentCard:
		if !cardLast4Pattern.MatchString(payment.Reference) {
			fields["reference"] = "enter the last four digits of the card"
		}
	case model.PaymentUPI:
		if !strings.Contains(payment.Reference, "@") {
			fields["reference"] = "enter a UPI id such as name@bank"
		}
	}
	return fields
}
