package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"storefront/pkg/domain/model"
	"storefront/pkg/domain/service"
	"storefront/pkg/infrastructure/feed"
	"storefront/pkg/infrastructure/notice"
)

const (
	sessionHeader = "X-Session-ID"
	userHeader    = "X-User-ID"

	maxBodyBytes = 1 << 20

	idPattern = "{id:[0-9a-fA-F-]{36}}"
)

var (
	errUserRequired = errors.New("X-User-ID header with a valid user id is required")
	errInvalidID    = errors.New("invalid id")
)

type Services struct {
	Catalog   service.CatalogService
	Carts     service.CartService
	Checkout  service.CheckoutService
	Orders    service.OrderService
	Accounts  service.AccountService
	Assistant service.AssistantService
	Feed      *feed.Feed
	Notices   *notice.Board
}

type Handler struct {
	Services
	now func() time.Time
}

func Router(services Services) http.Handler {
	h := &Handler{Services: services, now: time.Now}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/products", h.listProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/"+idPattern, h.getProduct).Methods(http.MethodGet)

	api.HandleFunc("/cart", h.getCart).Methods(http.MethodGet)
	api.HandleFunc("/cart", h.clearCart).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", h.addToCart).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/"+idPattern, h.updateQuantity).Methods(http.MethodPatch)
	api.HandleFunc("/cart/items/"+idPattern, h.removeFromCart).Methods(http.MethodDelete)

	api.HandleFunc("/checkout", h.abandonCheckout).Methods(http.MethodDelete)
	api.HandleFunc("/checkout/verify-items", h.confirmItems).Methods(http.MethodPost)
	api.HandleFunc("/checkout/shipping", h.submitShipping).Methods(http.MethodPost)
	api.HandleFunc("/checkout/payment", h.submitPayment).Methods(http.MethodPost)
	api.HandleFunc("/checkout/place", h.placeOrder).Methods(http.MethodPost)
	api.HandleFunc("/checkout/{stage}", h.enterStage).Methods(http.MethodGet)

	api.HandleFunc("/orders", h.listOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/stream", h.streamOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/"+idPattern, h.getOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/"+idPattern+"/track", h.trackOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/"+idPattern+"/status", h.advanceStatus).Methods(http.MethodPost)
	api.HandleFunc("/orders/"+idPattern+"/cancel", h.cancelOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/"+idPattern+"/return", h.requestReturn).Methods(http.MethodPost)
	api.HandleFunc("/orders/"+idPattern+"/payment", h.changePayment).Methods(http.MethodPut)
	api.HandleFunc("/orders/"+idPattern+"/reorder", h.reorder).Methods(http.MethodPost)

	api.HandleFunc("/addresses", h.listAddresses).Methods(http.MethodGet)
	api.HandleFunc("/addresses", h.addAddress).Methods(http.MethodPost)
	api.HandleFunc("/addresses/"+idPattern, h.deleteAddress).Methods(http.MethodDelete)
	api.HandleFunc("/addresses/"+idPattern+"/default", h.setDefaultAddress).Methods(http.MethodPut)

	api.HandleFunc("/payment-methods", h.listPaymentMethods).Methods(http.MethodGet)
	api.HandleFunc("/payment-methods", h.addPaymentMethod).Methods(http.MethodPost)
	api.HandleFunc("/payment-methods/"+idPattern, h.deletePaymentMethod).Methods(http.MethodDelete)

	api.HandleFunc("/notices", h.drainNotices).Methods(http.MethodGet)

	api.HandleFunc("/assistant/recipes", h.suggestRecipes).Methods(http.MethodPost)
	api.HandleFunc("/assistant/shopping-list", h.shoppingList).Methods(http.MethodPost)
	api.HandleFunc("/assistant/recommendations", h.recommendations).Methods(http.MethodGet)

	return logMiddleware(r)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func sessionID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(sessionHeader))
}

func userID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(r.Header.Get(userHeader)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errUserRequired
	}
	return id, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(v); err != nil {
		log.WithError(err).Warn("rejecting malformed request body")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body is not valid JSON"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}

type errorResponse struct {
	Error    string            `json:"error"`
	Redirect string            `json:"redirect,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognised is an upstream
// failure and is reported with its message.
func writeError(w http.ResponseWriter, err error) {
	var redirect *service.RedirectError
	if errors.As(err, &redirect) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Redirect: redirect.Target.String()})
		return
	}
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Fields: validation.Fields})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errUserRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, model.ErrSessionRequired),
		errors.Is(err, errInvalidID),
		errors.Is(err, service.ErrOrderIsEmpty),
		errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrEmptyPrompt):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrProductNotFound),
		errors.Is(err, model.ErrOrderNotFound),
		errors.Is(err, model.ErrAddressNotFound),
		errors.Is(err, model.ErrPaymentMethodNotFound),
		errors.Is(err, service.ErrCartItemNotFound),
		errors.Is(err, service.ErrUnknownStage):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrOrderCannotBeModified),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrCheckoutInProgress),
		errors.Is(err, model.ErrOptimisticLock):
		status = http.StatusConflict
	case errors.Is(err, service.ErrGeneratorOutput):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func logMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		h.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
			"session":    r.Header.Get(sessionHeader),
			"duration":   time.Since(started).String(),
		}).Info("handled request")
	})
}
