package transport

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"storefront/pkg/domain/model"
	"storefront/pkg/domain/service"
)

type reasonRequest struct {
	Reason string `json:"reason"`
}

type statusRequest struct {
	Status model.OrderStatus `json:"status"`
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	orders, err := h.Orders.ListOrders(user)
	if err != nil {
		writeError(w, err)
		return
	}

	now := h.now()
	response := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		response = append(response, newOrderResponse(order, now))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(*order, h.now()))
}

func (h *Handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, service.Present(string(order.Status)))
}

// advanceStatus is the fulfilment side's hook for moving an order along; it is not scoped
// to the requesting user.
func (h *Handler) advanceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Orders.AdvanceStatus(id, req.Status); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, h.Orders.CancelOrder)
}

func (h *Handler) requestReturn(w http.ResponseWriter, r *http.Request) {
	h.withReason(w, r, h.Orders.RequestReturn)
}

func (h *Handler) changePayment(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	var payment model.PaymentSelection
	if !decode(w, r, &payment) {
		return
	}
	if err := h.Orders.ChangePaymentMethod(user, id, payment); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	result, err := h.Orders.Reorder(user, id, sessionID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// streamOrders pushes the user's order status changes as server-sent events until the
// client goes away.
func (h *Handler) streamOrders(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming is not supported"})
		return
	}

	updates, unsubscribe := h.Feed.Subscribe(user)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case update, open := <-updates:
			if !open {
				return
			}
			data, err := json.Marshal(update)
			if err != nil {
				log.WithError(err).Error("failed to encode order update")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: order-status\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) withReason(w http.ResponseWriter, r *http.Request, action func(userID, orderID uuid.UUID, reason string) error) {
	user, id, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	var req reasonRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	if err := action(user, id, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadOrder(w http.ResponseWriter, r *http.Request) (*model.Order, bool) {
	user, id, ok := h.userAndID(w, r)
	if !ok {
		return nil, false
	}
	order, err := h.Orders.GetOrder(user, id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return order, true
}

func (h *Handler) userAndID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return uuid.Nil, uuid.Nil, false
	}
	return user, id, true
}
