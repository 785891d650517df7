package transport

import (
	"net/http"

	"github.com/google/uuid"
)

type addToCartRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	h.respondWithCart(w, sessionID(r), http.StatusOK)
}

// addToCart looks the product up in the catalog so the snapshot stored in the cart carries
// the current name and price rather than whatever the client sent.
func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.Catalog.GetProduct(req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Carts.AddToCart(sessionID(r), *product, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	h.respondWithCart(w, sessionID(r), http.StatusOK)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateQuantityRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Carts.UpdateQuantity(sessionID(r), id, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	h.respondWithCart(w, sessionID(r), http.StatusOK)
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Carts.RemoveFromCart(sessionID(r), id); err != nil {
		writeError(w, err)
		return
	}
	h.respondWithCart(w, sessionID(r), http.StatusOK)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Carts.ClearCart(sessionID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondWithCart(w http.ResponseWriter, session string, status int) {
	cart, err := h.Carts.GetCart(session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, newCartResponse(cart))
}

func (h *Handler) drainNotices(w http.ResponseWriter, r *http.Request) {
	session := sessionID(r)
	if session == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "X-Session-ID header is required"})
		return
	}
	writeJSON(w, http.StatusOK, h.Notices.Drain(session))
}
