package transport

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"storefront/pkg/domain/model"
	"storefront/pkg/domain/service"
)

type shippingRequest struct {
	AddressID uuid.UUID             `json:"addressId"`
	Address   model.AddressSnapshot `json:"address"`
	Method    model.ShippingMethod  `json:"method"`
	PromoCode string                `json:"promoCode"`
}

func (h *Handler) enterStage(w http.ResponseWriter, r *http.Request) {
	stage, ok := model.ParseStage(mux.Vars(r)["stage"])
	if !ok {
		writeError(w, service.ErrUnknownStage)
		return
	}
	view, err := h.Checkout.Enter(sessionID(r), stage)
	h.respondWithStage(w, view, err)
}

func (h *Handler) confirmItems(w http.ResponseWriter, r *http.Request) {
	view, err := h.Checkout.ConfirmItems(sessionID(r))
	h.respondWithStage(w, view, err)
}

func (h *Handler) submitShipping(w http.ResponseWriter, r *http.Request) {
	var req shippingRequest
	if !decode(w, r, &req) {
		return
	}

	details := model.ShippingDetails{Address: req.Address, Method: req.Method, PromoCode: req.PromoCode}
	if req.AddressID != uuid.Nil {
		user, err := userID(r)
		if err != nil {
			writeError(w, err)
			return
		}
		saved, err := h.Accounts.GetAddress(user, req.AddressID)
		if err != nil {
			writeError(w, err)
			return
		}
		details.Address = saved.AddressSnapshot
	}

	view, err := h.Checkout.SubmitShipping(sessionID(r), details)
	h.respondWithStage(w, view, err)
}

func (h *Handler) submitPayment(w http.ResponseWriter, r *http.Request) {
	var payment model.PaymentSelection
	if !decode(w, r, &payment) {
		return
	}

	if payment.SavedMethodID != uuid.Nil {
		user, err := userID(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if payment, err = h.Accounts.ResolvePayment(user, payment); err != nil {
			writeError(w, err)
			return
		}
	}

	view, err := h.Checkout.SubmitPayment(sessionID(r), payment)
	h.respondWithStage(w, view, err)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	order, err := h.Checkout.PlaceOrder(sessionID(r), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderResponse(*order, h.now()))
}

func (h *Handler) abandonCheckout(w http.ResponseWriter, r *http.Request) {
	if err := h.Checkout.Abandon(sessionID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondWithStage(w http.ResponseWriter, view *service.StageView, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStageResponse(view))
}
