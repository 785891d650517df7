package transport

import (
	"net/http"

	"storefront/pkg/domain/model"
)

type addressRequest struct {
	Label     string `json:"label"`
	IsDefault bool   `json:"isDefault"`
	model.AddressSnapshot
}

type paymentMethodRequest struct {
	Kind      model.PaymentKind `json:"kind"`
	Label     string            `json:"label"`
	Reference string            `json:"reference"`
}

func (h *Handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	addresses, err := h.Accounts.ListAddresses(user)
	if err != nil {
		writeError(w, err)
		return
	}

	response := make([]addressResponse, 0, len(addresses))
	for _, a := range addresses {
		response = append(response, newAddressResponse(a))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req addressRequest
	if !decode(w, r, &req) {
		return
	}
	address, err := h.Accounts.AddAddress(user, req.Label, req.AddressSnapshot, req.IsDefault)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAddressResponse(*address))
}

func (h *Handler) setDefaultAddress(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	if err := h.Accounts.SetDefaultAddress(user, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	if err := h.Accounts.DeleteAddress(user, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	methods, err := h.Accounts.ListPaymentMethods(user)
	if err != nil {
		writeError(w, err)
		return
	}

	response := make([]paymentMethodResponse, 0, len(methods))
	for _, m := range methods {
		response = append(response, newPaymentMethodResponse(m))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) addPaymentMethod(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req paymentMethodRequest
	if !decode(w, r, &req) {
		return
	}
	method, err := h.Accounts.AddPaymentMethod(user, req.Kind, req.Label, req.Reference)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPaymentMethodResponse(*method))
}

func (h *Handler) deletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.userAndID(w, r)
	if !ok {
		return
	}
	if err := h.Accounts.DeletePaymentMethod(user, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
