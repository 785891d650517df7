package transport

import (
	"net/http"

	"storefront/pkg/domain/model"
)

var productOrders = map[string]model.ProductOrder{
	"":           model.OrderByName,
	"name":       model.OrderByName,
	"price_asc":  model.OrderByPriceAsc,
	"price_desc": model.OrderByPriceDesc,
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	order, ok := productOrders[r.URL.Query().Get("sort")]
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "sort must be name, price_asc or price_desc"})
		return
	}

	products, err := h.Catalog.ListProducts(model.ProductFilter{
		Category: r.URL.Query().Get("category"),
		OrderBy:  order,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	response := make([]productResponse, 0, len(products))
	for _, p := range products {
		response = append(response, newProductResponse(p))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	product, err := h.Catalog.GetProduct(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(*product))
}
