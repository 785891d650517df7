package transport

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"storefront/pkg/domain/model"
	"storefront/pkg/domain/service"
)

func (h *Handler) suggestRecipes(w http.ResponseWriter, r *http.Request) {
	var req service.RecipeRequest
	if !decode(w, r, &req) {
		return
	}
	recipes, err := h.Assistant.SuggestRecipes(req)
	h.respondFromAssistant(w, map[string]interface{}{"recipes": recipes}, err)
}

func (h *Handler) shoppingList(w http.ResponseWriter, r *http.Request) {
	var req service.ShoppingListRequest
	if !decode(w, r, &req) {
		return
	}
	items, err := h.Assistant.GenerateShoppingList(req)
	h.respondFromAssistant(w, map[string]interface{}{"items": items}, err)
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	products, err := h.Assistant.RecommendProducts(sessionID(r))
	h.respondFromAssistant(w, map[string]interface{}{"products": products}, err)
}

// respondFromAssistant reports generator failures as a bad gateway; the input-side errors
// keep their usual mapping.
func (h *Handler) respondFromAssistant(w http.ResponseWriter, body interface{}, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, body)
	case errors.Is(err, service.ErrEmptyPrompt),
		errors.Is(err, service.ErrGeneratorOutput),
		errors.Is(err, model.ErrSessionRequired):
		writeError(w, err)
	default:
		log.WithError(err).Error("assistant request failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
}
