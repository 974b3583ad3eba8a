package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"genie-dashboard/internal/domain"
)

// ask handles POST /genie/ask.
func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	var req domain.AskRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.genie.Ask(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// result handles GET /genie/result/{conversationId}/{messageId}.
func (h *Handler) result(w http.ResponseWriter, r *http.Request) {
	res, err := h.genie.GetResult(r.Context(),
		chi.URLParam(r, "conversationId"), chi.URLParam(r, "messageId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
