package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"genie-dashboard/internal/domain"
)

func (h *Handler) createWidget(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateWidgetRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	widget, err := h.widgets.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/widgets/"+widget.ID)
	writeJSON(w, http.StatusCreated, widget)
}

func (h *Handler) listWidgets(w http.ResponseWriter, r *http.Request) {
	widgets, err := h.widgets.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if widgets == nil {
		widgets = []domain.Widget{}
	}
	writeJSON(w, http.StatusOK, widgets)
}

func (h *Handler) getWidget(w http.ResponseWriter, r *http.Request) {
	widget, err := h.widgets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, widget)
}

func (h *Handler) updateWidget(w http.ResponseWriter, r *http.Request) {
	var patch domain.WidgetPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	widget, err := h.widgets.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, widget)
}

func (h *Handler) deleteWidget(w http.ResponseWriter, r *http.Request) {
	if err := h.widgets.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// widgetData handles GET /query/{id}/data. The widget's SQL runs on every
// request.
func (h *Handler) widgetData(w http.ResponseWriter, r *http.Request) {
	res, err := h.queries.ExecuteWidget(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
