package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dejobratic/shopkart/internal/addresses/app"
	"github.com/dejobratic/shopkart/internal/auth"
	"github.com/dejobratic/shopkart/internal/httpx"
)

type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// Register binds the address book routes; callers must be authenticated.
func (h *Handler) Register(r chi.Router) {
	r.Get("/addresses", h.list)
	r.Post("/addresses", h.save)
	r.Delete("/addresses/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	addresses, err := h.service.List(r.Context(), id.UserID)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"addresses": addresses})
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var in app.SaveInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	address, err := h.service.Save(r.Context(), id.UserID, in)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	status := http.StatusCreated
	if in.ID != "" {
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, map[string]any{"address": address})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if err := h.service.Delete(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
