package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dejobratic/shopkart/internal/accounts/app"
	"github.com/dejobratic/shopkart/internal/httpx"
)

type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in app.RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	user, err := h.service.Register(r.Context(), in)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	session, err := h.service.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}
