package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dejobratic/shopkart/internal/auth"
	"github.com/dejobratic/shopkart/internal/cart/app"
	"github.com/dejobratic/shopkart/internal/cart/domain"
	"github.com/dejobratic/shopkart/internal/httpx"
)

// Handler exposes cart, favourite and buy-now endpoints.
type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

type addRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// RegisterOptional binds the status-string endpoints; they expect auth.Optional upstream
// and answer anonymous callers with a login hint instead of an error.
func (h *Handler) RegisterOptional(r chi.Router) {
	r.Post("/cart", h.addToCart)
	r.Post("/favourites", h.addFavourite)
	r.Post("/buy-now", h.buyNow)
}

// Register binds the endpoints that require an authenticated user.
func (h *Handler) Register(r chi.Router) {
	r.Get("/cart", h.cart)
	r.Delete("/cart/{id}", h.removeCartLine)
	r.Get("/favourites", h.favourites)
	r.Delete("/favourites/{id}", h.removeFavourite)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.WriteStatus(w, string(domain.OutcomeLoginToAddCart))
		return
	}

	var req addRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteStatus(w, string(domain.OutcomeInvalidRequest))
		return
	}

	outcome, err := h.service.AddToCart(r.Context(), id.UserID, req.ProductID, req.Quantity)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteStatus(w, string(outcome))
}

func (h *Handler) addFavourite(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.WriteStatus(w, string(domain.OutcomeLoginToAddFav))
		return
	}

	var req addRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteStatus(w, string(domain.OutcomeInvalidRequest))
		return
	}

	outcome, err := h.service.AddFavourite(r.Context(), id.UserID, req.ProductID)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteStatus(w, string(outcome))
}

func (h *Handler) buyNow(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"login_required": true})
		return
	}

	var req addRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	sel, err := h.service.BuyNow(r.Context(), id.UserID, req.ProductID, req.Quantity)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"login_required": false,
		"token":          sel.Token,
		"expires_at":     sel.ExpiresAt,
		"checkout_url":   "/v1/checkout?buy_now=" + sel.Token,
	})
}

func (h *Handler) cart(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	view, err := h.service.Cart(r.Context(), id.UserID)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) removeCartLine(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if err := h.service.RemoveCartLine(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) favourites(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	favs, err := h.service.Favourites(r.Context(), id.UserID)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"favourites": favs})
}

func (h *Handler) removeFavourite(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if err := h.service.RemoveFavourite(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
