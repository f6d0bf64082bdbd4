package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dejobratic/shopkart/internal/catalog/app"
	"github.com/dejobratic/shopkart/internal/httpx"
)

// Handler exposes the public catalog endpoints.
type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// Register binds the catalog routes; none of them require authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{name}/products", h.productsInCategory)
	r.Get("/categories/{category}/products/{product}", h.productDetails)
	r.Get("/products/trending", h.trending)
	r.Get("/products/{id}", h.productByID)
	r.Get("/search", h.search)
	r.Get("/search/suggestions", h.suggestions)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) productsInCategory(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.ProductsInCategory(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) productDetails(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.ProductDetails(r.Context(), chi.URLParam(r, "category"), chi.URLParam(r, "product"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *Handler) trending(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Trending(r.Context())
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) productByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.ProductByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.service.Search(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	suggestions, err := h.service.Suggestions(r.Context(), q.Get("term"), q.Get("category"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}
