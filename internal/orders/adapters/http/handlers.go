package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dejobratic/shopkart/internal/apperrors"
	"github.com/dejobratic/shopkart/internal/auth"
	"github.com/dejobratic/shopkart/internal/httpx"
	"github.com/dejobratic/shopkart/internal/orders/app"
	"github.com/dejobratic/shopkart/internal/orders/app/commands"
	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

const idempotencyHeader = "Idempotency-Key"

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service *app.Service
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// Register binds the customer endpoints; auth.Required must run upstream.
func (h *Handler) Register(r chi.Router) {
	r.Get("/checkout", h.checkout)
	r.Post("/orders", h.placeOrder)
	r.Post("/payments/success", h.confirmPayment)
	r.Get("/orders", h.myOrders)
	r.Get("/orders/{id}", h.orderDetails)
	r.Get("/order-success/{id}", h.orderSuccess)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Get("/orders/{id}/invoice", h.invoice)
}

// RegisterOperator binds the staff endpoints; auth.StaffOnly must run upstream.
func (h *Handler) RegisterOperator(r chi.Router) {
	r.Get("/admin/orders", h.listOrders)
	r.Get("/admin/orders/{id}", h.adminOrderDetails)
	r.Post("/admin/orders/{id}/status", h.updateStatus)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	view, err := h.service.Checkout(r.Context(), id.UserID, r.URL.Query().Get("buy_now"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := auth.FromContext(ctx)

	var payload app.PlaceOrderInput
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	// Keys are scoped per user so two customers can never collide on the same value.
	idemKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if idemKey != "" {
		idemKey = id.UserID + ":" + idemKey

		stored, err := h.service.ReserveIdempotencyKey(ctx, idemKey)
		if err != nil {
			httpx.WriteAppError(w, r, err)
			return
		}
		if stored != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(stored.StatusCode)
			_, _ = w.Write(stored.Body)
			return
		}
	}

	result, err := h.service.PlaceOrder(ctx, id.UserID, payload)
	var body []byte
	if err == nil {
		body, err = encode(result)
	}
	if err != nil {
		if idemKey != "" {
			h.service.ReleaseIdempotencyKey(ctx, idemKey)
		}
		httpx.WriteAppError(w, r, err)
		return
	}

	status := http.StatusOK
	orderID := ""
	if result.Order != nil {
		status = http.StatusCreated
		orderID = result.Order.ID
	}

	if idemKey != "" {
		h.service.SaveIdempotentResponse(ctx, idemKey, ports.StoredResponse{StatusCode: status, Body: body, OrderID: orderID})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var payload app.ConfirmPaymentInput
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	result, err := h.service.ConfirmPayment(r.Context(), id.UserID, payload)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) myOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	orders, err := h.service.MyOrders(r.Context(), id.UserID)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) orderDetails(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	order, err := h.service.OrderDetails(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) orderSuccess(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	order, err := h.service.OrderDetails(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Order placed successfully",
		"order":   order,
	})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	order, err := h.service.CancelOrder(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	file, err := h.service.Invoice(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+file.Filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Content)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	filter = filter.Normalize()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"orders":    orders,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

func (h *Handler) adminOrderDetails(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.AdminOrderDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"order": order})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id.UserID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"order": order})
}

func parseListFilter(r *http.Request) (ports.ListFilter, error) {
	q := r.URL.Query()
	filter := ports.ListFilter{}

	if statusParam := strings.TrimSpace(q.Get("status")); statusParam != "" {
		status := domain.Status(strings.ToUpper(statusParam))
		filter.Status = &status
	}

	for name, dst := range map[string]*int{"page": &filter.Page, "page_size": &filter.PageSize} {
		value := q.Get(name)
		if value == "" {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return ports.ListFilter{}, apperrors.Validation(name + " must be a positive integer")
		}
		*dst = n
	}

	return filter, nil
}

func encode(result *commands.PlaceOrderResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
