package commands

import (
	"context"
	"net/url"
	"strings"

	"github.com/dejobratic/shopkart/internal/orders/domain"
)

type PlaceOrderCommand struct {
	UserID      string
	AddressID   string
	PaymentMode string
	BuyNowToken string
}

// PlaceOrderResult carries the created order, or only a redirect when payment happens first.
type PlaceOrderResult struct {
	Order       *domain.Order      `json:"order,omitempty"`
	PaymentMode domain.PaymentMode `json:"payment_mode"`
	RedirectURL string             `json:"redirect"`
}

type PlaceOrderHandler interface {
	Handle(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error)
}

type PlaceOrderCommandHandler struct {
	placer *Placer
}

func NewPlaceOrderCommandHandler(placer *Placer) *PlaceOrderCommandHandler {
	return &PlaceOrderCommandHandler{placer: placer}
}

// Handle creates a cash-on-delivery order right away. Online orders are only created once
// payment is confirmed, so they are checked read-only and get a redirect to the payment step.
func (h *PlaceOrderCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error) {
	mode, err := domain.ParsePaymentMode(cmd.PaymentMode)
	if err != nil {
		return nil, err
	}

	addressID := strings.TrimSpace(cmd.AddressID)
	token := strings.TrimSpace(cmd.BuyNowToken)

	if mode == domain.PaymentOnline {
		if err := h.placer.checkAddress(ctx, cmd.UserID, addressID); err != nil {
			return nil, err
		}
		if err := h.placer.preflight(ctx, cmd.UserID, token); err != nil {
			return nil, err
		}
		return &PlaceOrderResult{PaymentMode: mode, RedirectURL: paymentURL(addressID, token)}, nil
	}

	order, err := h.placer.place(ctx, placement{
		userID:        cmd.UserID,
		addressID:     addressID,
		buyNowToken:   token,
		paymentMode:   domain.PaymentCashOnDelivery,
		paymentStatus: domain.PaymentPending,
	})
	if err != nil {
		return nil, err
	}

	return &PlaceOrderResult{Order: order, PaymentMode: mode, RedirectURL: SuccessURL(order.ID)}, nil
}

// SuccessURL is where the client lands after an order is created.
func SuccessURL(orderID string) string {
	return "/order-success/" + url.PathEscape(orderID)
}

func paymentURL(addressID, token string) string {
	q := url.Values{}
	q.Set("address_id", addressID)
	if token != "" {
		q.Set("buy_now", token)
	}
	return "/payment?" + q.Encode()
}
