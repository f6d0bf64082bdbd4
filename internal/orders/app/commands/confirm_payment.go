package commands

import (
	"context"
	"strings"

	"github.com/dejobratic/shopkart/internal/orders/domain"
)

type ConfirmPaymentCommand struct {
	UserID      string
	AddressID   string
	PaymentMode string
	UPIApp      string
	BuyNowToken string
}

type ConfirmPaymentHandler interface {
	Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*PlaceOrderResult, error)
}

type ConfirmPaymentCommandHandler struct {
	placer *Placer
}

func NewConfirmPaymentCommandHandler(placer *Placer) *ConfirmPaymentCommandHandler {
	return &ConfirmPaymentCommandHandler{placer: placer}
}

// Handle finalizes an online order after the payment step reported success.
// The payment itself is verified upstream; this records it and places the order.
func (h *ConfirmPaymentCommandHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*PlaceOrderResult, error) {
	if strings.TrimSpace(cmd.PaymentMode) != "" {
		mode, err := domain.ParsePaymentMode(cmd.PaymentMode)
		if err != nil {
			return nil, err
		}
		if mode != domain.PaymentOnline {
			return nil, domain.ErrInvalidPaymentMode
		}
	}

	order, err := h.placer.place(ctx, placement{
		userID:        cmd.UserID,
		addressID:     strings.TrimSpace(cmd.AddressID),
		buyNowToken:   strings.TrimSpace(cmd.BuyNowToken),
		paymentMode:   domain.PaymentOnline,
		paymentStatus: domain.PaymentSuccess,
		upiApp:        strings.TrimSpace(cmd.UPIApp),
	})
	if err != nil {
		return nil, err
	}

	return &PlaceOrderResult{Order: order, PaymentMode: domain.PaymentOnline, RedirectURL: SuccessURL(order.ID)}, nil
}
