package adapters

import (
	"context"

	cartapp "github.com/dejobratic/shopkart/internal/cart/app"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

// Selections reads checkout input from the cart service without consuming it.
type Selections struct {
	cart *cartapp.Service
}

func NewSelections(cart *cartapp.Service) *Selections {
	return &Selections{cart: cart}
}

func (s *Selections) CartLines(ctx context.Context, userID string) ([]ports.Line, error) {
	lines, err := s.cart.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]ports.Line, 0, len(lines))
	for _, l := range lines {
		result = append(result, ports.Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return result, nil
}

func (s *Selections) BuyNow(ctx context.Context, userID, token string) (ports.Line, error) {
	sel, err := s.cart.Selection(ctx, userID, token)
	if err != nil {
		return ports.Line{}, err
	}
	return ports.Line{ProductID: sel.ProductID, Quantity: sel.Quantity}, nil
}
