package queries

import (
	"context"
	"strings"

	addressdomain "github.com/dejobratic/shopkart/internal/addresses/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

type CheckoutQuery struct {
	UserID      string
	BuyNowToken string
}

type CheckoutLine struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Image          string `json:"image,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
	Available      bool   `json:"available"`
}

// CheckoutView previews what placing an order would buy, at current prices.
type CheckoutView struct {
	Items       []CheckoutLine          `json:"items"`
	TotalCents  int64                   `json:"total_cents"`
	Addresses   []addressdomain.Address `json:"addresses"`
	BuyNowToken string                  `json:"buy_now_token,omitempty"`
}

type CheckoutQueryHandler struct {
	selections ports.SelectionReader
	catalog    ports.ProductCatalog
	addresses  ports.AddressBook
}

func NewCheckoutQueryHandler(selections ports.SelectionReader, catalog ports.ProductCatalog, addresses ports.AddressBook) *CheckoutQueryHandler {
	return &CheckoutQueryHandler{selections: selections, catalog: catalog, addresses: addresses}
}

// Handle reads the buy-now selection when a token is given, the cart otherwise. Nothing is consumed.
func (h *CheckoutQueryHandler) Handle(ctx context.Context, query CheckoutQuery) (*CheckoutView, error) {
	token := strings.TrimSpace(query.BuyNowToken)

	var lines []ports.Line
	if token != "" {
		line, err := h.selections.BuyNow(ctx, query.UserID, token)
		if err != nil {
			return nil, err
		}
		lines = []ports.Line{line}
	} else {
		cart, err := h.selections.CartLines(ctx, query.UserID)
		if err != nil {
			return nil, err
		}
		lines = cart
	}
	if len(lines) == 0 {
		return nil, ports.ErrEmptyCart
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := h.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &CheckoutView{BuyNowToken: token, Items: make([]CheckoutLine, 0, len(lines))}
	for _, l := range lines {
		product, ok := products[l.ProductID]
		if !ok {
			continue
		}
		item := CheckoutLine{
			ProductID:      product.ID,
			Name:           product.Name,
			Image:          product.Image,
			Quantity:       l.Quantity,
			UnitPriceCents: product.SellingPriceCents,
			LineTotalCents: int64(l.Quantity) * product.SellingPriceCents,
			Available:      product.Visible && product.InStock(l.Quantity),
		}
		view.Items = append(view.Items, item)
		view.TotalCents += item.LineTotalCents
	}
	if len(view.Items) == 0 {
		return nil, ports.ErrEmptyCart
	}

	view.Addresses, err = h.addresses.List(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	if view.Addresses == nil {
		view.Addresses = []addressdomain.Address{}
	}

	return view, nil
}
