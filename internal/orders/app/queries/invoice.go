package queries

import (
	"context"
	"errors"
	"time"

	"github.com/dejobratic/shopkart/internal/apperrors"
	"github.com/dejobratic/shopkart/internal/invoice"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

type InvoiceQuery struct {
	UserID  string
	OrderID string
}

type InvoiceFile struct {
	Filename string
	Content  []byte
}

type InvoiceQueryHandler struct {
	orders    *GetOrderQueryHandler
	addresses ports.AddressBook
	users     ports.UserDirectory
	renderer  ports.InvoiceRenderer
	brand     string
	now       func() time.Time
}

func NewInvoiceQueryHandler(
	repo ports.OrderRepository,
	addresses ports.AddressBook,
	users ports.UserDirectory,
	renderer ports.InvoiceRenderer,
	brand string,
) *InvoiceQueryHandler {
	return &InvoiceQueryHandler{
		orders:    NewGetOrderQueryHandler(repo),
		addresses: addresses,
		users:     users,
		renderer:  renderer,
		brand:     brand,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Handle renders the invoice of one of the caller's orders.
func (h *InvoiceQueryHandler) Handle(ctx context.Context, query InvoiceQuery) (*InvoiceFile, error) {
	order, err := h.orders.Handle(ctx, GetOrderQuery{OrderID: query.OrderID, UserID: query.UserID})
	if err != nil {
		return nil, err
	}

	customer, err := h.users.Username(ctx, order.UserID)
	if err != nil {
		return nil, err
	}

	doc := invoice.Document{
		Brand:      h.brand,
		OrderID:    order.ID,
		Date:       h.now(),
		Customer:   customer,
		TotalCents: order.TotalCents,
		Items:      make([]invoice.Line, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		doc.Items = append(doc.Items, invoice.Line{
			Name:           item.ProductName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.PriceCents,
		})
	}

	if order.AddressID != "" {
		address, err := h.addresses.Get(ctx, order.UserID, order.AddressID)
		switch {
		case err == nil:
			doc.AddressLines = address.Lines()
		case errors.Is(err, apperrors.ErrNotFound):
		default:
			return nil, err
		}
	}

	content, err := h.renderer.Render(doc)
	if err != nil {
		return nil, err
	}

	return &InvoiceFile{Filename: "invoice_" + order.ID + ".pdf", Content: content}, nil
}
