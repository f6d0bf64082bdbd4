package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dejobratic/shopkart/internal/apperrors"
	catalogdomain "github.com/dejobratic/shopkart/internal/catalog/domain"
	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

// Placer turns a cart or a buy-now selection into an order inside one unit of work.
// Shared by the cash-on-delivery path and online payment confirmation.
type Placer struct {
	uow        ports.UnitOfWork
	addresses  ports.AddressBook
	selections ports.SelectionReader
	catalog    ports.ProductCatalog
	events    ports.EventBus
	logger    *slog.Logger
	now       func() time.Time
}

func NewPlacer(uow ports.UnitOfWork, addresses ports.AddressBook, events ports.EventBus, logger *slog.Logger) *Placer {
	return &Placer{
		uow:       uow,
		addresses: addresses,
		events:    events,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source.
func (p *Placer) WithClock(now func() time.Time) *Placer {
	p.now = now
	return p
}

// WithPreflight lets online checkout verify the lines before sending the shopper to pay.
func (p *Placer) WithPreflight(selections ports.SelectionReader, catalog ports.ProductCatalog) *Placer {
	p.selections = selections
	p.catalog = catalog
	return p
}

type placement struct {
	userID        string
	addressID     string
	buyNowToken   string
	paymentMode   domain.PaymentMode
	paymentStatus domain.PaymentStatus
	upiApp        string
}

// checkAddress resolves the address outside the transaction so bad input fails before any locking.
func (p *Placer) checkAddress(ctx context.Context, userID, addressID string) error {
	if addressID == "" {
		return ports.ErrAddressMissing
	}
	if _, err := p.addresses.Get(ctx, userID, addressID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrForbidden) {
			return ports.ErrUnknownAddress
		}
		return err
	}
	return nil
}

// preflight runs the availability checks of place without locking or writing.
// Placement repeats them under locks, so this only fails early.
func (p *Placer) preflight(ctx context.Context, userID, token string) error {
	if p.selections == nil || p.catalog == nil {
		return nil
	}

	var lines []ports.Line
	if token != "" {
		line, err := p.selections.BuyNow(ctx, userID, token)
		if err != nil {
			return err
		}
		lines = []ports.Line{line}
	} else {
		var err error
		if lines, err = p.selections.CartLines(ctx, userID); err != nil {
			return err
		}
		if len(lines) == 0 {
			return ports.ErrEmptyCart
		}
	}

	products, err := p.catalog.ProductsByIDs(ctx, lineProductIDs(lines))
	if err != nil {
		return err
	}
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if err := available(product, ok, line); err != nil {
			return err
		}
	}
	return nil
}

func available(product catalogdomain.Product, found bool, line ports.Line) error {
	if !found || !product.Visible {
		return apperrors.Newf(apperrors.ErrConflict, "product %s is no longer available", line.ProductID)
	}
	if !product.InStock(line.Quantity) {
		return apperrors.Newf(apperrors.ErrConflict, "insufficient stock for %s", product.Name)
	}
	return nil
}

func (p *Placer) place(ctx context.Context, in placement) (*domain.Order, error) {
	if err := p.checkAddress(ctx, in.userID, in.addressID); err != nil {
		return nil, err
	}

	now := p.now()
	var placed domain.Order

	err := p.uow.Do(ctx, func(ctx context.Context, tx ports.CheckoutTx) error {
		lines, fromBuyNow, err := resolveLines(ctx, tx, in, now)
		if err != nil {
			return err
		}

		owned, err := tx.AddressBelongsTo(ctx, in.userID, in.addressID)
		if err != nil {
			return err
		}
		if !owned {
			return ports.ErrUnknownAddress
		}

		products, err := tx.LockProducts(ctx, lineProductIDs(lines))
		if err != nil {
			return err
		}

		items := make([]domain.Item, 0, len(lines))
		for _, line := range lines {
			product, ok := products[line.ProductID]
			if err := available(product, ok, line); err != nil {
				return err
			}
			items = append(items, domain.Item{
				ID:          uuid.NewString(),
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				PriceCents:  product.SellingPriceCents,
			})
		}

		order := domain.Order{
			ID:            uuid.NewString(),
			UserID:        in.userID,
			AddressID:     in.addressID,
			TotalCents:    domain.ItemsTotal(items),
			PaymentMode:   in.paymentMode,
			PaymentStatus: in.paymentStatus,
			UPIApp:        in.upiApp,
			Status:        domain.StatusPlaced,
			Items:         items,
			CreatedAt:     now,
			UpdatedAt:     now,
			PlacedAt:      now,
		}
		if err := order.Validate(); err != nil {
			return err
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := tx.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if !fromBuyNow {
			if err := tx.ClearCart(ctx, in.userID); err != nil {
				return err
			}
		}

		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := p.events.PublishOrderPlaced(ctx, placed); err != nil {
		p.logger.WarnContext(ctx, "order placed but event was not published", "order_id", placed.ID, "error", err)
	}

	return &placed, nil
}

// resolveLines prefers the buy-now selection over the cart.
func resolveLines(ctx context.Context, tx ports.CheckoutTx, in placement, now time.Time) ([]ports.Line, bool, error) {
	if in.buyNowToken != "" {
		line, err := tx.TakeBuyNow(ctx, in.userID, in.buyNowToken, now)
		if err != nil {
			return nil, true, err
		}
		return []ports.Line{line}, true, nil
	}

	lines, err := tx.CartLines(ctx, in.userID)
	if err != nil {
		return nil, false, err
	}
	if len(lines) == 0 {
		return nil, false, ports.ErrEmptyCart
	}
	return lines, false, nil
}

func lineProductIDs(lines []ports.Line) []string {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}
