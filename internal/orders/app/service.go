package app

import (
	"context"
	"log/slog"

	"github.com/dejobratic/shopkart/internal/orders/app/commands"
	"github.com/dejobratic/shopkart/internal/orders/app/queries"
	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/metrics"
	"github.com/dejobratic/shopkart/internal/orders/ports"
)

// Deps lists what the order use cases need from the rest of the storefront.
type Deps struct {
	Repo       ports.OrderRepository
	UnitOfWork ports.UnitOfWork
	Selections ports.SelectionReader
	Catalog    ports.ProductCatalog
	Addresses  ports.AddressBook
	Users      ports.UserDirectory
	Events     ports.EventBus
	Invoices   ports.InvoiceRenderer
	Idempotent ports.IdempotencyStore
	Policy     domain.TransitionPolicy
	Brand      string
}

// Service bundles use cases for handling orders via the API.
type Service struct {
	idemStore ports.IdempotencyStore
	logger    *slog.Logger

	placeOrder     commands.PlaceOrderHandler
	confirmPayment commands.ConfirmPaymentHandler
	cancelOrder    commands.CancelOrderHandler
	updateStatus   commands.UpdateStatusHandler

	getOrder   *queries.GetOrderQueryHandler
	listOrders *queries.ListOrdersQueryHandler
	checkout   *queries.CheckoutQueryHandler
	invoice    *queries.InvoiceQueryHandler
}

// NewService wires required dependencies.
func NewService(deps Deps, logger *slog.Logger, metrics *metrics.Metrics) *Service {
	placer := commands.NewPlacer(deps.UnitOfWork, deps.Addresses, deps.Events, logger).
		WithPreflight(deps.Selections, deps.Catalog)

	return &Service{
		idemStore: deps.Idempotent,
		logger:    logger,

		placeOrder: commands.NewObservablePlaceOrderHandler(
			commands.NewPlaceOrderCommandHandler(placer), logger, metrics),
		confirmPayment: commands.NewObservableConfirmPaymentHandler(
			commands.NewConfirmPaymentCommandHandler(placer), logger, metrics),
		cancelOrder: commands.NewObservableCancelOrderHandler(
			commands.NewCancelOrderCommandHandler(deps.Repo, deps.Events, logger), logger, metrics),
		updateStatus: commands.NewObservableUpdateStatusHandler(
			commands.NewUpdateStatusCommandHandler(deps.Repo, deps.Events, deps.Policy, logger), logger, metrics),

		getOrder:   queries.NewGetOrderQueryHandler(deps.Repo),
		listOrders: queries.NewListOrdersQueryHandler(deps.Repo),
		checkout:   queries.NewCheckoutQueryHandler(deps.Selections, deps.Catalog, deps.Addresses),
		invoice:    queries.NewInvoiceQueryHandler(deps.Repo, deps.Addresses, deps.Users, deps.Invoices, deps.Brand),
	}
}

// PlaceOrderInput captures the place-order payload.
type PlaceOrderInput struct {
	AddressID   string `json:"address_id"`
	PaymentMode string `json:"payment_mode"`
	BuyNowToken string `json:"buy_now"`
}

// ConfirmPaymentInput captures the payment-success payload.
type ConfirmPaymentInput struct {
	AddressID   string `json:"address_id"`
	PaymentMode string `json:"payment_mode"`
	UPIApp      string `json:"upi_app"`
	BuyNowToken string `json:"buy_now"`
}

func (s *Service) Checkout(ctx context.Context, userID, buyNowToken string) (*queries.CheckoutView, error) {
	return s.checkout.Handle(ctx, queries.CheckoutQuery{UserID: userID, BuyNowToken: buyNowToken})
}

// PlaceOrder creates a cash-on-delivery order or redirects online payments to the payment step.
func (s *Service) PlaceOrder(ctx context.Context, userID string, input PlaceOrderInput) (*commands.PlaceOrderResult, error) {
	return s.placeOrder.Handle(ctx, commands.PlaceOrderCommand{
		UserID:      userID,
		AddressID:   input.AddressID,
		PaymentMode: input.PaymentMode,
		BuyNowToken: input.BuyNowToken,
	})
}

// ConfirmPayment places an order that has been paid online.
func (s *Service) ConfirmPayment(ctx context.Context, userID string, input ConfirmPaymentInput) (*commands.PlaceOrderResult, error) {
	return s.confirmPayment.Handle(ctx, commands.ConfirmPaymentCommand{
		UserID:      userID,
		AddressID:   input.AddressID,
		PaymentMode: input.PaymentMode,
		UPIApp:      input.UPIApp,
		BuyNowToken: input.BuyNowToken,
	})
}

func (s *Service) CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	change, err := s.cancelOrder.Handle(ctx, commands.CancelOrderCommand{UserID: userID, OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return change.Order, nil
}

func (s *Service) UpdateStatus(ctx context.Context, operatorID, orderID, status string) (*domain.Order, error) {
	change, err := s.updateStatus.Handle(ctx, commands.UpdateStatusCommand{
		OperatorID: operatorID,
		OrderID:    orderID,
		Status:     status,
	})
	if err != nil {
		return nil, err
	}
	return change.Order, nil
}

// OrderDetails returns one of the user's orders.
func (s *Service) OrderDetails(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{OrderID: orderID, UserID: userID})
}

// AdminOrderDetails returns any order.
func (s *Service) AdminOrderDetails(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{OrderID: orderID, Operator: true})
}

func (s *Service) MyOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.listOrders.Mine(ctx, userID)
}

// ListOrders returns orders using a filter.
func (s *Service) ListOrders(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	return s.listOrders.All(ctx, filter)
}

func (s *Service) Invoice(ctx context.Context, userID, orderID string) (*queries.InvoiceFile, error) {
	return s.invoice.Handle(ctx, queries.InvoiceQuery{UserID: userID, OrderID: orderID})
}

// ReserveIdempotencyKey claims key for this request. It returns nil when the caller should go ahead,
// the finished response to replay, or ErrRequestInProgress while the first request is still running.
func (s *Service) ReserveIdempotencyKey(ctx context.Context, key string) (*ports.StoredResponse, error) {
	existing, err := s.idemStore.Reserve(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Pending() {
		return nil, ports.ErrRequestInProgress
	}
	return existing, nil
}

// SaveIdempotentResponse completes a claim. The order is already committed, so a failure is only logged.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) {
	if err := s.idemStore.Save(ctx, key, response); err != nil {
		s.logger.WarnContext(ctx, "idempotent response not stored", "error", err, "order_id", response.OrderID)
	}
}

// ReleaseIdempotencyKey frees a claim after a failed request so the client can retry with the same key.
func (s *Service) ReleaseIdempotencyKey(ctx context.Context, key string) {
	if err := s.idemStore.Release(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "idempotency key not released", "error", err)
	}
}
