package commands

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/shopkart/internal/orders/domain"
	"github.com/dejobratic/shopkart/internal/orders/metrics"
	"github.com/dejobratic/shopkart/internal/telemetry"
)

type ObservablePlaceOrderHandler struct {
	handler PlaceOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservablePlaceOrderHandler(handler PlaceOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservablePlaceOrderHandler {
	return &ObservablePlaceOrderHandler{handler: handler, logger: logger, metrics: metrics}
}

func (o *ObservablePlaceOrderHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "PlaceOrderCommand.Handle")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("user.id", cmd.UserID),
		attribute.String("order.payment_mode", cmd.PaymentMode),
		attribute.Bool("order.buy_now", cmd.BuyNowToken != ""),
	)

	o.logger.InfoContext(ctx, "placing order",
		"user_id", cmd.UserID,
		"payment_mode", cmd.PaymentMode,
		"buy_now", cmd.BuyNowToken != "",
	)

	start := time.Now()
	result, err := o.handler.Handle(ctx, cmd)
	o.metrics.RecordPlacementDuration(ctx, time.Since(start).Seconds())

	if err != nil {
		mode, _ := domain.ParsePaymentMode(cmd.PaymentMode)
		o.metrics.RecordOrderPlaced(ctx, string(mode), false)
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to place order", "error", err, "user_id", cmd.UserID)
		return nil, err
	}

	// Online checkout only redirects here; the order is counted when payment is confirmed.
	if result.Order == nil {
		o.logger.InfoContext(ctx, "redirecting to payment", "user_id", cmd.UserID)
		telemetry.AddSpanEvent(span, "payment.redirect", attribute.String("redirect", result.RedirectURL))
		telemetry.SetSpanSuccess(span)
		return result, nil
	}

	o.metrics.RecordOrderPlaced(ctx, string(result.Order.PaymentMode), true)
	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", result.Order.ID),
		attribute.Int64("order.total_cents", result.Order.TotalCents),
		attribute.Int("order.items", len(result.Order.Items)),
	)
	o.logger.InfoContext(ctx, "order placed",
		"order_id", result.Order.ID,
		"user_id", cmd.UserID,
		"total_cents", result.Order.TotalCents,
	)

	telemetry.SetSpanSuccess(span)
	return result, nil
}

type ObservableConfirmPaymentHandler struct {
	handler ConfirmPaymentHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableConfirmPaymentHandler(handler ConfirmPaymentHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableConfirmPaymentHandler {
	return &ObservableConfirmPaymentHandler{handler: handler, logger: logger, metrics: metrics}
}

func (o *ObservableConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*PlaceOrderResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "ConfirmPaymentCommand.Handle")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("user.id", cmd.UserID),
		attribute.String("payment.upi_app", cmd.UPIApp),
	)

	start := time.Now()
	result, err := o.handler.Handle(ctx, cmd)
	o.metrics.RecordPlacementDuration(ctx, time.Since(start).Seconds())
	o.metrics.RecordOrderPlaced(ctx, string(domain.PaymentOnline), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to place paid order", "error", err, "user_id", cmd.UserID)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.String("order.id", result.Order.ID))
	o.logger.InfoContext(ctx, "paid order placed",
		"order_id", result.Order.ID,
		"user_id", cmd.UserID,
		"upi_app", cmd.UPIApp,
	)

	telemetry.SetSpanSuccess(span)
	return result, nil
}

type ObservableCancelOrderHandler struct {
	handler CancelOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCancelOrderHandler(handler CancelOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCancelOrderHandler {
	return &ObservableCancelOrderHandler{handler: handler, logger: logger, metrics: metrics}
}

func (o *ObservableCancelOrderHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*StatusChange, error) {
	ctx, span := telemetry.StartSpan(ctx, "CancelOrderCommand.Handle")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", cmd.OrderID),
		attribute.String("user.id", cmd.UserID),
	)

	change, err := o.handler.Handle(ctx, cmd)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.WarnContext(ctx, "order not cancelled", "error", err, "order_id", cmd.OrderID)
		return nil, err
	}

	o.metrics.RecordStatusTransition(ctx, string(change.From), string(change.Order.Status), "customer")
	o.logger.InfoContext(ctx, "order cancelled", "order_id", change.Order.ID, "user_id", cmd.UserID)

	telemetry.SetSpanSuccess(span)
	return change, nil
}

type ObservableUpdateStatusHandler struct {
	handler UpdateStatusHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableUpdateStatusHandler(handler UpdateStatusHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableUpdateStatusHandler {
	return &ObservableUpdateStatusHandler{handler: handler, logger: logger, metrics: metrics}
}

func (o *ObservableUpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*StatusChange, error) {
	ctx, span := telemetry.StartSpan(ctx, "UpdateStatusCommand.Handle")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order.target_status", cmd.Status),
		attribute.String("operator.id", cmd.OperatorID),
	)

	change, err := o.handler.Handle(ctx, cmd)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.WarnContext(ctx, "order status not updated", "error", err, "order_id", cmd.OrderID, "target", cmd.Status)
		return nil, err
	}

	o.metrics.RecordStatusTransition(ctx, string(change.From), string(change.Order.Status), "operator")
	telemetry.AddSpanEvent(span, "order.status_changed",
		attribute.String("from", string(change.From)),
		attribute.String("to", string(change.Order.Status)),
	)
	o.logger.InfoContext(ctx, "order status updated",
		"order_id", change.Order.ID,
		"from", change.From,
		"to", change.Order.Status,
		"operator_id", cmd.OperatorID,
	)

	telemetry.SetSpanSuccess(span)
	return change, nil
}
